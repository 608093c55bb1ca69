// Package notify concentra los efectos secundarios posteriores a una mutación del
// ledger: diario de movimientos, eventos de ciclo de vida y alertas de stock bajo.
// Todo es best-effort: un fallo aquí se registra y nunca revierte la mutación.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventory-movements/internal/application/ports"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
	"github.com/rs/zerolog"
)

// Dispatcher publica eventos, registra movimientos y detecta stock bajo.
type Dispatcher struct {
	publisher ports.EventPublisher
	movements repository.InventoryMovementRepository
	items     repository.ItemRepository
	log       zerolog.Logger
	now       func() time.Time
}

// NewDispatcher construye el dispatcher. movements e items pueden ser nil.
func NewDispatcher(
	publisher ports.EventPublisher,
	movements repository.InventoryMovementRepository,
	items repository.ItemRepository,
	log zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		movements: movements,
		items:     items,
		log:       log,
		now:       time.Now,
	}
}

// Publish emite un evento con id y fecha asignados.
func (d *Dispatcher) Publish(ctx context.Context, eventType, subject string, data map[string]any) {
	if d == nil || d.publisher == nil {
		return
	}
	ev := entity.Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		Subject:    subject,
		OccurredAt: d.now(),
		Data:       data,
	}
	if err := d.publisher.Publish(ctx, ev); err != nil {
		d.log.Warn().Err(err).Str("event_type", eventType).Str("subject", subject).Msg("publicar evento")
	}
}

// RecordMovements persiste entradas del diario de auditoría.
func (d *Dispatcher) RecordMovements(ctx context.Context, movements ...*entity.InventoryMovement) {
	if d == nil || d.movements == nil {
		return
	}
	for _, m := range movements {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = d.now()
		}
		if err := d.movements.Create(ctx, m); err != nil {
			d.log.Error().Err(err).
				Str("item_id", m.ItemID).
				Str("location_id", m.LocationID).
				Str("reference", m.Reference).
				Msg("registrar movimiento de inventario")
		}
	}
}

// CheckLowStock publica stock.low por cada celda que quedó por debajo del mínimo del ítem.
func (d *Dispatcher) CheckLowStock(ctx context.Context, cells ...*entity.StockCell) {
	if d == nil || d.items == nil || len(cells) == 0 {
		return
	}
	ids := make([]string, 0, len(cells))
	seen := make(map[string]bool, len(cells))
	for _, c := range cells {
		if !seen[c.ItemID] {
			seen[c.ItemID] = true
			ids = append(ids, c.ItemID)
		}
	}
	items, err := d.items.GetIn(ctx, ids)
	if err != nil {
		d.log.Warn().Err(err).Msg("consultar mínimos de stock")
		return
	}
	byID := make(map[string]*entity.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	for _, c := range cells {
		it, ok := byID[c.ItemID]
		if !ok || !it.MinStock.IsPositive() {
			continue
		}
		if c.Quantity.LessThan(it.MinStock) {
			d.Publish(ctx, entity.EventTypeStockLow, c.Key().String(), map[string]any{
				"item_id":     c.ItemID,
				"location_id": c.LocationID,
				"quantity":    c.Quantity.String(),
				"min_stock":   it.MinStock.String(),
			})
		}
	}
}
