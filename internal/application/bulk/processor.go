// Package bulk aplica mutaciones independientes sobre listas de ítems. Cada entrada es
// su propia transacción: un fallo se registra en el resultado y el lote continúa.
package bulk

import (
	"context"
	"strings"

	"github.com/jhoicas/inventory-movements/internal/application/notify"
	"github.com/jhoicas/inventory-movements/internal/application/ports"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	domaininv "github.com/jhoicas/inventory-movements/internal/domain/inventory"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Operaciones (etiqueta de métricas y logs).
const (
	OpAdjustStock    = "adjust_stock"
	OpChangeCategory = "change_category"
	OpToggleActive   = "toggle_active"
	OpDeleteItems    = "delete_items"
	OpExportCSV      = "export_csv"
)

const errDuplicateID = "id duplicado en el lote: "

// DefaultWorkers paralelismo por defecto de los ajustes por ítem.
const DefaultWorkers = 8

// StockAdjustment delta de stock para un ítem, con su motivo.
type StockAdjustment struct {
	ItemID string
	Delta  decimal.Decimal
	Reason string
}

// Processor procesador de operaciones masivas.
type Processor struct {
	ledger     repository.StockLedger
	items      repository.ItemRepository
	dispatcher *notify.Dispatcher
	actor      ports.ActorProvider
	metrics    ports.Recorder
	log        zerolog.Logger
	workers    int
}

// NewProcessor construye el procesador. workers ≤ 0 usa DefaultWorkers.
func NewProcessor(
	ledger repository.StockLedger,
	items repository.ItemRepository,
	dispatcher *notify.Dispatcher,
	actor ports.ActorProvider,
	metrics ports.Recorder,
	log zerolog.Logger,
	workers int,
) *Processor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if actor == nil {
		actor = ports.StaticActor("")
	}
	if metrics == nil {
		metrics = ports.NopRecorder{}
	}
	return &Processor{
		ledger:     ledger,
		items:      items,
		dispatcher: dispatcher,
		actor:      actor,
		metrics:    metrics,
		log:        log.With().Str("component", "bulk_processor").Logger(),
		workers:    workers,
	}
}

// AdjustStock aplica un delta independiente por ítem en locationID. La existencia de los
// ítems se verifica con una sola consulta; cada delta es una llamada atómica al ledger,
// con hasta workers llamadas en paralelo. Un ítem repetido recibe cada uno de sus deltas.
func (p *Processor) AdjustStock(ctx context.Context, locationID string, adjustments []StockAdjustment) entity.BulkOperationResult {
	results := make([]entity.BulkItemResult, len(adjustments))
	for i, a := range adjustments {
		results[i].ID = a.ItemID
	}
	if locationID == "" {
		return p.finish(OpAdjustStock, failAll(results, "location_id es obligatorio"))
	}

	known, err := p.existing(ctx, adjustmentIDs(adjustments))
	if err != nil {
		return p.finish(OpAdjustStock, failAll(results, err.Error()))
	}

	actor := p.actor.ActorID(ctx)
	cells := make([]*entity.StockCell, len(adjustments))
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i := range adjustments {
		a := adjustments[i]
		switch {
		case a.ItemID == "":
			results[i].Error = "item_id vacío"
			continue
		case a.Delta.IsZero():
			results[i].Error = "delta debe ser distinto de cero"
			continue
		case !known[a.ItemID]:
			results[i].Error = "ítem no encontrado: " + a.ItemID
			continue
		}
		if err := domaininv.CheckScale(a.Delta); err != nil {
			results[i].Error = err.Error()
			continue
		}
		g.Go(func() error {
			cell, err := p.ledger.Add(ctx, entity.StockKey{ItemID: a.ItemID, LocationID: locationID}, a.Delta)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			cells[i] = cell
			return nil
		})
	}
	_ = g.Wait()

	movements := make([]*entity.InventoryMovement, 0, len(adjustments))
	touched := make([]*entity.StockCell, 0, len(adjustments))
	for i, cell := range cells {
		if cell == nil {
			continue
		}
		a := adjustments[i]
		movements = append(movements, &entity.InventoryMovement{
			Reference:  "bulk:" + OpAdjustStock,
			ItemID:     a.ItemID,
			LocationID: locationID,
			Type:       entity.MovementAdjustment,
			Quantity:   a.Delta,
			Balance:    cell.Quantity,
			Reason:     a.Reason,
			CreatedBy:  actor,
		})
		if a.Delta.IsNegative() {
			touched = append(touched, cell)
		}
	}
	p.dispatcher.RecordMovements(ctx, movements...)
	p.dispatcher.CheckLowStock(ctx, touched...)
	return p.finish(OpAdjustStock, results)
}

// ChangeCategory reasigna la categoría con una sola llamada "id IN (...)".
func (p *Processor) ChangeCategory(ctx context.Context, ids []string, category string) entity.BulkOperationResult {
	category = strings.TrimSpace(category)
	if category == "" {
		return p.finish(OpChangeCategory, failAll(resultsFor(ids), "category es obligatoria"))
	}
	return p.batched(ctx, OpChangeCategory, ids, func(ctx context.Context, valid []string) ([]string, error) {
		return p.items.UpdateCategoryIn(ctx, valid, category)
	})
}

// ToggleActive activa o desactiva ítems con una sola llamada "id IN (...)".
func (p *Processor) ToggleActive(ctx context.Context, ids []string, active bool) entity.BulkOperationResult {
	return p.batched(ctx, OpToggleActive, ids, func(ctx context.Context, valid []string) ([]string, error) {
		return p.items.SetActiveIn(ctx, valid, active)
	})
}

// DeleteItems elimina ítems. Sin force, los ítems con stock positivo en cualquier
// ubicación se rechazan; los totales se consultan en una sola llamada.
func (p *Processor) DeleteItems(ctx context.Context, ids []string, force bool) entity.BulkOperationResult {
	blocked := map[string]string{}
	if !force {
		totals, err := p.ledger.TotalsByItems(ctx, validIDs(ids))
		if err != nil {
			return p.finish(OpDeleteItems, failAll(resultsFor(ids), err.Error()))
		}
		for id, total := range totals {
			if total.IsPositive() {
				blocked[id] = "el ítem tiene stock (" + total.String() + "); use force para eliminarlo"
			}
		}
	}
	res := p.batched(ctx, OpDeleteItems, ids, func(ctx context.Context, valid []string) ([]string, error) {
		eligible := make([]string, 0, len(valid))
		for _, id := range valid {
			if _, ok := blocked[id]; !ok {
				eligible = append(eligible, id)
			}
		}
		if len(eligible) == 0 {
			return nil, nil
		}
		return p.items.DeleteIn(ctx, eligible)
	}, blocked)
	return res
}

// ExportItems carga los ítems y su stock total con dos consultas y los serializa a CSV.
func (p *Processor) ExportItems(ctx context.Context, ids []string, enc string) ([]byte, entity.BulkOperationResult, error) {
	valid := validIDs(ids)
	items, err := p.items.GetIn(ctx, valid)
	if err != nil {
		return nil, entity.BulkOperationResult{}, err
	}
	totals, err := p.ledger.TotalsByItems(ctx, valid)
	if err != nil {
		return nil, entity.BulkOperationResult{}, err
	}
	byID := make(map[string]*entity.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	rows := make([]entity.ItemStock, 0, len(ids))
	failed := map[int]string{}
	seen := make(map[string]bool, len(ids))
	for i, id := range ids {
		it, ok := byID[id]
		switch {
		case id == "":
			failed[i] = "id vacío"
		case !ok:
			failed[i] = "ítem no encontrado: " + id
		case seen[id]:
			failed[i] = errDuplicateID + id
		default:
			seen[id] = true
			rows = append(rows, entity.ItemStock{Item: *it, Stock: totals[id]})
		}
	}
	data, exported := ExportToCSV(rows)

	// Recompone el resultado en el orden de entrada.
	results := make([]entity.BulkItemResult, 0, len(ids))
	next := 0
	for i, id := range ids {
		if msg, ok := failed[i]; ok {
			results = append(results, entity.BulkItemResult{ID: id, Error: msg})
			continue
		}
		results = append(results, exported.Results[next])
		next++
	}

	encoded, err := Encode(data, enc)
	if err != nil {
		return nil, entity.BulkOperationResult{}, err
	}
	return encoded, p.finish(OpExportCSV, results), nil
}

// batched resuelve la mutación de todo el lote en una sola llamada; los ids no
// devueltos como afectados se reportan como no encontrados y los repetidos, como
// duplicados. preset contiene errores
// ya decididos por id que se respetan sin llamar al repositorio.
func (p *Processor) batched(
	ctx context.Context,
	op string,
	ids []string,
	apply func(ctx context.Context, valid []string) ([]string, error),
	preset ...map[string]string,
) entity.BulkOperationResult {
	results := resultsFor(ids)
	valid := validIDs(ids)

	affected, err := apply(ctx, valid)
	if err != nil {
		p.log.Error().Err(err).Str("op", op).Int("items", len(ids)).Msg("operación masiva fallida")
		return p.finish(op, failAll(results, err.Error()))
	}
	done := make(map[string]bool, len(affected))
	for _, id := range affected {
		done[id] = true
	}
	seen := make(map[string]bool, len(ids))
	for i, id := range ids {
		if id == "" {
			results[i].Error = "id vacío"
			continue
		}
		// solo la primera aparición cuenta; las repeticiones fallan aparte
		if seen[id] {
			results[i].Error = errDuplicateID + id
			continue
		}
		seen[id] = true
		if len(preset) > 0 {
			if msg, ok := preset[0][id]; ok {
				results[i].Error = msg
				continue
			}
		}
		if !done[id] {
			results[i].Error = "ítem no encontrado: " + id
		}
	}
	return p.finish(op, results)
}

func (p *Processor) existing(ctx context.Context, ids []string) (map[string]bool, error) {
	items, err := p.items.GetIn(ctx, ids)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(items))
	for _, it := range items {
		known[it.ID] = true
	}
	return known, nil
}

func (p *Processor) finish(op string, results []entity.BulkItemResult) entity.BulkOperationResult {
	res := entity.NewBulkOperationResult(results)
	p.metrics.BulkOperation(op, res.TotalSucceeded, res.TotalFailed)
	p.log.Info().Str("op", op).
		Int("processed", res.TotalProcessed).
		Int("succeeded", res.TotalSucceeded).
		Int("failed", res.TotalFailed).
		Msg("operación masiva")
	return res
}

func resultsFor(ids []string) []entity.BulkItemResult {
	results := make([]entity.BulkItemResult, len(ids))
	for i, id := range ids {
		results[i].ID = id
	}
	return results
}

func failAll(results []entity.BulkItemResult, msg string) []entity.BulkItemResult {
	for i := range results {
		results[i].Error = msg
	}
	return results
}

// validIDs ids no vacíos y sin duplicados, en orden de aparición.
func validIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func adjustmentIDs(adjustments []StockAdjustment) []string {
	ids := make([]string, len(adjustments))
	for i, a := range adjustments {
		ids[i] = a.ItemID
	}
	return validIDs(ids)
}

// IsNotFound reporta si el mensaje de error de una entrada corresponde a un ítem inexistente.
func IsNotFound(r entity.BulkItemResult) bool {
	return strings.HasPrefix(r.Error, "ítem no encontrado")
}

// IsDuplicate indica si el resultado es una repetición de un id ya procesado en el lote.
func IsDuplicate(r entity.BulkItemResult) bool {
	return strings.HasPrefix(r.Error, errDuplicateID)
}
