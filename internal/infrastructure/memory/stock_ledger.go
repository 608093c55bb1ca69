// Package memory implementa los puertos del dominio en memoria de proceso. Sirve para
// STORE_DRIVER=memory y para los tests de casos de uso.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/inventory-movements/internal/domain"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.StockLedger = (*StockLedger)(nil)

// cellSlot una celda con su propio lock; nunca se bloquea más de lo que dura una mutación.
type cellSlot struct {
	mu      sync.Mutex
	qty     decimal.Decimal
	version int64
	updated time.Time
}

// StockLedger ledger en memoria con un lock por celda y versión monotónica.
// No existe lock global: celdas distintas se mutan en paralelo.
type StockLedger struct {
	cells sync.Map // entity.StockKey → *cellSlot
	now   func() time.Time
}

// NewStockLedger construye un ledger vacío.
func NewStockLedger() *StockLedger {
	return &StockLedger{now: time.Now}
}

// Seed fija la cantidad inicial de una celda (versión 1). Solo para arranque y tests.
func (l *StockLedger) Seed(key entity.StockKey, qty decimal.Decimal) {
	s := l.slot(key)
	s.mu.Lock()
	s.qty = qty
	s.version++
	s.updated = l.now()
	s.mu.Unlock()
}

func (l *StockLedger) slot(key entity.StockKey) *cellSlot {
	if v, ok := l.cells.Load(key); ok {
		return v.(*cellSlot)
	}
	v, _ := l.cells.LoadOrStore(key, &cellSlot{})
	return v.(*cellSlot)
}

func (s *cellSlot) snapshot(key entity.StockKey) *entity.StockCell {
	return &entity.StockCell{
		ItemID:     key.ItemID,
		LocationID: key.LocationID,
		Quantity:   s.qty,
		Version:    s.version,
		UpdatedAt:  s.updated,
	}
}

// Get lectura atómica de la celda.
func (l *StockLedger) Get(ctx context.Context, key entity.StockKey) (*entity.StockCell, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := l.cells.Load(key)
	if !ok {
		return &entity.StockCell{ItemID: key.ItemID, LocationID: key.LocationID, Quantity: decimal.Zero}, nil
	}
	s := v.(*cellSlot)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(key), nil
}

// CompareAndAdd aplica delta si la versión actual coincide con expectedVersion.
func (l *StockLedger) CompareAndAdd(ctx context.Context, key entity.StockKey, delta decimal.Decimal, expectedVersion int64) (*entity.StockCell, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := l.slot(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != expectedVersion {
		return nil, domain.ErrVersionConflict
	}
	return l.apply(s, key, delta)
}

// Add aplica delta sin versión esperada.
func (l *StockLedger) Add(ctx context.Context, key entity.StockKey, delta decimal.Decimal) (*entity.StockCell, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := l.slot(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	return l.apply(s, key, delta)
}

// apply requiere s.mu tomado.
func (l *StockLedger) apply(s *cellSlot, key entity.StockKey, delta decimal.Decimal) (*entity.StockCell, error) {
	next := s.qty.Add(delta)
	if next.IsNegative() {
		return nil, domain.NewInsufficientStock(key.ItemID, key.LocationID, delta.Neg(), s.qty)
	}
	s.qty = next
	s.version++
	s.updated = l.now()
	return s.snapshot(key), nil
}

// ApplyDeltas bloquea las celdas involucradas en orden de clave (sin deadlocks entre
// llamadas concurrentes), verifica que ninguna quede negativa y recién entonces aplica
// todos los deltas. Deltas repetidos sobre la misma celda se suman. Las celdas
// devueltas siguen el orden de deltas.
func (l *StockLedger) ApplyDeltas(ctx context.Context, deltas []entity.StockDelta) ([]*entity.StockCell, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	merged := make(map[entity.StockKey]decimal.Decimal, len(deltas))
	for _, d := range deltas {
		merged[d.Key] = merged[d.Key].Add(d.Delta)
	}
	keys := make([]entity.StockKey, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	slots := make(map[entity.StockKey]*cellSlot, len(keys))
	for _, k := range keys {
		s := l.slot(k)
		s.mu.Lock()
		slots[k] = s
	}
	defer func() {
		for _, k := range keys {
			slots[k].mu.Unlock()
		}
	}()

	for _, k := range keys {
		s := slots[k]
		if next := s.qty.Add(merged[k]); next.IsNegative() {
			return nil, domain.NewInsufficientStock(k.ItemID, k.LocationID, merged[k].Neg(), s.qty)
		}
	}
	now := l.now()
	for _, k := range keys {
		s := slots[k]
		s.qty = s.qty.Add(merged[k])
		s.version++
		s.updated = now
	}
	out := make([]*entity.StockCell, len(deltas))
	for i, d := range deltas {
		out[i] = slots[d.Key].snapshot(d.Key)
	}
	return out, nil
}

// ListByItem celdas existentes de un ítem, ordenadas por ubicación.
func (l *StockLedger) ListByItem(ctx context.Context, itemID string) ([]*entity.StockCell, error) {
	return l.collect(ctx, func(k entity.StockKey) bool { return k.ItemID == itemID })
}

// ListByLocation celdas de una ubicación; itemIDs vacío devuelve todas.
func (l *StockLedger) ListByLocation(ctx context.Context, locationID string, itemIDs []string) ([]*entity.StockCell, error) {
	filter := toSet(itemIDs)
	return l.collect(ctx, func(k entity.StockKey) bool {
		if k.LocationID != locationID {
			return false
		}
		return len(filter) == 0 || filter[k.ItemID]
	})
}

// TotalsByItems suma por ítem sobre todas las ubicaciones.
func (l *StockLedger) TotalsByItems(ctx context.Context, itemIDs []string) (map[string]decimal.Decimal, error) {
	filter := toSet(itemIDs)
	cells, err := l.collect(ctx, func(k entity.StockKey) bool { return filter[k.ItemID] })
	if err != nil {
		return nil, err
	}
	totals := make(map[string]decimal.Decimal, len(itemIDs))
	for _, c := range cells {
		totals[c.ItemID] = totals[c.ItemID].Add(c.Quantity)
	}
	return totals, nil
}

// collect lee celda por celda; cada lectura es atómica pero el conjunto no es un snapshot.
func (l *StockLedger) collect(ctx context.Context, match func(entity.StockKey) bool) ([]*entity.StockCell, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*entity.StockCell
	l.cells.Range(func(k, v any) bool {
		key := k.(entity.StockKey)
		if !match(key) {
			return true
		}
		s := v.(*cellSlot)
		s.mu.Lock()
		if s.version > 0 {
			out = append(out, s.snapshot(key))
		}
		s.mu.Unlock()
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out, nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
