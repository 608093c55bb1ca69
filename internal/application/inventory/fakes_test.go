package inventory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/jhoicas/inventory-movements/internal/domain"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/jhoicas/inventory-movements/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
)

// eventLog publicador que acumula los eventos emitidos.
type eventLog struct {
	mu     sync.Mutex
	events []entity.Event
}

func (l *eventLog) Publish(_ context.Context, ev entity.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

func (l *eventLog) types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Type)
	}
	return out
}

func (l *eventLog) last(eventType string) (entity.Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Type == eventType {
			return l.events[i], true
		}
	}
	return entity.Event{}, false
}

// countingRecorder cuenta las métricas reportadas por el motor.
type countingRecorder struct {
	mu          sync.Mutex
	transitions map[string]int
	retries     int
	exhausted   int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{transitions: make(map[string]int)}
}

func (r *countingRecorder) TransferTransition(status string) {
	r.mu.Lock()
	r.transitions[status]++
	r.mu.Unlock()
}

func (r *countingRecorder) ConflictRetry(string) {
	r.mu.Lock()
	r.retries++
	r.mu.Unlock()
}

func (r *countingRecorder) ConflictExhausted(string) {
	r.mu.Lock()
	r.exhausted++
	r.mu.Unlock()
}

func (r *countingRecorder) BulkOperation(string, int, int) {}
func (r *countingRecorder) ReservationOutcome(string)      {}

// conflictingLedger ledger cuyo compare-and-set siempre pierde la carrera.
type conflictingLedger struct {
	*memory.StockLedger
	attempts atomic.Int32
}

func (l *conflictingLedger) CompareAndAdd(context.Context, entity.StockKey, decimal.Decimal, int64) (*entity.StockCell, error) {
	l.attempts.Add(1)
	return nil, domain.ErrVersionConflict
}

// flakyLedger pierde las primeras n carreras y luego delega.
type flakyLedger struct {
	*memory.StockLedger
	remaining atomic.Int32
}

func (l *flakyLedger) CompareAndAdd(ctx context.Context, key entity.StockKey, delta decimal.Decimal, version int64) (*entity.StockCell, error) {
	if l.remaining.Add(-1) >= 0 {
		return nil, domain.ErrVersionConflict
	}
	return l.StockLedger.CompareAndAdd(ctx, key, delta, version)
}

// batchLedger registra cada lote de deltas y, si fail está activo, lo rechaza como
// falla de almacenamiento.
type batchLedger struct {
	*memory.StockLedger
	fail    bool
	mu      sync.Mutex
	batches [][]entity.StockDelta
	adds    atomic.Int32
}

func (l *batchLedger) ApplyDeltas(ctx context.Context, deltas []entity.StockDelta) ([]*entity.StockCell, error) {
	l.mu.Lock()
	l.batches = append(l.batches, append([]entity.StockDelta(nil), deltas...))
	l.mu.Unlock()
	if l.fail {
		return nil, &domain.FaultError{Op: "apply deltas", Err: errors.New("conexión perdida")}
	}
	return l.StockLedger.ApplyDeltas(ctx, deltas)
}

func (l *batchLedger) Add(ctx context.Context, key entity.StockKey, delta decimal.Decimal) (*entity.StockCell, error) {
	l.adds.Add(1)
	return l.StockLedger.Add(ctx, key, delta)
}

// slipRecorder generador de remisiones que registra el traslado recibido.
type slipRecorder struct {
	transfer *entity.Transfer
	item     *entity.Item
}

func (s *slipRecorder) GenerateTransferSlip(_ context.Context, t *entity.Transfer, item *entity.Item) ([]byte, error) {
	s.transfer, s.item = t, item
	return []byte("%PDF-1.3 remision " + t.ID), nil
}
