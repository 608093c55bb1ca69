package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// InventoryMovementRepo diario de movimientos en orden de inserción.
type InventoryMovementRepo struct {
	mu        sync.RWMutex
	movements []entity.InventoryMovement
}

// NewInventoryMovementRepository construye el diario vacío.
func NewInventoryMovementRepository() *InventoryMovementRepo {
	return &InventoryMovementRepo{}
}

func (r *InventoryMovementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *m)
	return nil
}

// ListByItem más recientes primero.
func (r *InventoryMovementRepo) ListByItem(_ context.Context, itemID string, limit, offset int) ([]*entity.InventoryMovement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*entity.InventoryMovement
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].ItemID == itemID {
			m := r.movements[i]
			matched = append(matched, &m)
		}
	}
	if offset >= len(matched) {
		return []*entity.InventoryMovement{}, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], nil
}

// ListByReference en orden de inserción.
func (r *InventoryMovementRepo) ListByReference(_ context.Context, reference string) ([]*entity.InventoryMovement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.InventoryMovement, 0)
	for i := range r.movements {
		if r.movements[i].Reference == reference {
			m := r.movements[i]
			out = append(out, &m)
		}
	}
	return out, nil
}
