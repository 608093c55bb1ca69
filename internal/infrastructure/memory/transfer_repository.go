package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/inventory-movements/internal/domain"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo almacena copias de los traslados; nadie fuera del repo comparte punteros.
type TransferRepo struct {
	mu        sync.RWMutex
	transfers map[string]entity.Transfer
}

// NewTransferRepository construye el repositorio vacío.
func NewTransferRepository() *TransferRepo {
	return &TransferRepo{transfers: make(map[string]entity.Transfer)}
}

// Create persiste un traslado nuevo.
func (r *TransferRepo) Create(_ context.Context, t *entity.Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.transfers[t.ID]; ok {
		return fmt.Errorf("%w: traslado %s", domain.ErrDuplicate, t.ID)
	}
	r.transfers[t.ID] = *t
	return nil
}

// GetByID devuelve nil, nil si no existe.
func (r *TransferRepo) GetByID(_ context.Context, id string) (*entity.Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transfers[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// UpdateIfStatus reemplaza el registro solo si su estado sigue siendo expected.
func (r *TransferRepo) UpdateIfStatus(_ context.Context, t *entity.Transfer, expected entity.TransferStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.transfers[t.ID]
	if !ok {
		return false, fmt.Errorf("%w: traslado %s", domain.ErrNotFound, t.ID)
	}
	if cur.Status != expected {
		return false, nil
	}
	r.transfers[t.ID] = *t
	return true, nil
}

// ListByLocation lista por fecha de solicitud descendente.
func (r *TransferRepo) ListByLocation(_ context.Context, locationID string, direction entity.TransferDirection) ([]*entity.Transfer, error) {
	r.mu.RLock()
	out := make([]*entity.Transfer, 0)
	for _, t := range r.transfers {
		outgoing := t.SourceLocationID == locationID
		in := t.DestinationLocationID == locationID
		var match bool
		switch direction {
		case entity.DirectionOutgoing:
			match = outgoing
		case entity.DirectionIncoming:
			match = in
		default:
			match = outgoing || in
		}
		if match {
			cp := t
			out = append(out, &cp)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].RequestedAt.After(out[j].RequestedAt)
	})
	return out, nil
}
