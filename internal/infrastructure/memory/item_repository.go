package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/inventory-movements/internal/domain"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo catálogo en memoria. Update reemplaza el registro completo (last-write-wins).
type ItemRepo struct {
	mu    sync.RWMutex
	items map[string]entity.Item
	calls map[string]int
}

// NewItemRepository construye el repositorio vacío.
func NewItemRepository() *ItemRepo {
	return &ItemRepo{items: make(map[string]entity.Item), calls: make(map[string]int)}
}

// Calls cuántas veces se invocó la operación op (GetIn, UpdateCategoryIn, ...).
func (r *ItemRepo) Calls(op string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.calls[op]
}

func (r *ItemRepo) Create(_ context.Context, item *entity.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; ok {
		return fmt.Errorf("%w: ítem %s", domain.ErrDuplicate, item.ID)
	}
	r.items[item.ID] = *item
	return nil
}

func (r *ItemRepo) GetByID(_ context.Context, id string) (*entity.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (r *ItemRepo) GetIn(_ context.Context, ids []string) ([]*entity.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["GetIn"]++
	out := make([]*entity.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := r.items[id]; ok {
			cp := it
			out = append(out, &cp)
		}
	}
	return out, nil
}

// List ordena por nombre y luego por id.
func (r *ItemRepo) List(_ context.Context, limit, offset int) ([]*entity.Item, error) {
	r.mu.RLock()
	all := make([]*entity.Item, 0, len(r.items))
	for _, it := range r.items {
		cp := it
		all = append(all, &cp)
	}
	r.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name == all[j].Name {
			return all[i].ID < all[j].ID
		}
		return all[i].Name < all[j].Name
	})
	if offset >= len(all) {
		return []*entity.Item{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

func (r *ItemRepo) Update(_ context.Context, item *entity.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return fmt.Errorf("%w: ítem %s", domain.ErrNotFound, item.ID)
	}
	r.items[item.ID] = *item
	return nil
}

func (r *ItemRepo) UpdateCategoryIn(_ context.Context, ids []string, category string) ([]string, error) {
	return r.mutateIn("UpdateCategoryIn", ids, func(it *entity.Item) { it.Category = category })
}

func (r *ItemRepo) SetActiveIn(_ context.Context, ids []string, active bool) ([]string, error) {
	return r.mutateIn("SetActiveIn", ids, func(it *entity.Item) { it.Active = active })
}

func (r *ItemRepo) DeleteIn(_ context.Context, ids []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["DeleteIn"]++
	affected := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := r.items[id]; ok {
			delete(r.items, id)
			affected = append(affected, id)
		}
	}
	return affected, nil
}

func (r *ItemRepo) mutateIn(op string, ids []string, fn func(*entity.Item)) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[op]++
	now := time.Now()
	affected := make([]string, 0, len(ids))
	for _, id := range ids {
		it, ok := r.items[id]
		if !ok {
			continue
		}
		fn(&it)
		it.UpdatedAt = now
		r.items[id] = it
		affected = append(affected, id)
	}
	return affected, nil
}
