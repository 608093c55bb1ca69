package repository

import (
	"context"

	"github.com/jhoicas/inventory-movements/internal/domain/entity"
)

// ItemRepository define el puerto del catálogo de ítems.
// Las operaciones *In aplican un predicado "id IN (...)" en una sola llamada y
// devuelven los ids efectivamente afectados.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	GetIn(ctx context.Context, ids []string) ([]*entity.Item, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Item, error)
	// Update sobrescribe los campos no numéricos (last-write-wins).
	Update(ctx context.Context, item *entity.Item) error
	UpdateCategoryIn(ctx context.Context, ids []string, category string) ([]string, error)
	SetActiveIn(ctx context.Context, ids []string, active bool) ([]string, error)
	DeleteIn(ctx context.Context, ids []string) ([]string, error)
}
