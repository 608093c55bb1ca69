package repository

import (
	"context"

	"github.com/jhoicas/inventory-movements/internal/domain/entity"
)

// InventoryMovementRepository define el puerto del diario de movimientos.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	ListByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.InventoryMovement, error)
	ListByReference(ctx context.Context, reference string) ([]*entity.InventoryMovement, error)
}
