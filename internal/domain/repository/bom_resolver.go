package repository

import (
	"context"

	"github.com/jhoicas/inventory-movements/internal/domain/entity"
)

// BOMResolver consulta externa pura: producto → materiales y cantidad por unidad.
type BOMResolver interface {
	Resolve(ctx context.Context, productID string) ([]entity.BOMLine, error)
}
