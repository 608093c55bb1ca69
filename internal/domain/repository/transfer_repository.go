package repository

import (
	"context"

	"github.com/jhoicas/inventory-movements/internal/domain/entity"
)

// TransferRepository define el puerto de persistencia para traslados.
type TransferRepository interface {
	Create(ctx context.Context, transfer *entity.Transfer) error
	GetByID(ctx context.Context, id string) (*entity.Transfer, error)
	// UpdateIfStatus persiste transfer solo si el estado almacenado sigue siendo expected.
	// Devuelve false si otro escritor cambió el estado primero.
	UpdateIfStatus(ctx context.Context, transfer *entity.Transfer, expected entity.TransferStatus) (bool, error)
	ListByLocation(ctx context.Context, locationID string, direction entity.TransferDirection) ([]*entity.Transfer, error)
}
