package inventory

import (
	"context"

	"github.com/jhoicas/inventory-movements/internal/domain/entity"
)

// SlipGenerator genera el documento de remisión (PDF) de un traslado.
type SlipGenerator interface {
	GenerateTransferSlip(ctx context.Context, transfer *entity.Transfer, item *entity.Item) ([]byte, error)
}
