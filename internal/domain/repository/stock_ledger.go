package repository

import (
	"context"

	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockLedger define el puerto del ledger (ítem, ubicación) → cantidad.
// Ninguna operación sobrescribe la cantidad: solo incrementos/decrementos atómicos.
// Las implementaciones no deben tomar un lock global; solo bloquean las celdas tocadas.
type StockLedger interface {
	// Get lectura atómica con versión. Una celda inexistente devuelve cantidad 0, versión 0.
	Get(ctx context.Context, key entity.StockKey) (*entity.StockCell, error)
	// CompareAndAdd aplica delta solo si la versión actual es expectedVersion.
	// Devuelve domain.ErrVersionConflict si cambió y un *domain.ValidationError con
	// domain.ErrInsufficientStock si el resultado sería negativo.
	CompareAndAdd(ctx context.Context, key entity.StockKey, delta decimal.Decimal, expectedVersion int64) (*entity.StockCell, error)
	// Add incremento/decremento atómico sin versión esperada; rechaza resultados negativos.
	Add(ctx context.Context, key entity.StockKey, delta decimal.Decimal) (*entity.StockCell, error)
	// ApplyDeltas aplica todos los deltas o ninguno.
	ApplyDeltas(ctx context.Context, deltas []entity.StockDelta) ([]*entity.StockCell, error)
	// ListByItem devuelve las celdas de un ítem en todas las ubicaciones.
	ListByItem(ctx context.Context, itemID string) ([]*entity.StockCell, error)
	// ListByLocation devuelve las celdas de una ubicación para los ítems dados (todas si itemIDs es vacío).
	ListByLocation(ctx context.Context, locationID string, itemIDs []string) ([]*entity.StockCell, error)
	// TotalsByItems devuelve el stock total por ítem (ítems sin celdas se omiten).
	TotalsByItems(ctx context.Context, itemIDs []string) (map[string]decimal.Decimal, error)
}
