package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/inventory-movements/internal/application/dto"
	"github.com/jhoicas/inventory-movements/internal/domain"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// StockQueryUseCase vista de solo lectura del ledger y de su diario para el resto de módulos.
type StockQueryUseCase struct {
	ledger    repository.StockLedger
	movements repository.InventoryMovementRepository
}

// NewStockQueryUseCase construye el caso de uso.
func NewStockQueryUseCase(ledger repository.StockLedger, movements repository.InventoryMovementRepository) *StockQueryUseCase {
	return &StockQueryUseCase{ledger: ledger, movements: movements}
}

// GetStock lectura atómica de una celda.
func (uc *StockQueryUseCase) GetStock(ctx context.Context, itemID, locationID string) (*entity.StockCell, error) {
	if itemID == "" || locationID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.ledger.Get(ctx, entity.StockKey{ItemID: itemID, LocationID: locationID})
}

// GetStockByItem stock de un ítem por ubicación y total agregado.
func (uc *StockQueryUseCase) GetStockByItem(ctx context.Context, itemID string) (*dto.ItemStockResponse, error) {
	if itemID == "" {
		return nil, domain.ErrInvalidInput
	}
	cells, err := uc.ledger.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].LocationID < cells[j].LocationID })

	out := &dto.ItemStockResponse{ItemID: itemID, Total: decimal.Zero, Locations: make([]dto.StockCellResponse, 0, len(cells))}
	for _, c := range cells {
		out.Total = out.Total.Add(c.Quantity)
		out.Locations = append(out.Locations, dto.ToStockCellResponse(c))
	}
	return out, nil
}

// GetMovementsByItem diario de un ítem en todas las ubicaciones, más recientes primero.
func (uc *StockQueryUseCase) GetMovementsByItem(ctx context.Context, itemID string, page dto.PageRequest) (*dto.MovementListResponse, error) {
	if itemID == "" {
		return nil, domain.ErrInvalidInput
	}
	page.DefaultPage()
	if page.Limit > 100 {
		page.Limit = 100
	}
	list, err := uc.movements.ListByItem(ctx, itemID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return &dto.MovementListResponse{
		Items: dto.ToMovementResponses(list),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// GetMovementsByReference movimientos de un traslado, pedido o lote en orden de registro.
func (uc *StockQueryUseCase) GetMovementsByReference(ctx context.Context, reference string) ([]dto.MovementResponse, error) {
	if reference == "" {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.movements.ListByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return dto.ToMovementResponses(list), nil
}
