package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/inventory-movements/internal/application/dto"
	"github.com/jhoicas/inventory-movements/internal/domain"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// replenishmentPageSize tamaño de página al recorrer el catálogo.
const replenishmentPageSize = 500

// ReplenishmentUseCase genera la lista de reposición de una ubicación: ítems activos
// cuyo stock está por debajo del mínimo, con la cantidad sugerida de pedido.
type ReplenishmentUseCase struct {
	items  repository.ItemRepository
	ledger repository.StockLedger
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(items repository.ItemRepository, ledger repository.StockLedger) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{items: items, ledger: ledger}
}

// GenerateReplenishmentList devuelve los ítems bajo mínimo ordenados por déficit relativo.
// IdealStock = MinStock * 1.5; SuggestedOrderQty = IdealStock - CurrentStock.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context, locationID string) ([]dto.ReplenishmentSuggestionDTO, error) {
	if locationID == "" {
		return nil, domain.ErrInvalidInput
	}
	factor := decimal.NewFromFloat(1.5)
	suggestions := []dto.ReplenishmentSuggestionDTO{}

	for offset := 0; ; offset += replenishmentPageSize {
		page, err := uc.items.List(ctx, replenishmentPageSize, offset)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(page))
		for _, it := range page {
			if it.Active && it.MinStock.IsPositive() {
				ids = append(ids, it.ID)
			}
		}
		if len(ids) > 0 {
			cells, err := uc.ledger.ListByLocation(ctx, locationID, ids)
			if err != nil {
				return nil, err
			}
			current := make(map[string]decimal.Decimal, len(cells))
			for _, c := range cells {
				current[c.ItemID] = c.Quantity
			}
			for _, it := range page {
				if !it.Active || !it.MinStock.IsPositive() {
					continue
				}
				stock := current[it.ID]
				if !stock.LessThan(it.MinStock) {
					continue
				}
				ideal := it.MinStock.Mul(factor)
				qty := ideal.Sub(stock)
				suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
					ItemID:             it.ID,
					ItemName:           it.Name,
					LocationID:         locationID,
					CurrentStock:       stock,
					MinStock:           it.MinStock,
					IdealStock:         ideal,
					SuggestedOrderQty:  qty,
					UnitCost:           it.UnitCost,
					EstimatedOrderCost: qty.Mul(it.UnitCost),
				})
			}
		}
		if len(page) < replenishmentPageSize {
			break
		}
	}

	// Mayor déficit relativo primero; empate por id para salida estable.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		ra := a.CurrentStock.Div(a.MinStock)
		rb := b.CurrentStock.Div(b.MinStock)
		if !ra.Equal(rb) {
			return ra.LessThan(rb)
		}
		return a.ItemID < b.ItemID
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}
