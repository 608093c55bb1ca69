package dto

import (
	"time"

	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockCellResponse stock de un ítem en una ubicación.
type StockCellResponse struct {
	ItemID     string          `json:"item_id"`
	LocationID string          `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Version    int64           `json:"version"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ItemStockResponse stock de un ítem por ubicación más el total.
type ItemStockResponse struct {
	ItemID    string              `json:"item_id"`
	Total     decimal.Decimal     `json:"total"`
	Locations []StockCellResponse `json:"locations"`
}

// ToStockCellResponse mapea la celda del ledger.
func ToStockCellResponse(c *entity.StockCell) StockCellResponse {
	return StockCellResponse{
		ItemID:     c.ItemID,
		LocationID: c.LocationID,
		Quantity:   c.Quantity,
		Version:    c.Version,
		UpdatedAt:  c.UpdatedAt,
	}
}

// MovementResponse entrada del diario de movimientos.
type MovementResponse struct {
	ID         string          `json:"id"`
	Reference  string          `json:"reference"`
	ItemID     string          `json:"item_id"`
	LocationID string          `json:"location_id"`
	Type       string          `json:"type" example:"TRANSFER_OUT"`
	Quantity   decimal.Decimal `json:"quantity"`
	Balance    decimal.Decimal `json:"balance"`
	Reason     string          `json:"reason,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	CreatedBy  string          `json:"created_by,omitempty"`
}

// MovementListResponse página del diario de un ítem.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ToMovementResponses mapea entradas del diario conservando el orden.
func ToMovementResponses(movements []*entity.InventoryMovement) []MovementResponse {
	out := make([]MovementResponse, len(movements))
	for i, m := range movements {
		out[i] = MovementResponse{
			ID:         m.ID,
			Reference:  m.Reference,
			ItemID:     m.ItemID,
			LocationID: m.LocationID,
			Type:       m.Type,
			Quantity:   m.Quantity,
			Balance:    m.Balance,
			Reason:     m.Reason,
			CreatedAt:  m.CreatedAt,
			CreatedBy:  m.CreatedBy,
		}
	}
	return out
}

// ReplenishmentSuggestionDTO sugerencia de reposición para un ítem bajo su mínimo.
type ReplenishmentSuggestionDTO struct {
	ItemID             string          `json:"item_id"`
	ItemName           string          `json:"item_name"`
	LocationID         string          `json:"location_id"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	MinStock           decimal.Decimal `json:"min_stock"`
	IdealStock         decimal.Decimal `json:"ideal_stock"`          // MinStock * 1.5
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"`  // IdealStock - CurrentStock
	UnitCost           decimal.Decimal `json:"unit_cost"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	Priority           int             `json:"priority"`             // 1 = más urgente
}
