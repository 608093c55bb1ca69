package dto

import (
	"time"

	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// MaterialUsageRequest material por unidad de producto (BOM ya expandido por el caller).
type MaterialUsageRequest struct {
	MaterialID      string          `json:"material_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
}

// OrderLineRequest línea de pedido con su BOM.
type OrderLineRequest struct {
	ProductID string                 `json:"product_id"`
	Quantity  decimal.Decimal        `json:"quantity"`
	Materials []MaterialUsageRequest `json:"materials"`
}

// MaterialStockRequest stock disponible de un material.
type MaterialStockRequest struct {
	MaterialID   string          `json:"material_id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinStock     decimal.Decimal `json:"min_stock"`
}

// ValidateStockRequest body para POST /api/orders/validate-stock.
type ValidateStockRequest struct {
	OrderItems     []OrderLineRequest     `json:"order_items"`
	AvailableStock []MaterialStockRequest `json:"available_stock"`
}

// OrderItemRequest producto y cantidad a descontar.
type OrderItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// DeductStockRequest body para POST /api/orders/:id/deduct.
type DeductStockRequest struct {
	LocationID string             `json:"location_id"`
	Items      []OrderItemRequest `json:"items"`
}

// DeductedItemDTO material descontado y stock resultante.
type DeductedItemDTO struct {
	MaterialID string          `json:"material_id"`
	Amount     decimal.Decimal `json:"amount"`
	NewStock   decimal.Decimal `json:"new_stock"`
}

// RollbackStockRequest body para POST /api/orders/:id/rollback.
type RollbackStockRequest struct {
	DeductedItems []DeductedItemDTO `json:"deducted_items,omitempty"`
}

// RollbackStatus distingue una reversa efectiva de una sin nada que restaurar.
type RollbackStatus string

const (
	RollbackRestored         RollbackStatus = "restored"
	RollbackNothingToRestore RollbackStatus = "nothing_to_restore"
)

// RollbackResultDTO resultado de la reversa.
type RollbackResultDTO struct {
	OrderID  string            `json:"order_id"`
	Status   RollbackStatus    `json:"status"`
	Reason   string            `json:"reason,omitempty"`
	Restored []DeductedItemDTO `json:"restored,omitempty"`
}

// ReservationResponse representación HTTP de una reserva.
type ReservationResponse struct {
	OrderID    string            `json:"order_id"`
	LocationID string            `json:"location_id"`
	Status     string            `json:"status"`
	Lines      []DeductedItemDTO `json:"lines"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// ToReservationResponse mapea la entidad (NewStock no aplica y queda en cero).
func ToReservationResponse(r *entity.Reservation) ReservationResponse {
	lines := make([]DeductedItemDTO, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, DeductedItemDTO{MaterialID: l.MaterialID, Amount: l.AmountDeducted})
	}
	return ReservationResponse{
		OrderID:    r.OrderID,
		LocationID: r.LocationID,
		Status:     string(r.Status),
		Lines:      lines,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
