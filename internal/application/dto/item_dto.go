package dto

import (
	"time"

	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CreateItemRequest body para POST /api/items.
type CreateItemRequest struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Type     string          `json:"type"`
	Unit     string          `json:"unit"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	MinStock decimal.Decimal `json:"min_stock"`
}

// UpdateItemRequest body para PUT /api/items/:id (campos opcionales, last-write-wins).
// El stock no se edita aquí: solo vía movimientos.
type UpdateItemRequest struct {
	Name     *string          `json:"name,omitempty"`
	Category *string          `json:"category,omitempty"`
	Type     *string          `json:"type,omitempty"`
	Unit     *string          `json:"unit,omitempty"`
	UnitCost *decimal.Decimal `json:"unit_cost,omitempty"`
	MinStock *decimal.Decimal `json:"min_stock,omitempty"`
	Active   *bool            `json:"active,omitempty"`
}

// ItemResponse representación HTTP de un ítem del catálogo.
type ItemResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Type      string          `json:"type"`
	Unit      string          `json:"unit"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	MinStock  decimal.Decimal `json:"min_stock"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ItemListResponse listado paginado de ítems.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// ToItemResponse mapea la entidad.
func ToItemResponse(it *entity.Item) ItemResponse {
	return ItemResponse{
		ID:        it.ID,
		Name:      it.Name,
		Category:  it.Category,
		Type:      it.Type,
		Unit:      it.Unit,
		UnitCost:  it.UnitCost,
		MinStock:  it.MinStock,
		Active:    it.Active,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}
