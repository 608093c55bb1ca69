package dto

import (
	"time"

	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// InitiateTransferRequest body para POST /api/transfers.
type InitiateTransferRequest struct {
	SourceLocationID      string          `json:"source_location_id"`
	DestinationLocationID string          `json:"destination_location_id"`
	ItemID                string          `json:"item_id"`
	Quantity              decimal.Decimal `json:"quantity"`
	Notes                 string          `json:"notes,omitempty"`
}

// ApproveTransferRequest body para POST /api/transfers/:id/approve.
type ApproveTransferRequest struct {
	Approved bool   `json:"approved"`
	Notes    string `json:"notes,omitempty"`
}

// ReceiveTransferRequest body para POST /api/transfers/:id/receive.
type ReceiveTransferRequest struct {
	QuantityReceived decimal.Decimal `json:"quantity_received"`
	Notes            string          `json:"notes,omitempty"`
}

// TransferResponse representación HTTP de un traslado.
type TransferResponse struct {
	ID                    string           `json:"id"`
	SourceLocationID      string           `json:"source_location_id"`
	DestinationLocationID string           `json:"destination_location_id"`
	ItemID                string           `json:"item_id"`
	QuantityRequested     decimal.Decimal  `json:"quantity_requested"`
	QuantityReceived      *decimal.Decimal `json:"quantity_received"`
	Shortfall             *decimal.Decimal `json:"shortfall,omitempty"`
	Status                string           `json:"status"`
	RequestedBy           string           `json:"requested_by,omitempty"`
	RequestedAt           time.Time        `json:"requested_at"`
	ApprovedBy            string           `json:"approved_by,omitempty"`
	ApprovedAt            *time.Time       `json:"approved_at,omitempty"`
	ReceivedBy            string           `json:"received_by,omitempty"`
	ReceivedAt            *time.Time       `json:"received_at,omitempty"`
	Notes                 string           `json:"notes,omitempty"`
}

// TransferListResponse listado de traslados de una ubicación.
type TransferListResponse struct {
	LocationID string             `json:"location_id"`
	Direction  string             `json:"direction"`
	Items      []TransferResponse `json:"items"`
}

// ToTransferResponse mapea la entidad.
func ToTransferResponse(t *entity.Transfer) TransferResponse {
	out := TransferResponse{
		ID:                    t.ID,
		SourceLocationID:      t.SourceLocationID,
		DestinationLocationID: t.DestinationLocationID,
		ItemID:                t.ItemID,
		QuantityRequested:     t.QuantityRequested,
		QuantityReceived:      t.QuantityReceived,
		Status:                string(t.Status),
		RequestedBy:           t.RequestedBy,
		RequestedAt:           t.RequestedAt,
		ApprovedBy:            t.ApprovedBy,
		ApprovedAt:            t.ApprovedAt,
		ReceivedBy:            t.ReceivedBy,
		ReceivedAt:            t.ReceivedAt,
		Notes:                 t.Notes,
	}
	if t.Shortfall.IsPositive() {
		s := t.Shortfall
		out.Shortfall = &s
	}
	return out
}
