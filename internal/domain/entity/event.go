package entity

import "time"

// Tipos de evento publicados por el motor.
const (
	EventTypeTransferInitiated  = "transfer.initiated"
	EventTypeTransferApproved   = "transfer.approved"
	EventTypeTransferCancelled  = "transfer.cancelled"
	EventTypeTransferReceived   = "transfer.received"
	EventTypeTransferShortfall  = "transfer.shortfall"
	EventTypeStockLow           = "stock.low"
	EventTypeReservationCreated = "reservation.created"
	EventTypeReservationRevert  = "reservation.rolled_back"
)

// Event notificación de ciclo de vida (consumida por dashboards).
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Subject    string         `json:"subject"` // id del traslado, pedido o celda
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}
