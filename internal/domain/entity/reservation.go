package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus ciclo de vida de una reserva de stock por pedido.
type ReservationStatus string

const (
	ReservationActive     ReservationStatus = "active"
	ReservationRolledBack ReservationStatus = "rolled_back"
	ReservationFinalized  ReservationStatus = "finalized"
)

// ReservationLine material y cantidad descontada por el pedido.
type ReservationLine struct {
	MaterialID     string
	AmountDeducted decimal.Decimal
}

// Reservation registro de un descuento disparado por un pedido, reversible vía rollback.
type Reservation struct {
	OrderID    string
	LocationID string
	Lines      []ReservationLine
	Status     ReservationStatus
	CreatedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
