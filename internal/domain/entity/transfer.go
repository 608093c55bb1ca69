package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus estados del traslado entre ubicaciones (enumeración cerrada).
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferInTransit TransferStatus = "in_transit"
	TransferReceived  TransferStatus = "received"
	TransferCancelled TransferStatus = "cancelled"
)

// Valid reporta si s pertenece a la enumeración.
func (s TransferStatus) Valid() bool {
	switch s {
	case TransferPending, TransferInTransit, TransferReceived, TransferCancelled:
		return true
	}
	return false
}

// Terminal reporta si el estado ya no admite eventos.
func (s TransferStatus) Terminal() bool {
	return s == TransferReceived || s == TransferCancelled
}

// TransferEvent eventos que disparan transiciones.
type TransferEvent string

const (
	EventInitiate TransferEvent = "initiate"
	EventApprove  TransferEvent = "approve"
	EventReject   TransferEvent = "reject"
	EventReceive  TransferEvent = "receive"
)

// TransferDirection filtro para listar traslados de una ubicación.
type TransferDirection string

const (
	DirectionOutgoing TransferDirection = "outgoing"
	DirectionIncoming TransferDirection = "incoming"
	DirectionBoth     TransferDirection = "both"
)

// Transfer intención registrada de mover cantidad de una ubicación a otra.
// El stock de origen se descuenta una única vez, en la arista pending→in_transit.
type Transfer struct {
	ID                    string
	SourceLocationID      string
	DestinationLocationID string
	ItemID                string
	QuantityRequested     decimal.Decimal
	QuantityReceived      *decimal.Decimal // nil hasta la recepción
	Shortfall             decimal.Decimal  // remanente no entregado en recepciones parciales
	Status                TransferStatus
	RequestedBy           string
	RequestedAt           time.Time
	ApprovedBy            string
	ApprovedAt            *time.Time
	ReceivedBy            string
	ReceivedAt            *time.Time
	Notes                 string
	UpdatedAt             time.Time
}

// SourceKey celda de origen del traslado.
func (t *Transfer) SourceKey() StockKey {
	return StockKey{ItemID: t.ItemID, LocationID: t.SourceLocationID}
}

// DestinationKey celda de destino del traslado.
func (t *Transfer) DestinationKey() StockKey {
	return StockKey{ItemID: t.ItemID, LocationID: t.DestinationLocationID}
}
