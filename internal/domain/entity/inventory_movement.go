package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento registrados en el diario del ledger.
const (
	MovementTransferOut = "TRANSFER_OUT" // descuento de origen al aprobar
	MovementTransferIn  = "TRANSFER_IN"  // ingreso en destino al recibir
	MovementReturn      = "RETURN"       // remanente devuelto al origen
	MovementAdjustment  = "ADJUSTMENT"   // ajuste masivo
	MovementDeduction   = "DEDUCTION"    // consumo por pedido (BOM)
	MovementRollback    = "ROLLBACK"     // reversa de un consumo
)

// InventoryMovement entrada del diario de auditoría de mutaciones del ledger.
type InventoryMovement struct {
	ID         string
	Reference  string // id del traslado, pedido o lote
	ItemID     string
	LocationID string
	Type       string
	Quantity   decimal.Decimal // positivo entrada, negativo salida
	Balance    decimal.Decimal // cantidad resultante en la celda
	Reason     string
	CreatedAt  time.Time
	CreatedBy  string
}
