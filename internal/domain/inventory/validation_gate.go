package inventory

import (
	"strconv"

	"github.com/jhoicas/inventory-movements/internal/domain"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Chequeos de precondición compartidos por traslados, lotes y reservas.
// Devuelven nil o un error tipado del dominio; nunca entran en pánico por condiciones esperadas.

// QuantityScale decimales que conserva el ledger (columnas NUMERIC(18,6)).
const QuantityScale int32 = 6

// CheckPositive exige quantity > 0.
func CheckPositive(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return domain.NewInvalidQuantity(quantity, "la cantidad debe ser mayor que cero: "+quantity.String())
	}
	return nil
}

// CheckScale rechaza cantidades con más decimales de los que guarda el ledger; el
// almacenamiento las redondearía en silencio.
func CheckScale(quantity decimal.Decimal) error {
	if !quantity.Equal(quantity.Truncate(QuantityScale)) {
		return domain.NewInvalidQuantity(quantity,
			"la cantidad "+quantity.String()+" tiene más de "+strconv.Itoa(int(QuantityScale))+" decimales")
	}
	return nil
}

// CheckDistinct exige que origen y destino sean ubicaciones distintas.
func CheckDistinct(sourceID, destinationID string) error {
	if sourceID == destinationID {
		return &domain.ValidationError{Reason: domain.ErrSameLocation, LocationID: sourceID}
	}
	return nil
}

// CheckSufficiency exige requested ≤ available para la celda (itemID, locationID).
func CheckSufficiency(itemID, locationID string, requested, available decimal.Decimal) error {
	if requested.GreaterThan(available) {
		return domain.NewInsufficientStock(itemID, locationID, requested, available)
	}
	return nil
}

// CheckTransition valida el par (estado actual, evento) contra la tabla de transiciones
// y devuelve el estado destino.
func CheckTransition(transferID string, current entity.TransferStatus, event entity.TransferEvent) (entity.TransferStatus, error) {
	next, ok := transitions[transitionKey{from: current, event: event}]
	if !ok {
		return current, &domain.StateError{TransferID: transferID, Current: string(current), Event: string(event)}
	}
	return next, nil
}
