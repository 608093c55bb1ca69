package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Validación: rechazadas antes de cualquier mutación.
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrSameLocation      = errors.New("origen y destino son la misma ubicación")
	ErrInvalidQuantity   = errors.New("cantidad inválida")

	// Estado: operación ilegal para el estado actual del traslado.
	ErrInvalidState = errors.New("transición de estado inválida")

	// ErrVersionConflict lo devuelve el ledger cuando la versión esperada de la celda cambió.
	ErrVersionConflict = errors.New("versión de celda desactualizada")
	// ErrConcurrencyConflict se expone al caller tras agotar los reintentos; es reintentable.
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia, reintente")

	// ErrStoreUnavailable falla de infraestructura (ledger inalcanzable).
	ErrStoreUnavailable = errors.New("almacenamiento no disponible")
)

// ValidationError describe un rechazo de validación nombrando ítem, ubicación y cantidades.
type ValidationError struct {
	Reason     error
	ItemID     string
	LocationID string
	Requested  decimal.Decimal
	Available  decimal.Decimal
	Detail     string
}

func (e *ValidationError) Error() string {
	switch {
	case errors.Is(e.Reason, ErrInsufficientStock):
		return fmt.Sprintf("%s: ítem %s en ubicación %s (solicitado %s, disponible %s)",
			e.Reason, e.ItemID, e.LocationID, e.Requested.String(), e.Available.String())
	case errors.Is(e.Reason, ErrSameLocation):
		return fmt.Sprintf("%s: %s", e.Reason, e.LocationID)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
	default:
		return fmt.Sprintf("%s: %s", e.Reason, e.Requested.String())
	}
}

func (e *ValidationError) Unwrap() error { return e.Reason }

// StateError indica que el evento solicitado no es legal desde el estado actual.
type StateError struct {
	TransferID string
	Current    string
	Event      string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: traslado %s en estado %s no admite %s",
		ErrInvalidState, e.TransferID, e.Current, e.Event)
}

func (e *StateError) Unwrap() error { return ErrInvalidState }

// ConflictError se devuelve cuando el compare-and-set no prosperó tras Attempts intentos.
type ConflictError struct {
	Op       string
	Key      string
	Attempts int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s sobre %s tras %d intentos", ErrConcurrencyConflict, e.Op, e.Key, e.Attempts)
}

func (e *ConflictError) Unwrap() error { return ErrConcurrencyConflict }

// Retryable indica al caller que puede reintentar la operación completa.
func (e *ConflictError) Retryable() bool { return true }

// FaultError envuelve una falla de infraestructura. El caller debe asumir que la
// operación en curso no dejó commits parciales.
type FaultError struct {
	Op  string
	Err error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStoreUnavailable, e.Op, e.Err)
}

func (e *FaultError) Unwrap() []error { return []error{ErrStoreUnavailable, e.Err} }

// NewInsufficientStock construye el error de validación de stock insuficiente.
func NewInsufficientStock(itemID, locationID string, requested, available decimal.Decimal) *ValidationError {
	return &ValidationError{
		Reason:     ErrInsufficientStock,
		ItemID:     itemID,
		LocationID: locationID,
		Requested:  requested,
		Available:  available,
	}
}

// NewInvalidQuantity construye el error de cantidad no válida con el detalle dado.
func NewInvalidQuantity(quantity decimal.Decimal, detail string) *ValidationError {
	return &ValidationError{Reason: ErrInvalidQuantity, Requested: quantity, Detail: detail}
}

// IsRetryable reporta si err es un conflicto de concurrencia reintentable.
func IsRetryable(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce) || errors.Is(err, ErrConcurrencyConflict)
}
