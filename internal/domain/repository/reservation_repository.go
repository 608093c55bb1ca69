package repository

import (
	"context"

	"github.com/jhoicas/inventory-movements/internal/domain/entity"
)

// ReservationRepository define el puerto para reservas de pedidos.
type ReservationRepository interface {
	// Create falla con domain.ErrDuplicate si ya existe una reserva para el pedido.
	Create(ctx context.Context, reservation *entity.Reservation) error
	GetByOrderID(ctx context.Context, orderID string) (*entity.Reservation, error)
	// Transition cambia el estado solo si el actual es from; devuelve false en caso contrario.
	Transition(ctx context.Context, orderID string, from, to entity.ReservationStatus) (bool, error)
	// DeleteIfStatus borra la reserva solo si su estado es status; devuelve false en caso contrario.
	DeleteIfStatus(ctx context.Context, orderID string, status entity.ReservationStatus) (bool, error)
}
