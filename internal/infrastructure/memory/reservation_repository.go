package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/inventory-movements/internal/domain"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo reservas por pedido en memoria.
type ReservationRepo struct {
	mu           sync.Mutex
	reservations map[string]entity.Reservation
}

// NewReservationRepository construye el repositorio vacío.
func NewReservationRepository() *ReservationRepo {
	return &ReservationRepo{reservations: make(map[string]entity.Reservation)}
}

func (r *ReservationRepo) Create(_ context.Context, res *entity.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reservations[res.OrderID]; ok {
		return fmt.Errorf("%w: reserva del pedido %s", domain.ErrDuplicate, res.OrderID)
	}
	r.reservations[res.OrderID] = cloneReservation(*res)
	return nil
}

func (r *ReservationRepo) GetByOrderID(_ context.Context, orderID string) (*entity.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[orderID]
	if !ok {
		return nil, nil
	}
	out := cloneReservation(res)
	return &out, nil
}

// Transition compare-and-set sobre el estado.
func (r *ReservationRepo) Transition(_ context.Context, orderID string, from, to entity.ReservationStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[orderID]
	if !ok || res.Status != from {
		return false, nil
	}
	res.Status = to
	res.UpdatedAt = time.Now()
	r.reservations[orderID] = res
	return true, nil
}

func (r *ReservationRepo) DeleteIfStatus(_ context.Context, orderID string, status entity.ReservationStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[orderID]
	if !ok || res.Status != status {
		return false, nil
	}
	delete(r.reservations, orderID)
	return true, nil
}

func cloneReservation(res entity.Reservation) entity.Reservation {
	res.Lines = append([]entity.ReservationLine(nil), res.Lines...)
	return res
}
