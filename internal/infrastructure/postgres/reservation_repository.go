package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventory-movements/internal/domain"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo reservas por pedido; las líneas se guardan en una columna JSONB.
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

type reservationLine struct {
	MaterialID     string          `json:"material_id"`
	AmountDeducted decimal.Decimal `json:"amount_deducted"`
}

// Create inserta la reserva; order_id es clave primaria.
func (r *ReservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	lines := make([]reservationLine, len(res.Lines))
	for i, l := range res.Lines {
		lines[i] = reservationLine{MaterialID: l.MaterialID, AmountDeducted: l.AmountDeducted}
	}
	query := `
		INSERT INTO reservations (order_id, location_id, lines, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, res.OrderID, res.LocationID, lines, res.Status, res.CreatedBy, res.CreatedAt, res.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return wrapErr("insert reservation", err)
	}
	return nil
}

// GetByOrderID nil, nil si el pedido no tiene reserva.
func (r *ReservationRepo) GetByOrderID(ctx context.Context, orderID string) (*entity.Reservation, error) {
	query := `
		SELECT order_id, location_id, lines, status, created_by, created_at, updated_at
		FROM reservations WHERE order_id = $1`
	var res entity.Reservation
	var lines []reservationLine
	err := r.q.QueryRow(ctx, query, orderID).Scan(
		&res.OrderID, &res.LocationID, &lines, &res.Status, &res.CreatedBy, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get reservation", err)
	}
	for _, l := range lines {
		res.Lines = append(res.Lines, entity.ReservationLine{MaterialID: l.MaterialID, AmountDeducted: l.AmountDeducted})
	}
	return &res, nil
}

// Transition compare-and-set: solo cambia el estado si sigue siendo from.
func (r *ReservationRepo) Transition(ctx context.Context, orderID string, from, to entity.ReservationStatus) (bool, error) {
	query := `UPDATE reservations SET status = $3, updated_at = now() WHERE order_id = $1 AND status = $2`
	cmd, err := r.q.Exec(ctx, query, orderID, from, to)
	if err != nil {
		return false, wrapErr("transition reservation", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *ReservationRepo) DeleteIfStatus(ctx context.Context, orderID string, status entity.ReservationStatus) (bool, error) {
	cmd, err := r.q.Exec(ctx, `DELETE FROM reservations WHERE order_id = $1 AND status = $2`, orderID, status)
	if err != nil {
		return false, wrapErr("delete reservation", err)
	}
	return cmd.RowsAffected() == 1, nil
}
