package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventory-movements/internal/domain"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo implementación del puerto TransferRepository sobre PostgreSQL.
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `id, source_location_id, destination_location_id, item_id, quantity_requested,
	quantity_received, shortfall, status, requested_by, requested_at, approved_by, approved_at,
	received_by, received_at, notes, updated_at`

func scanTransfer(row pgx.Row) (*entity.Transfer, error) {
	var t entity.Transfer
	err := row.Scan(
		&t.ID, &t.SourceLocationID, &t.DestinationLocationID, &t.ItemID, &t.QuantityRequested,
		&t.QuantityReceived, &t.Shortfall, &t.Status, &t.RequestedBy, &t.RequestedAt, &t.ApprovedBy, &t.ApprovedAt,
		&t.ReceivedBy, &t.ReceivedAt, &t.Notes, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create persiste un traslado pending.
func (r *TransferRepo) Create(ctx context.Context, t *entity.Transfer) error {
	query := `INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.SourceLocationID, t.DestinationLocationID, t.ItemID, t.QuantityRequested,
		t.QuantityReceived, t.Shortfall, t.Status, t.RequestedBy, t.RequestedAt, t.ApprovedBy, t.ApprovedAt,
		t.ReceivedBy, t.ReceivedAt, t.Notes, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return wrapErr("insert transfer", err)
	}
	return nil
}

// GetByID obtiene un traslado; nil, nil si no existe.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1`
	t, err := scanTransfer(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get transfer", err)
	}
	return t, nil
}

// UpdateIfStatus compare-and-set sobre status: "WHERE status = expected".
func (r *TransferRepo) UpdateIfStatus(ctx context.Context, t *entity.Transfer, expected entity.TransferStatus) (bool, error) {
	query := `
		UPDATE transfers
		SET quantity_received = $2, shortfall = $3, status = $4, approved_by = $5, approved_at = $6,
		    received_by = $7, received_at = $8, notes = $9, updated_at = $10
		WHERE id = $1 AND status = $11`
	cmd, err := r.q.Exec(ctx, query,
		t.ID, t.QuantityReceived, t.Shortfall, t.Status, t.ApprovedBy, t.ApprovedAt,
		t.ReceivedBy, t.ReceivedAt, t.Notes, t.UpdatedAt, expected,
	)
	if err != nil {
		return false, wrapErr("update transfer", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// ListByLocation traslados salientes, entrantes o ambos, más recientes primero.
func (r *TransferRepo) ListByLocation(ctx context.Context, locationID string, direction entity.TransferDirection) ([]*entity.Transfer, error) {
	var where string
	switch direction {
	case entity.DirectionOutgoing:
		where = `source_location_id = $1`
	case entity.DirectionIncoming:
		where = `destination_location_id = $1`
	default:
		where = `(source_location_id = $1 OR destination_location_id = $1)`
	}
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE ` + where + ` ORDER BY requested_at DESC, id`
	rows, err := r.q.Query(ctx, query, locationID)
	if err != nil {
		return nil, wrapErr("list transfers", err)
	}
	defer rows.Close()
	out := make([]*entity.Transfer, 0)
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, wrapErr("scan transfer", err)
		}
		out = append(out, t)
	}
	return out, wrapErr("list transfers", rows.Err())
}
