package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventory-movements/internal/domain"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo catálogo de ítems sobre PostgreSQL. Las operaciones *In usan "id = ANY($1)".
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

const itemColumns = `id, name, category, type, unit, unit_cost, min_stock, active, created_at, updated_at`

func scanItem(row pgx.Row) (*entity.Item, error) {
	var it entity.Item
	err := row.Scan(&it.ID, &it.Name, &it.Category, &it.Type, &it.Unit, &it.UnitCost, &it.MinStock,
		&it.Active, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *ItemRepo) Create(ctx context.Context, it *entity.Item) error {
	query := `INSERT INTO items (` + itemColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query, it.ID, it.Name, it.Category, it.Type, it.Unit, it.UnitCost, it.MinStock,
		it.Active, it.CreatedAt, it.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return wrapErr("insert item", err)
	}
	return nil
}

func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	it, err := scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get item", err)
	}
	return it, nil
}

func (r *ItemRepo) GetIn(ctx context.Context, ids []string) ([]*entity.Item, error) {
	if len(ids) == 0 {
		return []*entity.Item{}, nil
	}
	return r.query(ctx, "get items", `SELECT `+itemColumns+` FROM items WHERE id = ANY($1)`, ids)
}

func (r *ItemRepo) List(ctx context.Context, limit, offset int) ([]*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items ORDER BY name, id LIMIT $1 OFFSET $2`
	return r.query(ctx, "list items", query, limit, offset)
}

// Update sobrescribe los campos no numéricos; el último commit prevalece.
func (r *ItemRepo) Update(ctx context.Context, it *entity.Item) error {
	query := `
		UPDATE items SET name = $2, category = $3, type = $4, unit = $5, unit_cost = $6,
		       min_stock = $7, active = $8, updated_at = $9
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, it.ID, it.Name, it.Category, it.Type, it.Unit, it.UnitCost,
		it.MinStock, it.Active, it.UpdatedAt)
	if err != nil {
		return wrapErr("update item", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ItemRepo) UpdateCategoryIn(ctx context.Context, ids []string, category string) ([]string, error) {
	query := `UPDATE items SET category = $2, updated_at = now() WHERE id = ANY($1) RETURNING id`
	return r.ids(ctx, "update category", query, ids, category)
}

func (r *ItemRepo) SetActiveIn(ctx context.Context, ids []string, active bool) ([]string, error) {
	query := `UPDATE items SET active = $2, updated_at = now() WHERE id = ANY($1) RETURNING id`
	return r.ids(ctx, "set active", query, ids, active)
}

func (r *ItemRepo) DeleteIn(ctx context.Context, ids []string) ([]string, error) {
	return r.ids(ctx, "delete items", `DELETE FROM items WHERE id = ANY($1) RETURNING id`, ids)
}

func (r *ItemRepo) query(ctx context.Context, op, query string, args ...any) ([]*entity.Item, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()
	out := make([]*entity.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		out = append(out, it)
	}
	return out, wrapErr(op, rows.Err())
}

func (r *ItemRepo) ids(ctx context.Context, op, query string, ids []string, args ...any) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	rows, err := r.q.Query(ctx, query, append([]any{ids}, args...)...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	affected, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return affected, nil
}
