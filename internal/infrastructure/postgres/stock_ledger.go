package postgres

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventory-movements/internal/domain"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.StockLedger = (*StockLedger)(nil)

// StockLedger ledger sobre la tabla stock_cells. Cada mutación es una sola sentencia
// UPDATE/UPSERT con guarda "quantity + delta >= 0", de modo que PostgreSQL solo
// bloquea la fila tocada. version se incrementa en cada escritura.
type StockLedger struct {
	q  Querier
	tx *TxRunner
}

// NewStockLedger construye el ledger. tx se usa para ApplyDeltas.
func NewStockLedger(q Querier, tx *TxRunner) *StockLedger {
	return &StockLedger{q: q, tx: tx}
}

const cellColumns = `item_id, location_id, quantity, version, updated_at`

func scanCell(row pgx.Row) (*entity.StockCell, error) {
	var c entity.StockCell
	if err := row.Scan(&c.ItemID, &c.LocationID, &c.Quantity, &c.Version, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Get obtiene la celda; si no existe devuelve cantidad 0 y versión 0.
func (l *StockLedger) Get(ctx context.Context, key entity.StockKey) (*entity.StockCell, error) {
	return getCell(ctx, l.q, key)
}

func getCell(ctx context.Context, q Querier, key entity.StockKey) (*entity.StockCell, error) {
	query := `SELECT ` + cellColumns + ` FROM stock_cells WHERE item_id = $1 AND location_id = $2`
	c, err := scanCell(q.QueryRow(ctx, query, key.ItemID, key.LocationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockCell{ItemID: key.ItemID, LocationID: key.LocationID, Quantity: decimal.Zero}, nil
		}
		return nil, wrapErr("get stock cell", err)
	}
	return c, nil
}

// CompareAndAdd aplica delta si version sigue siendo expectedVersion.
func (l *StockLedger) CompareAndAdd(ctx context.Context, key entity.StockKey, delta decimal.Decimal, expectedVersion int64) (*entity.StockCell, error) {
	var (
		c   *entity.StockCell
		err error
	)
	if expectedVersion == 0 {
		if delta.IsNegative() {
			return nil, l.explainMiss(ctx, l.q, key, delta, expectedVersion)
		}
		// La celda no existía al leerla: solo se crea si nadie la creó antes.
		query := `
			INSERT INTO stock_cells (item_id, location_id, quantity, version, updated_at)
			VALUES ($1, $2, $3, 1, now())
			ON CONFLICT (item_id, location_id) DO NOTHING
			RETURNING ` + cellColumns
		c, err = scanCell(l.q.QueryRow(ctx, query, key.ItemID, key.LocationID, delta))
	} else {
		query := `
			UPDATE stock_cells
			SET quantity = quantity + $3, version = version + 1, updated_at = now()
			WHERE item_id = $1 AND location_id = $2 AND version = $4 AND quantity + $3 >= 0
			RETURNING ` + cellColumns
		c, err = scanCell(l.q.QueryRow(ctx, query, key.ItemID, key.LocationID, delta, expectedVersion))
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, l.explainMiss(ctx, l.q, key, delta, expectedVersion)
		}
		return nil, wrapErr("compare and add stock", err)
	}
	return c, nil
}

// Add incremento/decremento atómico sin versión esperada.
func (l *StockLedger) Add(ctx context.Context, key entity.StockKey, delta decimal.Decimal) (*entity.StockCell, error) {
	return l.add(ctx, l.q, key, delta)
}

func (l *StockLedger) add(ctx context.Context, q Querier, key entity.StockKey, delta decimal.Decimal) (*entity.StockCell, error) {
	var query string
	if delta.IsNegative() {
		query = `
			UPDATE stock_cells
			SET quantity = quantity + $3, version = version + 1, updated_at = now()
			WHERE item_id = $1 AND location_id = $2 AND quantity + $3 >= 0
			RETURNING ` + cellColumns
	} else {
		query = `
			INSERT INTO stock_cells (item_id, location_id, quantity, version, updated_at)
			VALUES ($1, $2, $3, 1, now())
			ON CONFLICT (item_id, location_id) DO UPDATE
			SET quantity = stock_cells.quantity + EXCLUDED.quantity,
			    version = stock_cells.version + 1,
			    updated_at = now()
			RETURNING ` + cellColumns
	}
	c, err := scanCell(q.QueryRow(ctx, query, key.ItemID, key.LocationID, delta))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, l.explainMiss(ctx, q, key, delta, -1)
		}
		return nil, wrapErr("add stock", err)
	}
	return c, nil
}

// explainMiss distingue, tras una escritura que no afectó filas, entre versión
// desactualizada y stock insuficiente. expectedVersion < 0 omite la verificación de versión.
func (l *StockLedger) explainMiss(ctx context.Context, q Querier, key entity.StockKey, delta decimal.Decimal, expectedVersion int64) error {
	cur, err := getCell(ctx, q, key)
	if err != nil {
		return err
	}
	if expectedVersion >= 0 && cur.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	return domain.NewInsufficientStock(key.ItemID, key.LocationID, delta.Neg(), cur.Quantity)
}

// ApplyDeltas aplica todos los deltas en una transacción, en orden de clave para que
// llamadas concurrentes tomen los locks de fila en el mismo orden. Si una celda
// quedaría negativa la transacción se revierte completa.
func (l *StockLedger) ApplyDeltas(ctx context.Context, deltas []entity.StockDelta) ([]*entity.StockCell, error) {
	merged := make(map[entity.StockKey]decimal.Decimal, len(deltas))
	for _, d := range deltas {
		merged[d.Key] = merged[d.Key].Add(d.Delta)
	}
	keys := make([]entity.StockKey, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	cells := make(map[entity.StockKey]*entity.StockCell, len(keys))
	err := l.tx.Run(ctx, func(q Querier) error {
		for _, k := range keys {
			c, err := l.add(ctx, q, k, merged[k])
			if err != nil {
				return err
			}
			cells[k] = c
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]*entity.StockCell, len(deltas))
	for i, d := range deltas {
		out[i] = cells[d.Key]
	}
	return out, nil
}

// ListByItem celdas del ítem en todas las ubicaciones.
func (l *StockLedger) ListByItem(ctx context.Context, itemID string) ([]*entity.StockCell, error) {
	query := `SELECT ` + cellColumns + ` FROM stock_cells WHERE item_id = $1 ORDER BY location_id`
	return l.list(ctx, "list stock by item", query, itemID)
}

// ListByLocation celdas de la ubicación, filtradas por ítems si se indican.
func (l *StockLedger) ListByLocation(ctx context.Context, locationID string, itemIDs []string) ([]*entity.StockCell, error) {
	if len(itemIDs) == 0 {
		query := `SELECT ` + cellColumns + ` FROM stock_cells WHERE location_id = $1 ORDER BY item_id`
		return l.list(ctx, "list stock by location", query, locationID)
	}
	query := `SELECT ` + cellColumns + ` FROM stock_cells WHERE location_id = $1 AND item_id = ANY($2) ORDER BY item_id`
	return l.list(ctx, "list stock by location", query, locationID, itemIDs)
}

func (l *StockLedger) list(ctx context.Context, op, query string, args ...any) ([]*entity.StockCell, error) {
	rows, err := l.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()
	var out []*entity.StockCell
	for rows.Next() {
		c, err := scanCell(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		out = append(out, c)
	}
	return out, wrapErr(op, rows.Err())
}

// TotalsByItems suma por ítem en una sola consulta.
func (l *StockLedger) TotalsByItems(ctx context.Context, itemIDs []string) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal, len(itemIDs))
	if len(itemIDs) == 0 {
		return totals, nil
	}
	query := `SELECT item_id, SUM(quantity) FROM stock_cells WHERE item_id = ANY($1) GROUP BY item_id`
	rows, err := l.q.Query(ctx, query, itemIDs)
	if err != nil {
		return nil, wrapErr("stock totals", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var total decimal.Decimal
		if err := rows.Scan(&id, &total); err != nil {
			return nil, wrapErr("stock totals", err)
		}
		totals[id] = total
	}
	return totals, wrapErr("stock totals", rows.Err())
}
