package postgres

import (
	"context"
	_ "embed"
)

//go:embed migrations/0001_inventory_engine.sql
var schemaSQL string

// Migrate crea las tablas del motor si no existen. Es idempotente.
func Migrate(ctx context.Context, q Querier) error {
	_, err := q.Exec(ctx, schemaSQL)
	return wrapErr("apply schema", err)
}
