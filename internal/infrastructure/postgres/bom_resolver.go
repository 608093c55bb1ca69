package postgres

import (
	"context"

	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
)

var _ repository.BOMResolver = (*BOMResolver)(nil)

// BOMResolver lee la lista de materiales desde bom_lines.
type BOMResolver struct {
	q Querier
}

// NewBOMResolver construye el adaptador.
func NewBOMResolver(q Querier) *BOMResolver {
	return &BOMResolver{q: q}
}

func (b *BOMResolver) Resolve(ctx context.Context, productID string) ([]entity.BOMLine, error) {
	query := `SELECT material_id, quantity_per_unit FROM bom_lines WHERE product_id = $1 ORDER BY material_id`
	rows, err := b.q.Query(ctx, query, productID)
	if err != nil {
		return nil, wrapErr("resolve bom", err)
	}
	defer rows.Close()
	var out []entity.BOMLine
	for rows.Next() {
		var l entity.BOMLine
		if err := rows.Scan(&l.MaterialID, &l.QuantityPerUnit); err != nil {
			return nil, wrapErr("resolve bom", err)
		}
		out = append(out, l)
	}
	return out, wrapErr("resolve bom", rows.Err())
}
