package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item representa un ítem del catálogo (materia prima o producto).
// Los campos no numéricos siguen last-write-wins; el stock vive en el ledger, nunca aquí.
type Item struct {
	ID        string
	Name      string
	Category  string
	Type      string // raw_material, product, supply
	Unit      string
	UnitCost  decimal.Decimal
	MinStock  decimal.Decimal
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ItemStock es la proyección de un ítem con su stock agregado (lectura/exportación).
type ItemStock struct {
	Item
	Stock decimal.Decimal
}
