package entity

import "github.com/shopspring/decimal"

// BOMLine una línea de la lista de materiales: materia prima y cantidad por unidad de producto.
type BOMLine struct {
	MaterialID      string
	QuantityPerUnit decimal.Decimal
}

// OrderItem una línea de pedido de un producto vendible.
type OrderItem struct {
	ProductID string
	Quantity  decimal.Decimal
}
