package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockKey identifica una celda del ledger: cantidad de un ítem en una ubicación.
type StockKey struct {
	ItemID     string
	LocationID string
}

func (k StockKey) String() string { return k.ItemID + "@" + k.LocationID }

// Less ordena claves de forma total; los adaptadores bloquean celdas en este orden.
func (k StockKey) Less(o StockKey) bool {
	if k.ItemID != o.ItemID {
		return k.ItemID < o.ItemID
	}
	return k.LocationID < o.LocationID
}

// StockCell representa el stock de un ítem en una ubicación.
// Quantity nunca es negativa; solo se modifica con incrementos/decrementos atómicos.
// Version crece en cada mutación y sirve para compare-and-set optimista.
type StockCell struct {
	ItemID     string
	LocationID string
	Quantity   decimal.Decimal
	Version    int64
	UpdatedAt  time.Time
}

// Key devuelve la clave de la celda.
func (c *StockCell) Key() StockKey {
	return StockKey{ItemID: c.ItemID, LocationID: c.LocationID}
}

// StockDelta es un incremento (positivo) o decremento (negativo) sobre una celda.
type StockDelta struct {
	Key   StockKey
	Delta decimal.Decimal
}
