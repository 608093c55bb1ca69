package inventory

import (
	"sort"

	"github.com/shopspring/decimal"
)

// OrderLine línea de pedido ya expandida con su lista de materiales.
type OrderLine struct {
	ProductID string
	Quantity  decimal.Decimal
	Materials []MaterialUsage
}

// MaterialUsage cantidad de un material consumida por unidad de producto.
type MaterialUsage struct {
	MaterialID      string
	QuantityPerUnit decimal.Decimal
}

// MaterialStock stock disponible de un material con su mínimo de seguridad.
type MaterialStock struct {
	MaterialID   string
	Name         string
	Unit         string
	CurrentStock decimal.Decimal
	MinStock     decimal.Decimal
}

// InsufficientItem material cuyo requerimiento supera el stock actual.
type InsufficientItem struct {
	MaterialID string          `json:"material_id"`
	Name       string          `json:"name,omitempty"`
	Required   decimal.Decimal `json:"required"`
	Available  decimal.Decimal `json:"available"`
	Unit       string          `json:"unit,omitempty"`
}

// StockWarning material que queda por debajo del mínimo sin llegar a negativo.
type StockWarning struct {
	MaterialID string          `json:"material_id"`
	Name       string          `json:"name,omitempty"`
	Remaining  decimal.Decimal `json:"remaining"`
	MinStock   decimal.Decimal `json:"min_stock"`
}

// StockValidation resultado de ValidateStock.
type StockValidation struct {
	Valid             bool               `json:"valid"`
	InsufficientItems []InsufficientItem `json:"insufficient_items,omitempty"`
	Warnings          []StockWarning     `json:"warnings,omitempty"`
}

// AggregateRequirements suma quantity_per_unit × cantidad por material. Cada total se
// redondea a QuantityScale, así lo descontado, lo registrado en la reserva y lo
// restaurado son el mismo número.
func AggregateRequirements(lines []OrderLine) map[string]decimal.Decimal {
	required := make(map[string]decimal.Decimal)
	for _, line := range lines {
		for _, m := range line.Materials {
			required[m.MaterialID] = required[m.MaterialID].Add(m.QuantityPerUnit.Mul(line.Quantity))
		}
	}
	for id, q := range required {
		required[id] = q.Round(QuantityScale)
	}
	return required
}

// ValidateStock función pura: compara el requerimiento agregado por material contra el
// stock disponible. Un material ausente de available cuenta con stock cero.
// La salida está ordenada por material para que entradas iguales den salidas iguales.
func ValidateStock(lines []OrderLine, available []MaterialStock) StockValidation {
	required := AggregateRequirements(lines)
	byID := make(map[string]MaterialStock, len(available))
	for _, s := range available {
		byID[s.MaterialID] = s
	}

	ids := make([]string, 0, len(required))
	for id := range required {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	res := StockValidation{Valid: true}
	for _, id := range ids {
		req := required[id]
		s, ok := byID[id]
		if !ok {
			s = MaterialStock{MaterialID: id, CurrentStock: decimal.Zero}
		}
		remaining := s.CurrentStock.Sub(req)
		if remaining.IsNegative() {
			res.Valid = false
			res.InsufficientItems = append(res.InsufficientItems, InsufficientItem{
				MaterialID: id,
				Name:       s.Name,
				Required:   req,
				Available:  s.CurrentStock,
				Unit:       s.Unit,
			})
			continue
		}
		if remaining.LessThan(s.MinStock) {
			res.Warnings = append(res.Warnings, StockWarning{
				MaterialID: id,
				Name:       s.Name,
				Remaining:  remaining,
				MinStock:   s.MinStock,
			})
		}
	}
	return res
}
