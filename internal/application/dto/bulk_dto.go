package dto

import "github.com/shopspring/decimal"

// StockAdjustmentRequest una entrada del ajuste masivo.
type StockAdjustmentRequest struct {
	ItemID string          `json:"item_id"`
	Delta  decimal.Decimal `json:"delta"`
	Reason string          `json:"reason"`
}

// BulkAdjustRequest body para POST /api/bulk/adjust.
type BulkAdjustRequest struct {
	LocationID  string                   `json:"location_id"`
	Adjustments []StockAdjustmentRequest `json:"adjustments"`
}

// BulkCategoryRequest body para POST /api/bulk/category.
type BulkCategoryRequest struct {
	IDs      []string `json:"ids"`
	Category string   `json:"category"`
}

// BulkActiveRequest body para POST /api/bulk/active.
type BulkActiveRequest struct {
	IDs    []string `json:"ids"`
	Active bool     `json:"active"`
}

// BulkDeleteRequest body para POST /api/bulk/delete.
type BulkDeleteRequest struct {
	IDs   []string `json:"ids"`
	Force bool     `json:"force"`
}

// BulkExportRequest body para POST /api/bulk/export.
type BulkExportRequest struct {
	IDs      []string `json:"ids"`
	Encoding string   `json:"encoding,omitempty"` // utf-8 (defecto) o latin1
}

// ImportPreviewRow fila interpretada de un CSV de ítems.
type ImportPreviewRow struct {
	ItemResponse
	Stock decimal.Decimal `json:"stock"`
}

// ImportPreviewResponse vista previa de una reimportación; no muta nada.
type ImportPreviewResponse struct {
	Total int                `json:"total"`
	Rows  []ImportPreviewRow `json:"rows"`
}
