package entity

// BulkItemResult resultado de una entrada del lote; Error vacío significa éxito.
type BulkItemResult struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

// BulkOperationResult se crea nuevo por cada llamada de lote y no se modifica tras devolverse.
type BulkOperationResult struct {
	TotalProcessed int              `json:"total_processed"`
	TotalSucceeded int              `json:"total_succeeded"`
	TotalFailed    int              `json:"total_failed"`
	Results        []BulkItemResult `json:"results"`
}

// NewBulkOperationResult arma el resultado a partir de la lista ordenada por entrada.
func NewBulkOperationResult(results []BulkItemResult) BulkOperationResult {
	r := BulkOperationResult{TotalProcessed: len(results), Results: results}
	for _, it := range results {
		if it.Error == "" {
			r.TotalSucceeded++
		} else {
			r.TotalFailed++
		}
	}
	return r
}
