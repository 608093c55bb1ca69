package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
)

var _ repository.BOMResolver = (*BOMResolver)(nil)

// BOMResolver listas de materiales cargadas en memoria.
type BOMResolver struct {
	mu    sync.RWMutex
	lines map[string][]entity.BOMLine
}

// NewBOMResolver construye el resolver vacío.
func NewBOMResolver() *BOMResolver {
	return &BOMResolver{lines: make(map[string][]entity.BOMLine)}
}

// Set reemplaza la lista de materiales de un producto.
func (b *BOMResolver) Set(productID string, lines ...entity.BOMLine) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines[productID] = append([]entity.BOMLine(nil), lines...)
}

// Resolve devuelve una lista vacía para productos sin BOM.
func (b *BOMResolver) Resolve(_ context.Context, productID string) ([]entity.BOMLine, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]entity.BOMLine(nil), b.lines[productID]...), nil
}
