package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventory-movements/internal/application/dto"
	"github.com/jhoicas/inventory-movements/internal/domain"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
	"github.com/rs/zerolog"
)

// Tipos de ítem admitidos.
var itemTypes = map[string]bool{"raw_material": true, "product": true, "supply": true}

// ItemUseCase casos de uso del catálogo de ítems. El stock no se toca aquí: solo vía ledger.
type ItemUseCase struct {
	repo repository.ItemRepository
	log  zerolog.Logger
}

// NewItemUseCase construye el caso de uso.
func NewItemUseCase(repo repository.ItemRepository, log zerolog.Logger) *ItemUseCase {
	return &ItemUseCase{repo: repo, log: log.With().Str("component", "item_catalog").Logger()}
}

// Create registra un ítem activo.
func (uc *ItemUseCase) Create(ctx context.Context, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, &domain.ValidationError{Reason: domain.ErrInvalidInput, Detail: "name es obligatorio"}
	}
	if in.Type == "" {
		in.Type = "raw_material"
	}
	if !itemTypes[in.Type] {
		return nil, &domain.ValidationError{Reason: domain.ErrInvalidInput, Detail: "type no soportado: " + in.Type}
	}
	if in.UnitCost.IsNegative() || in.MinStock.IsNegative() {
		return nil, &domain.ValidationError{Reason: domain.ErrInvalidInput, Detail: "unit_cost y min_stock no pueden ser negativos"}
	}
	now := time.Now()
	item := &entity.Item{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Category:  in.Category,
		Type:      in.Type,
		Unit:      in.Unit,
		UnitCost:  in.UnitCost,
		MinStock:  in.MinStock,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	out := dto.ToItemResponse(item)
	return &out, nil
}

// GetByID obtiene un ítem; domain.ErrNotFound si no existe.
func (uc *ItemUseCase) GetByID(ctx context.Context, id string) (*dto.ItemResponse, error) {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	out := dto.ToItemResponse(item)
	return &out, nil
}

// Update aplica los campos presentes sobre la última versión leída y la persiste
// completa: ante ediciones concurrentes prevalece la última escritura confirmada.
func (uc *ItemUseCase) Update(ctx context.Context, id string, in dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, &domain.ValidationError{Reason: domain.ErrInvalidInput, Detail: "name no puede quedar vacío"}
		}
		item.Name = *in.Name
	}
	if in.Category != nil {
		item.Category = *in.Category
	}
	if in.Type != nil {
		if !itemTypes[*in.Type] {
			return nil, &domain.ValidationError{Reason: domain.ErrInvalidInput, Detail: "type no soportado: " + *in.Type}
		}
		item.Type = *in.Type
	}
	if in.Unit != nil {
		item.Unit = *in.Unit
	}
	if in.UnitCost != nil {
		if in.UnitCost.IsNegative() {
			return nil, &domain.ValidationError{Reason: domain.ErrInvalidInput, Detail: "unit_cost no puede ser negativo"}
		}
		item.UnitCost = *in.UnitCost
	}
	if in.MinStock != nil {
		if in.MinStock.IsNegative() {
			return nil, &domain.ValidationError{Reason: domain.ErrInvalidInput, Detail: "min_stock no puede ser negativo"}
		}
		item.MinStock = *in.MinStock
	}
	if in.Active != nil {
		item.Active = *in.Active
	}
	item.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	uc.log.Debug().Str("item_id", id).Msg("ítem actualizado")
	out := dto.ToItemResponse(item)
	return &out, nil
}

// List lista ítems con paginación.
func (uc *ItemUseCase) List(ctx context.Context, limit, offset int) (*dto.ItemListResponse, error) {
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ItemResponse, 0, len(list))
	for _, it := range list {
		items = append(items, dto.ToItemResponse(it))
	}
	return &dto.ItemListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}
