package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventory-movements/internal/application/dto"
	"github.com/jhoicas/inventory-movements/internal/application/inventory"
)

// StockHandler consultas de solo lectura sobre el ledger (protegido).
type StockHandler struct {
	query         *inventory.StockQueryUseCase
	replenishment *inventory.ReplenishmentUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(query *inventory.StockQueryUseCase, replenishment *inventory.ReplenishmentUseCase) *StockHandler {
	return &StockHandler{query: query, replenishment: replenishment}
}

// GetByItem godoc
// @Summary      Stock de un ítem
// @Description  Sin location_id devuelve el stock por ubicación y el total; con location_id, la celda.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        item_id      path   string  true   "ID del ítem"
// @Param        location_id  query  string  false  "Ubicación"
// @Success      200  {object}  dto.ItemStockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/{item_id} [get]
func (h *StockHandler) GetByItem(c *fiber.Ctx) error {
	itemID := c.Params("item_id")
	if locationID := c.Query("location_id"); locationID != "" {
		cell, err := h.query.GetStock(c.UserContext(), itemID, locationID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(dto.ToStockCellResponse(cell))
	}
	out, err := h.query.GetStockByItem(c.UserContext(), itemID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetItemMovements godoc
// @Summary      Diario de movimientos de un ítem
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        item_id  path   string  true   "ID del ítem"
// @Param        limit    query  int     false  "Límite"  default(20)
// @Param        offset   query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/{item_id}/movements [get]
func (h *StockHandler) GetItemMovements(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	out, err := h.query.GetMovementsByItem(c.UserContext(), c.Params("item_id"), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetReferenceMovements godoc
// @Summary      Movimientos de un traslado o pedido
// @Description  Entradas del diario cuya referencia es el id del traslado o del pedido.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado o pedido"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/movements [get]
// @Router       /api/orders/{id}/movements [get]
func (h *StockHandler) GetReferenceMovements(c *fiber.Ctx) error {
	out, err := h.query.GetMovementsByReference(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetReplenishmentList godoc
// @Summary      Lista de reposición
// @Description  Ítems activos por debajo de su mínimo en la ubicación, con la cantidad sugerida
//
//	para llegar a 1.5 × mínimo, ordenados por urgencia.
//
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la ubicación"
// @Success      200  {array}   dto.ReplenishmentSuggestionDTO
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/locations/{id}/replenishment [get]
func (h *StockHandler) GetReplenishmentList(c *fiber.Ctx) error {
	list, err := h.replenishment.GenerateReplenishmentList(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": list,
	})
}
