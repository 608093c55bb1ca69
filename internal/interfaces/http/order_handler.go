package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventory-movements/internal/application/dto"
	"github.com/jhoicas/inventory-movements/internal/application/fulfillment"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	domaininv "github.com/jhoicas/inventory-movements/internal/domain/inventory"
)

// OrderHandler descuento de materias primas por pedido y su reversa (protegido).
type OrderHandler struct {
	coord *fulfillment.Coordinator
}

// NewOrderHandler construye el handler.
func NewOrderHandler(coord *fulfillment.Coordinator) *OrderHandler {
	return &OrderHandler{coord: coord}
}

// ValidateStock godoc
// @Summary      Validar stock para un pedido
// @Description  Consultivo: compara el consumo agregado de materiales contra el stock dado. No reserva.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ValidateStockRequest  true  "líneas con BOM y stock disponible"
// @Success      200   {object}  inventory.StockValidation
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/orders/validate-stock [post]
func (h *OrderHandler) ValidateStock(c *fiber.Ctx) error {
	var in dto.ValidateStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	lines := make([]domaininv.OrderLine, 0, len(in.OrderItems))
	for _, l := range in.OrderItems {
		materials := make([]domaininv.MaterialUsage, 0, len(l.Materials))
		for _, m := range l.Materials {
			materials = append(materials, domaininv.MaterialUsage{MaterialID: m.MaterialID, QuantityPerUnit: m.QuantityPerUnit})
		}
		lines = append(lines, domaininv.OrderLine{ProductID: l.ProductID, Quantity: l.Quantity, Materials: materials})
	}
	available := make([]domaininv.MaterialStock, 0, len(in.AvailableStock))
	for _, s := range in.AvailableStock {
		available = append(available, domaininv.MaterialStock{
			MaterialID:   s.MaterialID,
			Name:         s.Name,
			Unit:         s.Unit,
			CurrentStock: s.CurrentStock,
			MinStock:     s.MinStock,
		})
	}
	return c.JSON(h.coord.ValidateStock(lines, available))
}

// Deduct godoc
// @Summary      Descontar materias primas del pedido
// @Description  Todo o nada: si algún material quedaría negativo no se descuenta ninguno.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del pedido"
// @Param        body  body  dto.DeductStockRequest  true  "productos y ubicación"
// @Success      201   {array}   dto.DeductedItemDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/deduct [post]
func (h *OrderHandler) Deduct(c *fiber.Ctx) error {
	var in dto.DeductStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	items := make([]entity.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, entity.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	out, err := h.coord.DeductStock(c.UserContext(), c.Params("id"), in.LocationID, items)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Rollback godoc
// @Summary      Revertir el descuento del pedido
// @Description  Restaura lo descontado una sola vez; llamadas repetidas devuelven nothing_to_restore.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true   "ID del pedido"
// @Param        body  body  dto.RollbackStockRequest  false  "ítems descontados (opcional, deben coincidir con la reserva)"
// @Success      200   {object}  dto.RollbackResultDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/rollback [post]
func (h *OrderHandler) Rollback(c *fiber.Ctx) error {
	var in dto.RollbackStockRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	out, err := h.coord.RollbackStock(c.UserContext(), c.Params("id"), in.DeductedItems)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Finalize godoc
// @Summary      Finalizar el pedido
// @Description  La reserva deja de ser reversible.
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.ReservationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/finalize [post]
func (h *OrderHandler) Finalize(c *fiber.Ctx) error {
	out, err := h.coord.Finalize(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetReservation godoc
// @Summary      Reserva del pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.ReservationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/reservation [get]
func (h *OrderHandler) GetReservation(c *fiber.Ctx) error {
	out, err := h.coord.GetReservation(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
