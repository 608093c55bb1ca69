package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventory-movements/internal/application/dto"
	"github.com/jhoicas/inventory-movements/internal/application/inventory"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
)

// TransferHandler maneja el ciclo de vida de traslados entre ubicaciones (protegido).
type TransferHandler struct {
	uc *inventory.TransferUseCase
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *inventory.TransferUseCase) *TransferHandler {
	return &TransferHandler{uc: uc}
}

// Initiate godoc
// @Summary      Iniciar traslado
// @Description  Crea un traslado pending. No descuenta stock; valida que el origen alcance hoy.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.InitiateTransferRequest  true  "origen, destino, ítem y cantidad"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Initiate(c *fiber.Ctx) error {
	var in dto.InitiateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	t, err := h.uc.InitiateTransfer(c.UserContext(), inventory.InitiateTransferInput{
		SourceLocationID:      in.SourceLocationID,
		DestinationLocationID: in.DestinationLocationID,
		ItemID:                in.ItemID,
		Quantity:              in.Quantity,
		Notes:                 in.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToTransferResponse(t))
}

// Approve godoc
// @Summary      Aprobar o rechazar traslado
// @Description  approved=true descuenta el origen y pasa a in_transit; approved=false cancela.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID del traslado"
// @Param        body  body  dto.ApproveTransferRequest  true  "decisión y notas"
// @Success      200   {object}  dto.TransferResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/approve [post]
func (h *TransferHandler) Approve(c *fiber.Ctx) error {
	var in dto.ApproveTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	t, err := h.uc.ApproveTransfer(c.UserContext(), c.Params("id"), in.Approved, in.Notes)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToTransferResponse(t))
}

// Receive godoc
// @Summary      Recibir traslado
// @Description  Ingresa quantity_received en el destino. El remanente de una recepción parcial
//
//	se trata según ENGINE_PARTIAL_RECEIPT_POLICY.
//
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID del traslado"
// @Param        body  body  dto.ReceiveTransferRequest  true  "cantidad recibida y notas"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/receive [post]
func (h *TransferHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	t, err := h.uc.ReceiveTransfer(c.UserContext(), c.Params("id"), in.QuantityReceived, in.Notes)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToTransferResponse(t))
}

// GetByID godoc
// @Summary      Obtener traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	t, err := h.uc.GetTransfer(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToTransferResponse(t))
}

// Slip godoc
// @Summary      Remisión PDF del traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/slip [get]
func (h *TransferHandler) Slip(c *fiber.Ctx) error {
	id := c.Params("id")
	pdf, err := h.uc.TransferSlip(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="traslado-`+id+`.pdf"`)
	return c.Send(pdf)
}

// ListByLocation godoc
// @Summary      Traslados de una ubicación
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id         path   string  true   "ID de la ubicación"
// @Param        direction  query  string  false  "outgoing | incoming | both (defecto)"
// @Success      200  {object}  dto.TransferListResponse
// @Router       /api/locations/{id}/transfers [get]
func (h *TransferHandler) ListByLocation(c *fiber.Ctx) error {
	locationID := c.Params("id")
	direction := entity.TransferDirection(c.Query("direction", string(entity.DirectionBoth)))
	list, err := h.uc.GetTransfersByLocation(c.UserContext(), locationID, direction)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.TransferListResponse{
		LocationID: locationID,
		Direction:  string(direction),
		Items:      make([]dto.TransferResponse, 0, len(list)),
	}
	for _, t := range list {
		out.Items = append(out.Items, dto.ToTransferResponse(t))
	}
	return c.JSON(out)
}
