package http

import (
	"bytes"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventory-movements/internal/application/bulk"
	"github.com/jhoicas/inventory-movements/internal/application/dto"
	"github.com/jhoicas/inventory-movements/internal/domain"
)

// BulkHandler operaciones masivas sobre ítems. Los fallos por ítem van en el cuerpo
// de la respuesta; el status HTTP solo refleja errores del lote completo.
type BulkHandler struct {
	proc *bulk.Processor
}

// NewBulkHandler construye el handler.
func NewBulkHandler(proc *bulk.Processor) *BulkHandler {
	return &BulkHandler{proc: proc}
}

// Adjust godoc
// @Summary      Ajuste masivo de stock
// @Tags         bulk
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkAdjustRequest  true  "ubicación y deltas por ítem"
// @Success      200   {object}  entity.BulkOperationResult
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/bulk/adjust [post]
func (h *BulkHandler) Adjust(c *fiber.Ctx) error {
	var in dto.BulkAdjustRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.LocationID == "" {
		return writeError(c, &domain.ValidationError{Reason: domain.ErrInvalidInput, Detail: "location_id es requerido"})
	}
	adjustments := make([]bulk.StockAdjustment, 0, len(in.Adjustments))
	for _, a := range in.Adjustments {
		adjustments = append(adjustments, bulk.StockAdjustment{ItemID: a.ItemID, Delta: a.Delta, Reason: a.Reason})
	}
	return c.JSON(h.proc.AdjustStock(c.UserContext(), in.LocationID, adjustments))
}

// Category godoc
// @Summary      Reasignar categoría en lote
// @Tags         bulk
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkCategoryRequest  true  "ids y categoría"
// @Success      200   {object}  entity.BulkOperationResult
// @Router       /api/bulk/category [post]
func (h *BulkHandler) Category(c *fiber.Ctx) error {
	var in dto.BulkCategoryRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	return c.JSON(h.proc.ChangeCategory(c.UserContext(), in.IDs, in.Category))
}

// Active godoc
// @Summary      Activar o desactivar ítems en lote
// @Tags         bulk
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkActiveRequest  true  "ids y estado"
// @Success      200   {object}  entity.BulkOperationResult
// @Router       /api/bulk/active [post]
func (h *BulkHandler) Active(c *fiber.Ctx) error {
	var in dto.BulkActiveRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	return c.JSON(h.proc.ToggleActive(c.UserContext(), in.IDs, in.Active))
}

// Delete godoc
// @Summary      Eliminar ítems en lote
// @Description  Ítems con stock positivo solo se eliminan con force=true.
// @Tags         bulk
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkDeleteRequest  true  "ids y force"
// @Success      200   {object}  entity.BulkOperationResult
// @Router       /api/bulk/delete [post]
func (h *BulkHandler) Delete(c *fiber.Ctx) error {
	var in dto.BulkDeleteRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	return c.JSON(h.proc.DeleteItems(c.UserContext(), in.IDs, in.Force))
}

// Export godoc
// @Summary      Exportar ítems a CSV
// @Description  El resumen por ítem viaja en las cabeceras X-Bulk-Total, X-Bulk-Succeeded y X-Bulk-Failed.
// @Tags         bulk
// @Security     Bearer
// @Accept       json
// @Produce      text/csv
// @Param        body  body  dto.BulkExportRequest  true  "ids y encoding (utf-8 | latin1)"
// @Success      200   {file}    binary
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/bulk/export [post]
func (h *BulkHandler) Export(c *fiber.Ctx) error {
	var in dto.BulkExportRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	data, res, err := h.proc.ExportItems(c.UserContext(), in.IDs, in.Encoding)
	if err != nil {
		return writeError(c, err)
	}
	charset := "utf-8"
	if in.Encoding != "" && in.Encoding != bulk.EncodingUTF8 {
		charset = "windows-1252"
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset="+charset)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="items.csv"`)
	c.Set("X-Bulk-Total", strconv.Itoa(res.TotalProcessed))
	c.Set("X-Bulk-Succeeded", strconv.Itoa(res.TotalSucceeded))
	c.Set("X-Bulk-Failed", strconv.Itoa(res.TotalFailed))
	return c.Send(data)
}

// ImportPreview godoc
// @Summary      Vista previa de reimportación CSV
// @Description  Interpreta un CSV con el formato de la exportación. No modifica el catálogo.
// @Tags         bulk
// @Security     Bearer
// @Accept       text/csv
// @Produce      json
// @Param        encoding  query  string  false  "utf-8 (defecto) | latin1"
// @Success      200  {object}  dto.ImportPreviewResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/bulk/import/preview [post]
func (h *BulkHandler) ImportPreview(c *fiber.Ctx) error {
	rows, err := bulk.ParseCSV(bytes.NewReader(c.Body()), c.Query("encoding"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_CSV", Message: err.Error()})
	}
	out := dto.ImportPreviewResponse{Total: len(rows), Rows: make([]dto.ImportPreviewRow, 0, len(rows))}
	for i := range rows {
		out.Rows = append(out.Rows, dto.ImportPreviewRow{
			ItemResponse: dto.ToItemResponse(&rows[i].Item),
			Stock:        rows[i].Stock,
		})
	}
	return c.JSON(out)
}
