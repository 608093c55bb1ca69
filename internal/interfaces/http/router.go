package http

import (
	nethttp "net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jhoicas/inventory-movements/internal/application/bulk"
	"github.com/jhoicas/inventory-movements/internal/application/fulfillment"
	"github.com/jhoicas/inventory-movements/internal/application/inventory"
	"github.com/jhoicas/inventory-movements/internal/application/usecase"
)

// RequestRecorder registra duración y status de cada request HTTP.
type RequestRecorder interface {
	RecordHTTPRequest(method, path string, status int, d time.Duration)
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Transfers     *inventory.TransferUseCase
	StockQuery    *inventory.StockQueryUseCase
	Replenishment *inventory.ReplenishmentUseCase
	Bulk          *bulk.Processor
	Orders        *fulfillment.Coordinator
	Items         *usecase.ItemUseCase
	JWTSecret     string

	// Opcionales: sin ellos no se instrumentan requests ni se expone /metrics.
	Requests       RequestRecorder
	MetricsHandler nethttp.Handler
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Requests != nil {
		app.Use(requestMetrics(deps.Requests))
	}
	if deps.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.MetricsHandler))
	}

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	admin := RequireRole(RoleAdmin)
	warehouse := RequireRole(RoleAdmin, RoleBodeguero)
	production := RequireRole(RoleAdmin, RoleProduccion)

	// Traslados
	transferHandler := NewTransferHandler(deps.Transfers)
	stockHandler := NewStockHandler(deps.StockQuery, deps.Replenishment)
	transfers := protected.Group("/transfers")
	transfers.Post("/", warehouse, transferHandler.Initiate)
	transfers.Get("/:id", transferHandler.GetByID)
	transfers.Get("/:id/slip", transferHandler.Slip)
	transfers.Get("/:id/movements", stockHandler.GetReferenceMovements)
	transfers.Post("/:id/approve", admin, transferHandler.Approve)
	transfers.Post("/:id/receive", warehouse, transferHandler.Receive)

	// Ubicaciones y stock (lectura)
	locations := protected.Group("/locations")
	locations.Get("/:id/transfers", transferHandler.ListByLocation)
	locations.Get("/:id/replenishment", stockHandler.GetReplenishmentList)
	protected.Get("/stock/:item_id", stockHandler.GetByItem)
	protected.Get("/stock/:item_id/movements", stockHandler.GetItemMovements)

	// Operaciones masivas
	bulkHandler := NewBulkHandler(deps.Bulk)
	bulkGroup := protected.Group("/bulk", admin)
	bulkGroup.Post("/adjust", bulkHandler.Adjust)
	bulkGroup.Post("/category", bulkHandler.Category)
	bulkGroup.Post("/active", bulkHandler.Active)
	bulkGroup.Post("/delete", bulkHandler.Delete)
	bulkGroup.Post("/export", bulkHandler.Export)
	bulkGroup.Post("/import/preview", bulkHandler.ImportPreview)

	// Pedidos: descuento de materias primas y reversa
	orderHandler := NewOrderHandler(deps.Orders)
	orders := protected.Group("/orders")
	orders.Post("/validate-stock", orderHandler.ValidateStock)
	orders.Get("/:id/reservation", orderHandler.GetReservation)
	orders.Get("/:id/movements", stockHandler.GetReferenceMovements)
	orders.Post("/:id/deduct", production, orderHandler.Deduct)
	orders.Post("/:id/rollback", production, orderHandler.Rollback)
	orders.Post("/:id/finalize", production, orderHandler.Finalize)

	// Catálogo
	itemHandler := NewItemHandler(deps.Items)
	items := protected.Group("/items")
	items.Get("/", itemHandler.List)
	items.Get("/:id", itemHandler.GetByID)
	items.Post("/", admin, itemHandler.Create)
	items.Put("/:id", admin, itemHandler.Update)
}

// requestMetrics mide cada request con la ruta registrada (no la URL cruda) como etiqueta.
func requestMetrics(rec RequestRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		rec.RecordHTTPRequest(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}
