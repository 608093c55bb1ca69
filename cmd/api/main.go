package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/inventory-movements/internal/application/bulk"
	"github.com/jhoicas/inventory-movements/internal/application/fulfillment"
	"github.com/jhoicas/inventory-movements/internal/application/inventory"
	"github.com/jhoicas/inventory-movements/internal/application/notify"
	"github.com/jhoicas/inventory-movements/internal/application/ports"
	"github.com/jhoicas/inventory-movements/internal/application/usecase"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
	"github.com/jhoicas/inventory-movements/internal/infrastructure/events"
	"github.com/jhoicas/inventory-movements/internal/infrastructure/identity"
	"github.com/jhoicas/inventory-movements/internal/infrastructure/memory"
	"github.com/jhoicas/inventory-movements/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/inventory-movements/internal/infrastructure/pdf"
	"github.com/jhoicas/inventory-movements/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/inventory-movements/internal/interfaces/http"
	"github.com/jhoicas/inventory-movements/pkg/config"
	"github.com/jhoicas/inventory-movements/pkg/logger"

	_ "github.com/jhoicas/inventory-movements/docs"
)

// stores adaptadores de persistencia elegidos por STORE_DRIVER.
type stores struct {
	ledger       repository.StockLedger
	transfers    repository.TransferRepository
	items        repository.ItemRepository
	reservations repository.ReservationRepository
	movements    repository.InventoryMovementRepository
	bom          repository.BOMResolver
	close        func()
}

// @title                       Inventory Movements API
// @version                     1.0
// @description                 Traslados entre ubicaciones, operaciones masivas y descuento de materias primas por pedido.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	var rec *metrics.Metrics
	var recorder ports.Recorder = ports.NopRecorder{}
	if cfg.Metrics.Enabled {
		rec = metrics.New("inventory")
		recorder = rec
	}

	var publisher ports.EventPublisher = events.NewLogPublisher(log.Zerolog())
	if cfg.Kafka.Enabled() {
		kp := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			Source:  cfg.App.Name,
		})
		defer kp.Close()
		publisher = kp
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("eventos hacia Kafka")
	}
	if rec != nil {
		publisher = events.Instrumented(publisher, rec)
	}

	zl := log.Zerolog()
	actor := identity.ContextActor{Fallback: "system"}
	dispatcher := notify.NewDispatcher(publisher, st.movements, st.items, zl)

	transferUC := inventory.NewTransferUseCase(inventory.TransferDeps{
		Ledger:     st.ledger,
		Transfers:  st.transfers,
		Items:      st.items,
		Dispatcher: dispatcher,
		Actor:      actor,
		Metrics:    recorder,
		Slips:      infrapdf.NewTransferSlipGenerator(cfg.App.Name),
		Logger:     zl,
	}, inventory.TransferConfig{
		MaxRetries:     cfg.Engine.MaxRetries,
		RetryBase:      cfg.Engine.RetryBase,
		PartialReceipt: inventory.ParsePartialReceiptPolicy(cfg.Engine.PartialReceiptPolicy),
	})
	coordinator := fulfillment.NewCoordinator(fulfillment.Deps{
		Ledger:            st.ledger,
		Reservations:      st.reservations,
		BOM:               st.bom,
		Dispatcher:        dispatcher,
		Actor:             actor,
		Metrics:           recorder,
		Logger:            zl,
		DefaultLocationID: cfg.Engine.DefaultLocationID,
	})
	processor := bulk.NewProcessor(st.ledger, st.items, dispatcher, actor, recorder, zl, cfg.Engine.BulkWorkers)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventory Movements API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Store.Driver})
	})

	deps := httpRouter.RouterDeps{
		Transfers:     transferUC,
		StockQuery:    inventory.NewStockQueryUseCase(st.ledger, st.movements),
		Replenishment: inventory.NewReplenishmentUseCase(st.items, st.ledger),
		Bulk:          processor,
		Orders:        coordinator,
		Items:         usecase.NewItemUseCase(st.items, zl),
		JWTSecret:     cfg.JWT.Secret,
	}
	if rec != nil {
		deps.Requests = rec
		deps.MetricsHandler = rec.Handler()
	}
	httpRouter.Router(app, deps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openStores abre PostgreSQL (y aplica el esquema) o arma los adaptadores en memoria.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		return &stores{
			ledger:       memory.NewStockLedger(),
			transfers:    memory.NewTransferRepository(),
			items:        memory.NewItemRepository(),
			reservations: memory.NewReservationRepository(),
			movements:    memory.NewInventoryMovementRepository(),
			bom:          memory.NewBOMResolver(),
			close:        func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &stores{
		ledger:       postgres.NewStockLedger(pool, postgres.NewTxRunner(pool)),
		transfers:    postgres.NewTransferRepository(pool),
		items:        postgres.NewItemRepository(pool),
		reservations: postgres.NewReservationRepository(pool),
		movements:    postgres.NewInventoryMovementRepository(pool),
		bom:          postgres.NewBOMResolver(pool),
		close:        pool.Close,
	}, nil
}
