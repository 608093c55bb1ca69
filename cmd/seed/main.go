// seed carga ítems y stock inicial en PostgreSQL a partir de un CSV con el formato de
// la exportación masiva (id,name,category,type,stock,unit,unit_cost,min_stock,active).
//
// Uso: go run ./cmd/seed <ubicación> [ruta/items.csv] [encoding]
// Por defecto lee items.csv del directorio actual en UTF-8; encoding acepta latin1.
// Los ítems existentes se actualizan y el stock se suma a la celda (ítem, ubicación).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/inventory-movements/internal/application/bulk"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/jhoicas/inventory-movements/internal/infrastructure/postgres"
	"github.com/jhoicas/inventory-movements/pkg/config"
	"github.com/jhoicas/inventory-movements/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: seed <ubicación> [items.csv] [encoding]")
		os.Exit(2)
	}
	locationID := os.Args[1]
	csvPath := "items.csv"
	if len(os.Args) > 2 {
		csvPath = os.Args[2]
	}
	enc := bulk.EncodingUTF8
	if len(os.Args) > 3 {
		enc = os.Args[3]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rows, err := bulk.ParseCSV(f, enc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Interpretar CSV: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("aplicar esquema")
	}

	items := postgres.NewItemRepository(pool)
	ledger := postgres.NewStockLedger(pool, postgres.NewTxRunner(pool))

	var created, updated, failed int
	now := time.Now()
	for i := range rows {
		row := rows[i]
		item := row.Item
		item.UpdatedAt = now

		existing, err := items.GetByID(ctx, item.ID)
		switch {
		case err != nil:
			log.Error().Err(err).Str("item_id", item.ID).Msg("leer ítem")
			failed++
			continue
		case existing == nil:
			item.CreatedAt = now
			err = items.Create(ctx, &item)
			created++
		default:
			item.CreatedAt = existing.CreatedAt
			err = items.Update(ctx, &item)
			updated++
		}
		if err != nil {
			log.Error().Err(err).Str("item_id", item.ID).Msg("guardar ítem")
			failed++
			continue
		}

		if row.Stock.IsPositive() {
			key := entity.StockKey{ItemID: item.ID, LocationID: locationID}
			if _, err := ledger.Add(ctx, key, row.Stock); err != nil {
				log.Error().Err(err).Str("cell", key.String()).Msg("cargar stock")
				failed++
			}
		}
	}

	fmt.Printf("Cargado %s en %s: %d creados, %d actualizados, %d errores\n", csvPath, locationID, created, updated, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
