package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jhoicas/inventory-movements/internal/domain"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/jhoicas/inventory-movements/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var (
	harinaPlanta = entity.StockKey{ItemID: "harina", LocationID: "planta"}
	harinaBodega = entity.StockKey{ItemID: "harina", LocationID: "bodega"}
	azucarPlanta = entity.StockKey{ItemID: "azucar", LocationID: "planta"}
	dec          = decimal.NewFromInt
)

func TestStockLedger_CeldaInexistente(t *testing.T) {
	l := memory.NewStockLedger()

	cell, err := l.Get(context.Background(), harinaPlanta)
	require.NoError(t, err)
	assert.True(t, cell.Quantity.IsZero())
	assert.Equal(t, int64(0), cell.Version)

	cells, err := l.ListByItem(context.Background(), "harina")
	require.NoError(t, err)
	assert.Empty(t, cells, "una lectura no crea la celda")
}

func TestStockLedger_CompareAndAdd(t *testing.T) {
	ctx := context.Background()
	l := memory.NewStockLedger()
	l.Seed(harinaPlanta, dec(10))

	cell, err := l.Get(ctx, harinaPlanta)
	require.NoError(t, err)
	require.Equal(t, int64(1), cell.Version)

	next, err := l.CompareAndAdd(ctx, harinaPlanta, dec(-4), cell.Version)
	require.NoError(t, err)
	assert.True(t, next.Quantity.Equal(dec(6)))
	assert.Equal(t, int64(2), next.Version)

	_, err = l.CompareAndAdd(ctx, harinaPlanta, dec(-1), cell.Version)
	assert.ErrorIs(t, err, domain.ErrVersionConflict, "versión vieja debe rechazarse")

	_, err = l.CompareAndAdd(ctx, harinaPlanta, dec(-7), next.Version)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	after, err := l.Get(ctx, harinaPlanta)
	require.NoError(t, err)
	assert.True(t, after.Quantity.Equal(dec(6)), "los rechazos no mutan la celda")
	assert.Equal(t, int64(2), after.Version)
}

func TestStockLedger_AddNuncaNegativo(t *testing.T) {
	ctx := context.Background()
	l := memory.NewStockLedger()

	_, err := l.Add(ctx, harinaPlanta, dec(-1))
	require.Error(t, err)

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "harina", ve.ItemID)
	assert.True(t, ve.Available.IsZero())

	cell, err := l.Add(ctx, harinaPlanta, dec(5))
	require.NoError(t, err)
	assert.True(t, cell.Quantity.Equal(dec(5)))
}

func TestStockLedger_ApplyDeltas_TodoONada(t *testing.T) {
	ctx := context.Background()
	l := memory.NewStockLedger()
	l.Seed(harinaPlanta, dec(10))
	l.Seed(azucarPlanta, dec(2))

	_, err := l.ApplyDeltas(ctx, []entity.StockDelta{
		{Key: harinaPlanta, Delta: dec(-5)},
		{Key: azucarPlanta, Delta: dec(-3)},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	h, _ := l.Get(ctx, harinaPlanta)
	a, _ := l.Get(ctx, azucarPlanta)
	assert.True(t, h.Quantity.Equal(dec(10)), "ningún delta se aplica si uno falla")
	assert.True(t, a.Quantity.Equal(dec(2)))

	cells, err := l.ApplyDeltas(ctx, []entity.StockDelta{
		{Key: harinaPlanta, Delta: dec(-5)},
		{Key: harinaBodega, Delta: dec(5)},
		{Key: azucarPlanta, Delta: dec(-2)},
	})
	require.NoError(t, err)
	require.Len(t, cells, 3)
	assert.Equal(t, harinaPlanta, cells[0].Key(), "mismo orden que los deltas")
	assert.True(t, cells[0].Quantity.Equal(dec(5)))
	assert.True(t, cells[1].Quantity.Equal(dec(5)))
	assert.True(t, cells[2].Quantity.IsZero())
}

func TestStockLedger_ApplyDeltas_SumaRepetidos(t *testing.T) {
	ctx := context.Background()
	l := memory.NewStockLedger()
	l.Seed(harinaPlanta, dec(3))

	_, err := l.ApplyDeltas(ctx, []entity.StockDelta{
		{Key: harinaPlanta, Delta: dec(-2)},
		{Key: harinaPlanta, Delta: dec(-2)},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "-2-2 supera 3 aunque cada delta por sí solo no")
}

func TestStockLedger_ConcurrenciaConservaTotal(t *testing.T) {
	ctx := context.Background()
	l := memory.NewStockLedger()
	l.Seed(harinaPlanta, dec(1000))
	l.Seed(harinaBodega, dec(1000))

	var g errgroup.Group
	for i := 0; i < 200; i++ {
		from, to := harinaPlanta, harinaBodega
		if i%2 == 1 {
			from, to = to, from
		}
		g.Go(func() error {
			_, err := l.ApplyDeltas(ctx, []entity.StockDelta{
				{Key: from, Delta: dec(-3)},
				{Key: to, Delta: dec(3)},
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	totals, err := l.TotalsByItems(ctx, []string{"harina"})
	require.NoError(t, err)
	assert.True(t, totals["harina"].Equal(dec(2000)), "mover stock no crea ni destruye unidades")
}

func TestStockLedger_ConcurrenciaNoSobregira(t *testing.T) {
	ctx := context.Background()
	l := memory.NewStockLedger()
	l.Seed(azucarPlanta, dec(50))

	var g errgroup.Group
	results := make([]error, 100)
	for i := range results {
		g.Go(func() error {
			_, results[i] = l.Add(ctx, azucarPlanta, dec(-1))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	ok := 0
	for _, err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	}
	assert.Equal(t, 50, ok)

	cell, _ := l.Get(ctx, azucarPlanta)
	assert.True(t, cell.Quantity.IsZero())
	assert.Equal(t, int64(51), cell.Version)
}

func TestStockLedger_Listados(t *testing.T) {
	ctx := context.Background()
	l := memory.NewStockLedger()
	for i := 0; i < 3; i++ {
		l.Seed(entity.StockKey{ItemID: fmt.Sprintf("item-%d", i), LocationID: "planta"}, dec(int64(i+1)))
	}
	l.Seed(harinaBodega, dec(9))

	all, err := l.ListByLocation(ctx, "planta", nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "item-0", all[0].ItemID)

	some, err := l.ListByLocation(ctx, "planta", []string{"item-2", "harina"})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.True(t, some[0].Quantity.Equal(dec(3)))

	totals, err := l.TotalsByItems(ctx, []string{"item-1", "harina", "fantasma"})
	require.NoError(t, err)
	assert.Len(t, totals, 2, "ítems sin celdas se omiten")
}
