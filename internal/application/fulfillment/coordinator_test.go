package fulfillment_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jhoicas/inventory-movements/internal/application/dto"
	"github.com/jhoicas/inventory-movements/internal/application/fulfillment"
	"github.com/jhoicas/inventory-movements/internal/application/notify"
	"github.com/jhoicas/inventory-movements/internal/application/ports"
	"github.com/jhoicas/inventory-movements/internal/domain"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	domaininv "github.com/jhoicas/inventory-movements/internal/domain/inventory"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
	"github.com/jhoicas/inventory-movements/internal/infrastructure/memory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const planta = "planta"

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func key(material string) entity.StockKey {
	return entity.StockKey{ItemID: material, LocationID: planta}
}

type outcomeRecorder struct {
	ports.NopRecorder
	mu       sync.Mutex
	outcomes map[string]int
}

func (r *outcomeRecorder) ReservationOutcome(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[outcome]++
}

// failingReservations falla al registrar reservas nuevas.
type failingReservations struct {
	*memory.ReservationRepo
}

func (failingReservations) Create(context.Context, *entity.Reservation) error {
	return errors.New("conexión perdida")
}

type coordFixture struct {
	coord     *fulfillment.Coordinator
	ledger    *memory.StockLedger
	bom       *memory.BOMResolver
	movements *memory.InventoryMovementRepo
	metrics   *outcomeRecorder
}

// newCoordFixture: pan = 0.5 harina + 0.02 levadura; torta = 1 harina + 0.3 azúcar.
// Planta arranca con 10 harina, 1 levadura y 3 azúcar.
func newCoordFixture(t *testing.T, reservations repository.ReservationRepository) *coordFixture {
	t.Helper()
	f := &coordFixture{
		ledger:    memory.NewStockLedger(),
		bom:       memory.NewBOMResolver(),
		movements: memory.NewInventoryMovementRepository(),
		metrics:   &outcomeRecorder{outcomes: map[string]int{}},
	}
	if reservations == nil {
		reservations = memory.NewReservationRepository()
	}
	f.bom.Set("pan",
		entity.BOMLine{MaterialID: "harina", QuantityPerUnit: d("0.5")},
		entity.BOMLine{MaterialID: "levadura", QuantityPerUnit: d("0.02")},
	)
	f.bom.Set("torta",
		entity.BOMLine{MaterialID: "harina", QuantityPerUnit: d("1")},
		entity.BOMLine{MaterialID: "azucar", QuantityPerUnit: d("0.3")},
	)
	f.ledger.Seed(key("harina"), d("10"))
	f.ledger.Seed(key("levadura"), d("1"))
	f.ledger.Seed(key("azucar"), d("3"))

	f.coord = fulfillment.NewCoordinator(fulfillment.Deps{
		Ledger:            f.ledger,
		Reservations:      reservations,
		BOM:               f.bom,
		Dispatcher:        notify.NewDispatcher(nil, f.movements, nil, zerolog.Nop()),
		Actor:             ports.StaticActor("prod-1"),
		Metrics:           f.metrics,
		Logger:            zerolog.Nop(),
		DefaultLocationID: planta,
	})
	return f
}

func (f *coordFixture) stock(t *testing.T, material string) decimal.Decimal {
	t.Helper()
	cell, err := f.ledger.Get(context.Background(), key(material))
	require.NoError(t, err)
	return cell.Quantity
}

func TestDeductStock_AgregaPorMaterial(t *testing.T) {
	ctx := context.Background()
	f := newCoordFixture(t, nil)

	out, err := f.coord.DeductStock(ctx, "pedido-1", "", []entity.OrderItem{
		{ProductID: "pan", Quantity: d("4")},
		{ProductID: "torta", Quantity: d("2")},
	})
	require.NoError(t, err)
	require.Len(t, out, 3)

	byMaterial := map[string]dto.DeductedItemDTO{}
	for _, o := range out {
		byMaterial[o.MaterialID] = o
	}
	assert.True(t, byMaterial["harina"].Amount.Equal(d("4")), "4×0.5 + 2×1")
	assert.True(t, byMaterial["harina"].NewStock.Equal(d("6")))
	assert.True(t, byMaterial["levadura"].Amount.Equal(d("0.08")))
	assert.True(t, byMaterial["azucar"].NewStock.Equal(d("2.4")))

	res, err := f.coord.GetReservation(ctx, "pedido-1")
	require.NoError(t, err)
	assert.Equal(t, string(entity.ReservationActive), res.Status)
	assert.Equal(t, planta, res.LocationID, "sin ubicación se usa la de producción")
	assert.Len(t, res.Lines, 3)

	moves, err := f.movements.ListByReference(ctx, "pedido-1")
	require.NoError(t, err)
	assert.Len(t, moves, 3)
	assert.Equal(t, 1, f.metrics.outcomes[fulfillment.OutcomeDeducted])
}

func TestDeductStock_TodoONada(t *testing.T) {
	ctx := context.Background()
	f := newCoordFixture(t, nil)

	_, err := f.coord.DeductStock(ctx, "pedido-2", planta, []entity.OrderItem{
		{ProductID: "pan", Quantity: d("2")},
		{ProductID: "torta", Quantity: d("11")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.True(t, f.stock(t, "harina").Equal(d("10")))
	assert.True(t, f.stock(t, "levadura").Equal(d("1")), "ni siquiera los materiales que alcanzaban se descuentan")
	assert.True(t, f.stock(t, "azucar").Equal(d("3")))

	_, err = f.coord.GetReservation(ctx, "pedido-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, f.metrics.outcomes[fulfillment.OutcomeDeductRejected])
}

func TestDeductStock_EntradasInvalidas(t *testing.T) {
	ctx := context.Background()
	f := newCoordFixture(t, nil)

	_, err := f.coord.DeductStock(ctx, "", planta, []entity.OrderItem{{ProductID: "pan", Quantity: d("1")}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.coord.DeductStock(ctx, "p", planta, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.coord.DeductStock(ctx, "p", planta, []entity.OrderItem{{ProductID: "pan", Quantity: d("0")}})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = f.coord.DeductStock(ctx, "p", planta, []entity.OrderItem{{ProductID: "sin-receta", Quantity: d("1")}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.True(t, f.stock(t, "harina").Equal(d("10")))
}

func TestDeductStock_PedidoDuplicado(t *testing.T) {
	ctx := context.Background()
	f := newCoordFixture(t, nil)
	items := []entity.OrderItem{{ProductID: "pan", Quantity: d("1")}}

	_, err := f.coord.DeductStock(ctx, "pedido-3", planta, items)
	require.NoError(t, err)
	_, err = f.coord.DeductStock(ctx, "pedido-3", planta, items)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.True(t, f.stock(t, "harina").Equal(d("9.5")), "el segundo intento no descuenta")
}

func TestDeductStock_PedidoRevertidoSePuedeReenviar(t *testing.T) {
	ctx := context.Background()
	f := newCoordFixture(t, nil)
	items := []entity.OrderItem{{ProductID: "torta", Quantity: d("2")}}

	_, err := f.coord.DeductStock(ctx, "pedido-10", planta, items)
	require.NoError(t, err)
	back, err := f.coord.RollbackStock(ctx, "pedido-10", nil)
	require.NoError(t, err)
	require.Equal(t, dto.RollbackRestored, back.Status)

	out, err := f.coord.DeductStock(ctx, "pedido-10", planta, []entity.OrderItem{{ProductID: "torta", Quantity: d("3")}})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, f.stock(t, "harina").Equal(d("7")))
	assert.True(t, f.stock(t, "azucar").Equal(d("2.1")))

	res, err := f.coord.GetReservation(ctx, "pedido-10")
	require.NoError(t, err)
	assert.Equal(t, string(entity.ReservationActive), res.Status)

	again, err := f.coord.RollbackStock(ctx, "pedido-10", nil)
	require.NoError(t, err)
	assert.Equal(t, dto.RollbackRestored, again.Status, "la nueva reserva también se puede revertir")
	assert.True(t, f.stock(t, "harina").Equal(d("10")))

	moves, err := f.movements.ListByReference(ctx, "pedido-10")
	require.NoError(t, err)
	assert.Len(t, moves, 8, "el diario conserva los dos ciclos")
}

func TestDeductStock_FinalizadoBloqueaNuevoDescuento(t *testing.T) {
	ctx := context.Background()
	f := newCoordFixture(t, nil)
	items := []entity.OrderItem{{ProductID: "pan", Quantity: d("2")}}

	_, err := f.coord.DeductStock(ctx, "pedido-11", planta, items)
	require.NoError(t, err)
	_, err = f.coord.Finalize(ctx, "pedido-11")
	require.NoError(t, err)

	_, err = f.coord.DeductStock(ctx, "pedido-11", planta, items)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.True(t, f.stock(t, "harina").Equal(d("9")))
}

func TestDeductStock_ReenvioConcurrenteDescuentaUnaVez(t *testing.T) {
	ctx := context.Background()
	f := newCoordFixture(t, nil)
	items := []entity.OrderItem{{ProductID: "pan", Quantity: d("2")}}

	_, err := f.coord.DeductStock(ctx, "pedido-12", planta, items)
	require.NoError(t, err)
	_, err = f.coord.RollbackStock(ctx, "pedido-12", nil)
	require.NoError(t, err)

	var g errgroup.Group
	errs := make([]error, 8)
	for i := range errs {
		g.Go(func() error {
			_, errs[i] = f.coord.DeductStock(ctx, "pedido-12", planta, items)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrDuplicate)
	}
	assert.Equal(t, 1, ok)
	assert.True(t, f.stock(t, "harina").Equal(d("9")), "un solo descuento visible")
	assert.True(t, f.stock(t, "levadura").Equal(d("0.96")))
}

func TestDeductStock_CantidadesFraccionariasSeRevierteExacto(t *testing.T) {
	ctx := context.Background()
	f := newCoordFixture(t, nil)
	f.ledger.Seed(key("esencia"), d("1"))
	f.bom.Set("galleta", entity.BOMLine{MaterialID: "esencia", QuantityPerUnit: d("0.000125")})

	out, err := f.coord.DeductStock(ctx, "pedido-13", planta, []entity.OrderItem{{ProductID: "galleta", Quantity: d("2.5")}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].Amount.Equal(d("0.000313")), "el consumo se lleva a 6 decimales antes de aplicarse")
	assert.True(t, f.stock(t, "esencia").Equal(d("0.999687")))

	res, err := f.coord.GetReservation(ctx, "pedido-13")
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)
	assert.True(t, res.Lines[0].Amount.Equal(out[0].Amount), "lo registrado es lo descontado")

	_, err = f.coord.RollbackStock(ctx, "pedido-13", out)
	require.NoError(t, err)
	assert.True(t, f.stock(t, "esencia").Equal(d("1")))
}

func TestDeductStock_CompensaSiNoSeRegistraLaReserva(t *testing.T) {
	f := newCoordFixture(t, failingReservations{memory.NewReservationRepository()})

	_, err := f.coord.DeductStock(context.Background(), "pedido-4", planta, []entity.OrderItem{{ProductID: "torta", Quantity: d("3")}})
	require.Error(t, err)

	assert.True(t, f.stock(t, "harina").Equal(d("10")))
	assert.True(t, f.stock(t, "azucar").Equal(d("3")))
}

func TestRollbackStock_UnaSolaVez(t *testing.T) {
	ctx := context.Background()
	f := newCoordFixture(t, nil)
	deducted, err := f.coord.DeductStock(ctx, "pedido-5", planta, []entity.OrderItem{{ProductID: "torta", Quantity: d("2")}})
	require.NoError(t, err)

	first, err := f.coord.RollbackStock(ctx, "pedido-5", deducted)
	require.NoError(t, err)
	assert.Equal(t, dto.RollbackRestored, first.Status)
	assert.Len(t, first.Restored, 2)
	assert.True(t, f.stock(t, "harina").Equal(d("10")))
	assert.True(t, f.stock(t, "azucar").Equal(d("3")))

	second, err := f.coord.RollbackStock(ctx, "pedido-5", nil)
	require.NoError(t, err)
	assert.Equal(t, dto.RollbackNothingToRestore, second.Status)
	assert.True(t, f.stock(t, "harina").Equal(d("10")), "la segunda reversa no duplica el stock")

	none, err := f.coord.RollbackStock(ctx, "pedido-inexistente", nil)
	require.NoError(t, err)
	assert.Equal(t, dto.RollbackNothingToRestore, none.Status)
	assert.Equal(t, 2, f.metrics.outcomes[fulfillment.OutcomeNothingToRestore])
}

func TestRollbackStock_CantidadesNoCoinciden(t *testing.T) {
	ctx := context.Background()
	f := newCoordFixture(t, nil)
	_, err := f.coord.DeductStock(ctx, "pedido-6", planta, []entity.OrderItem{{ProductID: "pan", Quantity: d("2")}})
	require.NoError(t, err)

	_, err = f.coord.RollbackStock(ctx, "pedido-6", []dto.DeductedItemDTO{
		{MaterialID: "harina", Amount: d("5")},
		{MaterialID: "levadura", Amount: d("0.04")},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	res, _ := f.coord.GetReservation(ctx, "pedido-6")
	assert.Equal(t, string(entity.ReservationActive), res.Status, "un rechazo no consume la reserva")
	assert.True(t, f.stock(t, "harina").Equal(d("9")))
}

func TestRollbackStock_ConcurrenteRestauraUnaVez(t *testing.T) {
	ctx := context.Background()
	f := newCoordFixture(t, nil)
	_, err := f.coord.DeductStock(ctx, "pedido-7", planta, []entity.OrderItem{{ProductID: "torta", Quantity: d("5")}})
	require.NoError(t, err)

	var g errgroup.Group
	statuses := make([]dto.RollbackStatus, 16)
	for i := range statuses {
		g.Go(func() error {
			out, err := f.coord.RollbackStock(ctx, "pedido-7", nil)
			if err != nil {
				return err
			}
			statuses[i] = out.Status
			return nil
		})
	}
	require.NoError(t, g.Wait())

	restored := 0
	for _, s := range statuses {
		if s == dto.RollbackRestored {
			restored++
		}
	}
	assert.Equal(t, 1, restored)
	assert.True(t, f.stock(t, "harina").Equal(d("10")))
	assert.True(t, f.stock(t, "azucar").Equal(d("3")))
}

func TestDeductStock_ConcurrenteMaterialesDisjuntos(t *testing.T) {
	ctx := context.Background()
	f := newCoordFixture(t, nil)
	for i := 0; i < 20; i++ {
		material := fmt.Sprintf("mp-%02d", i)
		f.ledger.Seed(key(material), d("1"))
		f.bom.Set(fmt.Sprintf("prod-%02d", i), entity.BOMLine{MaterialID: material, QuantityPerUnit: d("1")})
	}

	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, err := f.coord.DeductStock(ctx, fmt.Sprintf("pedido-%02d", i), planta,
				[]entity.OrderItem{{ProductID: fmt.Sprintf("prod-%02d", i), Quantity: d("1")}})
			return err
		})
	}
	require.NoError(t, g.Wait())

	for i := 0; i < 20; i++ {
		assert.True(t, f.stock(t, fmt.Sprintf("mp-%02d", i)).IsZero())
	}
}

func TestDeductStock_ConcurrenteNoSobregira(t *testing.T) {
	ctx := context.Background()
	f := newCoordFixture(t, nil)

	var g errgroup.Group
	errs := make([]error, 30)
	for i := range errs {
		g.Go(func() error {
			_, errs[i] = f.coord.DeductStock(ctx, fmt.Sprintf("pan-%02d", i), planta,
				[]entity.OrderItem{{ProductID: "pan", Quantity: d("1")}})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	}
	assert.Equal(t, 20, ok, "10 de harina alcanzan para 20 panes")
	assert.True(t, f.stock(t, "harina").IsZero())
	assert.False(t, f.stock(t, "levadura").IsNegative())
}

func TestFinalize(t *testing.T) {
	ctx := context.Background()
	f := newCoordFixture(t, nil)
	_, err := f.coord.DeductStock(ctx, "pedido-8", planta, []entity.OrderItem{{ProductID: "pan", Quantity: d("1")}})
	require.NoError(t, err)

	res, err := f.coord.Finalize(ctx, "pedido-8")
	require.NoError(t, err)
	assert.Equal(t, string(entity.ReservationFinalized), res.Status)

	_, err = f.coord.Finalize(ctx, "pedido-8")
	assert.NoError(t, err, "finalizar de nuevo es idempotente")

	out, err := f.coord.RollbackStock(ctx, "pedido-8", nil)
	require.NoError(t, err)
	assert.Equal(t, dto.RollbackNothingToRestore, out.Status, "una reserva finalizada no se revierte")
	assert.True(t, f.stock(t, "harina").Equal(d("9.5")))

	_, err = f.coord.Finalize(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.coord.DeductStock(ctx, "pedido-9", planta, []entity.OrderItem{{ProductID: "pan", Quantity: d("1")}})
	require.NoError(t, err)
	_, err = f.coord.RollbackStock(ctx, "pedido-9", nil)
	require.NoError(t, err)
	_, err = f.coord.Finalize(ctx, "pedido-9")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestValidateStock_Consultivo(t *testing.T) {
	f := newCoordFixture(t, nil)

	res := f.coord.ValidateStock(
		[]domaininv.OrderLine{{ProductID: "pan", Quantity: d("30"), Materials: []domaininv.MaterialUsage{{MaterialID: "harina", QuantityPerUnit: d("0.5")}}}},
		[]domaininv.MaterialStock{{MaterialID: "harina", CurrentStock: d("10")}},
	)
	assert.False(t, res.Valid)
	assert.True(t, f.stock(t, "harina").Equal(d("10")), "validar no reserva ni descuenta")
}
