package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/inventory-movements/internal/application/inventory"
	"github.com/jhoicas/inventory-movements/internal/application/notify"
	"github.com/jhoicas/inventory-movements/internal/application/ports"
	"github.com/jhoicas/inventory-movements/internal/domain"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
	"github.com/jhoicas/inventory-movements/internal/infrastructure/memory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const (
	bodega = "bodega-central"
	planta = "planta"
	harina = "harina"
)

var (
	atBodega = entity.StockKey{ItemID: harina, LocationID: bodega}
	atPlanta = entity.StockKey{ItemID: harina, LocationID: planta}
)

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

type transferFixture struct {
	uc        *inventory.TransferUseCase
	mem       *memory.StockLedger
	transfers *memory.TransferRepo
	items     *memory.ItemRepo
	movements *memory.InventoryMovementRepo
	events    *eventLog
	metrics   *countingRecorder
	slips     *slipRecorder
}

type fixtureOption func(*repository.StockLedger, *inventory.TransferConfig)

func withLedger(l repository.StockLedger) fixtureOption {
	return func(dst *repository.StockLedger, _ *inventory.TransferConfig) { *dst = l }
}

func withPolicy(p inventory.PartialReceiptPolicy) fixtureOption {
	return func(_ *repository.StockLedger, cfg *inventory.TransferConfig) { cfg.PartialReceipt = p }
}

func withRetries(n int) fixtureOption {
	return func(_ *repository.StockLedger, cfg *inventory.TransferConfig) { cfg.MaxRetries = n }
}

// newTransferFixture arma el caso de uso sobre adaptadores en memoria con 100 de
// harina en la bodega central.
func newTransferFixture(t *testing.T, mem *memory.StockLedger, opts ...fixtureOption) *transferFixture {
	t.Helper()
	if mem == nil {
		mem = memory.NewStockLedger()
	}
	mem.Seed(atBodega, qty(100))

	var ledger repository.StockLedger = mem
	cfg := inventory.TransferConfig{MaxRetries: 3, RetryBase: time.Millisecond}
	for _, opt := range opts {
		opt(&ledger, &cfg)
	}

	f := &transferFixture{
		mem:       mem,
		transfers: memory.NewTransferRepository(),
		items:     memory.NewItemRepository(),
		movements: memory.NewInventoryMovementRepository(),
		events:    &eventLog{},
		metrics:   newCountingRecorder(),
		slips:     &slipRecorder{},
	}
	require.NoError(t, f.items.Create(context.Background(), &entity.Item{
		ID: harina, Name: "Harina de trigo", Unit: "kg", MinStock: qty(20), Active: true,
	}))
	f.uc = inventory.NewTransferUseCase(inventory.TransferDeps{
		Ledger:     ledger,
		Transfers:  f.transfers,
		Items:      f.items,
		Dispatcher: notify.NewDispatcher(f.events, f.movements, f.items, zerolog.Nop()),
		Actor:      ports.StaticActor("op-1"),
		Metrics:    f.metrics,
		Slips:      f.slips,
		Logger:     zerolog.Nop(),
	}, cfg)
	return f
}

func (f *transferFixture) balance(t *testing.T, key entity.StockKey) decimal.Decimal {
	t.Helper()
	cell, err := f.mem.Get(context.Background(), key)
	require.NoError(t, err)
	return cell.Quantity
}

func (f *transferFixture) initiate(t *testing.T, n int64) *entity.Transfer {
	t.Helper()
	tr, err := f.uc.InitiateTransfer(context.Background(), inventory.InitiateTransferInput{
		SourceLocationID:      bodega,
		DestinationLocationID: planta,
		ItemID:                harina,
		Quantity:              qty(n),
	})
	require.NoError(t, err)
	return tr
}

func TestTransfer_CicloCompleto(t *testing.T) {
	ctx := context.Background()
	f := newTransferFixture(t, nil)

	tr := f.initiate(t, 30)
	assert.Equal(t, entity.TransferPending, tr.Status)
	assert.Equal(t, "op-1", tr.RequestedBy)
	assert.True(t, f.balance(t, atBodega).Equal(qty(100)), "iniciar no toca el ledger")

	approved, err := f.uc.ApproveTransfer(ctx, tr.ID, true, "ok supervisor")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferInTransit, approved.Status)
	assert.Equal(t, "op-1", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)
	assert.True(t, f.balance(t, atBodega).Equal(qty(70)))
	assert.True(t, f.balance(t, atPlanta).IsZero(), "en tránsito el stock no está en ninguna celda")

	received, err := f.uc.ReceiveTransfer(ctx, tr.ID, qty(30), "")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferReceived, received.Status)
	require.NotNil(t, received.QuantityReceived)
	assert.True(t, received.QuantityReceived.Equal(qty(30)))
	assert.True(t, received.Shortfall.IsZero())
	assert.True(t, f.balance(t, atBodega).Equal(qty(70)))
	assert.True(t, f.balance(t, atPlanta).Equal(qty(30)))

	assert.Equal(t, []string{
		entity.EventTypeTransferInitiated,
		entity.EventTypeTransferApproved,
		entity.EventTypeTransferReceived,
	}, f.events.types())

	moves, err := f.movements.ListByReference(ctx, tr.ID)
	require.NoError(t, err)
	require.Len(t, moves, 2)
	types := []string{moves[0].Type, moves[1].Type}
	assert.ElementsMatch(t, []string{entity.MovementTransferOut, entity.MovementTransferIn}, types)

	assert.Equal(t, 1, f.metrics.transitions[string(entity.TransferPending)])
	assert.Equal(t, 1, f.metrics.transitions[string(entity.TransferInTransit)])
	assert.Equal(t, 1, f.metrics.transitions[string(entity.TransferReceived)])
}

func TestTransfer_InitiateRechazos(t *testing.T) {
	ctx := context.Background()
	f := newTransferFixture(t, nil)

	cases := []struct {
		name string
		in   inventory.InitiateTransferInput
		want error
	}{
		{"misma ubicación", inventory.InitiateTransferInput{SourceLocationID: bodega, DestinationLocationID: bodega, ItemID: harina, Quantity: qty(1)}, domain.ErrSameLocation},
		{"cantidad cero", inventory.InitiateTransferInput{SourceLocationID: bodega, DestinationLocationID: planta, ItemID: harina, Quantity: qty(0)}, domain.ErrInvalidQuantity},
		{"cantidad negativa", inventory.InitiateTransferInput{SourceLocationID: bodega, DestinationLocationID: planta, ItemID: harina, Quantity: qty(-5)}, domain.ErrInvalidQuantity},
		{"stock insuficiente", inventory.InitiateTransferInput{SourceLocationID: bodega, DestinationLocationID: planta, ItemID: harina, Quantity: qty(101)}, domain.ErrInsufficientStock},
		{"sin ítem", inventory.InitiateTransferInput{SourceLocationID: bodega, DestinationLocationID: planta, Quantity: qty(1)}, domain.ErrInvalidInput},
		{"más de 6 decimales", inventory.InitiateTransferInput{SourceLocationID: bodega, DestinationLocationID: planta, ItemID: harina, Quantity: decimal.RequireFromString("1.0000001")}, domain.ErrInvalidQuantity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr, err := f.uc.InitiateTransfer(ctx, tc.in)
			assert.Nil(t, tr)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	list, err := f.uc.GetTransfersByLocation(ctx, bodega, entity.DirectionBoth)
	require.NoError(t, err)
	assert.Empty(t, list, "un rechazo no registra traslados")
	assert.Empty(t, f.events.types())
}

func TestTransfer_ApproveSinStockSigueEnPending(t *testing.T) {
	ctx := context.Background()
	f := newTransferFixture(t, nil)
	tr := f.initiate(t, 30)

	_, err := f.mem.Add(ctx, atBodega, qty(-80))
	require.NoError(t, err)

	_, err = f.uc.ApproveTransfer(ctx, tr.ID, true, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.True(t, ve.Available.Equal(qty(20)))

	got, err := f.uc.GetTransfer(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferPending, got.Status)
	assert.True(t, f.balance(t, atBodega).Equal(qty(20)))
}

func TestTransfer_RechazoNoTocaLedgerYEsTerminal(t *testing.T) {
	ctx := context.Background()
	f := newTransferFixture(t, nil)
	tr := f.initiate(t, 10)

	cancelled, err := f.uc.ApproveTransfer(ctx, tr.ID, false, "no corresponde")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCancelled, cancelled.Status)
	assert.Equal(t, "no corresponde", cancelled.Notes)
	assert.True(t, f.balance(t, atBodega).Equal(qty(100)))

	_, err = f.uc.ApproveTransfer(ctx, tr.ID, true, "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.uc.ReceiveTransfer(ctx, tr.ID, qty(10), "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	assert.True(t, f.balance(t, atBodega).Equal(qty(100)))
	assert.True(t, f.balance(t, atPlanta).IsZero())
}

func TestTransfer_RecibidoEsTerminal(t *testing.T) {
	ctx := context.Background()
	f := newTransferFixture(t, nil)
	tr := f.initiate(t, 10)
	_, err := f.uc.ApproveTransfer(ctx, tr.ID, true, "")
	require.NoError(t, err)
	_, err = f.uc.ReceiveTransfer(ctx, tr.ID, qty(10), "")
	require.NoError(t, err)

	_, err = f.uc.ReceiveTransfer(ctx, tr.ID, qty(10), "")
	assert.ErrorIs(t, err, domain.ErrInvalidState, "recibir dos veces no duplica el ingreso")
	_, err = f.uc.ApproveTransfer(ctx, tr.ID, false, "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	assert.True(t, f.balance(t, atPlanta).Equal(qty(10)))
	assert.True(t, f.balance(t, atBodega).Equal(qty(90)))
}

func TestTransfer_ReceiveAntesDeAprobar(t *testing.T) {
	f := newTransferFixture(t, nil)
	tr := f.initiate(t, 10)

	_, err := f.uc.ReceiveTransfer(context.Background(), tr.ID, qty(10), "")
	var se *domain.StateError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, string(entity.TransferPending), se.Current)
	assert.Equal(t, string(entity.EventReceive), se.Event)
}

func TestTransfer_ReceiveCantidadesInvalidas(t *testing.T) {
	ctx := context.Background()
	f := newTransferFixture(t, nil)
	tr := f.initiate(t, 10)
	_, err := f.uc.ApproveTransfer(ctx, tr.ID, true, "")
	require.NoError(t, err)

	_, err = f.uc.ReceiveTransfer(ctx, tr.ID, qty(11), "")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity, "no se recibe más de lo solicitado")
	_, err = f.uc.ReceiveTransfer(ctx, tr.ID, qty(-1), "")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = f.uc.ReceiveTransfer(ctx, tr.ID, decimal.RequireFromString("9.99999995"), "")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity, "el ledger no guarda más de 6 decimales")

	got, _ := f.uc.GetTransfer(ctx, tr.ID)
	assert.Equal(t, entity.TransferInTransit, got.Status)
	assert.True(t, f.balance(t, atPlanta).IsZero())
}

func TestTransfer_RecepcionParcial(t *testing.T) {
	ctx := context.Background()

	t.Run("write_off", func(t *testing.T) {
		f := newTransferFixture(t, nil, withPolicy(inventory.PartialReceiptWriteOff))
		tr := f.initiate(t, 10)
		_, err := f.uc.ApproveTransfer(ctx, tr.ID, true, "")
		require.NoError(t, err)

		got, err := f.uc.ReceiveTransfer(ctx, tr.ID, qty(7), "3 bultos rotos")
		require.NoError(t, err)
		assert.Equal(t, entity.TransferReceived, got.Status)
		assert.True(t, got.Shortfall.Equal(qty(3)))
		assert.True(t, f.balance(t, atBodega).Equal(qty(90)))
		assert.True(t, f.balance(t, atPlanta).Equal(qty(7)))

		ev, ok := f.events.last(entity.EventTypeTransferShortfall)
		require.True(t, ok)
		assert.Equal(t, "3", ev.Data["remainder"])
		assert.Equal(t, "write_off", ev.Data["policy"])
	})

	t.Run("return_to_source", func(t *testing.T) {
		f := newTransferFixture(t, nil, withPolicy(inventory.PartialReceiptReturnToSource))
		tr := f.initiate(t, 10)
		_, err := f.uc.ApproveTransfer(ctx, tr.ID, true, "")
		require.NoError(t, err)

		got, err := f.uc.ReceiveTransfer(ctx, tr.ID, qty(7), "")
		require.NoError(t, err)
		assert.True(t, got.Shortfall.IsZero())
		assert.True(t, f.balance(t, atBodega).Equal(qty(93)))
		assert.True(t, f.balance(t, atPlanta).Equal(qty(7)))

		moves, err := f.movements.ListByReference(ctx, tr.ID)
		require.NoError(t, err)
		var returned bool
		for _, m := range moves {
			if m.Type == entity.MovementReturn {
				returned = true
				assert.True(t, m.Quantity.Equal(qty(3)))
				assert.Equal(t, bodega, m.LocationID)
			}
		}
		assert.True(t, returned, "el remanente queda en el diario")
	})

	t.Run("return_to_source en un solo lote", func(t *testing.T) {
		mem := memory.NewStockLedger()
		ledger := &batchLedger{StockLedger: mem}
		f := newTransferFixture(t, mem, withLedger(ledger), withPolicy(inventory.PartialReceiptReturnToSource))
		tr := f.initiate(t, 10)
		_, err := f.uc.ApproveTransfer(ctx, tr.ID, true, "")
		require.NoError(t, err)

		_, err = f.uc.ReceiveTransfer(ctx, tr.ID, qty(6), "")
		require.NoError(t, err)
		require.Len(t, ledger.batches, 1)
		batch := ledger.batches[0]
		require.Len(t, batch, 2)
		assert.Equal(t, atPlanta, batch[0].Key)
		assert.True(t, batch[0].Delta.Equal(qty(6)))
		assert.Equal(t, atBodega, batch[1].Key)
		assert.True(t, batch[1].Delta.Equal(qty(4)))
		assert.True(t, f.balance(t, atBodega).Equal(qty(94)))
		assert.Zero(t, ledger.adds.Load(), "sin escrituras sueltas")
	})

	t.Run("return_to_source falla sin efectos parciales", func(t *testing.T) {
		mem := memory.NewStockLedger()
		ledger := &batchLedger{StockLedger: mem, fail: true}
		f := newTransferFixture(t, mem, withLedger(ledger), withPolicy(inventory.PartialReceiptReturnToSource))
		tr := f.initiate(t, 10)
		_, err := f.uc.ApproveTransfer(ctx, tr.ID, true, "")
		require.NoError(t, err)

		_, err = f.uc.ReceiveTransfer(ctx, tr.ID, qty(6), "")
		require.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.True(t, f.balance(t, atBodega).Equal(qty(90)))
		assert.True(t, f.balance(t, atPlanta).IsZero())

		got, err := f.uc.GetTransfer(ctx, tr.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.TransferInTransit, got.Status, "el traslado vuelve a quedar en tránsito")
	})

	t.Run("reject", func(t *testing.T) {
		f := newTransferFixture(t, nil, withPolicy(inventory.PartialReceiptReject))
		tr := f.initiate(t, 10)
		_, err := f.uc.ApproveTransfer(ctx, tr.ID, true, "")
		require.NoError(t, err)

		_, err = f.uc.ReceiveTransfer(ctx, tr.ID, qty(7), "")
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

		got, _ := f.uc.GetTransfer(ctx, tr.ID)
		assert.Equal(t, entity.TransferInTransit, got.Status)
		assert.True(t, f.balance(t, atPlanta).IsZero())

		_, err = f.uc.ReceiveTransfer(ctx, tr.ID, qty(10), "")
		assert.NoError(t, err, "la recepción completa sigue permitida")
	})

	t.Run("recepción en cero", func(t *testing.T) {
		f := newTransferFixture(t, nil)
		tr := f.initiate(t, 10)
		_, err := f.uc.ApproveTransfer(ctx, tr.ID, true, "")
		require.NoError(t, err)

		got, err := f.uc.ReceiveTransfer(ctx, tr.ID, qty(0), "se perdió el camión")
		require.NoError(t, err)
		assert.True(t, got.Shortfall.Equal(qty(10)))
		assert.True(t, f.balance(t, atPlanta).IsZero())
	})
}

func TestTransfer_ConflictoAgotaReintentos(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStockLedger()
	conflicting := &conflictingLedger{StockLedger: mem}
	f := newTransferFixture(t, mem, withLedger(conflicting), withRetries(3))
	tr := f.initiate(t, 10)

	_, err := f.uc.ApproveTransfer(ctx, tr.ID, true, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
	assert.True(t, domain.IsRetryable(err))

	var ce *domain.ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 3, ce.Attempts)
	assert.Equal(t, "approve", ce.Op)
	assert.Equal(t, int32(3), conflicting.attempts.Load())
	assert.Equal(t, 3, f.metrics.retries)
	assert.Equal(t, 1, f.metrics.exhausted)

	got, _ := f.uc.GetTransfer(ctx, tr.ID)
	assert.Equal(t, entity.TransferPending, got.Status, "sin commit el traslado no avanza")
	assert.True(t, f.balance(t, atBodega).Equal(qty(100)))
}

func TestTransfer_ConflictoTransitorioSeReintenta(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStockLedger()
	flaky := &flakyLedger{StockLedger: mem}
	flaky.remaining.Store(2)
	f := newTransferFixture(t, mem, withLedger(flaky), withRetries(3))
	tr := f.initiate(t, 10)

	got, err := f.uc.ApproveTransfer(ctx, tr.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferInTransit, got.Status)
	assert.True(t, f.balance(t, atBodega).Equal(qty(90)))
	assert.Equal(t, 2, f.metrics.retries)
	assert.Zero(t, f.metrics.exhausted)
}

func TestTransfer_AprobacionesConcurrentesDescuentanUnaVez(t *testing.T) {
	ctx := context.Background()
	f := newTransferFixture(t, nil, withRetries(50))
	tr := f.initiate(t, 30)

	var g errgroup.Group
	wins := make([]bool, 10)
	for i := range wins {
		g.Go(func() error {
			_, err := f.uc.ApproveTransfer(ctx, tr.ID, true, "")
			wins[i] = err == nil
			return nil
		})
	}
	require.NoError(t, g.Wait())

	n := 0
	for _, w := range wins {
		if w {
			n++
		}
	}
	assert.Equal(t, 1, n, "una sola aprobación gana")
	assert.True(t, f.balance(t, atBodega).Equal(qty(70)), "los perdedores devuelven lo descontado")
}

func TestTransfer_ConcurrenciaConservaStock(t *testing.T) {
	ctx := context.Background()
	f := newTransferFixture(t, nil, withRetries(100))

	ids := make([]string, 25)
	for i := range ids {
		ids[i] = f.initiate(t, 5).ID
	}

	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error {
			if _, err := f.uc.ApproveTransfer(ctx, id, true, ""); err != nil {
				return nil
			}
			_, _ = f.uc.ReceiveTransfer(ctx, id, qty(5), "")
			return nil
		})
	}
	require.NoError(t, g.Wait())

	inTransit := decimal.Zero
	for _, id := range ids {
		got, err := f.uc.GetTransfer(ctx, id)
		require.NoError(t, err)
		if got.Status == entity.TransferInTransit {
			inTransit = inTransit.Add(got.QuantityRequested)
		}
	}
	total := f.balance(t, atBodega).Add(f.balance(t, atPlanta)).Add(inTransit)
	assert.True(t, total.Equal(qty(100)), "origen + destino + en tránsito = stock inicial, obtuvo %s", total)
	assert.False(t, f.balance(t, atBodega).IsNegative())
}

func TestTransfer_ListadoPorUbicacion(t *testing.T) {
	ctx := context.Background()
	f := newTransferFixture(t, nil)
	f.initiate(t, 1)
	f.initiate(t, 2)

	out, err := f.uc.GetTransfersByLocation(ctx, bodega, entity.DirectionOutgoing)
	require.NoError(t, err)
	assert.Len(t, out, 2)

	in, err := f.uc.GetTransfersByLocation(ctx, bodega, entity.DirectionIncoming)
	require.NoError(t, err)
	assert.Empty(t, in)
	assert.NotNil(t, in)

	unknown, err := f.uc.GetTransfersByLocation(ctx, planta, entity.TransferDirection("sideways"))
	require.NoError(t, err)
	assert.Len(t, unknown, 2, "dirección desconocida se trata como both")

	none, err := f.uc.GetTransfersByLocation(ctx, "", entity.DirectionBoth)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTransfer_NoEncontrado(t *testing.T) {
	f := newTransferFixture(t, nil)

	_, err := f.uc.ApproveTransfer(context.Background(), "no-existe", true, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.uc.GetTransfer(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTransfer_StockBajoTrasAprobar(t *testing.T) {
	f := newTransferFixture(t, nil)
	tr := f.initiate(t, 85)

	_, err := f.uc.ApproveTransfer(context.Background(), tr.ID, true, "")
	require.NoError(t, err)

	ev, ok := f.events.last(entity.EventTypeStockLow)
	require.True(t, ok, "15 queda bajo el mínimo de 20")
	assert.Equal(t, harina, ev.Data["item_id"])
	assert.Equal(t, bodega, ev.Data["location_id"])
}

func TestTransfer_Remision(t *testing.T) {
	f := newTransferFixture(t, nil)
	tr := f.initiate(t, 4)

	pdf, err := f.uc.TransferSlip(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Contains(t, string(pdf), tr.ID)
	require.NotNil(t, f.slips.item)
	assert.Equal(t, "Harina de trigo", f.slips.item.Name)
}

func TestParsePartialReceiptPolicy(t *testing.T) {
	assert.Equal(t, inventory.PartialReceiptReturnToSource, inventory.ParsePartialReceiptPolicy("return_to_source"))
	assert.Equal(t, inventory.PartialReceiptReject, inventory.ParsePartialReceiptPolicy("reject"))
	assert.Equal(t, inventory.PartialReceiptWriteOff, inventory.ParsePartialReceiptPolicy(""))
	assert.Equal(t, inventory.PartialReceiptWriteOff, inventory.ParsePartialReceiptPolicy("desconocida"))
}
