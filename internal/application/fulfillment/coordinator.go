// Package fulfillment descuenta materias primas por pedido a partir de la lista de
// materiales y permite revertir ese descuento una única vez.
package fulfillment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/inventory-movements/internal/application/dto"
	"github.com/jhoicas/inventory-movements/internal/application/notify"
	"github.com/jhoicas/inventory-movements/internal/application/ports"
	"github.com/jhoicas/inventory-movements/internal/domain"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	domaininv "github.com/jhoicas/inventory-movements/internal/domain/inventory"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Resultados registrados en métricas.
const (
	OutcomeDeducted         = "deducted"
	OutcomeDeductRejected   = "deduct_rejected"
	OutcomeRolledBack       = "rolled_back"
	OutcomeNothingToRestore = "nothing_to_restore"
	OutcomeFinalized        = "finalized"
)

// Deps dependencias del coordinador.
type Deps struct {
	Ledger       repository.StockLedger
	Reservations repository.ReservationRepository
	BOM          repository.BOMResolver
	Dispatcher   *notify.Dispatcher
	Actor        ports.ActorProvider
	Metrics      ports.Recorder
	Logger       zerolog.Logger
	// DefaultLocationID ubicación de producción cuando el pedido no indica una.
	DefaultLocationID string
}

// Coordinator aplica descuentos todo-o-nada por pedido y su reversa.
type Coordinator struct {
	ledger          repository.StockLedger
	reservations    repository.ReservationRepository
	bom             repository.BOMResolver
	dispatcher      *notify.Dispatcher
	actor           ports.ActorProvider
	metrics         ports.Recorder
	log             zerolog.Logger
	defaultLocation string
	now             func() time.Time
}

// NewCoordinator construye el coordinador.
func NewCoordinator(deps Deps) *Coordinator {
	actor := deps.Actor
	if actor == nil {
		actor = ports.StaticActor("")
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = ports.NopRecorder{}
	}
	return &Coordinator{
		ledger:          deps.Ledger,
		reservations:    deps.Reservations,
		bom:             deps.BOM,
		dispatcher:      deps.Dispatcher,
		actor:           actor,
		metrics:         metrics,
		log:             deps.Logger.With().Str("component", "reservation_coordinator").Logger(),
		defaultLocation: deps.DefaultLocationID,
		now:             time.Now,
	}
}

// ValidateStock verificación consultiva y sin efectos; no reserva nada.
func (c *Coordinator) ValidateStock(lines []domaininv.OrderLine, available []domaininv.MaterialStock) domaininv.StockValidation {
	return domaininv.ValidateStock(lines, available)
}

// DeductStock expande cada producto por su lista de materiales, agrega el consumo por
// material y lo descuenta de locationID en una sola operación atómica. Si algún material
// quedaría negativo no se descuenta nada. Al terminar queda registrada la reserva.
// Un pedido cuya reserva fue revertida puede volver a descontarse.
func (c *Coordinator) DeductStock(ctx context.Context, orderID, locationID string, items []entity.OrderItem) ([]dto.DeductedItemDTO, error) {
	if locationID == "" {
		locationID = c.defaultLocation
	}
	if orderID == "" || locationID == "" {
		return nil, &domain.ValidationError{Reason: domain.ErrInvalidInput, Detail: "order_id y location_id son obligatorios"}
	}
	if len(items) == 0 {
		return nil, &domain.ValidationError{Reason: domain.ErrInvalidInput, Detail: "el pedido no tiene ítems"}
	}

	lines, err := c.expand(ctx, items)
	if err != nil {
		return nil, err
	}
	if err := c.releaseRolledBack(ctx, orderID); err != nil {
		return nil, err
	}
	required := domaininv.AggregateRequirements(lines)
	materials := sortedKeys(required)

	deltas := make([]entity.StockDelta, 0, len(materials))
	for _, id := range materials {
		deltas = append(deltas, entity.StockDelta{
			Key:   entity.StockKey{ItemID: id, LocationID: locationID},
			Delta: required[id].Neg(),
		})
	}
	cells, err := c.ledger.ApplyDeltas(ctx, deltas)
	if err != nil {
		c.metrics.ReservationOutcome(OutcomeDeductRejected)
		c.log.Info().Err(err).Str("order_id", orderID).Str("location_id", locationID).Msg("descuento rechazado")
		return nil, err
	}

	now := c.now()
	actor := c.actor.ActorID(ctx)
	res := &entity.Reservation{
		OrderID:    orderID,
		LocationID: locationID,
		Status:     entity.ReservationActive,
		CreatedBy:  actor,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, id := range materials {
		res.Lines = append(res.Lines, entity.ReservationLine{MaterialID: id, AmountDeducted: required[id]})
	}
	if err := c.reservations.Create(ctx, res); err != nil {
		c.compensate(ctx, orderID, deltas)
		return nil, err
	}

	out := make([]dto.DeductedItemDTO, len(cells))
	movements := make([]*entity.InventoryMovement, len(cells))
	for i, cell := range cells {
		out[i] = dto.DeductedItemDTO{MaterialID: cell.ItemID, Amount: required[cell.ItemID], NewStock: cell.Quantity}
		movements[i] = &entity.InventoryMovement{
			Reference:  orderID,
			ItemID:     cell.ItemID,
			LocationID: locationID,
			Type:       entity.MovementDeduction,
			Quantity:   deltas[i].Delta,
			Balance:    cell.Quantity,
			CreatedBy:  actor,
		}
	}
	c.metrics.ReservationOutcome(OutcomeDeducted)
	c.log.Info().Str("order_id", orderID).Str("location_id", locationID).Int("materials", len(out)).Msg("stock descontado")
	c.dispatcher.RecordMovements(ctx, movements...)
	c.dispatcher.CheckLowStock(ctx, cells...)
	c.dispatcher.Publish(ctx, entity.EventTypeReservationCreated, orderID, map[string]any{
		"order_id":    orderID,
		"location_id": locationID,
		"materials":   len(out),
	})
	return out, nil
}

// RollbackStock restaura exactamente lo descontado para orderID. La reserva se marca
// como revertida antes de tocar el ledger, de modo que una segunda llamada (o una
// concurrente) devuelve nothing_to_restore. Si deducted no está vacío debe coincidir
// con lo registrado; la reserva es la fuente de verdad.
func (c *Coordinator) RollbackStock(ctx context.Context, orderID string, deducted []dto.DeductedItemDTO) (*dto.RollbackResultDTO, error) {
	if orderID == "" {
		return nil, &domain.ValidationError{Reason: domain.ErrInvalidInput, Detail: "order_id es obligatorio"}
	}
	res, err := c.reservations.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return c.nothingToRestore(orderID, "no existe reserva para el pedido"), nil
	}
	if res.Status != entity.ReservationActive {
		return c.nothingToRestore(orderID, "la reserva está "+string(res.Status)), nil
	}
	if err := matchRecorded(res, deducted); err != nil {
		return nil, err
	}

	claimed, err := c.reservations.Transition(ctx, orderID, entity.ReservationActive, entity.ReservationRolledBack)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return c.nothingToRestore(orderID, "la reserva ya fue consumida"), nil
	}

	deltas := make([]entity.StockDelta, len(res.Lines))
	for i, l := range res.Lines {
		deltas[i] = entity.StockDelta{
			Key:   entity.StockKey{ItemID: l.MaterialID, LocationID: res.LocationID},
			Delta: l.AmountDeducted,
		}
	}
	cells, err := c.ledger.ApplyDeltas(ctx, deltas)
	if err != nil {
		if _, rerr := c.reservations.Transition(ctx, orderID, entity.ReservationRolledBack, entity.ReservationActive); rerr != nil {
			c.log.Error().Err(rerr).Str("order_id", orderID).Msg("no se pudo reactivar la reserva tras fallo de reversa")
		}
		return nil, err
	}

	actor := c.actor.ActorID(ctx)
	result := &dto.RollbackResultDTO{OrderID: orderID, Status: dto.RollbackRestored}
	movements := make([]*entity.InventoryMovement, len(cells))
	for i, cell := range cells {
		result.Restored = append(result.Restored, dto.DeductedItemDTO{
			MaterialID: cell.ItemID,
			Amount:     deltas[i].Delta,
			NewStock:   cell.Quantity,
		})
		movements[i] = &entity.InventoryMovement{
			Reference:  orderID,
			ItemID:     cell.ItemID,
			LocationID: res.LocationID,
			Type:       entity.MovementRollback,
			Quantity:   deltas[i].Delta,
			Balance:    cell.Quantity,
			CreatedBy:  actor,
		}
	}
	c.metrics.ReservationOutcome(OutcomeRolledBack)
	c.log.Info().Str("order_id", orderID).Int("materials", len(cells)).Msg("descuento revertido")
	c.dispatcher.RecordMovements(ctx, movements...)
	c.dispatcher.Publish(ctx, entity.EventTypeReservationRevert, orderID, map[string]any{
		"order_id":    orderID,
		"location_id": res.LocationID,
		"materials":   len(cells),
	})
	return result, nil
}

// Finalize marca la reserva como definitiva (pedido completado): ya no puede revertirse.
// Finalizar una reserva ya finalizada no es error.
func (c *Coordinator) Finalize(ctx context.Context, orderID string) (*dto.ReservationResponse, error) {
	ok, err := c.reservations.Transition(ctx, orderID, entity.ReservationActive, entity.ReservationFinalized)
	if err != nil {
		return nil, err
	}
	res, err := c.reservations.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("%w: reserva del pedido %s", domain.ErrNotFound, orderID)
	}
	if !ok && res.Status != entity.ReservationFinalized {
		return nil, fmt.Errorf("%w: la reserva del pedido %s está %s", domain.ErrInvalidState, orderID, res.Status)
	}
	if ok {
		c.metrics.ReservationOutcome(OutcomeFinalized)
		c.log.Info().Str("order_id", orderID).Msg("reserva finalizada")
	}
	out := dto.ToReservationResponse(res)
	return &out, nil
}

// GetReservation consulta la reserva de un pedido.
func (c *Coordinator) GetReservation(ctx context.Context, orderID string) (*dto.ReservationResponse, error) {
	res, err := c.reservations.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("%w: reserva del pedido %s", domain.ErrNotFound, orderID)
	}
	out := dto.ToReservationResponse(res)
	return &out, nil
}

func (c *Coordinator) expand(ctx context.Context, items []entity.OrderItem) ([]domaininv.OrderLine, error) {
	lines := make([]domaininv.OrderLine, 0, len(items))
	for _, it := range items {
		if it.ProductID == "" {
			return nil, &domain.ValidationError{Reason: domain.ErrInvalidInput, Detail: "product_id vacío"}
		}
		if err := domaininv.CheckPositive(it.Quantity); err != nil {
			return nil, err
		}
		bom, err := c.bom.Resolve(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if len(bom) == 0 {
			return nil, &domain.ValidationError{
				Reason: domain.ErrInvalidInput,
				ItemID: it.ProductID,
				Detail: "el producto " + it.ProductID + " no tiene lista de materiales",
			}
		}
		line := domaininv.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity}
		for _, b := range bom {
			line.Materials = append(line.Materials, domaininv.MaterialUsage{MaterialID: b.MaterialID, QuantityPerUnit: b.QuantityPerUnit})
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// releaseRolledBack deja libre el pedido para un nuevo descuento. Una reserva revertida
// se borra (el diario de movimientos conserva su historia); una activa o finalizada
// bloquea. Si dos llamadas compiten por la misma reserva revertida solo una la borra.
func (c *Coordinator) releaseRolledBack(ctx context.Context, orderID string) error {
	existing, err := c.reservations.GetByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	if existing.Status == entity.ReservationRolledBack {
		released, err := c.reservations.DeleteIfStatus(ctx, orderID, entity.ReservationRolledBack)
		if err != nil {
			return err
		}
		if released {
			c.log.Info().Str("order_id", orderID).Msg("reserva revertida reemplazada por un nuevo descuento")
			return nil
		}
	}
	return fmt.Errorf("%w: el pedido %s ya tiene una reserva (%s)", domain.ErrDuplicate, orderID, existing.Status)
}

// compensate devuelve un descuento ya aplicado cuando no se pudo registrar la reserva.
func (c *Coordinator) compensate(ctx context.Context, orderID string, applied []entity.StockDelta) {
	inverse := make([]entity.StockDelta, len(applied))
	for i, d := range applied {
		inverse[i] = entity.StockDelta{Key: d.Key, Delta: d.Delta.Neg()}
	}
	if _, err := c.ledger.ApplyDeltas(ctx, inverse); err != nil {
		c.log.Error().Err(err).Str("order_id", orderID).Msg("compensación de descuento fallida")
		return
	}
	c.log.Warn().Str("order_id", orderID).Msg("descuento compensado: no se pudo registrar la reserva")
}

func (c *Coordinator) nothingToRestore(orderID, reason string) *dto.RollbackResultDTO {
	c.metrics.ReservationOutcome(OutcomeNothingToRestore)
	c.log.Info().Str("order_id", orderID).Str("reason", reason).Msg("reversa sin efecto")
	return &dto.RollbackResultDTO{OrderID: orderID, Status: dto.RollbackNothingToRestore, Reason: reason}
}

// matchRecorded exige que las cantidades informadas por el caller coincidan con la reserva.
func matchRecorded(res *entity.Reservation, deducted []dto.DeductedItemDTO) error {
	if len(deducted) == 0 {
		return nil
	}
	given := make(map[string]decimal.Decimal, len(deducted))
	for _, d := range deducted {
		given[d.MaterialID] = given[d.MaterialID].Add(d.Amount)
	}
	if len(given) != len(res.Lines) {
		return &domain.ValidationError{Reason: domain.ErrInvalidInput, Detail: "los materiales informados no coinciden con la reserva del pedido " + res.OrderID}
	}
	for _, l := range res.Lines {
		amount, ok := given[l.MaterialID]
		if !ok || !amount.Equal(l.AmountDeducted) {
			return &domain.ValidationError{
				Reason:    domain.ErrInvalidInput,
				ItemID:    l.MaterialID,
				Requested: amount,
				Available: l.AmountDeducted,
				Detail:    fmt.Sprintf("material %s: informado %s, registrado %s", l.MaterialID, amount, l.AmountDeducted),
			}
		}
	}
	return nil
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
