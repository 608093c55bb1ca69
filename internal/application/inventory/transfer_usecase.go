package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventory-movements/internal/application/notify"
	"github.com/jhoicas/inventory-movements/internal/application/ports"
	"github.com/jhoicas/inventory-movements/internal/domain"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	domaininv "github.com/jhoicas/inventory-movements/internal/domain/inventory"
	"github.com/jhoicas/inventory-movements/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PartialReceiptPolicy define qué pasa con el remanente no entregado cuando
// quantity_received < quantity_requested.
type PartialReceiptPolicy string

const (
	// PartialReceiptWriteOff registra el faltante en el traslado y lo da de baja.
	PartialReceiptWriteOff PartialReceiptPolicy = "write_off"
	// PartialReceiptReturnToSource devuelve el remanente a la celda de origen.
	PartialReceiptReturnToSource PartialReceiptPolicy = "return_to_source"
	// PartialReceiptReject rechaza recepciones parciales con ErrInvalidQuantity.
	PartialReceiptReject PartialReceiptPolicy = "reject"
)

// ParsePartialReceiptPolicy interpreta el valor de configuración; vacío o desconocido → write_off.
func ParsePartialReceiptPolicy(s string) PartialReceiptPolicy {
	switch PartialReceiptPolicy(s) {
	case PartialReceiptReturnToSource, PartialReceiptReject:
		return PartialReceiptPolicy(s)
	default:
		return PartialReceiptWriteOff
	}
}

// TransferConfig parámetros del flujo de traslados.
type TransferConfig struct {
	MaxRetries     int
	RetryBase      time.Duration
	PartialReceipt PartialReceiptPolicy
}

// TransferDeps dependencias del caso de uso.
type TransferDeps struct {
	Ledger     repository.StockLedger
	Transfers  repository.TransferRepository
	Items      repository.ItemRepository
	Dispatcher *notify.Dispatcher
	Actor      ports.ActorProvider
	Metrics    ports.Recorder
	Slips      SlipGenerator
	Logger     zerolog.Logger
}

// TransferUseCase orquesta la máquina de estados del traslado y las mutaciones del
// ledger en las aristas approve (descuento de origen) y receive (ingreso en destino).
type TransferUseCase struct {
	ledger     repository.StockLedger
	transfers  repository.TransferRepository
	items      repository.ItemRepository
	dispatcher *notify.Dispatcher
	actor      ports.ActorProvider
	metrics    ports.Recorder
	slips      SlipGenerator
	log        zerolog.Logger
	cfg        TransferConfig
	now        func() time.Time
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(deps TransferDeps, cfg TransferConfig) *TransferUseCase {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultRetryBase
	}
	if cfg.PartialReceipt == "" {
		cfg.PartialReceipt = PartialReceiptWriteOff
	}
	actor := deps.Actor
	if actor == nil {
		actor = ports.StaticActor("")
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = ports.NopRecorder{}
	}
	return &TransferUseCase{
		ledger:     deps.Ledger,
		transfers:  deps.Transfers,
		items:      deps.Items,
		dispatcher: deps.Dispatcher,
		actor:      actor,
		metrics:    metrics,
		slips:      deps.Slips,
		log:        deps.Logger.With().Str("component", "transfer_workflow").Logger(),
		cfg:        cfg,
		now:        time.Now,
	}
}

// InitiateTransferInput entrada para iniciar un traslado.
type InitiateTransferInput struct {
	SourceLocationID      string
	DestinationLocationID string
	ItemID                string
	Quantity              decimal.Decimal
	Notes                 string
}

// InitiateTransfer crea un traslado pending. No muta el ledger.
func (uc *TransferUseCase) InitiateTransfer(ctx context.Context, in InitiateTransferInput) (*entity.Transfer, error) {
	if in.ItemID == "" || in.SourceLocationID == "" || in.DestinationLocationID == "" {
		return nil, &domain.ValidationError{Reason: domain.ErrInvalidInput, Detail: "item_id, source y destination son obligatorios"}
	}
	if err := domaininv.CheckDistinct(in.SourceLocationID, in.DestinationLocationID); err != nil {
		return nil, err
	}
	if err := domaininv.CheckPositive(in.Quantity); err != nil {
		return nil, err
	}
	if err := domaininv.CheckScale(in.Quantity); err != nil {
		return nil, err
	}
	status, err := domaininv.CheckTransition("", "", entity.EventInitiate)
	if err != nil {
		return nil, err
	}

	key := entity.StockKey{ItemID: in.ItemID, LocationID: in.SourceLocationID}
	cell, err := uc.ledger.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := domaininv.CheckSufficiency(in.ItemID, in.SourceLocationID, in.Quantity, cell.Quantity); err != nil {
		return nil, err
	}

	now := uc.now()
	t := &entity.Transfer{
		ID:                    uuid.New().String(),
		SourceLocationID:      in.SourceLocationID,
		DestinationLocationID: in.DestinationLocationID,
		ItemID:                in.ItemID,
		QuantityRequested:     in.Quantity,
		Status:                status,
		RequestedBy:           uc.actor.ActorID(ctx),
		RequestedAt:           now,
		Notes:                 in.Notes,
		UpdatedAt:             now,
	}
	if err := uc.transfers.Create(ctx, t); err != nil {
		return nil, err
	}

	uc.metrics.TransferTransition(string(t.Status))
	uc.log.Info().Str("transfer_id", t.ID).Str("item_id", t.ItemID).
		Str("source", t.SourceLocationID).Str("destination", t.DestinationLocationID).
		Str("quantity", t.QuantityRequested.String()).Msg("traslado iniciado")
	uc.dispatcher.Publish(ctx, entity.EventTypeTransferInitiated, t.ID, transferEventData(t))
	return t, nil
}

// ApproveTransfer aprueba (pending→in_transit, descuenta origen) o rechaza
// (pending→cancelled, sin efecto en el ledger). Si al aprobar el stock ya no alcanza,
// falla con ErrInsufficientStock y el traslado sigue pending.
func (uc *TransferUseCase) ApproveTransfer(ctx context.Context, transferID string, approved bool, notes string) (*entity.Transfer, error) {
	t, err := uc.getTransfer(ctx, transferID)
	if err != nil {
		return nil, err
	}
	event := entity.EventReject
	if approved {
		event = entity.EventApprove
	}
	next, err := domaininv.CheckTransition(t.ID, t.Status, event)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	updated := *t
	updated.Status = next
	updated.ApprovedBy = uc.actor.ActorID(ctx)
	updated.ApprovedAt = &now
	updated.UpdatedAt = now
	updated.Notes = appendNotes(t.Notes, notes)

	if !approved {
		if err := uc.commitStatus(ctx, &updated, t.Status, event); err != nil {
			return nil, err
		}
		uc.metrics.TransferTransition(string(updated.Status))
		uc.log.Info().Str("transfer_id", t.ID).Msg("traslado rechazado")
		uc.dispatcher.Publish(ctx, entity.EventTypeTransferCancelled, t.ID, transferEventData(&updated))
		return &updated, nil
	}

	source := t.SourceKey()
	cell, err := uc.retryCAS(ctx, "approve", source, func(ctx context.Context) (*entity.StockCell, error) {
		current, err := uc.ledger.Get(ctx, source)
		if err != nil {
			return nil, err
		}
		if err := domaininv.CheckSufficiency(t.ItemID, t.SourceLocationID, t.QuantityRequested, current.Quantity); err != nil {
			return nil, err
		}
		return uc.ledger.CompareAndAdd(ctx, source, t.QuantityRequested.Neg(), current.Version)
	})
	if err != nil {
		return nil, err
	}

	if err := uc.commitStatus(ctx, &updated, t.Status, event); err != nil {
		// Otro escritor movió el traslado primero: se devuelve lo descontado.
		if _, cerr := uc.ledger.Add(ctx, source, t.QuantityRequested); cerr != nil {
			uc.log.Error().Err(cerr).Str("transfer_id", t.ID).Str("cell", source.String()).
				Msg("compensación de descuento fallida")
		}
		return nil, err
	}

	uc.metrics.TransferTransition(string(updated.Status))
	uc.log.Info().Str("transfer_id", t.ID).Str("cell", source.String()).
		Str("balance", cell.Quantity.String()).Msg("traslado aprobado, origen descontado")
	uc.dispatcher.RecordMovements(ctx, &entity.InventoryMovement{
		Reference:  t.ID,
		ItemID:     t.ItemID,
		LocationID: t.SourceLocationID,
		Type:       entity.MovementTransferOut,
		Quantity:   t.QuantityRequested.Neg(),
		Balance:    cell.Quantity,
		CreatedAt:  now,
		CreatedBy:  updated.ApprovedBy,
	})
	uc.dispatcher.Publish(ctx, entity.EventTypeTransferApproved, t.ID, transferEventData(&updated))
	uc.dispatcher.CheckLowStock(ctx, cell)
	return &updated, nil
}

// ReceiveTransfer registra la recepción (in_transit→received) e ingresa quantityReceived
// en destino. El remanente de una recepción parcial se trata según PartialReceiptPolicy.
func (uc *TransferUseCase) ReceiveTransfer(ctx context.Context, transferID string, quantityReceived decimal.Decimal, notes string) (*entity.Transfer, error) {
	t, err := uc.getTransfer(ctx, transferID)
	if err != nil {
		return nil, err
	}
	next, err := domaininv.CheckTransition(t.ID, t.Status, entity.EventReceive)
	if err != nil {
		return nil, err
	}
	if quantityReceived.IsNegative() {
		return nil, domain.NewInvalidQuantity(quantityReceived, "la cantidad recibida no puede ser negativa")
	}
	if err := domaininv.CheckScale(quantityReceived); err != nil {
		return nil, err
	}
	if quantityReceived.GreaterThan(t.QuantityRequested) {
		return nil, domain.NewInvalidQuantity(quantityReceived,
			"la cantidad recibida "+quantityReceived.String()+" supera la solicitada "+t.QuantityRequested.String())
	}
	remainder := t.QuantityRequested.Sub(quantityReceived)
	if remainder.IsPositive() && uc.cfg.PartialReceipt == PartialReceiptReject {
		return nil, domain.NewInvalidQuantity(quantityReceived, "recepción parcial no permitida")
	}

	now := uc.now()
	updated := *t
	received := quantityReceived
	updated.Status = next
	updated.QuantityReceived = &received
	updated.ReceivedBy = uc.actor.ActorID(ctx)
	updated.ReceivedAt = &now
	updated.UpdatedAt = now
	updated.Notes = appendNotes(t.Notes, notes)
	if remainder.IsPositive() && uc.cfg.PartialReceipt == PartialReceiptWriteOff {
		updated.Shortfall = remainder
	}

	// Se reclama la transición primero: received es terminal, así que revertirla es seguro.
	if err := uc.commitStatus(ctx, &updated, t.Status, entity.EventReceive); err != nil {
		return nil, err
	}

	movements := make([]*entity.InventoryMovement, 0, 2)
	dest := t.DestinationKey()
	inbound := func(cell *entity.StockCell) *entity.InventoryMovement {
		return &entity.InventoryMovement{
			Reference:  t.ID,
			ItemID:     t.ItemID,
			LocationID: t.DestinationLocationID,
			Type:       entity.MovementTransferIn,
			Quantity:   quantityReceived,
			Balance:    cell.Quantity,
			CreatedAt:  now,
			CreatedBy:  updated.ReceivedBy,
		}
	}

	switch {
	case remainder.IsPositive() && uc.cfg.PartialReceipt == PartialReceiptReturnToSource:
		// Ingreso en destino y devolución del remanente a origen en una sola operación.
		deltas := make([]entity.StockDelta, 0, 2)
		if quantityReceived.IsPositive() {
			deltas = append(deltas, entity.StockDelta{Key: dest, Delta: quantityReceived})
		}
		deltas = append(deltas, entity.StockDelta{Key: t.SourceKey(), Delta: remainder})
		cells, err := uc.ledger.ApplyDeltas(ctx, deltas)
		if err != nil {
			uc.revertStatus(ctx, t, &updated)
			return nil, err
		}
		if quantityReceived.IsPositive() {
			movements = append(movements, inbound(cells[0]))
		}
		movements = append(movements, &entity.InventoryMovement{
			Reference:  t.ID,
			ItemID:     t.ItemID,
			LocationID: t.SourceLocationID,
			Type:       entity.MovementReturn,
			Quantity:   remainder,
			Balance:    cells[len(cells)-1].Quantity,
			Reason:     "remanente de recepción parcial",
			CreatedAt:  now,
			CreatedBy:  updated.ReceivedBy,
		})
	case quantityReceived.IsPositive():
		cell, err := uc.retryCAS(ctx, "receive", dest, func(ctx context.Context) (*entity.StockCell, error) {
			current, err := uc.ledger.Get(ctx, dest)
			if err != nil {
				return nil, err
			}
			return uc.ledger.CompareAndAdd(ctx, dest, quantityReceived, current.Version)
		})
		if err != nil {
			uc.revertStatus(ctx, t, &updated)
			return nil, err
		}
		movements = append(movements, inbound(cell))
	}

	uc.metrics.TransferTransition(string(updated.Status))
	uc.log.Info().Str("transfer_id", t.ID).Str("received", quantityReceived.String()).
		Str("remainder", remainder.String()).Msg("traslado recibido")
	uc.dispatcher.RecordMovements(ctx, movements...)
	uc.dispatcher.Publish(ctx, entity.EventTypeTransferReceived, t.ID, transferEventData(&updated))
	if remainder.IsPositive() {
		data := transferEventData(&updated)
		data["remainder"] = remainder.String()
		data["policy"] = string(uc.cfg.PartialReceipt)
		uc.dispatcher.Publish(ctx, entity.EventTypeTransferShortfall, t.ID, data)
	}
	return &updated, nil
}

// GetTransfer obtiene un traslado por id.
func (uc *TransferUseCase) GetTransfer(ctx context.Context, transferID string) (*entity.Transfer, error) {
	return uc.getTransfer(ctx, transferID)
}

// GetTransfersByLocation lectura pura de traslados salientes, entrantes o ambos.
// Una dirección desconocida se trata como both.
func (uc *TransferUseCase) GetTransfersByLocation(ctx context.Context, locationID string, direction entity.TransferDirection) ([]*entity.Transfer, error) {
	if locationID == "" {
		return []*entity.Transfer{}, nil
	}
	switch direction {
	case entity.DirectionOutgoing, entity.DirectionIncoming, entity.DirectionBoth:
	default:
		direction = entity.DirectionBoth
	}
	list, err := uc.transfers.ListByLocation(ctx, locationID, direction)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*entity.Transfer{}
	}
	return list, nil
}

// TransferSlip genera el PDF de remisión del traslado.
func (uc *TransferUseCase) TransferSlip(ctx context.Context, transferID string) ([]byte, error) {
	if uc.slips == nil {
		return nil, errors.New("generador de remisiones no configurado")
	}
	t, err := uc.getTransfer(ctx, transferID)
	if err != nil {
		return nil, err
	}
	var item *entity.Item
	if uc.items != nil {
		item, err = uc.items.GetByID(ctx, t.ItemID)
		if err != nil {
			return nil, err
		}
	}
	return uc.slips.GenerateTransferSlip(ctx, t, item)
}

func (uc *TransferUseCase) getTransfer(ctx context.Context, transferID string) (*entity.Transfer, error) {
	if transferID == "" {
		return nil, domain.ErrInvalidInput
	}
	t, err := uc.transfers.GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

// commitStatus persiste el traslado solo si su estado sigue siendo expected.
func (uc *TransferUseCase) commitStatus(ctx context.Context, t *entity.Transfer, expected entity.TransferStatus, event entity.TransferEvent) error {
	ok, err := uc.transfers.UpdateIfStatus(ctx, t, expected)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	current := expected
	if latest, gerr := uc.transfers.GetByID(ctx, t.ID); gerr == nil && latest != nil {
		current = latest.Status
	}
	return &domain.StateError{TransferID: t.ID, Current: string(current), Event: string(event)}
}

// revertStatus deshace una transición reclamada cuya mutación de ledger falló.
func (uc *TransferUseCase) revertStatus(ctx context.Context, original, claimed *entity.Transfer) {
	if _, err := uc.transfers.UpdateIfStatus(ctx, original, claimed.Status); err != nil {
		uc.log.Error().Err(err).Str("transfer_id", original.ID).Msg("revertir estado del traslado")
	}
}

func appendNotes(existing, extra string) string {
	switch {
	case extra == "":
		return existing
	case existing == "":
		return extra
	default:
		return existing + "\n" + extra
	}
}

func transferEventData(t *entity.Transfer) map[string]any {
	data := map[string]any{
		"item_id":                 t.ItemID,
		"source_location_id":      t.SourceLocationID,
		"destination_location_id": t.DestinationLocationID,
		"quantity_requested":      t.QuantityRequested.String(),
		"status":                  string(t.Status),
	}
	if t.QuantityReceived != nil {
		data["quantity_received"] = t.QuantityReceived.String()
	}
	return data
}
