package inventory

import "github.com/jhoicas/inventory-movements/internal/domain/entity"

type transitionKey struct {
	from  entity.TransferStatus
	event entity.TransferEvent
}

// transitions tabla estática de la máquina de estados del traslado.
// Estado inicial: pending (vía initiate desde ""). Terminales: received, cancelled.
var transitions = map[transitionKey]entity.TransferStatus{
	{from: "", event: entity.EventInitiate}:                      entity.TransferPending,
	{from: entity.TransferPending, event: entity.EventApprove}:   entity.TransferInTransit,
	{from: entity.TransferPending, event: entity.EventReject}:    entity.TransferCancelled,
	{from: entity.TransferInTransit, event: entity.EventReceive}: entity.TransferReceived,
}

// AllowedEvents devuelve los eventos legales desde un estado (útil para la UI y los tests).
func AllowedEvents(from entity.TransferStatus) []entity.TransferEvent {
	var out []entity.TransferEvent
	for _, ev := range []entity.TransferEvent{entity.EventInitiate, entity.EventApprove, entity.EventReject, entity.EventReceive} {
		if _, ok := transitions[transitionKey{from: from, event: ev}]; ok {
			out = append(out, ev)
		}
	}
	return out
}
