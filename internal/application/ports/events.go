package ports

import (
	"context"

	"github.com/jhoicas/inventory-movements/internal/domain/entity"
)

// EventPublisher define el puerto de salida para notificaciones de ciclo de vida de
// traslados, reservas y stock bajo. Se inyecta al construir cada caso de uso.
// Un error de publicación nunca revierte la operación que lo originó.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.Event) error
}

// EventPublisherFunc adapta una función a EventPublisher.
type EventPublisherFunc func(ctx context.Context, event entity.Event) error

func (f EventPublisherFunc) Publish(ctx context.Context, event entity.Event) error {
	return f(ctx, event)
}
