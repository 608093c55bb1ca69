// Package identity propaga el operador autenticado por el contexto de la petición.
package identity

import (
	"context"

	"github.com/jhoicas/inventory-movements/internal/application/ports"
)

type actorKey struct{}

// WithActor devuelve un contexto que lleva el id del operador.
func WithActor(ctx context.Context, operatorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, operatorID)
}

// FromContext id del operador, o "" si no hay.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(actorKey{}).(string)
	return id
}

// ContextActor implementa ports.ActorProvider leyendo el contexto; Fallback se usa
// cuando la petición no trae operador (procesos internos).
type ContextActor struct {
	Fallback string
}

var _ ports.ActorProvider = ContextActor{}

func (a ContextActor) ActorID(ctx context.Context) string {
	if id := FromContext(ctx); id != "" {
		return id
	}
	return a.Fallback
}
