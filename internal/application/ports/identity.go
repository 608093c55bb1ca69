package ports

import "context"

// ActorProvider entrega el id del operador actual para los sellos de auditoría
// (requested_by, approved_by, received_by).
type ActorProvider interface {
	ActorID(ctx context.Context) string
}

// StaticActor devuelve siempre el mismo operador (procesos batch y tests).
type StaticActor string

func (a StaticActor) ActorID(context.Context) string { return string(a) }
