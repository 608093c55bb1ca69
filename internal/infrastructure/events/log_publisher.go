package events

import (
	"context"
	"time"

	"github.com/jhoicas/inventory-movements/internal/application/ports"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/rs/zerolog"
)

var _ ports.EventPublisher = (*LogPublisher)(nil)

// LogPublisher escribe los eventos en el log estructurado (sin broker configurado).
type LogPublisher struct {
	log zerolog.Logger
}

// NewLogPublisher construye el publisher.
func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log.With().Str("component", "events").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, ev entity.Event) error {
	p.log.Info().
		Str("event_id", ev.ID).
		Str("event_type", ev.Type).
		Str("subject", ev.Subject).
		Time("occurred_at", ev.OccurredAt).
		Interface("data", ev.Data).
		Msg("evento")
	return nil
}

// PublishRecorder recibe el resultado de cada publicación.
type PublishRecorder interface {
	RecordPublish(eventType string, err error, d time.Duration)
}

// Instrumented envuelve un publisher y registra duración y resultado.
func Instrumented(next ports.EventPublisher, rec PublishRecorder) ports.EventPublisher {
	if rec == nil {
		return next
	}
	return ports.EventPublisherFunc(func(ctx context.Context, ev entity.Event) error {
		start := time.Now()
		err := next.Publish(ctx, ev)
		rec.RecordPublish(ev.Type, err, time.Since(start))
		return err
	})
}
