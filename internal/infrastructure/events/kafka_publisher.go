// Package events implementa ports.EventPublisher sobre Kafka o sobre el log.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jhoicas/inventory-movements/internal/application/ports"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/segmentio/kafka-go"
)

var _ ports.EventPublisher = (*KafkaPublisher)(nil)

// messageWriter lo satisface *kafka.Writer; permite testear sin broker.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica cada evento como mensaje JSON; la clave es el subject
// (traslado, pedido o celda) para conservar el orden por entidad dentro de la partición.
type KafkaPublisher struct {
	writer messageWriter
	source string
}

// KafkaConfig parámetros del writer.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	Source       string // nombre del servicio, va en el header ce-source
	BatchTimeout time.Duration
}

// NewKafkaPublisher construye el publisher con escritura síncrona (RequireOne).
func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w, source: cfg.Source}
}

// Publish serializa y escribe el evento.
func (p *KafkaPublisher) Publish(ctx context.Context, ev entity.Event) error {
	msg, err := p.message(ev)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publicar %s: %w", ev.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) message(ev entity.Event) (kafka.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("serializar evento: %w", err)
	}
	return kafka.Message{
		Key:   []byte(ev.Subject),
		Value: data,
		Headers: []kafka.Header{
			{Key: "ce-id", Value: []byte(ev.ID)},
			{Key: "ce-type", Value: []byte(ev.Type)},
			{Key: "ce-source", Value: []byte(p.source)},
			{Key: "ce-time", Value: []byte(ev.OccurredAt.Format(time.RFC3339))},
			{Key: "content-type", Value: []byte("application/json")},
		},
		Time: ev.OccurredAt,
	}, nil
}

// Close libera el writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
