package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func sampleEvent() entity.Event {
	return entity.Event{
		ID:         "ev-1",
		Type:       entity.EventTypeTransferApproved,
		Subject:    "t-42",
		OccurredAt: time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC),
		Data:       map[string]any{"item_id": "harina", "status": "in_transit"},
	}
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestKafkaPublisher_Mensaje(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, source: "inventory-movements"}

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "t-42", string(msg.Key), "la clave es el subject")
	assert.Equal(t, "ev-1", header(msg, "ce-id"))
	assert.Equal(t, entity.EventTypeTransferApproved, header(msg, "ce-type"))
	assert.Equal(t, "inventory-movements", header(msg, "ce-source"))
	assert.Equal(t, "2026-05-04T10:30:00Z", header(msg, "ce-time"))
	assert.Equal(t, "application/json", header(msg, "content-type"))

	var decoded entity.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "t-42", decoded.Subject)
	assert.Equal(t, "harina", decoded.Data["item_id"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_ErrorDelBroker(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker caído")}
	p := &KafkaPublisher{writer: w}

	err := p.Publish(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), entity.EventTypeTransferApproved)
	assert.ErrorIs(t, err, w.err)
}

type publishLog struct {
	types []string
	errs  []error
}

func (l *publishLog) RecordPublish(eventType string, err error, _ time.Duration) {
	l.types = append(l.types, eventType)
	l.errs = append(l.errs, err)
}

func TestInstrumented(t *testing.T) {
	rec := &publishLog{}
	failing := &KafkaPublisher{writer: &fakeWriter{err: errors.New("sin líderes")}}

	pub := Instrumented(failing, rec)
	assert.Error(t, pub.Publish(context.Background(), sampleEvent()))
	require.Len(t, rec.types, 1)
	assert.Equal(t, entity.EventTypeTransferApproved, rec.types[0])
	assert.Error(t, rec.errs[0])

	assert.Same(t, failing, Instrumented(failing, nil), "sin recorder se devuelve el publisher original")
}
