package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/montessori/ecole/internal/clock"
	"github.com/montessori/ecole/internal/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotifierPublishesStampedEvent(t *testing.T) {
	rec := NewRecorder()
	now := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	n := NewNotifier(rec, zap.NewNop(), clock.NewFakeClock(now), metrics.NewNoop())

	n.Notify(context.Background(), TypePreinscriptionValidated, map[string]any{"reference": "REF"})

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, TypePreinscriptionValidated, events[0].Type)
	assert.Equal(t, now, events[0].OccurredAt)
	assert.NotEmpty(t, events[0].ID)
	assert.Equal(t, "REF", events[0].Payload["reference"])
}

func TestNotifierSwallowsPublishErrors(t *testing.T) {
	rec := NewRecorder()
	rec.Err = errors.New("broker down")
	n := NewNotifier(rec, zap.NewNop(), clock.NewSystemClock(), nil)

	assert.NotPanics(t, func() {
		n.Notify(context.Background(), TypeInvoiceSent, nil)
	})
	assert.Empty(t, rec.Events())
}

func TestNilNotifierIsNoop(t *testing.T) {
	var n *Notifier
	assert.NotPanics(t, func() {
		n.Notify(context.Background(), TypeInvoiceSent, nil)
	})
}

func TestConsumerHandle(t *testing.T) {
	c := NewConsumer("amqp://unused", "ecole.notifications", zap.NewNop())

	body, err := json.Marshal(Event{ID: "1", Type: TypeRentreeReminder, OccurredAt: time.Now()})
	require.NoError(t, err)
	assert.NoError(t, c.Handle(body))

	assert.Error(t, c.Handle([]byte("not json")))
	assert.Error(t, c.Handle([]byte(`{"id":"2"}`)))
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NewNoopPublisher().Publish(context.Background(), Event{Type: "x"}))
}
