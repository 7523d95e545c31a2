package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/montessori/ecole/internal/clock"
	"github.com/montessori/ecole/internal/observability/logger"
	"github.com/montessori/ecole/internal/observability/metrics"
	"go.uber.org/zap"
)

// Notifier stamps and publishes events for the domain services. Publication
// never fails the caller: errors are logged and counted.
type Notifier struct {
	publisher Publisher
	log       *zap.Logger
	clock     clock.Clock
	metrics   *metrics.Metrics
}

func NewNotifier(publisher Publisher, log *zap.Logger, clk clock.Clock, m *metrics.Metrics) *Notifier {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Notifier{
		publisher: publisher,
		log:       log.Named("events.notifier"),
		clock:     clk,
		metrics:   m,
	}
}

func (n *Notifier) Notify(ctx context.Context, eventType string, payload map[string]any) {
	if n == nil || n.publisher == nil {
		return
	}
	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: n.clock.Now(),
		Payload:    payload,
	}
	if err := n.publisher.Publish(ctx, event); err != nil {
		logger.WithContext(ctx, n.log).Warn("event publication failed",
			zap.String("event_type", eventType),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		n.metrics.RecordNotification(ctx, eventType, "error")
		return
	}
	n.metrics.RecordNotification(ctx, eventType, "published")
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Types() []string {
	events := r.Events()
	types := make([]string, 0, len(events))
	for _, event := range events {
		types = append(types, event.Type)
	}
	return types
}
