package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const maxConsumerBackoff = 30 * time.Second

// Consumer drains the notification queue. Each event is logged; turning it
// into an email is left to the mail gateway that reads the same log stream.
type Consumer struct {
	url   string
	queue string
	log   *zap.Logger
}

func NewConsumer(url, queue string, log *zap.Logger) *Consumer {
	return &Consumer{
		url:   url,
		queue: queue,
		log:   log.Named("events.consumer"),
	}
}

// Run reconnects with exponential backoff until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return
			}
			if backoff < maxConsumerBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		c.log.Warn("consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("set qos failed", zap.Error(err))
	}
	if _, err := declareQueue(ch, c.queue); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range deliveries {
		if err := c.Handle(d.Body); err != nil {
			c.log.Warn("notification rejected", zap.Error(err))
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// Handle decodes one message body and logs the notification it carries.
func (c *Consumer) Handle(body []byte) error {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if event.Type == "" {
		return errors.New("event type is empty")
	}

	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.Time("occurred_at", event.OccurredAt),
	}
	if recipient, ok := event.Payload["email"].(string); ok && recipient != "" {
		fields = append(fields, zap.Bool("has_recipient", true))
	}
	c.log.Info("notification received", fields...)
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
