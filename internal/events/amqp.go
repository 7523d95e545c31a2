package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/montessori/ecole/internal/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var (
	ErrPublisherClosed   = errors.New("publisher_closed")
	ErrBrokerUnavailable = errors.New("broker_unavailable")
)

const (
	defaultDialTimeout = 3 * time.Second
	defaultRedialDelay = 5 * time.Second
	amqpLocale         = "en_US"
)

// AMQPPublisher writes events as persistent JSON messages to a durable queue
// on the default exchange. The connection is dialed on start or first use and
// redialed after the broker drops it. A failed dial blocks further attempts
// for RedialDelay so callers fail fast while the broker is down.
type AMQPPublisher struct {
	url         string
	queue       string
	dialTimeout time.Duration
	redialDelay time.Duration
	log         *zap.Logger

	// sem guards the fields below; a slot is taken with the caller's ctx.
	sem        chan struct{}
	conn       *amqp.Connection
	ch         *amqp.Channel
	closed     bool
	retryAfter time.Time
}

func NewAMQPPublisher(cfg config.EventsConfig, log *zap.Logger) *AMQPPublisher {
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	redialDelay := cfg.RedialDelay
	if redialDelay <= 0 {
		redialDelay = defaultRedialDelay
	}
	return &AMQPPublisher{
		url:         cfg.AMQPURL,
		queue:       cfg.Queue,
		dialTimeout: dialTimeout,
		redialDelay: redialDelay,
		log:         log.Named("events.amqp"),
		sem:         make(chan struct{}, 1),
	}
}

// Connect opens the broker channel ahead of the first publication.
func (p *AMQPPublisher) Connect(ctx context.Context) error {
	if err := p.acquire(ctx); err != nil {
		return err
	}
	defer p.release()

	if p.closed {
		return ErrPublisherClosed
	}
	return p.ensureChannel(ctx)
}

func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.acquire(ctx); err != nil {
		return err
	}
	defer p.release()

	if p.closed {
		return ErrPublisherClosed
	}
	if err := p.ensureChannel(ctx); err != nil {
		return err
	}

	err = p.ch.PublishWithContext(ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Type:         event.Type,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		p.resetLocked()
		return err
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.sem <- struct{}{}
	defer p.release()
	p.closed = true
	return p.resetLocked()
}

func (p *AMQPPublisher) acquire(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *AMQPPublisher) release() { <-p.sem }

func (p *AMQPPublisher) ensureChannel(ctx context.Context) error {
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.resetLocked()

	if err := ctx.Err(); err != nil {
		return err
	}
	if time.Now().Before(p.retryAfter) {
		return ErrBrokerUnavailable
	}

	timeout := p.dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Locale: amqpLocale,
		Dial:   amqp.DefaultDial(timeout),
	})
	if err != nil {
		p.retryAfter = time.Now().Add(p.redialDelay)
		return fmt.Errorf("%w: %w", ErrBrokerUnavailable, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}
	if _, err := declareQueue(ch, p.queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	p.conn = conn
	p.ch = ch
	p.retryAfter = time.Time{}
	p.log.Info("connected to broker", zap.String("queue", p.queue))
	return nil
}

func (p *AMQPPublisher) resetLocked() error {
	var err error
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err = p.conn.Close()
		p.conn = nil
	}
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(name, true, false, false, false, nil)
}
