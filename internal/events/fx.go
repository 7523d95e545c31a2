package events

import (
	"context"

	"github.com/montessori/ecole/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("events",
	fx.Provide(NewPublisher),
	fx.Provide(NewNotifier),
	fx.Invoke(startConsumer),
)

// NewPublisher returns the broker publisher when events are enabled and a
// no-op publisher otherwise.
func NewPublisher(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) Publisher {
	if !cfg.Events.Enabled {
		log.Info("event publishing disabled")
		return NewNoopPublisher()
	}

	publisher := NewAMQPPublisher(cfg.Events, log)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := publisher.Connect(ctx); err != nil {
				log.Warn("broker not reachable at startup, publishing will retry", zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	})
	return publisher
}

func startConsumer(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) {
	if !cfg.Events.Enabled {
		return
	}

	consumer := NewConsumer(cfg.Events.AMQPURL, cfg.Events.Queue, log)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				consumer.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
