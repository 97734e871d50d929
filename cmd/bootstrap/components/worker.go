package components

import (
	"context"
	"errors"
	"log/slog"

	"washbook/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		worker.NewSweeper,
		worker.NewOutboxRelay,
		worker.NewPaymentConsumer,
	),
	fx.Invoke(startWorkers),
)

// startWorkers runs the background loops for the life of the app. Each loop
// exits on context cancellation during shutdown.
func startWorkers(
	lc fx.Lifecycle,
	sweeper *worker.Sweeper,
	relay *worker.OutboxRelay,
	payments *worker.PaymentConsumer,
	logger *slog.Logger,
) {
	ctx, cancel := context.WithCancel(context.Background())

	run := func(name string, loop func(context.Context) error) {
		go func() {
			if err := loop(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("worker stopped", "worker", name, "error", err)
			}
		}()
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			run("sweeper", sweeper.Run)
			run("outbox-relay", relay.Run)
			run("payment-consumer", payments.Run)
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return nil
		},
	})
}
