package bootstrap

import (
	"context"

	"washbook/internal/infra/events"
	"washbook/internal/pkg/config"
	"washbook/internal/worker"

	"go.uber.org/fx"
)

// paymentOutcomeKeys is what the payment collaborator publishes its verdicts
// under.
var paymentOutcomeKeys = []string{"payment.outcome.*"}

var AMQPModule = fx.Module("amqp",
	fx.Provide(
		NewEventPublisher,
		NewPaymentOutcomeConsumer,
		func(p *events.Publisher) worker.EventSink { return p },
		func(c *events.Consumer) worker.DeliverySource { return c },
	),
)

func NewEventPublisher(lc fx.Lifecycle, cfg config.Config) (*events.Publisher, error) {
	pub, err := events.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return pub.Close()
		},
	})

	return pub, nil
}

func NewPaymentOutcomeConsumer(lc fx.Lifecycle, cfg config.Config) (*events.Consumer, error) {
	con, err := events.NewConsumer(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.PaymentQueue, paymentOutcomeKeys)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return con.Close()
		},
	})

	return con, nil
}
