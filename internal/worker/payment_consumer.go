package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"washbook/internal/usecase/commands"
	"washbook/internal/usecase/queries"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// PaymentOutcomeEvent is the inbound shape from the payment collaborator.
type PaymentOutcomeEvent struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	Result        string    `json:"result"` // SUCCESS | FAILURE | TIMEOUT
}

// DeliverySource abstracts the AMQP consumer so tests can feed deliveries
// from a channel.
type DeliverySource interface {
	Deliveries(ctx context.Context) (<-chan amqp.Delivery, error)
}

// PaymentConsumer feeds payment outcomes into the bridge. Delivery is
// at-least-once: outcomes whose transition already happened are acked, not
// requeued, so replays stay idempotent. Transient ledger failures are nacked
// with requeue.
type PaymentConsumer struct {
	bridge commands.PaymentBridge
	source DeliverySource
	logger *slog.Logger
}

func NewPaymentConsumer(bridge commands.PaymentBridge, source DeliverySource, logger *slog.Logger) *PaymentConsumer {
	return &PaymentConsumer{bridge: bridge, source: source, logger: logger}
}

func (c *PaymentConsumer) Run(ctx context.Context) error {
	msgs, err := c.source.Deliveries(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			c.handle(ctx, d)
		}
	}
}

func (c *PaymentConsumer) handle(ctx context.Context, d amqp.Delivery) {
	var evt PaymentOutcomeEvent
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		c.logger.Error("payment consumer: malformed outcome dropped", "error", err)
		_ = d.Nack(false, false)
		return
	}
	if evt.ReservationID == uuid.Nil {
		c.logger.Error("payment consumer: outcome missing reservation id")
		_ = d.Ack(false)
		return
	}

	err := c.bridge.OnPaymentOutcome(ctx, evt.ReservationID, commands.PaymentResult(evt.Result))
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, commands.ErrHoldExpired),
		errors.Is(err, commands.ErrInvalidTransition),
		errors.Is(err, commands.ErrUnknownPaymentResult),
		errors.Is(err, queries.ErrReservationNotFound):
		// Terminal for this delivery: a replay would fail the same way.
		// Compensation runs outside this core; ack so the queue drains.
		c.logger.Warn("payment consumer: outcome not applicable",
			"reservation_id", evt.ReservationID, "result", evt.Result, "error", err)
		_ = d.Ack(false)
	default:
		c.logger.Error("payment consumer: transient failure, requeueing",
			"reservation_id", evt.ReservationID, "error", err)
		_ = d.Nack(false, true)
	}
}
