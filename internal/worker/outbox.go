package worker

import (
	"context"
	"log/slog"
	"time"

	"washbook/internal/domain/reservation"
	"washbook/internal/pkg/config"

	"github.com/google/uuid"
)

// EventOutbox is the ledger's queue of committed-but-unpublished state
// changes.
type EventOutbox interface {
	Pending(ctx context.Context, limit int) ([]reservation.StateChanged, error)
	MarkPublished(ctx context.Context, reservationID uuid.UUID, seq int64) error
}

// EventSink is where relayed events go (AMQP in production).
type EventSink interface {
	PublishStateChanged(ctx context.Context, evt reservation.StateChanged) error
}

// OutboxRelay drains the outbox on a fixed interval. Marking happens only
// after a successful publish, so delivery is at-least-once; consumers
// deduplicate on (reservation_id, seq).
type OutboxRelay struct {
	outbox   EventOutbox
	sink     EventSink
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

func NewOutboxRelay(outbox EventOutbox, sink EventSink, cfg config.BookingConfig, logger *slog.Logger) *OutboxRelay {
	return &OutboxRelay{
		outbox:   outbox,
		sink:     sink,
		interval: cfg.RelayInterval,
		batch:    cfg.RelayBatch,
		logger:   logger,
	}
}

func (r *OutboxRelay) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	r.Relay(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			r.Relay(ctx)
		}
	}
}

// Relay publishes one batch. A publish failure leaves the row pending for
// the next pass.
func (r *OutboxRelay) Relay(ctx context.Context) {
	pending, err := r.outbox.Pending(ctx, r.batch)
	if err != nil {
		r.logger.Error("outbox: pending query failed", "error", err)
		return
	}

	for _, evt := range pending {
		if err := r.sink.PublishStateChanged(ctx, evt); err != nil {
			r.logger.Warn("outbox: publish failed, will retry",
				"reservation_id", evt.ReservationID, "seq", evt.Seq, "error", err)
			continue
		}
		if err := r.outbox.MarkPublished(ctx, evt.ReservationID, evt.Seq); err != nil {
			r.logger.Warn("outbox: mark published failed",
				"reservation_id", evt.ReservationID, "seq", evt.Seq, "error", err)
		}
	}
}
