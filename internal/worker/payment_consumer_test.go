//go:build unit

package worker_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"washbook/internal/domain/reservation"
	"washbook/internal/usecase/commands"
	"washbook/internal/worker"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAcknowledger struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (a *recordingAcknowledger) Ack(_ uint64, _ bool) error {
	a.acked = true
	return nil
}

func (a *recordingAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func (a *recordingAcknowledger) Reject(_ uint64, requeue bool) error {
	return a.Nack(0, false, requeue)
}

type channelSource struct {
	ch chan amqp.Delivery
}

func (s *channelSource) Deliveries(_ context.Context) (<-chan amqp.Delivery, error) {
	return s.ch, nil
}

// deliver runs the consumer over a single delivery and waits for it to drain.
func deliver(t *testing.T, f *sweepFixture, body []byte) *recordingAcknowledger {
	t.Helper()

	bridge := commands.NewPaymentBridge(f.cmds, slog.Default())
	source := &channelSource{ch: make(chan amqp.Delivery, 1)}
	consumer := worker.NewPaymentConsumer(bridge, source, slog.Default())

	ack := &recordingAcknowledger{}
	source.ch <- amqp.Delivery{Acknowledger: ack, Body: body}
	close(source.ch)

	require.NoError(t, consumer.Run(context.Background()))
	return ack
}

func outcomeBody(t *testing.T, id uuid.UUID, result string) []byte {
	t.Helper()
	body, err := json.Marshal(worker.PaymentOutcomeEvent{ReservationID: id, Result: result})
	require.NoError(t, err)
	return body
}

func TestPaymentConsumer(t *testing.T) {
	start := testNow.Add(2 * time.Hour)

	t.Run("success outcome confirms and acks", func(t *testing.T) {
		f := newSweepFixture(t)
		held := f.reserve(t, start)

		ack := deliver(t, f, outcomeBody(t, held.ID, "SUCCESS"))

		assert.True(t, ack.acked)
		assert.Equal(t, reservation.StatusConfirmed, f.statusOf(t, held.ID))
	})

	t.Run("failure outcome cancels and acks", func(t *testing.T) {
		f := newSweepFixture(t)
		held := f.reserve(t, start)

		ack := deliver(t, f, outcomeBody(t, held.ID, "FAILURE"))

		assert.True(t, ack.acked)
		assert.Equal(t, reservation.StatusCancelled, f.statusOf(t, held.ID))
	})

	t.Run("success after expiry is acked, not requeued", func(t *testing.T) {
		f := newSweepFixture(t)
		held := f.reserve(t, start)
		f.clk.Add(11 * time.Minute)
		f.sweeper.Sweep(context.Background())

		ack := deliver(t, f, outcomeBody(t, held.ID, "SUCCESS"))

		assert.True(t, ack.acked, "replaying would fail identically")
		assert.Equal(t, reservation.StatusExpired, f.statusOf(t, held.ID))
	})

	t.Run("unknown reservation is acked", func(t *testing.T) {
		f := newSweepFixture(t)
		ack := deliver(t, f, outcomeBody(t, uuid.New(), "SUCCESS"))
		assert.True(t, ack.acked)
	})

	t.Run("malformed body is dropped without requeue", func(t *testing.T) {
		f := newSweepFixture(t)
		ack := deliver(t, f, []byte("not json"))
		assert.True(t, ack.nacked)
		assert.False(t, ack.requeued)
	})

	t.Run("missing reservation id is acked", func(t *testing.T) {
		f := newSweepFixture(t)
		ack := deliver(t, f, outcomeBody(t, uuid.Nil, "SUCCESS"))
		assert.True(t, ack.acked)
	})
}
