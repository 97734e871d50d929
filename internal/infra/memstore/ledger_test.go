//go:build unit

package memstore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"washbook/internal/domain/reservation"
	"washbook/internal/infra"
	"washbook/internal/infra/memstore"
	"washbook/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)

func newHold(mutate func(*builder.ReservationBuilder)) *reservation.Reservation {
	b := builder.NewReservationBuilder(testNow)
	if mutate != nil {
		mutate(b)
	}
	return b.BuildDomain()
}

func TestCreateHold(t *testing.T) {
	t.Run("stores and finds", func(t *testing.T) {
		l := memstore.NewLedger()
		rsv := newHold(nil)

		require.NoError(t, l.CreateHold(context.Background(), rsv))

		got, err := l.FindByID(context.Background(), rsv.ID())
		require.NoError(t, err)
		assert.Equal(t, rsv.ID(), got.ID())
		assert.Equal(t, reservation.StatusHeld, got.Status())
	})

	t.Run("overlap with a live hold conflicts", func(t *testing.T) {
		l := memstore.NewLedger()
		first := newHold(nil)
		require.NoError(t, l.CreateHold(context.Background(), first))

		second := newHold(func(b *builder.ReservationBuilder) {
			b.ResourceID = first.ResourceID()
			b.Start = first.Span().Start.Add(30 * time.Minute)
		})
		err := l.CreateHold(context.Background(), second)
		assert.True(t, infra.IsKind(err, infra.KindConflict))
	})

	t.Run("overlap on another resource is fine", func(t *testing.T) {
		l := memstore.NewLedger()
		first := newHold(nil)
		require.NoError(t, l.CreateHold(context.Background(), first))

		second := newHold(func(b *builder.ReservationBuilder) {
			b.Start = first.Span().Start
		})
		assert.NoError(t, l.CreateHold(context.Background(), second))
	})

	t.Run("overlap with a terminal record is fine", func(t *testing.T) {
		l := memstore.NewLedger()
		first := newHold(nil)
		require.NoError(t, l.CreateHold(context.Background(), first))
		_, err := l.Cancel(context.Background(), first.ID(), testNow)
		require.NoError(t, err)

		second := newHold(func(b *builder.ReservationBuilder) {
			b.ResourceID = first.ResourceID()
			b.Start = first.Span().Start
		})
		assert.NoError(t, l.CreateHold(context.Background(), second))
	})
}

// Concurrent holds on one slot: the per-resource critical section must let
// exactly one insert through.
func TestCreateHoldRace(t *testing.T) {
	const contenders = 32

	l := memstore.NewLedger()
	resourceID := uuid.New()
	start := testNow.Add(2 * time.Hour)

	var wg sync.WaitGroup
	errCh := make(chan error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rsv := newHold(func(b *builder.ReservationBuilder) {
				b.ResourceID = resourceID
				b.Start = start
			})
			errCh <- l.CreateHold(context.Background(), rsv)
		}()
	}
	wg.Wait()
	close(errCh)

	var wins int
	for err := range errCh {
		if err == nil {
			wins++
		} else {
			assert.True(t, infra.IsKind(err, infra.KindConflict))
		}
	}
	assert.Equal(t, 1, wins)
}

func TestTransitions(t *testing.T) {
	t.Run("returned copy does not alias the store", func(t *testing.T) {
		l := memstore.NewLedger()
		rsv := newHold(nil)
		require.NoError(t, l.CreateHold(context.Background(), rsv))

		got, err := l.Confirm(context.Background(), rsv.ID(), testNow.Add(time.Minute))
		require.NoError(t, err)
		require.NoError(t, got.Cancel(testNow.Add(2*time.Minute)))

		stored, err := l.FindByID(context.Background(), rsv.ID())
		require.NoError(t, err)
		assert.Equal(t, reservation.StatusConfirmed, stored.Status())
	})

	t.Run("precondition failure is stale state", func(t *testing.T) {
		l := memstore.NewLedger()
		rsv := newHold(nil)
		require.NoError(t, l.CreateHold(context.Background(), rsv))
		_, err := l.Cancel(context.Background(), rsv.ID(), testNow)
		require.NoError(t, err)

		_, err = l.Confirm(context.Background(), rsv.ID(), testNow)
		assert.True(t, infra.IsKind(err, infra.KindStaleState))
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		l := memstore.NewLedger()
		_, err := l.Confirm(context.Background(), uuid.New(), testNow)
		assert.True(t, infra.IsKind(err, infra.KindNotFound))
	})
}

func TestExpiredHolds(t *testing.T) {
	l := memstore.NewLedger()

	early := newHold(func(b *builder.ReservationBuilder) { b.HoldExpiry = testNow.Add(1 * time.Minute) })
	late := newHold(func(b *builder.ReservationBuilder) { b.HoldExpiry = testNow.Add(5 * time.Minute) })
	live := newHold(func(b *builder.ReservationBuilder) { b.HoldExpiry = testNow.Add(time.Hour) })
	for _, rsv := range []*reservation.Reservation{late, live, early} {
		require.NoError(t, l.CreateHold(context.Background(), rsv))
	}

	t.Run("only lapsed holds, oldest first", func(t *testing.T) {
		due, err := l.ExpiredHolds(context.Background(), testNow.Add(10*time.Minute), 0)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{early.ID(), late.ID()}, due)
	})

	t.Run("limit caps the batch", func(t *testing.T) {
		due, err := l.ExpiredHolds(context.Background(), testNow.Add(10*time.Minute), 1)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{early.ID()}, due)
	})

	t.Run("non-held records never show up", func(t *testing.T) {
		_, err := l.Expire(context.Background(), early.ID(), testNow.Add(10*time.Minute))
		require.NoError(t, err)

		due, err := l.ExpiredHolds(context.Background(), testNow.Add(10*time.Minute), 0)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{late.ID()}, due)
	})
}

func TestOutbox(t *testing.T) {
	l := memstore.NewLedger()
	rsv := newHold(nil)
	require.NoError(t, l.CreateHold(context.Background(), rsv))
	_, err := l.Confirm(context.Background(), rsv.ID(), testNow.Add(time.Minute))
	require.NoError(t, err)
	_, err = l.Cancel(context.Background(), rsv.ID(), testNow.Add(2*time.Minute))
	require.NoError(t, err)

	t.Run("every transition appends with increasing seq", func(t *testing.T) {
		pending, err := l.Pending(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, pending, 3)

		assert.Equal(t, reservation.StatusHeld, pending[0].NewStatus)
		assert.Equal(t, int64(1), pending[0].Seq)
		assert.Equal(t, reservation.StatusConfirmed, pending[1].NewStatus)
		assert.Equal(t, reservation.StatusHeld, pending[1].OldStatus)
		assert.Equal(t, int64(2), pending[1].Seq)
		assert.Equal(t, reservation.StatusCancelled, pending[2].NewStatus)
		assert.Equal(t, int64(3), pending[2].Seq)
	})

	t.Run("mark published removes from pending", func(t *testing.T) {
		require.NoError(t, l.MarkPublished(context.Background(), rsv.ID(), 1))

		pending, err := l.Pending(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, int64(2), pending[0].Seq)
	})

	t.Run("pending honors the limit", func(t *testing.T) {
		pending, err := l.Pending(context.Background(), 1)
		require.NoError(t, err)
		assert.Len(t, pending, 1)
	})

	t.Run("marking a missing row is not found", func(t *testing.T) {
		err := l.MarkPublished(context.Background(), rsv.ID(), 99)
		assert.True(t, infra.IsKind(err, infra.KindNotFound))
	})
}

// Transitions committed in the same instant must still drain in
// per-reservation seq order, or consumers would see state changes backwards.
func TestOutboxSameInstantOrder(t *testing.T) {
	l := memstore.NewLedger()
	a := newHold(nil)
	b := newHold(nil)
	require.NoError(t, l.CreateHold(context.Background(), a))
	require.NoError(t, l.CreateHold(context.Background(), b))

	at := testNow.Add(time.Minute)
	for _, id := range []uuid.UUID{a.ID(), b.ID()} {
		_, err := l.Confirm(context.Background(), id, at)
		require.NoError(t, err)
		_, err = l.Cancel(context.Background(), id, at)
		require.NoError(t, err)
	}

	pending, err := l.Pending(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, pending, 6)

	lastSeq := map[uuid.UUID]int64{}
	for _, evt := range pending {
		assert.Greater(t, evt.Seq, lastSeq[evt.ReservationID])
		lastSeq[evt.ReservationID] = evt.Seq
	}
}

func TestActiveWithin(t *testing.T) {
	l := memstore.NewLedger()
	resourceID := uuid.New()

	morning := newHold(func(b *builder.ReservationBuilder) {
		b.ResourceID = resourceID
		b.Start = testNow.Add(2 * time.Hour)
	})
	afternoon := newHold(func(b *builder.ReservationBuilder) {
		b.ResourceID = resourceID
		b.Start = testNow.Add(6 * time.Hour)
	})
	for _, rsv := range []*reservation.Reservation{afternoon, morning} {
		require.NoError(t, l.CreateHold(context.Background(), rsv))
	}

	t.Run("window filtering and ordering", func(t *testing.T) {
		got, err := l.ActiveWithin(context.Background(), resourceID, testNow, testNow.Add(12*time.Hour))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, morning.ID(), got[0].ID())
		assert.Equal(t, afternoon.ID(), got[1].ID())

		got, err = l.ActiveWithin(context.Background(), resourceID, testNow, testNow.Add(3*time.Hour))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, morning.ID(), got[0].ID())
	})

	t.Run("terminal records drop out", func(t *testing.T) {
		_, err := l.Cancel(context.Background(), morning.ID(), testNow)
		require.NoError(t, err)

		got, err := l.ActiveWithin(context.Background(), resourceID, testNow, testNow.Add(12*time.Hour))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, afternoon.ID(), got[0].ID())
	})
}

func TestListByClient(t *testing.T) {
	l := memstore.NewLedger()
	clientID := uuid.New()

	first := newHold(func(b *builder.ReservationBuilder) {
		b.ClientID = clientID
		b.CreatedAt = testNow
	})
	second := newHold(func(b *builder.ReservationBuilder) {
		b.ClientID = clientID
		b.Start = testNow.Add(3 * time.Hour)
		b.CreatedAt = testNow.Add(time.Minute)
	})
	other := newHold(nil)
	for _, rsv := range []*reservation.Reservation{second, other, first} {
		require.NoError(t, l.CreateHold(context.Background(), rsv))
	}

	got, err := l.ListByClient(context.Background(), clientID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID(), got[0].ID())
	assert.Equal(t, second.ID(), got[1].ID())
}
