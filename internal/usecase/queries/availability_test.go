//go:build unit

package queries_test

import (
	"context"
	"testing"
	"time"

	"washbook/internal/domain/reservation"
	"washbook/internal/domain/schedule"
	"washbook/internal/infra/memstore"
	"washbook/internal/pkg/config"
	"washbook/internal/usecase/queries"
	"washbook/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2026-03-02; the fixture resource opens 09:00-17:00 weekdays.
var testDay = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

type availabilityFixture struct {
	ledger     *memstore.Ledger
	qs         queries.AvailabilityQueries
	resourceID uuid.UUID
	serviceID  uuid.UUID
}

func newAvailabilityFixture(t *testing.T, mutate func(*builder.ResourceBuilder)) *availabilityFixture {
	t.Helper()

	rb := builder.NewResourceBuilder()
	if mutate != nil {
		mutate(rb)
	}
	res, err := rb.BuildDomain()
	require.NoError(t, err)
	svc, err := builder.NewServiceBuilder().BuildDomain()
	require.NoError(t, err)

	refs := memstore.NewReferenceStore()
	refs.PutResource(res)
	refs.PutService(svc)

	ledger := memstore.NewLedger()
	qs := queries.NewAvailabilityQueries(refs, refs.Services(), ledger, config.NewTestConfig().Booking)

	return &availabilityFixture{
		ledger:     ledger,
		qs:         qs,
		resourceID: res.ID(),
		serviceID:  svc.ID(),
	}
}

func (f *availabilityFixture) hold(t *testing.T, start time.Time, dur time.Duration, status reservation.Status) {
	t.Helper()
	rsv := builder.NewReservationBuilder(start.Add(-time.Hour)).With(func(b *builder.ReservationBuilder) {
		b.ResourceID = f.resourceID
		b.ServiceID = f.serviceID
		b.Start = start
		b.Duration = dur
		b.Status = reservation.StatusHeld
	}).BuildDomain()
	require.NoError(t, f.ledger.CreateHold(context.Background(), rsv))

	// the builder's hold window is 10 minutes from its creation instant
	now := start.Add(-55 * time.Minute)
	switch status {
	case reservation.StatusHeld:
	case reservation.StatusConfirmed:
		_, err := f.ledger.Confirm(context.Background(), rsv.ID(), now)
		require.NoError(t, err)
	case reservation.StatusCancelled:
		_, err := f.ledger.Cancel(context.Background(), rsv.ID(), now)
		require.NoError(t, err)
	case reservation.StatusExpired:
		_, err := f.ledger.Expire(context.Background(), rsv.ID(), start)
		require.NoError(t, err)
	}
}

func starts(slots []queries.Slot) []time.Time {
	out := make([]time.Time, len(slots))
	for i, s := range slots {
		out[i] = s.Start
	}
	return out
}

func TestAvailableSlots(t *testing.T) {
	hour := func(h int) time.Time { return testDay.Add(time.Duration(h) * time.Hour) }

	t.Run("empty day yields every slot in order", func(t *testing.T) {
		f := newAvailabilityFixture(t, nil)

		slots, err := f.qs.AvailableSlots(context.Background(), f.resourceID, testDay, f.serviceID)
		require.NoError(t, err)
		require.Len(t, slots, 8)
		assert.Equal(t, hour(9), slots[0].Start)
		assert.Equal(t, hour(10), slots[0].End)
		assert.Equal(t, hour(16), slots[7].Start)
		for i := 1; i < len(slots); i++ {
			assert.True(t, slots[i-1].Start.Before(slots[i].Start))
		}
	})

	t.Run("confirmed booking removes its slot", func(t *testing.T) {
		f := newAvailabilityFixture(t, nil)
		f.hold(t, hour(10), time.Hour, reservation.StatusConfirmed)

		slots, err := f.qs.AvailableSlots(context.Background(), f.resourceID, testDay, f.serviceID)
		require.NoError(t, err)
		assert.Len(t, slots, 7)
		assert.NotContains(t, starts(slots), hour(10))
	})

	t.Run("held booking blocks like confirmed", func(t *testing.T) {
		f := newAvailabilityFixture(t, nil)
		f.hold(t, hour(10), time.Hour, reservation.StatusHeld)

		slots, err := f.qs.AvailableSlots(context.Background(), f.resourceID, testDay, f.serviceID)
		require.NoError(t, err)
		assert.NotContains(t, starts(slots), hour(10))
	})

	t.Run("booking straddling two slots removes both", func(t *testing.T) {
		f := newAvailabilityFixture(t, nil)
		f.hold(t, hour(10).Add(30*time.Minute), time.Hour, reservation.StatusConfirmed)

		slots, err := f.qs.AvailableSlots(context.Background(), f.resourceID, testDay, f.serviceID)
		require.NoError(t, err)
		assert.Len(t, slots, 6)
		assert.NotContains(t, starts(slots), hour(10))
		assert.NotContains(t, starts(slots), hour(11))
	})

	t.Run("cancelled booking frees its slot", func(t *testing.T) {
		f := newAvailabilityFixture(t, nil)
		f.hold(t, hour(10), time.Hour, reservation.StatusCancelled)

		slots, err := f.qs.AvailableSlots(context.Background(), f.resourceID, testDay, f.serviceID)
		require.NoError(t, err)
		assert.Len(t, slots, 8)
	})

	t.Run("expired booking frees its slot", func(t *testing.T) {
		f := newAvailabilityFixture(t, nil)
		f.hold(t, hour(10), time.Hour, reservation.StatusExpired)

		slots, err := f.qs.AvailableSlots(context.Background(), f.resourceID, testDay, f.serviceID)
		require.NoError(t, err)
		assert.Len(t, slots, 8)
	})

	t.Run("blackout removes covered slots", func(t *testing.T) {
		f := newAvailabilityFixture(t, func(b *builder.ResourceBuilder) {
			b.Blackouts = []schedule.Blackout{{
				Span:   schedule.Span{Start: hour(12), End: hour(14)},
				Reason: "maintenance",
			}}
		})

		slots, err := f.qs.AvailableSlots(context.Background(), f.resourceID, testDay, f.serviceID)
		require.NoError(t, err)
		assert.Len(t, slots, 6)
		assert.NotContains(t, starts(slots), hour(12))
		assert.NotContains(t, starts(slots), hour(13))
	})

	t.Run("date resolves in the resource's timezone", func(t *testing.T) {
		f := newAvailabilityFixture(t, func(b *builder.ResourceBuilder) {
			b.Timezone = "America/New_York"
		})

		// 2026-03-02 is a Monday in New York too, but its 09:00 opening is
		// 14:00 UTC; the midnight-UTC date must not shift to Sunday.
		slots, err := f.qs.AvailableSlots(context.Background(), f.resourceID, testDay, f.serviceID)
		require.NoError(t, err)
		require.Len(t, slots, 8)
		assert.True(t, slots[0].Start.Equal(testDay.Add(14*time.Hour)), slots[0].Start)
		assert.True(t, slots[7].End.Equal(testDay.Add(22*time.Hour)), slots[7].End)
	})

	t.Run("closed day yields an empty list", func(t *testing.T) {
		f := newAvailabilityFixture(t, nil)
		saturday := testDay.AddDate(0, 0, 5)

		slots, err := f.qs.AvailableSlots(context.Background(), f.resourceID, saturday, f.serviceID)
		require.NoError(t, err)
		assert.NotNil(t, slots)
		assert.Empty(t, slots)
	})

	t.Run("unknown resource", func(t *testing.T) {
		f := newAvailabilityFixture(t, nil)
		_, err := f.qs.AvailableSlots(context.Background(), uuid.New(), testDay, f.serviceID)
		assert.ErrorIs(t, err, queries.ErrResourceNotFound)
	})

	t.Run("unknown service", func(t *testing.T) {
		f := newAvailabilityFixture(t, nil)
		_, err := f.qs.AvailableSlots(context.Background(), f.resourceID, testDay, uuid.New())
		assert.ErrorIs(t, err, queries.ErrServiceNotFound)
	})
}
