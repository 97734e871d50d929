//go:build unit

package worker_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"washbook/internal/domain/reservation"
	"washbook/internal/infra/memstore"
	"washbook/internal/pkg/clock"
	"washbook/internal/pkg/config"
	"washbook/internal/usecase/commands"
	"washbook/internal/usecase/queries"
	"washbook/internal/worker"
	"washbook/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)

type sweepFixture struct {
	ledger     *memstore.Ledger
	clk        *clock.MockClock
	cmds       commands.ReservationCommands
	sweeper    *worker.Sweeper
	resourceID uuid.UUID
	serviceID  uuid.UUID
}

func newSweepFixture(t *testing.T) *sweepFixture {
	t.Helper()

	res, err := builder.NewResourceBuilder().BuildDomain()
	require.NoError(t, err)
	svc, err := builder.NewServiceBuilder().BuildDomain()
	require.NoError(t, err)

	refs := memstore.NewReferenceStore()
	refs.PutResource(res)
	refs.PutService(svc)

	cfg := config.NewTestConfig().Booking
	ledger := memstore.NewLedger()
	clk := clock.NewMockClock(testNow)
	cmds := commands.NewReservationCommands(ledger, refs, refs.Services(), clk, cfg)

	return &sweepFixture{
		ledger:     ledger,
		clk:        clk,
		cmds:       cmds,
		sweeper:    worker.NewSweeper(ledger, cmds, clk, cfg, slog.Default()),
		resourceID: res.ID(),
		serviceID:  svc.ID(),
	}
}

func (f *sweepFixture) reserve(t *testing.T, start time.Time) *queries.ReservationView {
	t.Helper()
	view, err := f.cmds.Reserve(context.Background(), f.resourceID, f.serviceID, start, uuid.New())
	require.NoError(t, err)
	return view
}

func (f *sweepFixture) statusOf(t *testing.T, id uuid.UUID) reservation.Status {
	t.Helper()
	rsv, err := f.ledger.FindByID(context.Background(), id)
	require.NoError(t, err)
	return rsv.Status()
}

func TestSweep(t *testing.T) {
	t.Run("lapsed holds are expired, live ones kept", func(t *testing.T) {
		f := newSweepFixture(t)
		lapsed := f.reserve(t, testNow.Add(2*time.Hour))

		f.clk.Add(11 * time.Minute)
		live := f.reserve(t, testNow.Add(4*time.Hour))

		f.sweeper.Sweep(context.Background())

		assert.Equal(t, reservation.StatusExpired, f.statusOf(t, lapsed.ID))
		assert.Equal(t, reservation.StatusHeld, f.statusOf(t, live.ID))
	})

	t.Run("confirmed holds are left alone", func(t *testing.T) {
		f := newSweepFixture(t)
		held := f.reserve(t, testNow.Add(2*time.Hour))
		_, err := f.cmds.Confirm(context.Background(), held.ID)
		require.NoError(t, err)

		f.clk.Add(11 * time.Minute)
		f.sweeper.Sweep(context.Background())

		assert.Equal(t, reservation.StatusConfirmed, f.statusOf(t, held.ID))
	})

	t.Run("a second sweep is a no-op", func(t *testing.T) {
		f := newSweepFixture(t)
		held := f.reserve(t, testNow.Add(2*time.Hour))

		f.clk.Add(11 * time.Minute)
		f.sweeper.Sweep(context.Background())
		f.sweeper.Sweep(context.Background())

		rsv, err := f.ledger.FindByID(context.Background(), held.ID)
		require.NoError(t, err)
		assert.Equal(t, reservation.StatusExpired, rsv.Status())
		assert.Equal(t, int64(2), rsv.Version())
	})

	t.Run("swept slot becomes reservable again", func(t *testing.T) {
		f := newSweepFixture(t)
		start := testNow.Add(2 * time.Hour)
		f.reserve(t, start)

		f.clk.Add(11 * time.Minute)
		f.sweeper.Sweep(context.Background())

		_, err := f.cmds.Reserve(context.Background(), f.resourceID, f.serviceID, start, uuid.New())
		assert.NoError(t, err)
	})
}
