// Package worker holds the background loops: hold expiry sweeping, outbox
// relaying and payment-outcome consumption. Each loop is independent; a
// failing item is logged and retried on the next cycle, never fatal.
package worker

import (
	"context"
	"log/slog"
	"time"

	"washbook/internal/pkg/clock"
	"washbook/internal/pkg/config"
	"washbook/internal/usecase/commands"

	"github.com/google/uuid"
)

// HoldScanner is the ledger slice the sweeper reads.
type HoldScanner interface {
	ExpiredHolds(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

// Sweeper reclaims stale holds on a fixed interval. Races with a concurrent
// confirm or cancel are expected: the coordinator's Expire is an idempotent
// no-op when the state moved first.
type Sweeper struct {
	scanner  HoldScanner
	commands commands.ReservationCommands
	clock    clock.Clock
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

func NewSweeper(
	scanner HoldScanner,
	cmds commands.ReservationCommands,
	clk clock.Clock,
	cfg config.BookingConfig,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		scanner:  scanner,
		commands: cmds,
		clock:    clk,
		interval: cfg.SweepInterval,
		batch:    cfg.SweepBatch,
		logger:   logger,
	}
}

func (s *Sweeper) Run(ctx context.Context) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	// kick immediately
	s.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one reclamation pass. Per-reservation failures are independent:
// they are logged and picked up again next cycle.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := s.clock.Now()
	due, err := s.scanner.ExpiredHolds(ctx, now, s.batch)
	if err != nil {
		s.logger.Error("sweeper: expired holds query failed", "error", err)
		return
	}

	for _, id := range due {
		if err := s.commands.Expire(ctx, id); err != nil {
			s.logger.Warn("sweeper: expire failed, will retry next cycle",
				"reservation_id", id, "error", err)
		}
	}
}
