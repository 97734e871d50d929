package commands

import (
	"context"
	"time"

	"washbook/internal/domain/reservation"
	"washbook/internal/domain/schedule"
	"washbook/internal/infra"
	"washbook/internal/pkg/clock"
	"washbook/internal/pkg/config"
	"washbook/internal/pkg/errs"
	"washbook/internal/usecase/queries"

	"github.com/google/uuid"
)

var (
	ErrResourceNotFound        = errs.New("resource not found")
	ErrServiceNotFound         = errs.New("service not found")
	ErrSlotConflict            = errs.New("slot conflicts with a live reservation")
	ErrResourceClosed          = errs.New("slot lies outside operating hours")
	ErrStartInPast             = errs.New("slot start is in the past")
	ErrHoldExpired             = errs.New("hold has expired")
	ErrInvalidTransition       = errs.New("invalid reservation transition")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

// ReservationCommands is the coordinator of the reserve/confirm/cancel/expire
// state machine. All mutation of the ledger funnels through here.
//
// Two Reserve calls racing for overlapping spans are decided by commit order:
// exactly one hold commits, the loser observes the committed state and gets
// ErrSlotConflict.
type ReservationCommands interface {
	Reserve(ctx context.Context, resourceID, serviceID uuid.UUID, start time.Time, clientID uuid.UUID) (*queries.ReservationView, error)
	Confirm(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error)
	Cancel(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error)
	Expire(ctx context.Context, id uuid.UUID) error
}

type reservationCommandsImpl struct {
	ledger     ReservationLedger
	resources  ResourceReader
	services   ServiceReader
	clock      clock.Clock
	holdWindow time.Duration
}

func NewReservationCommands(
	ledger ReservationLedger,
	resources ResourceReader,
	services ServiceReader,
	clk clock.Clock,
	cfg config.BookingConfig,
) ReservationCommands {
	return &reservationCommandsImpl{
		ledger:     ledger,
		resources:  resources,
		services:   services,
		clock:      clk,
		holdWindow: cfg.HoldWindow,
	}
}

// Reserve validates the request against reference data and operating hours,
// then lets the ledger perform the authoritative overlap-check-and-insert.
// An availability read may have reported the slot free moments ago; only the
// ledger's atomic re-check decides.
func (c *reservationCommandsImpl) Reserve(
	ctx context.Context,
	resourceID, serviceID uuid.UUID,
	start time.Time,
	clientID uuid.UUID,
) (*queries.ReservationView, error) {
	res, err := c.resources.FindByID(ctx, resourceID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	svc, err := c.services.FindByID(ctx, serviceID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	now := c.clock.Now()
	if start.Before(now) {
		return nil, ErrStartInPast
	}

	span := schedule.Span{Start: start, End: start.Add(svc.Duration())}
	if !res.Admits(span) {
		return nil, ErrResourceClosed
	}

	hold, err := reservation.NewHold(resourceID, serviceID, clientID, span, now, c.holdWindow)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidTransition)
	}

	if err := c.ledger.CreateHold(ctx, hold); err != nil {
		if infra.IsKind(err, infra.KindConflict) {
			return nil, ErrSlotConflict
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	return queries.ViewOf(hold), nil
}

func (c *reservationCommandsImpl) Confirm(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	rsv, err := c.ledger.Confirm(ctx, id, c.clock.Now())
	if err != nil {
		return nil, c.classifyTransitionErr(ctx, id, err, true)
	}
	return queries.ViewOf(rsv), nil
}

func (c *reservationCommandsImpl) Cancel(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	rsv, err := c.ledger.Cancel(ctx, id, c.clock.Now())
	if err != nil {
		return nil, c.classifyTransitionErr(ctx, id, err, false)
	}
	return queries.ViewOf(rsv), nil
}

// Expire is invoked only by the sweeper. A reservation that was concurrently
// confirmed or cancelled is a no-op, not an error: whichever transition
// committed first wins.
func (c *reservationCommandsImpl) Expire(ctx context.Context, id uuid.UUID) error {
	_, err := c.ledger.Expire(ctx, id, c.clock.Now())
	if err == nil {
		return nil
	}
	if infra.IsKind(err, infra.KindStaleState) {
		current, findErr := c.ledger.FindByID(ctx, id)
		if findErr != nil {
			return errs.Mark(findErr, ErrDatabaseOperationFailed)
		}
		if current.Status() != reservation.StatusHeld {
			return nil
		}
		// Still held but not yet past expiry: the sweeper raced a clock edge.
		return ErrInvalidTransition
	}
	if infra.IsKind(err, infra.KindNotFound) {
		return ErrInvalidTransition
	}
	return errs.Mark(err, ErrDatabaseOperationFailed)
}

// classifyTransitionErr turns a failed conditional update into the sentinel
// the caller must act on, by observing the committed state. Only Confirm maps
// lapsed or swept holds to ErrHoldExpired: a payment success landing after
// expiry needs the compensation path, while a cancel of a terminal record is
// always an invalid transition.
func (c *reservationCommandsImpl) classifyTransitionErr(ctx context.Context, id uuid.UUID, err error, confirming bool) error {
	switch {
	case infra.IsKind(err, infra.KindNotFound):
		return queries.ErrReservationNotFound
	case infra.IsKind(err, infra.KindStaleState):
		current, findErr := c.ledger.FindByID(ctx, id)
		if findErr != nil {
			return errs.Mark(findErr, ErrDatabaseOperationFailed)
		}
		if confirming && (current.Status() == reservation.StatusExpired || current.HoldLapsed(c.clock.Now())) {
			return ErrHoldExpired
		}
		return ErrInvalidTransition
	default:
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
}
