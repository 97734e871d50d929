package commands

import (
	"context"
	"time"

	"washbook/internal/domain/reservation"
	"washbook/internal/domain/resource"
	"washbook/internal/domain/service"

	"github.com/google/uuid"
)

// ReservationLedger is the authoritative store of reservations. The
// coordinator is its only mutating caller; every mutating method is a single
// atomic unit (fully committed or fully rolled back) and appends the matching
// state-change record in that same unit.
//
// Precondition failures are reported as RepositoryError kinds:
// KindConflict for an overlapping live reservation, KindStaleState for a
// transition whose status/expiry predicate no longer holds, KindNotFound for
// an unknown id.
type ReservationLedger interface {
	// CreateHold atomically re-checks the no-overlap invariant against live
	// (held/confirmed) reservations of the same resource and inserts.
	CreateHold(ctx context.Context, rsv *reservation.Reservation) error

	// Confirm applies held -> confirmed iff now <= hold_expiry.
	Confirm(ctx context.Context, id uuid.UUID, now time.Time) (*reservation.Reservation, error)

	// Cancel applies held|confirmed -> cancelled.
	Cancel(ctx context.Context, id uuid.UUID, now time.Time) (*reservation.Reservation, error)

	// Expire applies held -> expired iff now > hold_expiry.
	Expire(ctx context.Context, id uuid.UUID, now time.Time) (*reservation.Reservation, error)

	FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error)

	// ExpiredHolds lists ids of held reservations whose hold_expiry < now.
	ExpiredHolds(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

// ResourceReader and ServiceReader resolve immutable reference data.
type ResourceReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error)
}

type ServiceReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*service.Service, error)
}
