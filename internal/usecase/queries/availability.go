package queries

import (
	"context"
	"time"

	"washbook/internal/domain/reservation"
	"washbook/internal/domain/resource"
	"washbook/internal/domain/schedule"
	"washbook/internal/domain/service"
	"washbook/internal/infra"
	"washbook/internal/pkg/config"
	"washbook/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrResourceNotFound = errs.New("resource not found")
	ErrServiceNotFound  = errs.New("service not found")
)

// Slot is derived, never persisted: always recomputed from the current
// ledger state at query time.
type Slot struct {
	ResourceID uuid.UUID `json:"resource_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

type ResourceReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error)
}

type ServiceReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*service.Service, error)
}

// ActiveReservationReader exposes the single consistent snapshot the overlap
// checks run against.
type ActiveReservationReader interface {
	// ActiveWithin returns held/confirmed reservations of the resource
	// overlapping [from, to), ascending by start.
	ActiveWithin(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]*reservation.Reservation, error)
}

type AvailabilityQueries interface {
	// AvailableSlots answers "what slots are free" for one resource, date and
	// service. Read-only; the result is a point-in-time snapshot that the
	// coordinator's reserve re-check reconciles.
	AvailableSlots(ctx context.Context, resourceID uuid.UUID, date time.Time, serviceID uuid.UUID) ([]Slot, error)
}

type availabilityQueriesImpl struct {
	resources ResourceReadStore
	services  ServiceReadStore
	ledger    ActiveReservationReader
	slotStep  time.Duration
}

func NewAvailabilityQueries(
	resources ResourceReadStore,
	services ServiceReadStore,
	ledger ActiveReservationReader,
	cfg config.BookingConfig,
) AvailabilityQueries {
	return &availabilityQueriesImpl{
		resources: resources,
		services:  services,
		ledger:    ledger,
		slotStep:  cfg.SlotStep,
	}
}

func (q *availabilityQueriesImpl) AvailableSlots(
	ctx context.Context,
	resourceID uuid.UUID,
	date time.Time,
	serviceID uuid.UUID,
) ([]Slot, error) {
	res, err := q.resources.FindByID(ctx, resourceID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}

	svc, err := q.services.FindByID(ctx, serviceID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	// The caller names a calendar day; anchor it in the resource's own
	// timezone, or a negative UTC offset would resolve the previous weekday.
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, res.Location())

	win, open := res.HoursFor(day)
	if !open {
		return []Slot{}, nil
	}

	candidates := schedule.GenerateSlots(day, res.Location(), win, svc.Duration(), q.slotStep)
	if len(candidates) == 0 {
		return []Slot{}, nil
	}

	// One ledger read for the whole day; every overlap check below runs
	// against this snapshot.
	dayStart := candidates[0].Start
	dayEnd := candidates[len(candidates)-1].End
	taken, err := q.ledger.ActiveWithin(ctx, resourceID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	out := make([]Slot, 0, len(candidates))
	for _, cand := range candidates {
		if q.isFree(res, cand, taken) {
			out = append(out, Slot{ResourceID: resourceID, Start: cand.Start, End: cand.End})
		}
	}
	return out, nil
}

func (q *availabilityQueriesImpl) isFree(res *resource.Resource, cand schedule.Span, taken []*reservation.Reservation) bool {
	for _, b := range res.Blackouts() {
		if b.Covers(cand) {
			return false
		}
	}
	for _, rsv := range taken {
		if rsv.OverlapsSpan(cand) {
			return false
		}
	}
	return true
}
