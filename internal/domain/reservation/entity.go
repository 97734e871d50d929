package reservation

import (
	"errors"
	"time"

	"washbook/internal/domain/schedule"

	"github.com/google/uuid"
)

var (
	ErrNotHeld        = errors.New("reservation is not held")
	ErrHoldLapsed     = errors.New("hold expiry has passed")
	ErrHoldStillLive  = errors.New("hold expiry has not passed yet")
	ErrTerminalStatus = errors.New("reservation is in a terminal status")
	ErrInvalidSpan    = errors.New("invalid reservation span")
)

// Reservation is the single mutable entity of the booking core. Records are
// append-only at the store level: a reservation is never deleted, only
// status-transitioned, and each committed transition bumps version by one.
type Reservation struct {
	id         uuid.UUID
	resourceID uuid.UUID
	serviceID  uuid.UUID
	clientID   uuid.UUID
	span       schedule.Span
	status     Status
	holdExpiry time.Time
	version    int64
	createdAt  time.Time
	updatedAt  time.Time
}

// NewHold builds a fresh held reservation with hold_expiry = now + holdWindow.
func NewHold(resourceID, serviceID, clientID uuid.UUID, span schedule.Span, now time.Time, holdWindow time.Duration) (*Reservation, error) {
	if !span.Start.Before(span.End) {
		return nil, ErrInvalidSpan
	}

	return &Reservation{
		id:         uuid.New(),
		resourceID: resourceID,
		serviceID:  serviceID,
		clientID:   clientID,
		span:       span,
		status:     StatusHeld,
		holdExpiry: now.Add(holdWindow),
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Reconstruct rebuilds an entity from stored state. No validation: the store
// is trusted to only hold states that passed through the transitions below.
func Reconstruct(
	id, resourceID, serviceID, clientID uuid.UUID,
	span schedule.Span,
	status Status,
	holdExpiry time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:         id,
		resourceID: resourceID,
		serviceID:  serviceID,
		clientID:   clientID,
		span:       span,
		status:     status,
		holdExpiry: holdExpiry,
		version:    version,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// Confirm moves held -> confirmed, valid only while the hold is live.
func (r *Reservation) Confirm(now time.Time) error {
	if r.status != StatusHeld {
		if r.status.IsTerminal() {
			return ErrTerminalStatus
		}
		return ErrNotHeld
	}
	if now.After(r.holdExpiry) {
		return ErrHoldLapsed
	}
	r.transition(StatusConfirmed, now)
	return nil
}

// Cancel is valid from held or confirmed.
func (r *Reservation) Cancel(now time.Time) error {
	if r.status != StatusHeld && r.status != StatusConfirmed {
		return ErrTerminalStatus
	}
	r.transition(StatusCancelled, now)
	return nil
}

// Expire moves held -> expired once the hold window has passed. The sweeper
// is the only caller.
func (r *Reservation) Expire(now time.Time) error {
	if r.status != StatusHeld {
		return ErrNotHeld
	}
	if !now.After(r.holdExpiry) {
		return ErrHoldStillLive
	}
	r.transition(StatusExpired, now)
	return nil
}

func (r *Reservation) transition(to Status, now time.Time) {
	r.status = to
	r.version++
	r.updatedAt = now
}

// HoldLapsed reports whether a held reservation's window has passed. False
// for any non-held status.
func (r *Reservation) HoldLapsed(now time.Time) bool {
	return r.status == StatusHeld && now.After(r.holdExpiry)
}

func (r *Reservation) OverlapsSpan(other schedule.Span) bool {
	return r.span.Overlaps(other)
}

func (r *Reservation) ID() uuid.UUID         { return r.id }
func (r *Reservation) ResourceID() uuid.UUID { return r.resourceID }
func (r *Reservation) ServiceID() uuid.UUID  { return r.serviceID }
func (r *Reservation) ClientID() uuid.UUID   { return r.clientID }
func (r *Reservation) Span() schedule.Span   { return r.span }
func (r *Reservation) Status() Status        { return r.status }
func (r *Reservation) HoldExpiry() time.Time { return r.holdExpiry }
func (r *Reservation) Version() int64        { return r.version }
func (r *Reservation) CreatedAt() time.Time  { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time  { return r.updatedAt }
