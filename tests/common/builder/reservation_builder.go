//go:build unit

package builder

import (
	"time"

	domreservation "washbook/internal/domain/reservation"
	"washbook/internal/domain/schedule"

	"github.com/google/uuid"
)

type ReservationBuilder struct {
	ID         uuid.UUID
	ResourceID uuid.UUID
	ServiceID  uuid.UUID
	ClientID   uuid.UUID
	Start      time.Time
	Duration   time.Duration
	Status     domreservation.Status
	HoldExpiry time.Time
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewReservationBuilder(now time.Time) *ReservationBuilder {
	return &ReservationBuilder{
		ID:         uuid.New(),
		ResourceID: uuid.New(),
		ServiceID:  uuid.New(),
		ClientID:   uuid.New(),
		Start:      now.Add(time.Hour),
		Duration:   time.Hour,
		Status:     domreservation.StatusHeld,
		HoldExpiry: now.Add(10 * time.Minute),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (b *ReservationBuilder) With(mutate func(*ReservationBuilder)) *ReservationBuilder {
	mutate(b)
	return b
}

func (b *ReservationBuilder) BuildDomain() *domreservation.Reservation {
	return domreservation.Reconstruct(
		b.ID, b.ResourceID, b.ServiceID, b.ClientID,
		schedule.Span{Start: b.Start, End: b.Start.Add(b.Duration)},
		b.Status, b.HoldExpiry, b.Version,
		b.CreatedAt, b.UpdatedAt,
	)
}
