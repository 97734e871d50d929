package reservation

import (
	"time"

	"github.com/google/uuid"
)

// StateChanged is the outbound record of one committed status transition.
// Seq equals the reservation version after the transition, so consumers can
// apply events idempotently and in order per reservation.
type StateChanged struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	ResourceID    uuid.UUID `json:"resource_id"`
	OldStatus     Status    `json:"old_status"`
	NewStatus     Status    `json:"new_status"`
	Seq           int64     `json:"seq"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ChangeOf captures the transition that produced the reservation's current
// version.
func ChangeOf(r *Reservation, old Status, at time.Time) StateChanged {
	return StateChanged{
		ReservationID: r.ID(),
		ResourceID:    r.ResourceID(),
		OldStatus:     old,
		NewStatus:     r.Status(),
		Seq:           r.Version(),
		OccurredAt:    at,
	}
}
