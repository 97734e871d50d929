package queries

import (
	"context"
	"time"

	"washbook/internal/domain/reservation"
	"washbook/internal/infra"
	"washbook/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrReservationNotFound = errs.New("reservation not found")

// ReservationView is the read-side DTO for a single reservation.
type ReservationView struct {
	ID         uuid.UUID  `json:"id"`
	ResourceID uuid.UUID  `json:"resource_id"`
	ServiceID  uuid.UUID  `json:"service_id"`
	ClientID   uuid.UUID  `json:"client_id"`
	Start      time.Time  `json:"start"`
	End        time.Time  `json:"end"`
	Status     string     `json:"status"`
	HoldExpiry *time.Time `json:"hold_expiry,omitempty"`
	Version    int64      `json:"version"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func ViewOf(r *reservation.Reservation) *ReservationView {
	v := &ReservationView{
		ID:         r.ID(),
		ResourceID: r.ResourceID(),
		ServiceID:  r.ServiceID(),
		ClientID:   r.ClientID(),
		Start:      r.Span().Start,
		End:        r.Span().End,
		Status:     r.Status().String(),
		Version:    r.Version(),
		CreatedAt:  r.CreatedAt(),
		UpdatedAt:  r.UpdatedAt(),
	}
	if r.Status() == reservation.StatusHeld {
		expiry := r.HoldExpiry()
		v.HoldExpiry = &expiry
	}
	return v
}

// ReservationReadStore is the read-only slice of the ledger used by the
// query side.
type ReservationReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*reservation.Reservation, error)
}

type ReservationQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*ReservationView, error)
}

type reservationQueriesImpl struct {
	store ReservationReadStore
}

func NewReservationQueries(store ReservationReadStore) ReservationQueries {
	return &reservationQueriesImpl{store: store}
}

func (q *reservationQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*ReservationView, error) {
	rsv, err := q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return ViewOf(rsv), nil
}

func (q *reservationQueriesImpl) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*ReservationView, error) {
	rows, err := q.store.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	out := make([]*ReservationView, len(rows))
	for i, r := range rows {
		out[i] = ViewOf(r)
	}
	return out, nil
}
