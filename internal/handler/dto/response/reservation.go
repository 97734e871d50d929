package response

import (
	"time"

	"washbook/internal/usecase/queries"

	"github.com/google/uuid"
)

type ReservationResponse struct {
	ID         uuid.UUID  `json:"id"`
	ResourceID uuid.UUID  `json:"resourceId"`
	ServiceID  uuid.UUID  `json:"serviceId"`
	ClientID   uuid.UUID  `json:"clientId"`
	Start      time.Time  `json:"start"`
	End        time.Time  `json:"end"`
	Status     string     `json:"status"`
	HoldExpiry *time.Time `json:"holdExpiry,omitempty"`
	Version    int64      `json:"version"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func FromReservationView(rm *queries.ReservationView) *ReservationResponse {
	return &ReservationResponse{
		ID:         rm.ID,
		ResourceID: rm.ResourceID,
		ServiceID:  rm.ServiceID,
		ClientID:   rm.ClientID,
		Start:      rm.Start,
		End:        rm.End,
		Status:     rm.Status,
		HoldExpiry: rm.HoldExpiry,
		Version:    rm.Version,
		CreatedAt:  rm.CreatedAt,
		UpdatedAt:  rm.UpdatedAt,
	}
}
