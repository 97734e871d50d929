package response

import (
	"time"

	"washbook/internal/usecase/queries"

	"github.com/google/uuid"
)

type SlotResponse struct {
	ResourceID uuid.UUID `json:"resourceId"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

type AvailabilityResponse struct {
	ResourceID uuid.UUID      `json:"resourceId"`
	Date       string         `json:"date"`
	Slots      []SlotResponse `json:"slots"`
}

func FromSlots(resourceID uuid.UUID, date string, slots []queries.Slot) *AvailabilityResponse {
	out := make([]SlotResponse, len(slots))
	for i, s := range slots {
		out[i] = SlotResponse{ResourceID: s.ResourceID, Start: s.Start, End: s.End}
	}
	return &AvailabilityResponse{ResourceID: resourceID, Date: date, Slots: out}
}
