package request

import (
	"time"

	"github.com/google/uuid"
)

type CreateReservationRequest struct {
	ResourceID uuid.UUID `json:"resource_id" binding:"required"`
	ServiceID  uuid.UUID `json:"service_id" binding:"required"`
	Start      time.Time `json:"start" binding:"required"`
}
