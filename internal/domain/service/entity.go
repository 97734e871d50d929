package service

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyServiceName = errors.New("service name cannot be empty")
	ErrInvalidDuration  = errors.New("service duration must be positive")
	ErrDurationTooLong  = errors.New("service duration exceeds a full day")
)

// Service is immutable reference data: an offering with a fixed duration
// (wash, wax, detail). Duration determines slot length.
type Service struct {
	id          uuid.UUID
	name        string
	durationMin int
}

func NewService(id uuid.UUID, name string, durationMin int) (*Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyServiceName
	}
	if durationMin <= 0 {
		return nil, ErrInvalidDuration
	}
	if durationMin > 24*60 {
		return nil, ErrDurationTooLong
	}
	return &Service{id: id, name: name, durationMin: durationMin}, nil
}

func (s *Service) ID() uuid.UUID    { return s.id }
func (s *Service) Name() string     { return s.name }
func (s *Service) DurationMin() int { return s.durationMin }

func (s *Service) Duration() time.Duration {
	return time.Duration(s.durationMin) * time.Minute
}
