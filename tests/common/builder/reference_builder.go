//go:build unit

package builder

import (
	"time"

	domresource "washbook/internal/domain/resource"
	"washbook/internal/domain/schedule"
	domservice "washbook/internal/domain/service"

	"github.com/google/uuid"
)

// ResourceBuilder defaults to a bay open 09:00-17:00 every weekday, UTC.
type ResourceBuilder struct {
	ID        uuid.UUID
	Name      string
	Timezone  string
	Hours     schedule.WeekHours
	Blackouts []schedule.Blackout
}

func NewResourceBuilder() *ResourceBuilder {
	hours := schedule.WeekHours{}
	for d := time.Monday; d <= time.Friday; d++ {
		hours[d] = schedule.MustWindow(9*60, 17*60)
	}
	return &ResourceBuilder{
		ID:       uuid.New(),
		Name:     "Bay 1",
		Timezone: "UTC",
		Hours:    hours,
	}
}

func (b *ResourceBuilder) With(mutate func(*ResourceBuilder)) *ResourceBuilder {
	mutate(b)
	return b
}

func (b *ResourceBuilder) BuildDomain() (*domresource.Resource, error) {
	return domresource.NewResource(b.ID, b.Name, b.Timezone, b.Hours, b.Blackouts)
}

type ServiceBuilder struct {
	ID          uuid.UUID
	Name        string
	DurationMin int
}

func NewServiceBuilder() *ServiceBuilder {
	return &ServiceBuilder{
		ID:          uuid.New(),
		Name:        "Standard Wash",
		DurationMin: 60,
	}
}

func (b *ServiceBuilder) With(mutate func(*ServiceBuilder)) *ServiceBuilder {
	mutate(b)
	return b
}

func (b *ServiceBuilder) BuildDomain() (*domservice.Service, error) {
	return domservice.NewService(b.ID, b.Name, b.DurationMin)
}
