package resource

import (
	"errors"
	"strings"
	"time"

	"washbook/internal/domain/schedule"

	"github.com/google/uuid"
)

var (
	ErrEmptyResourceName   = errors.New("resource name cannot be empty")
	ErrResourceNameTooLong = errors.New("resource name is too long (max 255 characters)")
	ErrNoOperatingHours    = errors.New("resource must have at least one operating day")
	ErrUnknownTimezone     = errors.New("unknown resource timezone")
)

const MaxResourceNameLength = 255

// Resource is one bookable unit (a wash bay). A facility with several bays
// is several resources; a resource takes at most one live reservation per
// instant.
type Resource struct {
	id        uuid.UUID
	name      string
	hours     schedule.WeekHours
	loc       *time.Location
	blackouts []schedule.Blackout
}

func NewResource(id uuid.UUID, name, timezone string, hours schedule.WeekHours, blackouts []schedule.Blackout) (*Resource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyResourceName
	}
	if len(name) > MaxResourceNameLength {
		return nil, ErrResourceNameTooLong
	}
	if len(hours) == 0 {
		return nil, ErrNoOperatingHours
	}

	loc := time.UTC
	if timezone != "" {
		var err error
		if loc, err = time.LoadLocation(timezone); err != nil {
			return nil, ErrUnknownTimezone
		}
	}

	return &Resource{
		id:        id,
		name:      name,
		hours:     hours,
		loc:       loc,
		blackouts: blackouts,
	}, nil
}

// HoursFor resolves the operating window for date, honoring blackouts that
// swallow the whole day.
func (r *Resource) HoursFor(date time.Time) (schedule.Window, bool) {
	win, ok := r.hours.HoursFor(date, r.loc)
	if !ok {
		return schedule.Window{}, false
	}
	day := schedule.Span{Start: win.OpenAt(date, r.loc), End: win.CloseAt(date, r.loc)}
	for _, b := range r.blackouts {
		if b.Span.Contains(day) {
			return schedule.Window{}, false
		}
	}
	return win, true
}

// Admits reports whether span lies inside the operating window of its own
// day and clear of every blackout.
func (r *Resource) Admits(span schedule.Span) bool {
	win, ok := r.hours.HoursFor(span.Start, r.loc)
	if !ok {
		return false
	}
	day := schedule.Span{Start: win.OpenAt(span.Start, r.loc), End: win.CloseAt(span.Start, r.loc)}
	if !day.Contains(span) {
		return false
	}
	for _, b := range r.blackouts {
		if b.Covers(span) {
			return false
		}
	}
	return true
}

func (r *Resource) ID() uuid.UUID                  { return r.id }
func (r *Resource) Name() string                   { return r.name }
func (r *Resource) Hours() schedule.WeekHours      { return r.hours }
func (r *Resource) Location() *time.Location       { return r.loc }
func (r *Resource) Blackouts() []schedule.Blackout { return r.blackouts }
