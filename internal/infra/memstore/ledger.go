// Package memstore is a process-local implementation of the booking ledger
// and reference stores. It backs unit tests and single-node development runs;
// the postgres implementation in pgstore is the production ledger.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"washbook/internal/domain/reservation"
	"washbook/internal/infra"

	"github.com/google/uuid"
)

// Ledger keeps every reservation in memory. The no-overlap invariant is
// enforced with a per-resource mutex held across the check-and-insert, so
// calls on different resources proceed in parallel. A store-wide RWMutex
// guards map shape and makes each transition atomic to readers: a concurrent
// ActiveWithin sees the pre- or post-transition state, never a partial one.
type Ledger struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*reservation.Reservation
	byRes    map[uuid.UUID][]uuid.UUID
	outbox   []outboxRow
	resMu    sync.Mutex
	resLocks map[uuid.UUID]*sync.Mutex
}

type outboxRow struct {
	event     reservation.StateChanged
	published bool
}

func NewLedger() *Ledger {
	return &Ledger{
		byID:     make(map[uuid.UUID]*reservation.Reservation),
		byRes:    make(map[uuid.UUID][]uuid.UUID),
		resLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (l *Ledger) resourceLock(resourceID uuid.UUID) *sync.Mutex {
	l.resMu.Lock()
	defer l.resMu.Unlock()
	m, ok := l.resLocks[resourceID]
	if !ok {
		m = &sync.Mutex{}
		l.resLocks[resourceID] = m
	}
	return m
}

// CreateHold re-checks overlap against live reservations of the resource and
// inserts, as one critical section per resource. First committer wins.
func (l *Ledger) CreateHold(_ context.Context, rsv *reservation.Reservation) error {
	lock := l.resourceLock(rsv.ResourceID())
	lock.Lock()
	defer lock.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range l.byRes[rsv.ResourceID()] {
		existing := l.byID[id]
		if existing.Status().Blocks() && existing.OverlapsSpan(rsv.Span()) {
			return infra.NewRepoErr("overlapping live reservation", infra.KindConflict)
		}
	}

	stored := snapshot(rsv)
	l.byID[stored.ID()] = stored
	l.byRes[stored.ResourceID()] = append(l.byRes[stored.ResourceID()], stored.ID())
	l.appendEventLocked(reservation.ChangeOf(stored, reservation.Status(""), stored.CreatedAt()))
	return nil
}

func (l *Ledger) Confirm(ctx context.Context, id uuid.UUID, now time.Time) (*reservation.Reservation, error) {
	return l.transition(ctx, id, now, func(r *reservation.Reservation) error { return r.Confirm(now) })
}

func (l *Ledger) Cancel(ctx context.Context, id uuid.UUID, now time.Time) (*reservation.Reservation, error) {
	return l.transition(ctx, id, now, func(r *reservation.Reservation) error { return r.Cancel(now) })
}

func (l *Ledger) Expire(ctx context.Context, id uuid.UUID, now time.Time) (*reservation.Reservation, error) {
	return l.transition(ctx, id, now, func(r *reservation.Reservation) error { return r.Expire(now) })
}

func (l *Ledger) transition(
	_ context.Context,
	id uuid.UUID,
	now time.Time,
	apply func(*reservation.Reservation) error,
) (*reservation.Reservation, error) {
	l.mu.RLock()
	current, ok := l.byID[id]
	l.mu.RUnlock()
	if !ok {
		return nil, infra.NewRepoErr("reservation not found", infra.KindNotFound)
	}

	lock := l.resourceLock(current.ResourceID())
	lock.Lock()
	defer lock.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	stored := l.byID[id]
	old := stored.Status()
	next := snapshot(stored)
	if err := apply(next); err != nil {
		return nil, infra.WrapRepoErr("transition precondition failed", err, infra.KindStaleState)
	}

	l.byID[id] = next
	l.appendEventLocked(reservation.ChangeOf(next, old, now))
	return snapshot(next), nil
}

func (l *Ledger) FindByID(_ context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rsv, ok := l.byID[id]
	if !ok {
		return nil, infra.NewRepoErr("reservation not found", infra.KindNotFound)
	}
	return snapshot(rsv), nil
}

func (l *Ledger) ActiveWithin(_ context.Context, resourceID uuid.UUID, from, to time.Time) ([]*reservation.Reservation, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*reservation.Reservation
	for _, id := range l.byRes[resourceID] {
		rsv := l.byID[id]
		if !rsv.Status().Blocks() {
			continue
		}
		if rsv.Span().Start.Before(to) && rsv.Span().End.After(from) {
			out = append(out, snapshot(rsv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Span().Start.Before(out[j].Span().Start) })
	return out, nil
}

func (l *Ledger) ListByClient(_ context.Context, clientID uuid.UUID) ([]*reservation.Reservation, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*reservation.Reservation
	for _, rsv := range l.byID {
		if rsv.ClientID() == clientID {
			out = append(out, snapshot(rsv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	return out, nil
}

func (l *Ledger) ExpiredHolds(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	type due struct {
		id     uuid.UUID
		expiry time.Time
	}
	var dues []due
	for id, rsv := range l.byID {
		if rsv.Status() == reservation.StatusHeld && now.After(rsv.HoldExpiry()) {
			dues = append(dues, due{id: id, expiry: rsv.HoldExpiry()})
		}
	}
	sort.Slice(dues, func(i, j int) bool { return dues[i].expiry.Before(dues[j].expiry) })

	if limit > 0 && len(dues) > limit {
		dues = dues[:limit]
	}
	out := make([]uuid.UUID, len(dues))
	for i, d := range dues {
		out[i] = d.id
	}
	return out, nil
}

// Pending returns unpublished state-change events in append order.
func (l *Ledger) Pending(_ context.Context, limit int) ([]reservation.StateChanged, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []reservation.StateChanged
	for _, row := range l.outbox {
		if row.published {
			continue
		}
		out = append(out, row.event)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (l *Ledger) MarkPublished(_ context.Context, reservationID uuid.UUID, seq int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.outbox {
		if l.outbox[i].event.ReservationID == reservationID && l.outbox[i].event.Seq == seq {
			l.outbox[i].published = true
			return nil
		}
	}
	return infra.NewRepoErr("outbox row not found", infra.KindNotFound)
}

func (l *Ledger) appendEventLocked(evt reservation.StateChanged) {
	l.outbox = append(l.outbox, outboxRow{event: evt})
}

// snapshot returns a defensive copy so callers never share mutable state
// with the store.
func snapshot(r *reservation.Reservation) *reservation.Reservation {
	return reservation.Reconstruct(
		r.ID(), r.ResourceID(), r.ServiceID(), r.ClientID(),
		r.Span(), r.Status(), r.HoldExpiry(), r.Version(),
		r.CreatedAt(), r.UpdatedAt(),
	)
}
