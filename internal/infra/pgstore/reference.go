package pgstore

import (
	"context"
	"errors"
	"time"

	"washbook/internal/domain/resource"
	"washbook/internal/domain/schedule"
	"washbook/internal/domain/service"
	"washbook/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResourceStore loads resources with their weekly hours and blackouts.
type ResourceStore struct {
	pool *pgxpool.Pool
}

func NewResourceStore(pool *pgxpool.Pool) *ResourceStore {
	return &ResourceStore{pool: pool}
}

func (s *ResourceStore) FindByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error) {
	var name, timezone string
	err := s.pool.QueryRow(ctx,
		`SELECT name, timezone FROM resources WHERE id = $1`, id,
	).Scan(&name, &timezone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.NewRepoErr("resource not found", infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find resource", err)
	}

	hours, err := s.loadHours(ctx, id)
	if err != nil {
		return nil, err
	}
	blackouts, err := s.loadBlackouts(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := resource.NewResource(id, name, timezone, hours, blackouts)
	if err != nil {
		return nil, infra.WrapRepoErr("stored resource is invalid", err)
	}
	return res, nil
}

func (s *ResourceStore) loadHours(ctx context.Context, id uuid.UUID) (schedule.WeekHours, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT day_of_week, open_min, close_min
		FROM resource_hours WHERE resource_id = $1`, id)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query resource hours", err)
	}
	defer rows.Close()

	hours := schedule.WeekHours{}
	for rows.Next() {
		var day, openMin, closeMin int
		if err := rows.Scan(&day, &openMin, &closeMin); err != nil {
			return nil, infra.WrapRepoErr("failed to scan resource hours", err)
		}
		win, err := schedule.NewWindow(openMin, closeMin)
		if err != nil {
			return nil, infra.WrapRepoErr("stored window is invalid", err)
		}
		hours[time.Weekday(day)] = win
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate resource hours", err)
	}
	return hours, nil
}

func (s *ResourceStore) loadBlackouts(ctx context.Context, id uuid.UUID) ([]schedule.Blackout, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT starts_at, ends_at, reason
		FROM resource_blackouts WHERE resource_id = $1`, id)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query blackouts", err)
	}
	defer rows.Close()

	var out []schedule.Blackout
	for rows.Next() {
		var start, end time.Time
		var reason string
		if err := rows.Scan(&start, &end, &reason); err != nil {
			return nil, infra.WrapRepoErr("failed to scan blackout", err)
		}
		span, err := schedule.NewSpan(start, end)
		if err != nil {
			return nil, infra.WrapRepoErr("stored blackout is invalid", err)
		}
		out = append(out, schedule.Blackout{Span: span, Reason: reason})
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate blackouts", err)
	}
	return out, nil
}

type ServiceStore struct {
	pool *pgxpool.Pool
}

func NewServiceStore(pool *pgxpool.Pool) *ServiceStore {
	return &ServiceStore{pool: pool}
}

func (s *ServiceStore) FindByID(ctx context.Context, id uuid.UUID) (*service.Service, error) {
	var name string
	var durationMin int
	err := s.pool.QueryRow(ctx,
		`SELECT name, duration_min FROM services WHERE id = $1`, id,
	).Scan(&name, &durationMin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.NewRepoErr("service not found", infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find service", err)
	}

	svc, err := service.NewService(id, name, durationMin)
	if err != nil {
		return nil, infra.WrapRepoErr("stored service is invalid", err)
	}
	return svc, nil
}
