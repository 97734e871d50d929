package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The EXCLUDE constraint on reservations is what makes CreateHold's
// check-and-insert atomic: two racing inserts for overlapping spans of one
// resource cannot both commit, and the loser surfaces SQLSTATE 23P01.
const schemaSQL = `
CREATE EXTENSION IF NOT EXISTS btree_gist;

CREATE TABLE IF NOT EXISTS resources (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	timezone TEXT NOT NULL DEFAULT 'UTC',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS resource_hours (
	resource_id UUID NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
	day_of_week SMALLINT NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
	open_min SMALLINT NOT NULL,
	close_min SMALLINT NOT NULL,
	PRIMARY KEY (resource_id, day_of_week)
);

CREATE TABLE IF NOT EXISTS resource_blackouts (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	resource_id UUID NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
	starts_at TIMESTAMPTZ NOT NULL,
	ends_at TIMESTAMPTZ NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	CHECK (starts_at < ends_at)
);

CREATE TABLE IF NOT EXISTS services (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	duration_min SMALLINT NOT NULL CHECK (duration_min > 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS reservations (
	id UUID PRIMARY KEY,
	resource_id UUID NOT NULL REFERENCES resources(id),
	service_id UUID NOT NULL REFERENCES services(id),
	client_id UUID NOT NULL,
	start_at TIMESTAMPTZ NOT NULL,
	end_at TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('held','confirmed','cancelled','expired')),
	hold_expiry TIMESTAMPTZ,
	version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	CHECK (start_at < end_at),
	CONSTRAINT reservations_no_live_overlap EXCLUDE USING gist (
		resource_id WITH =,
		tstzrange(start_at, end_at) WITH &&
	) WHERE (status IN ('held','confirmed'))
);

CREATE INDEX IF NOT EXISTS idx_reservations_resource_start ON reservations(resource_id, start_at);
CREATE INDEX IF NOT EXISTS idx_reservations_client ON reservations(client_id);
CREATE INDEX IF NOT EXISTS idx_reservations_held_expiry ON reservations(hold_expiry) WHERE status = 'held';

CREATE TABLE IF NOT EXISTS reservation_events (
	reservation_id UUID NOT NULL REFERENCES reservations(id),
	seq BIGINT NOT NULL,
	resource_id UUID NOT NULL,
	old_status TEXT NOT NULL,
	new_status TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	published BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (reservation_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_reservation_events_unpublished
	ON reservation_events(occurred_at) WHERE NOT published;
`

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}
