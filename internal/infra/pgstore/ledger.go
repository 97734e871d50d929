// Package pgstore is the postgres-backed booking ledger. Atomicity of the
// overlap-check-and-insert comes from the reservations_no_live_overlap
// EXCLUDE constraint; status transitions are conditional single-row updates,
// each committed together with its reservation_events outbox row.
package pgstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"washbook/internal/domain/reservation"
	"washbook/internal/domain/schedule"
	"washbook/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgExclusionViolation = "23P01"
	overlapConstraint    = "reservations_no_live_overlap"
)

const reservationColumns = `id, resource_id, service_id, client_id, start_at, end_at, status, hold_expiry, version, created_at, updated_at`

type Ledger struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewLedger(pool *pgxpool.Pool, logger *slog.Logger) *Ledger {
	return &Ledger{pool: pool, logger: logger}
}

func (l *Ledger) CreateHold(ctx context.Context, rsv *reservation.Reservation) error {
	return l.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO reservations (`+reservationColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			rsv.ID(), rsv.ResourceID(), rsv.ServiceID(), rsv.ClientID(),
			rsv.Span().Start, rsv.Span().End, rsv.Status().String(),
			rsv.HoldExpiry(), rsv.Version(), rsv.CreatedAt(), rsv.UpdatedAt(),
		)
		if err != nil {
			if isOverlapViolation(err) {
				return infra.WrapRepoErr("overlapping live reservation", err, infra.KindConflict)
			}
			return infra.WrapRepoErr("failed to insert hold", err)
		}

		return l.appendEvent(ctx, tx, reservation.ChangeOf(rsv, reservation.Status(""), rsv.CreatedAt()))
	})
}

func (l *Ledger) Confirm(ctx context.Context, id uuid.UUID, now time.Time) (*reservation.Reservation, error) {
	return l.transition(ctx, id, now, `
		UPDATE reservations
		SET status = 'confirmed', version = version + 1, updated_at = $2
		WHERE id = $1 AND status = 'held' AND hold_expiry >= $2
		RETURNING `+reservationColumns)
}

func (l *Ledger) Cancel(ctx context.Context, id uuid.UUID, now time.Time) (*reservation.Reservation, error) {
	return l.transition(ctx, id, now, `
		UPDATE reservations
		SET status = 'cancelled', version = version + 1, updated_at = $2
		WHERE id = $1 AND status IN ('held','confirmed')
		RETURNING `+reservationColumns)
}

func (l *Ledger) Expire(ctx context.Context, id uuid.UUID, now time.Time) (*reservation.Reservation, error) {
	return l.transition(ctx, id, now, `
		UPDATE reservations
		SET status = 'expired', version = version + 1, updated_at = $2
		WHERE id = $1 AND status = 'held' AND hold_expiry < $2
		RETURNING `+reservationColumns)
}

// transition runs one conditional update. Zero matched rows means the
// predicate no longer holds; the caller classifies via FindByID.
func (l *Ledger) transition(ctx context.Context, id uuid.UUID, now time.Time, sql string) (*reservation.Reservation, error) {
	var updated *reservation.Reservation

	err := l.inTx(ctx, func(tx pgx.Tx) error {
		var old string
		if err := tx.QueryRow(ctx,
			`SELECT status FROM reservations WHERE id = $1 FOR UPDATE`, id,
		).Scan(&old); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return infra.NewRepoErr("reservation not found", infra.KindNotFound)
			}
			return infra.WrapRepoErr("failed to lock reservation", err)
		}

		rsv, err := scanReservation(tx.QueryRow(ctx, sql, id, now))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return infra.NewRepoErr("transition precondition failed", infra.KindStaleState)
			}
			return infra.WrapRepoErr("failed to apply transition", err)
		}

		if err := l.appendEvent(ctx, tx, reservation.ChangeOf(rsv, reservation.Status(old), now)); err != nil {
			return err
		}
		updated = rsv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (l *Ledger) FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	rsv, err := scanReservation(l.pool.QueryRow(ctx, `
		SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.NewRepoErr("reservation not found", infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation", err)
	}
	return rsv, nil
}

func (l *Ledger) ActiveWithin(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]*reservation.Reservation, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT `+reservationColumns+` FROM reservations
		WHERE resource_id = $1
		  AND status IN ('held','confirmed')
		  AND start_at < $3 AND end_at > $2
		ORDER BY start_at`, resourceID, from, to)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query active reservations", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (l *Ledger) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*reservation.Reservation, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT `+reservationColumns+` FROM reservations
		WHERE client_id = $1
		ORDER BY created_at`, clientID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query client reservations", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (l *Ledger) ExpiredHolds(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id FROM reservations
		WHERE status = 'held' AND hold_expiry < $1
		ORDER BY hold_expiry
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query expired holds", err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan expired hold", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate expired holds", err)
	}
	return out, nil
}

func (l *Ledger) Pending(ctx context.Context, limit int) ([]reservation.StateChanged, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT reservation_id, seq, resource_id, old_status, new_status, occurred_at
		FROM reservation_events
		WHERE NOT published
		ORDER BY occurred_at, reservation_id, seq
		LIMIT $1`, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query pending events", err)
	}
	defer rows.Close()

	var out []reservation.StateChanged
	for rows.Next() {
		var evt reservation.StateChanged
		var oldStatus, newStatus string
		if err := rows.Scan(&evt.ReservationID, &evt.Seq, &evt.ResourceID, &oldStatus, &newStatus, &evt.OccurredAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan pending event", err)
		}
		evt.OldStatus = reservation.Status(oldStatus)
		evt.NewStatus = reservation.Status(newStatus)
		out = append(out, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate pending events", err)
	}
	return out, nil
}

func (l *Ledger) MarkPublished(ctx context.Context, reservationID uuid.UUID, seq int64) error {
	tag, err := l.pool.Exec(ctx, `
		UPDATE reservation_events SET published = TRUE
		WHERE reservation_id = $1 AND seq = $2`, reservationID, seq)
	if err != nil {
		return infra.WrapRepoErr("failed to mark event published", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr("outbox row not found", infra.KindNotFound)
	}
	return nil
}

func (l *Ledger) appendEvent(ctx context.Context, tx pgx.Tx, evt reservation.StateChanged) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO reservation_events (reservation_id, seq, resource_id, old_status, new_status, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		evt.ReservationID, evt.Seq, evt.ResourceID,
		evt.OldStatus.String(), evt.NewStatus.String(), evt.OccurredAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to append reservation event", err)
	}
	return nil
}

func (l *Ledger) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return infra.WrapRepoErr("failed to begin transaction", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			l.logger.Warn("failed to rollback transaction", "error", rollbackErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return infra.WrapRepoErr("failed to commit transaction", err)
	}
	return nil
}

func scanReservation(row pgx.Row) (*reservation.Reservation, error) {
	var (
		id, resourceID, serviceID, clientID uuid.UUID
		start, end                          time.Time
		status                              string
		holdExpiry                          *time.Time
		version                             int64
		createdAt, updatedAt                time.Time
	)
	if err := row.Scan(&id, &resourceID, &serviceID, &clientID, &start, &end, &status, &holdExpiry, &version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	expiry := time.Time{}
	if holdExpiry != nil {
		expiry = *holdExpiry
	}
	return reservation.Reconstruct(
		id, resourceID, serviceID, clientID,
		schedule.Span{Start: start, End: end},
		reservation.Status(status), expiry, version, createdAt, updatedAt,
	), nil
}

func collectReservations(rows pgx.Rows) ([]*reservation.Reservation, error) {
	var out []*reservation.Reservation
	for rows.Next() {
		rsv, err := scanReservation(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation", err)
		}
		out = append(out, rsv)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate reservations", err)
	}
	return out, nil
}

// isOverlapViolation matches only the EXCLUDE constraint guarding live
// overlaps; any other violation (duplicate id) stays a plain DB failure.
func isOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgExclusionViolation &&
		pgErr.ConstraintName == overlapConstraint
}
