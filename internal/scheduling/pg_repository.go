package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgExclusionViolation is raised by the appointments no-overlap exclusion
// constraint; it is what makes the booking insert a true conditional write.
const pgExclusionViolation = "23P01"

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Helpers

func scanProvider(row pgx.Row) (*Provider, error) {
	var p Provider

	err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.Name,
		&p.Active,
		&p.WorkingHours,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.TenantID,
		&a.ProviderID,
		&a.PatientID,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

func scanWaitlistEntry(row pgx.Row) (*WaitlistEntry, error) {
	var e WaitlistEntry

	err := row.Scan(
		&e.ID,
		&e.TenantID,
		&e.PatientID,
		&e.PreferredProviderID,
		&e.PreferredDate,
		&e.PreferredStartMin,
		&e.PreferredEndMin,
		&e.Priority,
		&e.Status,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	return &e, nil
}

const waitlistColumns = `id, tenant_id, patient_id, preferred_provider_id, preferred_date,
		preferred_start_min, preferred_end_min, priority, status, created_at, updated_at`

const appointmentColumns = `id, tenant_id, provider_id, patient_id, start_time, end_time, status, created_at, updated_at`

// Interface methods

func (s *PgStore) ListActiveProviders(ctx context.Context, tenantID uuid.UUID) ([]Provider, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, name, active, working_hours, created_at, updated_at
		FROM providers
		WHERE tenant_id = $1 AND active
		ORDER BY id
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *PgStore) ListAppointments(ctx context.Context, tenantID, providerID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE tenant_id = $1
		  AND provider_id = $2
		  AND status <> 'cancelled'
		  AND start_time < $4
		  AND end_time > $3
		ORDER BY start_time
	`, tenantID, providerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *PgStore) GetWaitlistEntry(ctx context.Context, tenantID, id uuid.UUID) (*WaitlistEntry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+waitlistColumns+`
		FROM waitlist_entries
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id)
	return scanWaitlistEntry(row)
}

func (s *PgStore) ListWaitingEntries(ctx context.Context, tenantID uuid.UUID) ([]WaitlistEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+waitlistColumns+`
		FROM waitlist_entries
		WHERE tenant_id = $1 AND status = 'waiting'
		ORDER BY priority DESC, created_at ASC
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []WaitlistEntry
	for rows.Next() {
		e, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *PgStore) SetEntryStatus(ctx context.Context, tenantID, id uuid.UUID, from, to WaitlistStatus) (*WaitlistEntry, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE waitlist_entries
		SET status = $4,
		    updated_at = now()
		WHERE tenant_id = $1
		  AND id = $2
		  AND status = $3
		RETURNING `+waitlistColumns+`
	`, tenantID, id, from, to)

	entry, err := scanWaitlistEntry(row)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			// Row exists but is past `from`, or does not exist at all.
			if _, getErr := s.GetWaitlistEntry(ctx, tenantID, id); getErr == nil {
				return nil, ErrEntryNotWaiting
			}
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	return entry, nil
}

// CommitAssignment inserts the appointment and transitions the entry in one
// transaction. The insert carries a NOT EXISTS overlap guard and the table's
// exclusion constraint backs it up, so two racing commits for the same
// provider time can never both land.
func (s *PgStore) CommitAssignment(ctx context.Context, tenantID, entryID uuid.UUID, appt Appointment) (*Appointment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		SELECT $1, $2, $3, $4, $5, $6, $7, now(), now()
		WHERE NOT EXISTS (
			SELECT 1 FROM appointments
			WHERE tenant_id = $2
			  AND provider_id = $3
			  AND status <> 'cancelled'
			  AND start_time < $6
			  AND end_time > $5
		)
		RETURNING `+appointmentColumns+`
	`, appt.ID, tenantID, appt.ProviderID, appt.PatientID, appt.StartTime, appt.EndTime, appt.Status)

	created, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingConflict
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
			return nil, ErrBookingConflict
		}
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE waitlist_entries
		SET status = 'scheduled',
		    updated_at = now()
		WHERE tenant_id = $1
		  AND id = $2
		  AND status = 'waiting'
	`, tenantID, entryID)
	if err != nil {
		return nil, fmt.Errorf("transition waitlist entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Rolls back the appointment insert with it.
		return nil, ErrEntryNotWaiting
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit booking tx: %w", err)
	}

	return created, nil
}

func (s *PgStore) ListTenantsWithWaiting(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT tenant_id
		FROM waitlist_entries
		WHERE status = 'waiting'
		ORDER BY tenant_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
