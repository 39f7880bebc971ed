package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEntryNotFound   = errors.New("waitlist entry not found")
	ErrEntryNotWaiting = errors.New("waitlist entry is not in the expected status")
	ErrBookingConflict = errors.New("an overlapping appointment already exists")
)

// Store contains all DB interactions needed by the service. Every call takes
// the tenant explicitly; the engine holds no ambient tenant state.
type Store interface {
	ListActiveProviders(ctx context.Context, tenantID uuid.UUID) ([]Provider, error)

	// ListAppointments returns non-cancelled appointments for the provider
	// whose [start, end) interval intersects [from, to).
	ListAppointments(ctx context.Context, tenantID, providerID uuid.UUID, from, to time.Time) ([]Appointment, error)

	GetWaitlistEntry(ctx context.Context, tenantID, id uuid.UUID) (*WaitlistEntry, error)
	ListWaitingEntries(ctx context.Context, tenantID uuid.UUID) ([]WaitlistEntry, error)

	// SetEntryStatus performs a conditional transition and fails with
	// ErrEntryNotWaiting when the entry is not currently in `from`.
	SetEntryStatus(ctx context.Context, tenantID, id uuid.UUID, from, to WaitlistStatus) (*WaitlistEntry, error)

	// CommitAssignment atomically inserts the appointment if no overlapping
	// non-cancelled appointment exists for its provider, and transitions the
	// entry waiting -> scheduled. Both effects commit together or neither
	// does. Fails with ErrBookingConflict or ErrEntryNotWaiting.
	CommitAssignment(ctx context.Context, tenantID, entryID uuid.UUID, appt Appointment) (*Appointment, error)

	// ListTenantsWithWaiting supports the batch resolution worker.
	ListTenantsWithWaiting(ctx context.Context) ([]uuid.UUID, error)
}
