package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentScheduled  AppointmentStatus = "scheduled"
	AppointmentConfirmed  AppointmentStatus = "confirmed"
	AppointmentInProgress AppointmentStatus = "in_progress"
	AppointmentCompleted  AppointmentStatus = "completed"
	AppointmentCancelled  AppointmentStatus = "cancelled"
	AppointmentNoShow     AppointmentStatus = "no_show"
)

type WaitlistStatus string

const (
	WaitlistWaiting   WaitlistStatus = "waiting"
	WaitlistContacted WaitlistStatus = "contacted"
	WaitlistScheduled WaitlistStatus = "scheduled"
	WaitlistCancelled WaitlistStatus = "cancelled"
)

// DayHours is a single day's open/close configuration, e.g. {"08:00","18:00"}.
type DayHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

type Provider struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     string
	Active   bool
	// WorkingHours is keyed by lowercase weekday name. It is captured and
	// stored but the slot generator currently uses the global operating
	// hours instead; see DESIGN.md before changing that.
	WorkingHours map[string]DayHours
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Appointment struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	ProviderID uuid.UUID
	PatientID  uuid.UUID
	StartTime  time.Time
	EndTime    time.Time
	Status     AppointmentStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// WaitlistEntry is a patient's request that could not be booked immediately.
// Preferred fields are optional constraints over candidate slots; the
// preferred time range is expressed in minutes from midnight, half-open.
// Priority orders resolution, higher first; CreatedAt breaks ties FIFO.
type WaitlistEntry struct {
	ID                  uuid.UUID
	TenantID            uuid.UUID
	PatientID           uuid.UUID
	PreferredProviderID *uuid.UUID
	PreferredDate       *time.Time
	PreferredStartMin   *int
	PreferredEndMin     *int
	Priority            int
	Status              WaitlistStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Slot is a candidate, not-yet-committed unit of provider time. Slots are
// computed per resolution call and never persisted.
type Slot struct {
	ProviderID uuid.UUID
	Start      time.Time
	End        time.Time
}

// Day returns the slot's date at clinic-local midnight.
func (s Slot) Day() time.Time {
	return time.Date(s.Start.Year(), s.Start.Month(), s.Start.Day(), 0, 0, 0, 0, s.Start.Location())
}
