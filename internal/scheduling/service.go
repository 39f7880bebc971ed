package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jeffgoval/estetic-sub001/internal/config"
	redisclient "github.com/jeffgoval/estetic-sub001/internal/redis"
)

var (
	ErrAlreadyProcessed      = errors.New("waitlist entry has already been processed")
	ErrNoAvailableSlot       = errors.New("no available slot in the scheduling window")
	ErrSlotNoLongerAvailable = errors.New("selected slot is no longer available")
	ErrInvalidTransition     = errors.New("invalid waitlist status transition")
)

type Service struct {
	store  Store
	locker redisclient.Locker
	cfg    config.Config
	log    zerolog.Logger
	now    func() time.Time
}

func NewService(store Store, locker redisclient.Locker, cfg config.Config, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		locker: locker,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// Assignment is the result of converting a waiting entry into a booked
// appointment. HonoredPreferences reports whether the slot satisfied the
// entry's stated preferences or came from the fallback pool.
type Assignment struct {
	Appointment        Appointment
	Slot               Slot
	HonoredPreferences bool
}

// BatchResult is the per-entry outcome of a batch resolution pass.
type BatchResult struct {
	EntryID    uuid.UUID
	Assignment *Assignment
	Err        error
}

func (s *Service) hours() OperatingHours {
	return OperatingHours{StartHour: s.cfg.DayStartHour, EndHour: s.cfg.DayEndHour}
}

// ComputeAvailableSlots returns every conflict-free slot across the window,
// ordered by start time then provider id. windowDays <= 0 means the
// configured default.
func (s *Service) ComputeAvailableSlots(ctx context.Context, tenantID uuid.UUID, windowDays int) ([]Slot, error) {
	if windowDays <= 0 {
		windowDays = s.cfg.WindowDays
	}
	win := WindowFrom(s.now(), windowDays)
	return s.freeSlots(ctx, tenantID, win)
}

func (s *Service) freeSlots(ctx context.Context, tenantID uuid.UUID, win Window) ([]Slot, error) {
	providers, err := s.store.ListActiveProviders(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list active providers: %w", err)
	}

	slots := GenerateSlots(providers, win, s.hours())
	if len(slots) == 0 {
		return nil, nil
	}

	var booked []Appointment
	for _, p := range providers {
		if !p.Active {
			continue
		}
		appts, err := s.store.ListAppointments(ctx, tenantID, p.ID, win.From, win.To)
		if err != nil {
			return nil, fmt.Errorf("list appointments for provider %s: %w", p.ID, err)
		}
		booked = append(booked, appts...)
	}

	return FilterConflicts(slots, booked), nil
}

// AutoAssign converts a waiting entry into a booked appointment. The chosen
// slot's freshness is re-checked inside the commit itself (conditional
// insert), so a lost race surfaces as ErrSlotNoLongerAvailable and the entry
// stays waiting; retrying is the caller's decision.
func (s *Service) AutoAssign(ctx context.Context, tenantID, entryID uuid.UUID) (*Assignment, error) {
	entry, err := s.store.GetWaitlistEntry(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != WaitlistWaiting {
		return nil, ErrAlreadyProcessed
	}

	win := WindowFrom(s.now(), s.cfg.WindowDays)
	free, err := s.freeSlots(ctx, tenantID, win)
	if err != nil {
		return nil, err
	}
	if len(free) == 0 {
		return nil, ErrNoAvailableSlot
	}

	candidates, honored := MatchPreferences(free, entry)
	slot, ok := SelectEarliest(candidates)
	if !ok {
		return nil, ErrNoAvailableSlot
	}

	appt := Appointment{
		ID:         uuid.New(),
		TenantID:   tenantID,
		ProviderID: slot.ProviderID,
		PatientID:  entry.PatientID,
		StartTime:  slot.Start,
		EndTime:    slot.End,
		Status:     AppointmentScheduled,
	}

	var created *Appointment
	err = s.locker.WithScheduleLock(ctx, slot.ProviderID, slot.Day(), func(lockCtx context.Context) error {
		c, err := s.store.CommitAssignment(lockCtx, tenantID, entry.ID, appt)
		if err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrBookingConflict), errors.Is(err, redisclient.ErrLockNotAcquired):
			return nil, ErrSlotNoLongerAvailable
		case errors.Is(err, ErrEntryNotWaiting):
			return nil, ErrAlreadyProcessed
		default:
			return nil, fmt.Errorf("commit assignment: %w", err)
		}
	}

	s.log.Info().
		Str("tenant_id", tenantID.String()).
		Str("entry_id", entry.ID.String()).
		Str("provider_id", slot.ProviderID.String()).
		Time("start", slot.Start).
		Bool("honored_preferences", honored).
		Msg("waitlist entry assigned")

	return &Assignment{
		Appointment:        *created,
		Slot:               slot,
		HonoredPreferences: honored,
	}, nil
}

// ResolveWaiting runs AutoAssign over every waiting entry of the tenant,
// highest priority first, FIFO within equal priority. Failures are recorded
// per entry and do not stop the pass.
func (s *Service) ResolveWaiting(ctx context.Context, tenantID uuid.UUID) ([]BatchResult, error) {
	entries, err := s.store.ListWaitingEntries(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list waiting entries: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	results := make([]BatchResult, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		assignment, err := s.AutoAssign(ctx, tenantID, e.ID)
		if err != nil {
			s.log.Warn().
				Str("tenant_id", tenantID.String()).
				Str("entry_id", e.ID.String()).
				Err(err).
				Msg("waitlist entry not resolved")
		}
		results = append(results, BatchResult{EntryID: e.ID, Assignment: assignment, Err: err})
	}
	return results, nil
}

// GetEntry retrieves one waitlist entry.
func (s *Service) GetEntry(ctx context.Context, tenantID, id uuid.UUID) (*WaitlistEntry, error) {
	return s.store.GetWaitlistEntry(ctx, tenantID, id)
}

// UpdateEntryStatus performs the manual waiting -> contacted/cancelled
// transitions. Scheduling an entry manually goes through AutoAssign, never
// through here.
func (s *Service) UpdateEntryStatus(ctx context.Context, tenantID, id uuid.UUID, to WaitlistStatus) (*WaitlistEntry, error) {
	if to != WaitlistContacted && to != WaitlistCancelled {
		return nil, ErrInvalidTransition
	}
	entry, err := s.store.SetEntryStatus(ctx, tenantID, id, WaitlistWaiting, to)
	if err != nil {
		if errors.Is(err, ErrEntryNotWaiting) {
			return nil, ErrAlreadyProcessed
		}
		return nil, err
	}
	return entry, nil
}
