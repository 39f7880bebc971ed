package scheduling

import (
	"sort"
	"strings"
	"time"
)

// OperatingHours is the clinic-wide bookable day, [StartHour, EndHour) whole
// hours. Per-provider working hours are deliberately not consulted here.
type OperatingHours struct {
	StartHour int
	EndHour   int
}

// Window is a half-open [From, To) range of clinic-local time.
type Window struct {
	From time.Time
	To   time.Time
}

// WindowFrom builds a window of `days` whole days starting at the midnight
// of `day`.
func WindowFrom(day time.Time, days int) Window {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return Window{From: from, To: from.AddDate(0, 0, days)}
}

// GenerateSlots enumerates one-hour candidate slots for every active
// provider across the window. Pure and deterministic: output is ordered by
// start time, then by provider id, so repeated runs over the same input
// produce the same sequence.
func GenerateSlots(providers []Provider, win Window, hours OperatingHours) []Slot {
	active := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.Active {
			active = append(active, p)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return strings.Compare(active[i].ID.String(), active[j].ID.String()) < 0
	})

	var slots []Slot
	for day := win.From; day.Before(win.To); day = day.AddDate(0, 0, 1) {
		for h := hours.StartHour; h < hours.EndHour; h++ {
			start := time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, day.Location())
			for _, p := range active {
				slots = append(slots, Slot{
					ProviderID: p.ID,
					Start:      start,
					End:        start.Add(time.Hour),
				})
			}
		}
	}
	return slots
}

// FilterConflicts drops every slot that overlaps a non-cancelled appointment
// of the same provider. Overlap uses the half-open interval rule:
// slot.Start < appt.End && slot.End > appt.Start.
func FilterConflicts(slots []Slot, appts []Appointment) []Slot {
	free := make([]Slot, 0, len(slots))
	for _, s := range slots {
		conflict := false
		for _, a := range appts {
			if a.Status == AppointmentCancelled || a.ProviderID != s.ProviderID {
				continue
			}
			if s.Start.Before(a.EndTime) && s.End.After(a.StartTime) {
				conflict = true
				break
			}
		}
		if !conflict {
			free = append(free, s)
		}
	}
	return free
}

// MatchPreferences narrows the free slots to those satisfying every
// preference the entry has set. When that yields nothing the full free set
// is returned with honored=false: preferences steer the assignment but
// never block it.
func MatchPreferences(slots []Slot, e *WaitlistEntry) (matched []Slot, honored bool) {
	matched = slots
	if e.PreferredProviderID != nil {
		matched = filterSlots(matched, func(s Slot) bool {
			return s.ProviderID == *e.PreferredProviderID
		})
	}
	if e.PreferredDate != nil {
		y, m, d := e.PreferredDate.Date()
		matched = filterSlots(matched, func(s Slot) bool {
			sy, sm, sd := s.Start.Date()
			return sy == y && sm == m && sd == d
		})
	}
	if e.PreferredStartMin != nil && e.PreferredEndMin != nil {
		matched = filterSlots(matched, func(s Slot) bool {
			start := minutesIntoDay(s.Start)
			end := start + int(s.End.Sub(s.Start).Minutes())
			return start >= *e.PreferredStartMin && end <= *e.PreferredEndMin
		})
	}
	if len(matched) == 0 {
		return slots, false
	}
	return matched, true
}

// SelectEarliest picks the slot with the earliest start, breaking ties by
// ascending provider id so equal timestamps resolve deterministically.
func SelectEarliest(slots []Slot) (Slot, bool) {
	if len(slots) == 0 {
		return Slot{}, false
	}
	best := slots[0]
	for _, s := range slots[1:] {
		if s.Start.Before(best.Start) {
			best = s
			continue
		}
		if s.Start.Equal(best.Start) && strings.Compare(s.ProviderID.String(), best.ProviderID.String()) < 0 {
			best = s
		}
	}
	return best, true
}

func filterSlots(slots []Slot, keep func(Slot) bool) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func minutesIntoDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
