package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeffgoval/estetic-sub001/internal/scheduling"
)

type SlotResponse struct {
	ProviderID uuid.UUID `json:"provider_id"`
	Date       string    `json:"date"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

type AppointmentResponse struct {
	ID         uuid.UUID `json:"id"`
	ProviderID uuid.UUID `json:"provider_id"`
	PatientID  uuid.UUID `json:"patient_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Status     string    `json:"status"`
}

type AssignmentResponse struct {
	Appointment        AppointmentResponse `json:"appointment"`
	Slot               SlotResponse        `json:"slot"`
	HonoredPreferences bool                `json:"honored_preferences"`
}

type WaitlistEntryResponse struct {
	ID                  uuid.UUID  `json:"id"`
	PatientID           uuid.UUID  `json:"patient_id"`
	PreferredProviderID *uuid.UUID `json:"preferred_provider_id,omitempty"`
	PreferredDate       *string    `json:"preferred_date,omitempty"`
	PreferredStartMin   *int       `json:"preferred_start_min,omitempty"`
	PreferredEndMin     *int       `json:"preferred_end_min,omitempty"`
	Priority            int        `json:"priority"`
	Status              string     `json:"status"`
	CreatedAt           time.Time  `json:"created_at"`
}

type UpdateEntryStatusRequest struct {
	Status string `json:"status"`
}

type BatchResultResponse struct {
	EntryID    uuid.UUID           `json:"entry_id"`
	Assignment *AssignmentResponse `json:"assignment,omitempty"`
	Error      string              `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toSlotResponse(s scheduling.Slot) SlotResponse {
	return SlotResponse{
		ProviderID: s.ProviderID,
		Date:       s.Day().Format("2006-01-02"),
		Start:      s.Start,
		End:        s.End,
	}
}

func toAppointmentResponse(a scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:         a.ID,
		ProviderID: a.ProviderID,
		PatientID:  a.PatientID,
		StartTime:  a.StartTime,
		EndTime:    a.EndTime,
		Status:     string(a.Status),
	}
}

func toAssignmentResponse(a scheduling.Assignment) AssignmentResponse {
	return AssignmentResponse{
		Appointment:        toAppointmentResponse(a.Appointment),
		Slot:               toSlotResponse(a.Slot),
		HonoredPreferences: a.HonoredPreferences,
	}
}

func toWaitlistEntryResponse(e scheduling.WaitlistEntry) WaitlistEntryResponse {
	resp := WaitlistEntryResponse{
		ID:                  e.ID,
		PatientID:           e.PatientID,
		PreferredProviderID: e.PreferredProviderID,
		PreferredStartMin:   e.PreferredStartMin,
		PreferredEndMin:     e.PreferredEndMin,
		Priority:            e.Priority,
		Status:              string(e.Status),
		CreatedAt:           e.CreatedAt,
	}
	if e.PreferredDate != nil {
		d := e.PreferredDate.Format("2006-01-02")
		resp.PreferredDate = &d
	}
	return resp
}
