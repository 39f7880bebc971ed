package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jeffgoval/estetic-sub001/internal/scheduling"
)

type fakeService struct {
	slots      []scheduling.Slot
	assignment *scheduling.Assignment
	entry      *scheduling.WaitlistEntry
	results    []scheduling.BatchResult
	err        error
}

func (f *fakeService) ComputeAvailableSlots(context.Context, uuid.UUID, int) ([]scheduling.Slot, error) {
	return f.slots, f.err
}

func (f *fakeService) AutoAssign(context.Context, uuid.UUID, uuid.UUID) (*scheduling.Assignment, error) {
	return f.assignment, f.err
}

func (f *fakeService) ResolveWaiting(context.Context, uuid.UUID) ([]scheduling.BatchResult, error) {
	return f.results, f.err
}

func (f *fakeService) GetEntry(context.Context, uuid.UUID, uuid.UUID) (*scheduling.WaitlistEntry, error) {
	return f.entry, f.err
}

func (f *fakeService) UpdateEntryStatus(context.Context, uuid.UUID, uuid.UUID, scheduling.WaitlistStatus) (*scheduling.WaitlistEntry, error) {
	return f.entry, f.err
}

func newTestRouter(svc SchedulingService) http.Handler {
	return NewRouter(RouterConfig{
		Service: svc,
		Logger:  zerolog.Nop(),
		Env:     "test",
		Version: "test",
	})
}

func doRequest(t *testing.T, h http.Handler, method, path string, tenant string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if tenant != "" {
		req.Header.Set(TenantHeader, tenant)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTenantHeaderRequired(t *testing.T) {
	router := newTestRouter(&fakeService{})

	rec := doRequest(t, router, http.MethodGet, "/slots", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing tenant: status %d, want 400", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/slots", "not-a-uuid", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid tenant: status %d, want 400", rec.Code)
	}
}

func TestListSlots(t *testing.T) {
	providerID := uuid.New()
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc := &fakeService{slots: []scheduling.Slot{{
		ProviderID: providerID,
		Start:      start,
		End:        start.Add(time.Hour),
	}}}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/slots?days=3", uuid.NewString(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}

	var got []SlotResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 || got[0].ProviderID != providerID || got[0].Date != "2026-03-02" {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestListSlotsInvalidDays(t *testing.T) {
	router := newTestRouter(&fakeService{})
	rec := doRequest(t, router, http.MethodGet, "/slots?days=abc", uuid.NewString(), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestAssignEntry(t *testing.T) {
	providerID := uuid.New()
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc := &fakeService{assignment: &scheduling.Assignment{
		Appointment: scheduling.Appointment{
			ID:         uuid.New(),
			ProviderID: providerID,
			PatientID:  uuid.New(),
			StartTime:  start,
			EndTime:    start.Add(time.Hour),
			Status:     scheduling.AppointmentScheduled,
		},
		Slot:               scheduling.Slot{ProviderID: providerID, Start: start, End: start.Add(time.Hour)},
		HonoredPreferences: false,
	}}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/waitlist/"+uuid.NewString()+"/assign", uuid.NewString(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}

	var got AssignmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.HonoredPreferences {
		t.Fatalf("honored_preferences should round-trip as false")
	}
	if got.Appointment.Status != "scheduled" {
		t.Fatalf("appointment status %q, want scheduled", got.Appointment.Status)
	}
}

func TestAssignEntryErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", scheduling.ErrEntryNotFound, http.StatusNotFound},
		{"already processed", scheduling.ErrAlreadyProcessed, http.StatusConflict},
		{"slot lost", scheduling.ErrSlotNoLongerAvailable, http.StatusConflict},
		{"no slot", scheduling.ErrNoAvailableSlot, http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&fakeService{err: tc.err})
			rec := doRequest(t, router, http.MethodPost, "/waitlist/"+uuid.NewString()+"/assign", uuid.NewString(), "")
			if rec.Code != tc.want {
				t.Fatalf("status %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestUpdateEntryStatus(t *testing.T) {
	entryID := uuid.New()
	svc := &fakeService{entry: &scheduling.WaitlistEntry{
		ID:     entryID,
		Status: scheduling.WaitlistContacted,
	}}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/waitlist/"+entryID.String()+"/status",
		uuid.NewString(), `{"status":"contacted"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}

	var got WaitlistEntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != "contacted" {
		t.Fatalf("entry status %q, want contacted", got.Status)
	}
}

func TestUpdateEntryStatusInvalidTransition(t *testing.T) {
	router := newTestRouter(&fakeService{err: scheduling.ErrInvalidTransition})
	rec := doRequest(t, router, http.MethodPost, "/waitlist/"+uuid.NewString()+"/status",
		uuid.NewString(), `{"status":"scheduled"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestResolveWaitlist(t *testing.T) {
	e1, e2 := uuid.New(), uuid.New()
	svc := &fakeService{results: []scheduling.BatchResult{
		{EntryID: e1, Assignment: &scheduling.Assignment{HonoredPreferences: true}},
		{EntryID: e2, Err: scheduling.ErrNoAvailableSlot},
	}}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/waitlist/resolve", uuid.NewString(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}

	var got []BatchResultResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Assignment == nil || got[0].Error != "" {
		t.Fatalf("first result should carry an assignment: %+v", got[0])
	}
	if got[1].Assignment != nil || got[1].Error == "" {
		t.Fatalf("second result should carry an error: %+v", got[1])
	}
}
