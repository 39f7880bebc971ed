package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jeffgoval/estetic-sub001/internal/scheduling"
)

// SchedulingService is the slice of the scheduling engine the HTTP layer
// consumes; handlers are tested against a fake of it.
type SchedulingService interface {
	ComputeAvailableSlots(ctx context.Context, tenantID uuid.UUID, windowDays int) ([]scheduling.Slot, error)
	AutoAssign(ctx context.Context, tenantID, entryID uuid.UUID) (*scheduling.Assignment, error)
	ResolveWaiting(ctx context.Context, tenantID uuid.UUID) ([]scheduling.BatchResult, error)
	GetEntry(ctx context.Context, tenantID, id uuid.UUID) (*scheduling.WaitlistEntry, error)
	UpdateEntryStatus(ctx context.Context, tenantID, id uuid.UUID, to scheduling.WaitlistStatus) (*scheduling.WaitlistEntry, error)
}

func listSlotsHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := GetTenantID(r.Context())
		if !ok {
			writeError(w, http.StatusBadRequest, "missing_tenant", "tenant not resolved")
			return
		}

		days := 0
		if raw := r.URL.Query().Get("days"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid_days", "days must be a non-negative integer")
				return
			}
			days = n
		}

		slots, err := svc.ComputeAvailableSlots(r.Context(), tenantID, days)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, toSlotResponse(s))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func assignEntryHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := GetTenantID(r.Context())
		if !ok {
			writeError(w, http.StatusBadRequest, "missing_tenant", "tenant not resolved")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_entry_id", "id must be a valid UUID")
			return
		}

		assignment, err := svc.AutoAssign(r.Context(), tenantID, id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAssignmentResponse(*assignment))
	}
}

func getEntryHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := GetTenantID(r.Context())
		if !ok {
			writeError(w, http.StatusBadRequest, "missing_tenant", "tenant not resolved")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_entry_id", "id must be a valid UUID")
			return
		}

		entry, err := svc.GetEntry(r.Context(), tenantID, id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toWaitlistEntryResponse(*entry))
	}
}

func updateEntryStatusHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := GetTenantID(r.Context())
		if !ok {
			writeError(w, http.StatusBadRequest, "missing_tenant", "tenant not resolved")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_entry_id", "id must be a valid UUID")
			return
		}

		var req UpdateEntryStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		entry, err := svc.UpdateEntryStatus(r.Context(), tenantID, id, scheduling.WaitlistStatus(req.Status))
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toWaitlistEntryResponse(*entry))
	}
}

func resolveWaitlistHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := GetTenantID(r.Context())
		if !ok {
			writeError(w, http.StatusBadRequest, "missing_tenant", "tenant not resolved")
			return
		}

		results, err := svc.ResolveWaiting(r.Context(), tenantID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]BatchResultResponse, 0, len(results))
		for _, res := range results {
			out := BatchResultResponse{EntryID: res.EntryID}
			if res.Assignment != nil {
				a := toAssignmentResponse(*res.Assignment)
				out.Assignment = &a
			}
			if res.Err != nil {
				out.Error = res.Err.Error()
			}
			resp = append(resp, out)
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func handleSchedulingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, "entry_not_found", err.Error())
	case errors.Is(err, scheduling.ErrAlreadyProcessed):
		writeError(w, http.StatusConflict, "already_processed", err.Error())
	case errors.Is(err, scheduling.ErrSlotNoLongerAvailable):
		writeError(w, http.StatusConflict, "slot_no_longer_available", "no slot could be booked, try again later")
	case errors.Is(err, scheduling.ErrNoAvailableSlot):
		writeError(w, http.StatusUnprocessableEntity, "no_available_slot", "no slot could be found, try again later")
	case errors.Is(err, scheduling.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, "invalid_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
