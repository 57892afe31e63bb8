package handlers

import (
	"net/http"
	"time"

	"churchadmin/internal/service"
	"churchadmin/internal/validation"
)

// EventHandler handles the church calendar
type EventHandler struct {
	eventService *service.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService *service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.ListEvents()
	if err != nil {
		respondServiceError(w, err, "Error listing events")
		return
	}
	respondJSON(w, http.StatusOK, events)
}

func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in service.EventInput
	if !decodeJSON(w, r, &in) {
		return
	}
	e, err := h.eventService.CreateEvent(in)
	if err != nil {
		respondServiceError(w, err, "Error creating event")
		return
	}
	respondJSON(w, http.StatusCreated, e)
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	e, err := h.eventService.GetEvent(id)
	if err != nil {
		respondServiceError(w, err, "Error getting event")
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.EventInput
	if !decodeJSON(w, r, &in) {
		return
	}
	e, err := h.eventService.UpdateEvent(id, in)
	if err != nil {
		respondServiceError(w, err, "Error updating event")
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfirm(w, r) {
		return
	}
	if err := h.eventService.DeleteEvent(id); err != nil {
		respondServiceError(w, err, "Error deleting event")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExcludeDate skips one date of a recurring event
func (h *EventHandler) ExcludeDate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Date string `json:"date"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.eventService.ExcludeDate(id, req.Date)
	if err != nil {
		respondServiceError(w, err, "Error excluding event date")
		return
	}
	respondJSON(w, http.StatusOK, e)
}

// Occurrences expands events between from and to (YYYY-MM-DD, to exclusive).
// Without parameters the next 30 days are returned.
func (h *EventHandler) Occurrences(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	from, to := today, today.AddDate(0, 0, 30)

	fe := validation.FieldErrors{}
	if v := query.Get("from"); v != "" {
		t, err := time.Parse(validation.DateLayout, v)
		if err != nil {
			fe.Add("from", "Enter a valid date (YYYY-MM-DD).")
		}
		from = t
	}
	if v := query.Get("to"); v != "" {
		t, err := time.Parse(validation.DateLayout, v)
		if err != nil {
			fe.Add("to", "Enter a valid date (YYYY-MM-DD).")
		}
		to = t
	} else if query.Get("from") != "" {
		to = from.AddDate(0, 0, 30)
	}
	if err := fe.OrNil(); err != nil {
		respondServiceError(w, err, "Error reading occurrence window")
		return
	}

	occurrences, err := h.eventService.Occurrences(from, to)
	if err != nil {
		respondServiceError(w, err, "Error expanding events")
		return
	}
	respondJSON(w, http.StatusOK, occurrences)
}
