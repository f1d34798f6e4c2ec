package handlers

import (
	"net/http"

	"github.com/Dosada05/chatmatch/services"
	"github.com/go-chi/chi/v5"
)

type EventHandler struct {
	eventService services.EventService
}

func NewEventHandler(es services.EventService) *EventHandler {
	return &EventHandler{
		eventService: es,
	}
}

// CreateEvent godoc
// @Summary Compute the next pairing round
// @Tags events
// @Produce json
// @Param rosterID path string true "Roster ID"
// @Success 201 {object} map[string]interface{} "Created event"
// @Failure 400 {object} map[string]string "Invalid roster id"
// @Failure 404 {object} map[string]string "Roster not found"
// @Failure 422 {object} map[string]string "Fewer than two participants"
// @Router /rosters/{rosterID}/events [post]
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	h.createEvent(w, r, chi.URLParam(r, "rosterID"))
}

// CreateEventByQuery godoc
// @Summary Compute the next pairing round for the roster named by query
// @Tags events
// @Produce json
// @Param roster_id query string true "Roster ID"
// @Success 201 {object} map[string]interface{} "Created event"
// @Failure 400 {object} map[string]string "Missing or invalid roster id"
// @Failure 404 {object} map[string]string "Roster not found"
// @Failure 422 {object} map[string]string "Fewer than two participants"
// @Router /events [post]
func (h *EventHandler) CreateEventByQuery(w http.ResponseWriter, r *http.Request) {
	h.createEvent(w, r, r.URL.Query().Get("roster_id"))
}

func (h *EventHandler) createEvent(w http.ResponseWriter, r *http.Request, rosterID string) {
	event, err := h.eventService.CreateEvent(r.Context(), rosterID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListRosterEvents godoc
// @Summary List the rounds of a roster
// @Tags events
// @Produce json
// @Param rosterID path string true "Roster ID"
// @Success 200 {object} map[string]interface{} "Events oldest first"
// @Failure 400 {object} map[string]string "Invalid roster id"
// @Failure 404 {object} map[string]string "Roster not found"
// @Router /rosters/{rosterID}/events [get]
func (h *EventHandler) ListRosterEvents(w http.ResponseWriter, r *http.Request) {
	h.listEvents(w, r, chi.URLParam(r, "rosterID"))
}

// GetEvent godoc
// @Summary Get one event
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} map[string]interface{} "Event"
// @Failure 400 {object} map[string]string "Invalid event id"
// @Failure 404 {object} map[string]string "Event not found"
// @Router /events/{eventID} [get]
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	h.getEvent(w, r, chi.URLParam(r, "eventID"))
}

// QueryEvents godoc
// @Summary Look up events by roster or by id
// @Tags events
// @Produce json
// @Param roster_id query string false "Roster ID"
// @Param event_id query string false "Event ID"
// @Success 200 {object} map[string]interface{} "Event or events"
// @Failure 400 {object} map[string]string "Exactly one parameter is required"
// @Failure 404 {object} map[string]string "Not found"
// @Router /events [get]
func (h *EventHandler) QueryEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	rosterID, eventID := query.Get("roster_id"), query.Get("event_id")

	switch {
	case rosterID != "" && eventID == "":
		h.listEvents(w, r, rosterID)
	case eventID != "" && rosterID == "":
		h.getEvent(w, r, eventID)
	default:
		mapServiceErrorToHTTP(w, r, services.ErrAmbiguousEventQuery)
	}
}

func (h *EventHandler) listEvents(w http.ResponseWriter, r *http.Request, rosterID string) {
	events, err := h.eventService.ListEventsByRoster(r.Context(), rosterID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) getEvent(w http.ResponseWriter, r *http.Request, eventID string) {
	event, err := h.eventService.GetEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
