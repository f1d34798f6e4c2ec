package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/chatmatch/services"
	"github.com/Dosada05/chatmatch/utils"
	"github.com/go-chi/chi/v5"
)

type RosterHandler struct {
	rosterService services.RosterService
}

func NewRosterHandler(rs services.RosterService) *RosterHandler {
	return &RosterHandler{
		rosterService: rs,
	}
}

type createRosterInput struct {
	Names nameList `json:"names"`
}

// CreateRoster godoc
// @Summary Create a roster
// @Tags rosters
// @Description Names are sanitized, deduplicated and numbered in the order given.
// @Accept json
// @Produce json
// @Param input body object true "names as a comma separated string or an array"
// @Success 201 {object} map[string]interface{} "Created roster"
// @Failure 400 {object} map[string]string "No valid names"
// @Failure 503 {object} map[string]string "No free roster id, retry"
// @Router /rosters [post]
func (h *RosterHandler) CreateRoster(w http.ResponseWriter, r *http.Request) {
	var input createRosterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Names == nil {
		badRequestResponse(w, r, errors.New("names is required"))
		return
	}

	roster, err := h.rosterService.CreateRoster(r.Context(), input.Names)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"roster": roster}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListRosters godoc
// @Summary List rosters, or get one by query
// @Tags rosters
// @Description With a valid roster_id the roster and its rounds are returned. A missing or malformed roster_id lists the rosters instead.
// @Produce json
// @Param roster_id query string false "Roster ID"
// @Success 200 {object} map[string]interface{} "Oldest rosters first, or one roster"
// @Failure 404 {object} map[string]string "Roster not found"
// @Router /rosters [get]
func (h *RosterHandler) ListRosters(w http.ResponseWriter, r *http.Request) {
	if rosterID := r.URL.Query().Get("roster_id"); utils.IsValidRosterID(rosterID) {
		h.writeDetails(w, r, rosterID)
		return
	}

	rosters, err := h.rosterService.ListRosters(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rosters": rosters}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetRoster godoc
// @Summary Get a roster with its rounds
// @Tags rosters
// @Produce json
// @Param rosterID path string true "Roster ID"
// @Success 200 {object} models.RosterDetails
// @Failure 400 {object} map[string]string "Invalid roster id"
// @Failure 404 {object} map[string]string "Roster not found"
// @Router /rosters/{rosterID} [get]
func (h *RosterHandler) GetRoster(w http.ResponseWriter, r *http.Request) {
	h.writeDetails(w, r, chi.URLParam(r, "rosterID"))
}

func (h *RosterHandler) writeDetails(w http.ResponseWriter, r *http.Request, rosterID string) {
	details, err := h.rosterService.GetRosterDetails(r.Context(), rosterID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, details, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteRoster godoc
// @Summary Delete a roster and all of its rounds
// @Tags rosters
// @Produce json
// @Param rosterID path string true "Roster ID"
// @Success 200 {object} map[string]string "Deleted"
// @Failure 400 {object} map[string]string "Invalid roster id"
// @Failure 404 {object} map[string]string "Roster not found"
// @Router /rosters/{rosterID} [delete]
func (h *RosterHandler) DeleteRoster(w http.ResponseWriter, r *http.Request) {
	h.deleteRoster(w, r, chi.URLParam(r, "rosterID"))
}

// DeleteRosterByQuery godoc
// @Summary Delete a roster named by query
// @Tags rosters
// @Produce json
// @Param roster_id query string true "Roster ID"
// @Success 200 {object} map[string]string "Deleted"
// @Failure 400 {object} map[string]string "Missing or invalid roster id"
// @Failure 404 {object} map[string]string "Roster not found"
// @Router /rosters [delete]
func (h *RosterHandler) DeleteRosterByQuery(w http.ResponseWriter, r *http.Request) {
	h.deleteRoster(w, r, r.URL.Query().Get("roster_id"))
}

func (h *RosterHandler) deleteRoster(w http.ResponseWriter, r *http.Request, rosterID string) {
	if err := h.rosterService.DeleteRoster(r.Context(), rosterID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"deleted": rosterID}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
