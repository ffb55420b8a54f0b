package handlers

import (
	"net/http"
	"strconv"

	"github.com/Dosada05/handicap-system/services"
)

const defaultRoundsPage = 20

type PlayerHandler struct {
	handicapService services.HandicapService
	roundService    services.RoundService
}

func NewPlayerHandler(hs services.HandicapService, rs services.RoundService) *PlayerHandler {
	return &PlayerHandler{handicapService: hs, roundService: rs}
}

// GetHandicap godoc
// @Summary  Handicap summary, optionally with course and playing handicap
// @Tags     players
// @Produce  json
// @Param    playerID  path  int true  "Player ID"
// @Param    course_id query int false "Course ID"
// @Success  200 {object} models.HandicapSummary
// @Router   /players/{playerID}/handicap [get]
func (h *PlayerHandler) GetHandicap(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	courseID, err := optionalIntQuery(r, "course_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	summary, err := h.handicapService.Summary(r.Context(), playerID, courseID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, summary, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListRounds godoc
// @Summary  A player's rounds, most recent first
// @Tags     players
// @Produce  json
// @Param    playerID path  int true  "Player ID"
// @Param    limit    query int false "Page size"
// @Success  200 {object} map[string]interface{}
// @Router   /players/{playerID}/rounds [get]
func (h *PlayerHandler) ListRounds(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	limit := defaultRoundsPage
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}

	rounds, err := h.roundService.ListPlayerRounds(r.Context(), playerID, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rounds": rounds}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
