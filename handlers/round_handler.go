package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/handicap-system/middleware"
	"github.com/Dosada05/handicap-system/services"
)

const maxScorecardBytes = 10 << 20

type RoundHandler struct {
	roundService services.RoundService
}

func NewRoundHandler(rs services.RoundService) *RoundHandler {
	return &RoundHandler{roundService: rs}
}

type rescoreRequest struct {
	Corrections []services.HoleScoreInput `json:"corrections" validate:"required,min=1,dive"`
}

// StartRound godoc
// @Summary  Tee off a new round
// @Tags     rounds
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    input body services.StartRoundInput true "Round"
// @Success  201 {object} map[string]interface{}
// @Router   /rounds [post]
func (h *RoundHandler) StartRound(w http.ResponseWriter, r *http.Request) {
	playerID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current player")
		return
	}

	var input services.StartRoundInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	round, err := h.roundService.StartRound(r.Context(), playerID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordHoleScore godoc
// @Summary  Record or overwrite a hole score on an open round
// @Tags     rounds
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    roundID    path int true "Round ID"
// @Param    holeNumber path int true "Hole number"
// @Param    input body services.HoleScoreInput true "Hole score"
// @Success  200 {object} map[string]interface{}
// @Router   /rounds/{roundID}/holes/{holeNumber} [put]
func (h *RoundHandler) RecordHoleScore(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current player")
		return
	}

	holeNumber, err := getIDFromURL(r, "holeNumber")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.HoleScoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.HoleNumber = holeNumber
	if !validateInput(w, r, &input) {
		return
	}

	score, err := h.roundService.RecordHoleScore(r.Context(), playerID, roundID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"hole_score": score}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CompleteRound godoc
// @Summary  Complete a round and score it
// @Tags     rounds
// @Produce  json
// @Security BearerAuth
// @Param    roundID path int true "Round ID"
// @Success  200 {object} services.RoundEvaluation
// @Router   /rounds/{roundID}/complete [post]
func (h *RoundHandler) CompleteRound(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current player")
		return
	}

	result, err := h.roundService.CompleteRound(r.Context(), playerID, roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Rescore godoc
// @Summary  Correct hole scores on a completed round and re-evaluate it
// @Tags     rounds
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    roundID path int true "Round ID"
// @Param    input body rescoreRequest true "Corrections"
// @Success  200 {object} services.RoundEvaluation
// @Router   /rounds/{roundID}/rescore [post]
func (h *RoundHandler) Rescore(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, err := currentActor(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current player")
		return
	}

	var input rescoreRequest
	if !decodeAndValidate(w, r, &input) {
		return
	}

	result, err := h.roundService.Rescore(r.Context(), actor, roundID, input.Corrections)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetRound godoc
// @Summary  Get a round with its hole scores and attestations
// @Tags     rounds
// @Produce  json
// @Param    roundID path int true "Round ID"
// @Success  200 {object} map[string]interface{}
// @Router   /rounds/{roundID} [get]
func (h *RoundHandler) GetRound(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.roundService.GetRound(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadScorecard godoc
// @Summary  Attach a photo of the signed paper scorecard
// @Tags     rounds
// @Accept   multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param    roundID path int true "Round ID"
// @Param    scorecard formData file true "Scorecard image or PDF"
// @Success  200 {object} map[string]interface{}
// @Router   /rounds/{roundID}/scorecard [post]
func (h *RoundHandler) UploadScorecard(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current player")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxScorecardBytes)
	file, header, err := r.FormFile("scorecard")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content type required"))
		return
	}

	round, err := h.roundService.UploadScorecard(r.Context(), playerID, roundID, file, contentType)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
