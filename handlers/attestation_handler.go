package handlers

import (
	"net/http"

	"github.com/Dosada05/handicap-system/middleware"
	"github.com/Dosada05/handicap-system/services"
)

type AttestationHandler struct {
	attestationService services.AttestationService
}

func NewAttestationHandler(as services.AttestationService) *AttestationHandler {
	return &AttestationHandler{attestationService: as}
}

type attestationRequest struct {
	AttesterID int `json:"attester_id" validate:"required,gt=0"`
}

// RequestAttestation godoc
// @Summary  Ask another player to vouch for a completed round
// @Tags     attestations
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    roundID path int true "Round ID"
// @Param    input body attestationRequest true "Attester"
// @Success  201 {object} map[string]interface{}
// @Failure  403 {object} map[string]interface{} "self_attestation"
// @Failure  409 {object} map[string]interface{} "duplicate_attestation"
// @Failure  422 {object} map[string]interface{} "round_not_completed"
// @Router   /rounds/{roundID}/attestations [post]
func (h *AttestationHandler) RequestAttestation(w http.ResponseWriter, r *http.Request) {
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

	var input attestationRequest
	if !decodeAndValidate(w, r, &input) {
		return
	}

	att, err := h.attestationService.Request(r.Context(), playerID, roundID, input.AttesterID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"attestation": att}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Respond godoc
// @Summary  Approve or reject a pending attestation
// @Tags     attestations
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    attestationID path int true "Attestation ID"
// @Param    input body services.RespondInput true "Response"
// @Success  200 {object} services.AttestationOutcome
// @Failure  409 {object} map[string]interface{} "already_responded"
// @Router   /attestations/{attestationID}/respond [post]
func (h *AttestationHandler) Respond(w http.ResponseWriter, r *http.Request) {
	attestationID, err := getIDFromURL(r, "attestationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current player")
		return
	}

	var input services.RespondInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	outcome, err := h.attestationService.Respond(r.Context(), playerID, attestationID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, outcome, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListPending godoc
// @Summary  Attestations waiting on the current player
// @Tags     attestations
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} map[string]interface{}
// @Router   /attestations/pending [get]
func (h *AttestationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	playerID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current player")
		return
	}

	pending, err := h.attestationService.ListPending(r.Context(), playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"attestations": pending}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
