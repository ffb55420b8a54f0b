package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Dosada05/handicap-system/middleware"
	"github.com/Dosada05/handicap-system/services"
)

type AuthHandler struct {
	authService services.AuthService
	jwtSecret   []byte
}

func NewAuthHandler(authService services.AuthService, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtSecret:   []byte(jwtSecret),
	}
}

// Register godoc
// @Summary  Register a player
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    input body services.RegisterInput true "New player"
// @Success  201 {object} map[string]interface{}
// @Failure  409 {object} map[string]interface{}
// @Router   /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	player, err := h.authService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Login godoc
// @Summary  Exchange credentials for a bearer token
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    input body services.LoginInput true "Credentials"
// @Success  200 {object} map[string]interface{}
// @Failure  401 {object} map[string]interface{}
// @Router   /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	player, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	token, err := middleware.IssueToken(h.jwtSecret, player, time.Now())
	if err != nil {
		serverErrorResponse(w, r, fmt.Errorf("failed to sign token: %w", err))
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"token": token, "player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
