package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/handicap-system/attestation"
	"github.com/Dosada05/handicap-system/middleware"
	"github.com/Dosada05/handicap-system/models"
	"github.com/Dosada05/handicap-system/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{"self attestation", &attestation.Rejection{Reason: attestation.ReasonSelfAttestation}, http.StatusForbidden, "self_attestation"},
		{"duplicate", &attestation.Rejection{Reason: attestation.ReasonDuplicateAttestation}, http.StatusConflict, "duplicate_attestation"},
		{"already responded", fmt.Errorf("respond: %w", &attestation.Rejection{Reason: attestation.ReasonAlreadyResponded}), http.StatusConflict, "already_responded"},
		{"not completed", &attestation.Rejection{Reason: attestation.ReasonRoundNotCompleted}, http.StatusUnprocessableEntity, "round_not_completed"},
		{"round missing", services.ErrRoundNotFound, http.StatusNotFound, ""},
		{"email taken", services.ErrPlayerEmailConflict, http.StatusConflict, ""},
		{"bad holes", fmt.Errorf("%w: par 7", services.ErrCourseHolesInvalid), http.StatusBadRequest, ""},
		{"no scores", services.ErrRoundHasNoScores, http.StatusUnprocessableEntity, ""},
		{"credentials", services.ErrInvalidCredentials, http.StatusUnauthorized, ""},
		{"forbidden", services.ErrForbiddenOperation, http.StatusForbidden, ""},
		{"storage off", services.ErrScorecardStorageDisabled, http.StatusServiceUnavailable, ""},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantReason != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantReason, body["reason"])
			}
		})
	}
}

type stubAttestations struct {
	services.AttestationService
	gotAttester int
	gotID       int
	gotInput    services.RespondInput
	err         error
}

func (s *stubAttestations) Respond(_ context.Context, attesterID, attestationID int, input services.RespondInput) (*services.AttestationOutcome, error) {
	s.gotAttester, s.gotID, s.gotInput = attesterID, attestationID, input
	if s.err != nil {
		return nil, s.err
	}
	return &services.AttestationOutcome{
		Attestation:   &models.Attestation{ID: attestationID, IsApproved: *input.Approved},
		Status:        models.VerificationVerified,
		StatusChanged: true,
		ApprovedCount: 1,
	}, nil
}

func (s *stubAttestations) Request(_ context.Context, requesterID, roundID, attesterID int) (*models.Attestation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Attestation{ID: 1, RoundID: roundID, RequesterPlayerID: requesterID, AttesterID: attesterID}, nil
}

func asPlayer(id int, role models.PlayerRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithClaims(r.Context(), jwt.MapClaims{"player_id": float64(id), "role": string(role)})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func attestationRouter(svc services.AttestationService, playerID int) http.Handler {
	h := NewAttestationHandler(svc)
	r := chi.NewRouter()
	r.Use(asPlayer(playerID, models.RolePlayer))
	r.Post("/rounds/{roundID}/attestations", h.RequestAttestation)
	r.Post("/attestations/{attestationID}/respond", h.Respond)
	return r
}

func TestRespondHandler(t *testing.T) {
	svc := &stubAttestations{}
	router := attestationRouter(svc, 9)

	req := httptest.NewRequest(http.MethodPost, "/attestations/4/respond",
		strings.NewReader(`{"approved": true, "latitude": 51.508, "longitude": -0.1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 9, svc.gotAttester)
	assert.Equal(t, 4, svc.gotID)
	require.NotNil(t, svc.gotInput.Latitude)
	assert.Equal(t, 51.508, *svc.gotInput.Latitude)

	var out services.AttestationOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, models.VerificationVerified, out.Status)
	assert.True(t, out.StatusChanged)
}

func TestRespondHandlerValidation(t *testing.T) {
	router := attestationRouter(&stubAttestations{}, 9)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing decision", `{"comments": "saw it"}`, http.StatusUnprocessableEntity},
		{"bad latitude", `{"approved": true, "latitude": 120}`, http.StatusUnprocessableEntity},
		{"unknown field", `{"approved": true, "score": 70}`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/attestations/4/respond", strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRespondHandlerAlreadyResponded(t *testing.T) {
	router := attestationRouter(&stubAttestations{err: &attestation.Rejection{Reason: attestation.ReasonAlreadyResponded}}, 9)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/attestations/4/respond", strings.NewReader(`{"approved": false}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already_responded")
}

func TestRequestAttestationHandler(t *testing.T) {
	router := attestationRouter(&stubAttestations{}, 5)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rounds/77/attestations", strings.NewReader(`{"attester_id": 9}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Attestation models.Attestation `json:"attestation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 77, body.Attestation.RoundID)
	assert.Equal(t, 5, body.Attestation.RequesterPlayerID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rounds/abc/attestations", strings.NewReader(`{"attester_id": 9}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubHandicaps struct {
	services.HandicapService
	gotCourse *int
}

func (s *stubHandicaps) Summary(_ context.Context, playerID int, courseID *int) (*models.HandicapSummary, error) {
	s.gotCourse = courseID
	if playerID == 404 {
		return nil, services.ErrPlayerNotFound
	}
	return &models.HandicapSummary{PlayerID: playerID, Trend: "stable", RecentDifferentials: []string{}}, nil
}

func TestGetHandicapHandler(t *testing.T) {
	svc := &stubHandicaps{}
	h := NewPlayerHandler(svc, nil)
	r := chi.NewRouter()
	r.Get("/players/{playerID}/handicap", h.GetHandicap)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/players/5/handicap?course_id=4", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.gotCourse)
	assert.Equal(t, 4, *svc.gotCourse)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/players/5/handicap?course_id=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/players/404/handicap", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type stubAuth struct {
	services.AuthService
}

func (stubAuth) Login(_ context.Context, input services.LoginInput) (*models.Player, error) {
	if input.Password != "fairway-123" {
		return nil, services.ErrInvalidCredentials
	}
	return &models.Player{ID: 5, Email: input.Email, Role: models.RolePlayer}, nil
}

func TestLoginIssuesToken(t *testing.T) {
	h := NewAuthHandler(stubAuth{}, "secret")

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"sam@example.com","password":"fairway-123"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	protected := middleware.Authenticate("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := middleware.GetPlayerIDFromContext(r.Context())
		require.NoError(t, err)
		assert.Equal(t, 5, id)
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/attestations/pending", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"sam@example.com","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"not-an-email","password":"x"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://golf.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/ws/rounds/1", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://golf.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}
