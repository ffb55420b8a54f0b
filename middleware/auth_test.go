package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/handicap-system/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func echoPlayer(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetPlayerIDFromContext(r.Context())
		require.NoError(t, err)
		role, err := GetRoleFromContext(r.Context())
		require.NoError(t, err)
		w.Header().Set("X-Player", string(role))
		w.WriteHeader(200 + id%2)
	})
}

func TestAuthenticate(t *testing.T) {
	token, err := IssueToken([]byte(secret), &models.Player{ID: 7, Role: models.RolePlayer}, time.Now())
	require.NoError(t, err)
	h := Authenticate(secret)(echoPlayer(t))

	t.Run("header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/players/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, 201, rec.Code)
		assert.Equal(t, "player", rec.Header().Get("X-Player"))
	})

	t.Run("query", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ws/rounds/3?token="+token, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, 201, rec.Code)
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/players/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := IssueToken([]byte("other"), &models.Player{ID: 7, Role: models.RolePlayer}, time.Now())
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/players/me", nil)
		req.Header.Set("Authorization", "Bearer "+other)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired", func(t *testing.T) {
		old, err := IssueToken([]byte(secret), &models.Player{ID: 7, Role: models.RolePlayer}, time.Now().Add(-48*time.Hour))
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/players/me", nil)
		req.Header.Set("Authorization", "Bearer "+old)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequireAdmin(ok)

	req := httptest.NewRequest(http.MethodPost, "/rounds/1/rescore", nil)
	req = req.WithContext(WithClaims(req.Context(), jwt.MapClaims{"player_id": float64(1), "role": "admin"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/rounds/1/rescore", nil)
	req = req.WithContext(WithClaims(req.Context(), jwt.MapClaims{"player_id": float64(2), "role": "player"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetPlayerIDFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetPlayerIDFromContext(req.Context())
	assert.Error(t, err)

	ctx := WithClaims(req.Context(), jwt.MapClaims{"player_id": "12"})
	id, err := GetPlayerIDFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	ctx = WithClaims(req.Context(), jwt.MapClaims{"player_id": 1.5})
	_, err = GetPlayerIDFromContext(ctx)
	assert.Error(t, err)

	ctx = WithClaims(req.Context(), jwt.MapClaims{"player_id": float64(0)})
	_, err = GetPlayerIDFromContext(ctx)
	assert.Error(t, err)
}
