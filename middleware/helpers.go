package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Dosada05/handicap-system/models"
	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const playerContextKey contextKey = "player"

const (
	jwtClaimPlayerID = "player_id"
	jwtClaimRole     = "role"
)

// WithClaims stores claims the way Authenticate does.
func WithClaims(ctx context.Context, claims jwt.MapClaims) context.Context {
	return context.WithValue(ctx, playerContextKey, claims)
}

func GetPlayerIDFromContext(ctx context.Context) (int, error) {
	claims, ok := ctx.Value(playerContextKey).(jwt.MapClaims)
	if !ok {
		return 0, errors.New("player claims not found in context")
	}

	raw, ok := claims[jwtClaimPlayerID]
	if !ok {
		return 0, fmt.Errorf("missing '%s' claim in token", jwtClaimPlayerID)
	}

	var id int
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("'%s' claim is not an integer: %f", jwtClaimPlayerID, v)
		}
		id = int(v)
	case int:
		id = v
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid '%s' claim: %q", jwtClaimPlayerID, v)
		}
		id = parsed
	default:
		return 0, fmt.Errorf("invalid type for '%s' claim: %T", jwtClaimPlayerID, raw)
	}

	if id <= 0 {
		return 0, fmt.Errorf("invalid player ID in '%s' claim: %d", jwtClaimPlayerID, id)
	}
	return id, nil
}

func GetRoleFromContext(ctx context.Context) (models.PlayerRole, error) {
	claims, ok := ctx.Value(playerContextKey).(jwt.MapClaims)
	if !ok {
		return "", errors.New("player claims not found in context")
	}

	roleStr, ok := claims[jwtClaimRole].(string)
	if !ok {
		return "", fmt.Errorf("missing or invalid '%s' claim", jwtClaimRole)
	}

	role := models.PlayerRole(roleStr)
	switch role {
	case models.RoleAdmin, models.RolePlayer:
		return role, nil
	default:
		return "", fmt.Errorf("invalid role value in claim: %q", roleStr)
	}
}
