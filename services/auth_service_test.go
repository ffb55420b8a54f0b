package services

import (
	"context"
	"testing"

	"github.com/Dosada05/handicap-system/models"
	"github.com/Dosada05/handicap-system/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryPlayers struct {
	repositories.PlayerRepository
	byEmail map[string]*models.Player
}

func (m *memoryPlayers) Create(_ context.Context, p *models.Player) error {
	if _, ok := m.byEmail[p.Email]; ok {
		return repositories.ErrPlayerEmailConflict
	}
	p.ID = len(m.byEmail) + 1
	stored := *p
	m.byEmail[p.Email] = &stored
	return nil
}

func (m *memoryPlayers) GetByEmail(_ context.Context, email string) (*models.Player, error) {
	p, ok := m.byEmail[email]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	cp := *p
	return &cp, nil
}

func TestRegisterAndLogin(t *testing.T) {
	svc := NewAuthService(&memoryPlayers{byEmail: map[string]*models.Player{}}, quietLogger())
	ctx := context.Background()

	p, err := svc.Register(ctx, RegisterInput{FirstName: "Ana", Email: "  Ana@Example.com ", Password: "fairway-123"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", p.Email)
	assert.Equal(t, models.RolePlayer, p.Role)
	assert.Empty(t, p.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{FirstName: "Ana", Email: "ana@example.com", Password: "fairway-123"})
	assert.ErrorIs(t, err, ErrPlayerEmailConflict)

	logged, err := svc.Login(ctx, LoginInput{Email: "ANA@example.com", Password: "fairway-123"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, logged.ID)
	assert.Empty(t, logged.PasswordHash)

	_, err = svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "fairway-123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(&memoryPlayers{byEmail: map[string]*models.Player{}}, quietLogger())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{FirstName: "Ana", Email: "not-an-email", Password: "fairway-123"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.Register(ctx, RegisterInput{FirstName: "Ana", Email: "ana@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = svc.Register(ctx, RegisterInput{FirstName: " ", Email: "ana@example.com", Password: "fairway-123"})
	assert.ErrorIs(t, err, ErrValidationFailed)
}
