package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/handicap-system/models"
	"github.com/Dosada05/handicap-system/repositories"
	"github.com/Dosada05/handicap-system/utils"
	"github.com/sirupsen/logrus"
)

const MinPasswordLength = 8

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.Player, error)
	Login(ctx context.Context, input LoginInput) (*models.Player, error)
}

type RegisterInput struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"max=100"`
	Nickname  *string `json:"nickname" validate:"omitempty,min=2,max=50"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     *string `json:"phone" validate:"omitempty,e164"`
	Password  string  `json:"password" validate:"required"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authService struct {
	playerRepo repositories.PlayerRepository
	logger     *logrus.Logger
}

func NewAuthService(playerRepo repositories.PlayerRepository, logger *logrus.Logger) AuthService {
	return &authService{
		playerRepo: playerRepo,
		logger:     logger,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.Player, error) {
	email := utils.NormalizeEmail(input.Email)
	if !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: invalid email", ErrValidationFailed)
	}
	if strings.TrimSpace(input.FirstName) == "" {
		return nil, fmt.Errorf("%w: first name is required", ErrValidationFailed)
	}
	if len(input.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	player := &models.Player{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Nickname:     input.Nickname,
		Email:        email,
		Phone:        input.Phone,
		PasswordHash: hash,
		Role:         models.RolePlayer,
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		switch {
		case errors.Is(err, repositories.ErrPlayerEmailConflict):
			return nil, ErrPlayerEmailConflict
		case errors.Is(err, repositories.ErrPlayerNicknameConflict):
			return nil, ErrPlayerNicknameConflict
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	s.logger.WithField("player_id", player.ID).Info("player registered")
	player.PasswordHash = ""
	return player, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.Player, error) {
	player, err := s.playerRepo.GetByEmail(ctx, utils.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find player by email: %w", err)
	}

	if !utils.CheckPasswordHash(input.Password, player.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	player.PasswordHash = ""
	return player, nil
}
