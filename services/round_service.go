package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Dosada05/handicap-system/config"
	"github.com/Dosada05/handicap-system/fraud"
	"github.com/Dosada05/handicap-system/models"
	"github.com/Dosada05/handicap-system/realtime"
	"github.com/Dosada05/handicap-system/repositories"
	"github.com/Dosada05/handicap-system/storage"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// historyLimit bounds the prior rounds the fraud scorer sees.
const historyLimit = 20

// Broadcaster is the realtime fan-out the services publish to.
type Broadcaster interface {
	BroadcastToRoom(room string, msgType string, payload interface{})
}

// Actor is the authenticated player performing an operation.
type Actor struct {
	PlayerID int
	Role     models.PlayerRole
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

type StartRoundInput struct {
	CourseID  int        `json:"course_id" validate:"required,gt=0"`
	TeeColor  string     `json:"tee_color" validate:"max=20"`
	StartedAt *time.Time `json:"started_at"`
	Latitude  *float64   `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64   `json:"longitude" validate:"omitempty,longitude"`
}

type HoleScoreInput struct {
	HoleNumber int   `json:"hole_number" validate:"required,min=1,max=18"`
	Strokes    int   `json:"strokes" validate:"required,min=1,max=20"`
	Putts      *int  `json:"putts" validate:"omitempty,min=0,max=10"`
	FairwayHit *bool `json:"fairway_hit"`
	GreenInReg *bool `json:"green_in_regulation"`
	Penalties  int   `json:"penalties" validate:"min=0,max=10"`
}

type RoundEvaluation struct {
	Round         *models.Round             `json:"round"`
	Status        models.VerificationStatus `json:"status"`
	StatusChanged bool                      `json:"status_changed"`
	Player        *models.Player            `json:"player,omitempty"`
}

type VerificationChange struct {
	RoundID           int                       `json:"round_id"`
	Status            models.VerificationStatus `json:"status"`
	VerificationCount int                       `json:"verification_count"`
	FraudRiskScore    string                    `json:"fraud_risk_score"`
}

type RoundService interface {
	StartRound(ctx context.Context, playerID int, input StartRoundInput) (*models.Round, error)
	RecordHoleScore(ctx context.Context, playerID, roundID int, input HoleScoreInput) (*models.HoleScore, error)
	CompleteRound(ctx context.Context, playerID, roundID int) (*RoundEvaluation, error)
	Rescore(ctx context.Context, actor Actor, roundID int, corrections []HoleScoreInput) (*RoundEvaluation, error)
	GetRound(ctx context.Context, roundID int) (*models.Round, error)
	ListPlayerRounds(ctx context.Context, playerID, limit int) ([]models.Round, error)
	UploadScorecard(ctx context.Context, playerID, roundID int, file io.Reader, contentType string) (*models.Round, error)
}

type roundService struct {
	db              *sql.DB
	roundRepo       repositories.RoundRepository
	courseRepo      repositories.CourseRepository
	playerRepo      repositories.PlayerRepository
	attestationRepo repositories.AttestationRepository
	handicapService HandicapService
	uploader        storage.FileUploader
	hub             Broadcaster
	cfg             config.EngineConfig
	logger          *logrus.Logger
	now             func() time.Time
}

func NewRoundService(
	db *sql.DB,
	roundRepo repositories.RoundRepository,
	courseRepo repositories.CourseRepository,
	playerRepo repositories.PlayerRepository,
	attestationRepo repositories.AttestationRepository,
	handicapService HandicapService,
	uploader storage.FileUploader,
	hub Broadcaster,
	cfg config.EngineConfig,
	logger *logrus.Logger,
) RoundService {
	return &roundService{
		db:              db,
		roundRepo:       roundRepo,
		courseRepo:      courseRepo,
		playerRepo:      playerRepo,
		attestationRepo: attestationRepo,
		handicapService: handicapService,
		uploader:        uploader,
		hub:             hub,
		cfg:             cfg,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *roundService) getCourse(ctx context.Context, id int) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCourseNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to load course %d: %w", id, err)
	}
	return course, nil
}

func (s *roundService) getRound(ctx context.Context, exec repositories.SQLExecutor, id int, forUpdate bool) (*models.Round, error) {
	var (
		round *models.Round
		err   error
	)
	if forUpdate {
		round, err = s.roundRepo.GetForUpdate(ctx, exec, id)
	} else {
		round, err = s.roundRepo.GetByID(ctx, exec, id)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	return round, nil
}

func (s *roundService) StartRound(ctx context.Context, playerID int, input StartRoundInput) (*models.Round, error) {
	course, err := s.getCourse(ctx, input.CourseID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	startedAt := now
	if input.StartedAt != nil {
		if input.StartedAt.After(now.Add(5 * time.Minute)) {
			return nil, ErrRoundStartInFuture
		}
		startedAt = input.StartedAt.UTC()
	}

	round := &models.Round{
		PlayerID:       playerID,
		CourseID:       course.ID,
		TeeColor:       input.TeeColor,
		StartedAt:      startedAt,
		StartLatitude:  input.Latitude,
		StartLongitude: input.Longitude,
	}
	round.LocationVerified = fraud.StartVerified(round, course)

	if err := s.roundRepo.Create(ctx, round); err != nil {
		if errors.Is(err, repositories.ErrRoundPlayerInvalid) {
			return nil, fmt.Errorf("%w: unknown player or course", ErrValidationFailed)
		}
		return nil, fmt.Errorf("failed to start round: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"round_id":          round.ID,
		"player_id":         playerID,
		"course_id":         course.ID,
		"location_verified": round.LocationVerified,
	}).Info("round started")
	return round, nil
}

func (s *roundService) RecordHoleScore(ctx context.Context, playerID, roundID int, input HoleScoreInput) (*models.HoleScore, error) {
	var score *models.HoleScore
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		score, err = s.recordHole(ctx, tx, playerID, roundID, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return score, nil
}

// recordHole writes a hole while holding the round row lock, so it either
// lands before completion reads the card or sees the round completed.
func (s *roundService) recordHole(ctx context.Context, exec repositories.SQLExecutor, playerID, roundID int, input HoleScoreInput) (*models.HoleScore, error) {
	round, err := s.getRound(ctx, exec, roundID, true)
	if err != nil {
		return nil, err
	}
	if round.PlayerID != playerID {
		return nil, ErrForbiddenOperation
	}
	if round.IsCompleted() {
		return nil, ErrRoundAlreadyCompleted
	}
	course, err := s.getCourse(ctx, round.CourseID)
	if err != nil {
		return nil, err
	}

	score, err := newHoleScore(round.ID, course, input, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.roundRepo.UpsertHoleScore(ctx, exec, score); err != nil {
		return nil, fmt.Errorf("failed to record hole %d of round %d: %w", input.HoleNumber, roundID, err)
	}
	return score, nil
}

func newHoleScore(roundID int, course *models.Course, input HoleScoreInput, now time.Time) (*models.HoleScore, error) {
	if course.HoleByNumber(input.HoleNumber) == nil {
		return nil, fmt.Errorf("%w: hole %d", ErrHoleNotOnCourse, input.HoleNumber)
	}
	if input.Strokes < 1 {
		return nil, fmt.Errorf("%w: strokes must be positive", ErrValidationFailed)
	}
	if input.Putts != nil && *input.Putts > input.Strokes {
		return nil, fmt.Errorf("%w: putts exceed strokes", ErrValidationFailed)
	}
	return &models.HoleScore{
		RoundID:    roundID,
		HoleNumber: input.HoleNumber,
		Strokes:    input.Strokes,
		Putts:      input.Putts,
		FairwayHit: input.FairwayHit,
		GreenInReg: input.GreenInReg,
		Penalties:  input.Penalties,
		RecordedAt: now,
	}, nil
}

func (s *roundService) CompleteRound(ctx context.Context, playerID, roundID int) (*RoundEvaluation, error) {
	round, err := s.getRound(ctx, nil, roundID, false)
	if err != nil {
		return nil, err
	}
	if round.PlayerID != playerID {
		return nil, ErrForbiddenOperation
	}
	if round.IsCompleted() {
		return nil, ErrRoundAlreadyCompleted
	}

	now := s.now().UTC()
	snap := roundSnapshot{Round: round}
	var (
		history    []models.Round
		priorCount int
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.getCourse(gCtx, round.CourseID)
		snap.Course = c
		return err
	})
	g.Go(func() error {
		p, err := s.playerRepo.GetByID(gCtx, nil, playerID)
		if err != nil {
			return fmt.Errorf("failed to load player %d: %w", playerID, err)
		}
		snap.Player = p
		return nil
	})
	g.Go(func() error {
		rs, err := s.roundRepo.ListCompletedBetween(gCtx, nil, playerID, now.AddDate(-1, 0, 0), now, historyLimit)
		history = rs
		return err
	})
	g.Go(func() error {
		n, err := s.roundRepo.CountCompletedBefore(gCtx, nil, playerID, now)
		priorCount = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var result *RoundEvaluation
	err = withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		result, err = s.finishRound(ctx, tx, snap, history, priorCount, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logEvaluation(result.Round, "round completed")
	if result.StatusChanged {
		s.publishVerification(result.Round)
	}
	return result, nil
}

// finishRound evaluates and stores the round under its row lock. The card
// is read after locking so no hole can slip past the evaluation.
func (s *roundService) finishRound(ctx context.Context, exec repositories.SQLExecutor, snap roundSnapshot, history []models.Round, priorCount int, now time.Time) (*RoundEvaluation, error) {
	round, err := s.getRound(ctx, exec, snap.Round.ID, true)
	if err != nil {
		return nil, err
	}
	if round.IsCompleted() {
		return nil, ErrRoundAlreadyCompleted
	}
	if round.HoleScores, err = s.roundRepo.ListHoleScores(ctx, exec, round.ID); err != nil {
		return nil, err
	}
	if len(round.HoleScores) == 0 {
		return nil, ErrRoundHasNoScores
	}

	round.CompletedAt = &now
	round.Attestations = nil
	snap.Round = round
	snap.History = buildHistory(history, round, priorCount, playerIndex(snap.Player))
	ev := evaluateCompletedRound(snap, s.cfg)

	if err := s.roundRepo.SaveEvaluation(ctx, exec, round); err != nil {
		return nil, fmt.Errorf("failed to save round %d: %w", round.ID, err)
	}
	player, err := s.handicapService.Recompute(ctx, exec, round.PlayerID)
	if err != nil {
		return nil, err
	}
	return &RoundEvaluation{Round: round, Status: ev.Decision.Status, StatusChanged: ev.Changed, Player: player}, nil
}

func (s *roundService) Rescore(ctx context.Context, actor Actor, roundID int, corrections []HoleScoreInput) (*RoundEvaluation, error) {
	var result *RoundEvaluation
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		result, err = s.rescoreRound(ctx, tx, actor, roundID, corrections)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logEvaluation(result.Round, "round rescored")
	if result.StatusChanged {
		s.publishVerification(result.Round)
	}
	return result, nil
}

func (s *roundService) rescoreRound(ctx context.Context, exec repositories.SQLExecutor, actor Actor, roundID int, corrections []HoleScoreInput) (*RoundEvaluation, error) {
	round, err := s.getRound(ctx, exec, roundID, true)
	if err != nil {
		return nil, err
	}
	if round.PlayerID != actor.PlayerID && !actor.IsAdmin() {
		return nil, ErrForbiddenOperation
	}
	if !round.IsCompleted() {
		return nil, ErrRoundNotCompleted
	}
	course, err := s.getCourse(ctx, round.CourseID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	for _, c := range corrections {
		score, err := newHoleScore(round.ID, course, c, now)
		if err != nil {
			return nil, err
		}
		if err := s.roundRepo.UpsertHoleScore(ctx, exec, score); err != nil {
			return nil, fmt.Errorf("failed to correct hole %d: %w", c.HoleNumber, err)
		}
	}
	if len(corrections) > 0 {
		// A corrected card replaces the reported total.
		round.TotalStrokes = nil
	}

	if round.HoleScores, err = s.roundRepo.ListHoleScores(ctx, exec, round.ID); err != nil {
		return nil, err
	}
	if round.Attestations, err = s.attestationRepo.ListByRound(ctx, exec, round.ID); err != nil {
		return nil, err
	}
	player, err := s.playerRepo.GetByID(ctx, exec, round.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load player %d: %w", round.PlayerID, err)
	}
	// Only rounds finished before this one count as its history, however
	// many were played since.
	completedAt := *round.CompletedAt
	history, err := s.roundRepo.ListCompletedBetween(ctx, exec, round.PlayerID, completedAt.AddDate(-1, 0, 0), completedAt, historyLimit)
	if err != nil {
		return nil, err
	}
	prior, err := s.roundRepo.CountCompletedBefore(ctx, exec, round.PlayerID, completedAt)
	if err != nil {
		return nil, err
	}

	snap := roundSnapshot{
		Round:   round,
		Course:  course,
		Player:  player,
		History: buildHistory(history, round, prior, playerIndex(player)),
	}
	ev := evaluateCompletedRound(snap, s.cfg)
	if err := s.roundRepo.SaveEvaluation(ctx, exec, round); err != nil {
		return nil, fmt.Errorf("failed to save round %d: %w", roundID, err)
	}
	updated, err := s.handicapService.Recompute(ctx, exec, round.PlayerID)
	if err != nil {
		return nil, err
	}
	return &RoundEvaluation{Round: round, Status: ev.Decision.Status, StatusChanged: ev.Changed, Player: updated}, nil
}

func (s *roundService) logEvaluation(round *models.Round, msg string) {
	entry := s.logger.WithFields(logrus.Fields{
		"round_id":      round.ID,
		"player_id":     round.PlayerID,
		"differential":  formatIndex(round.ScoreDifferential),
		"fraud_score":   round.FraudRiskScore.String(),
		"fraud_factors": []string(round.FraudRiskFactors),
		"status":        round.Status(),
	})
	if round.FraudRiskScore.GreaterThanOrEqual(s.cfg.Attestation.FraudThreshold) {
		entry.Warn(msg + " with high fraud risk")
		return
	}
	entry.Info(msg)
}

func (s *roundService) publishVerification(round *models.Round) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(realtime.RoundRoom(round.ID), realtime.MessageRoundVerificationChanged, VerificationChange{
		RoundID:           round.ID,
		Status:            round.Status(),
		VerificationCount: round.VerificationCount,
		FraudRiskScore:    round.FraudRiskScore.StringFixed(2),
	})
}

func (s *roundService) GetRound(ctx context.Context, roundID int) (*models.Round, error) {
	round, err := s.getRound(ctx, nil, roundID, false)
	if err != nil {
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scores, err := s.roundRepo.ListHoleScores(gCtx, nil, roundID)
		round.HoleScores = scores
		return err
	})
	g.Go(func() error {
		atts, err := s.attestationRepo.ListByRound(gCtx, nil, roundID)
		round.Attestations = atts
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.populateScorecardURL(round)
	return round, nil
}

func (s *roundService) ListPlayerRounds(ctx context.Context, playerID, limit int) ([]models.Round, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rounds, err := s.roundRepo.ListByPlayer(ctx, playerID, limit)
	if err != nil {
		return nil, err
	}
	if rounds == nil {
		return []models.Round{}, nil
	}
	for i := range rounds {
		s.populateScorecardURL(&rounds[i])
	}
	return rounds, nil
}

func (s *roundService) populateScorecardURL(round *models.Round) {
	if s.uploader == nil || round.ScorecardKey == nil || *round.ScorecardKey == "" {
		return
	}
	if u := s.uploader.GetPublicURL(*round.ScorecardKey); u != "" {
		round.ScorecardURL = &u
	}
}

func (s *roundService) UploadScorecard(ctx context.Context, playerID, roundID int, file io.Reader, contentType string) (*models.Round, error) {
	if s.uploader == nil {
		return nil, ErrScorecardStorageDisabled
	}
	round, err := s.getRound(ctx, nil, roundID, false)
	if err != nil {
		return nil, err
	}
	if round.PlayerID != playerID {
		return nil, ErrForbiddenOperation
	}

	ext, err := storage.ExtensionForContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFileType, err)
	}
	key := storage.ScorecardKey(roundID, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload scorecard for round %d: %w", roundID, err)
	}

	previous := round.ScorecardKey
	if err := s.roundRepo.SetScorecardKey(ctx, roundID, key); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.WithError(delErr).WithField("key", key).Warn("failed to remove orphaned scorecard")
		}
		return nil, fmt.Errorf("failed to save scorecard for round %d: %w", roundID, err)
	}
	if previous != nil && *previous != "" {
		if err := s.uploader.Delete(ctx, *previous); err != nil {
			s.logger.WithError(err).WithField("key", *previous).Warn("failed to delete replaced scorecard")
		}
	}

	round.ScorecardKey = &key
	s.populateScorecardURL(round)
	return round, nil
}
