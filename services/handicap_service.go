package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/handicap-system/config"
	"github.com/Dosada05/handicap-system/handicap"
	"github.com/Dosada05/handicap-system/models"
	"github.com/Dosada05/handicap-system/repositories"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// refreshLookback covers every round that may have aged out of the window
// since the last nightly refresh, with slack for missed runs.
const refreshLookback = 400 * 24 * time.Hour

type HandicapService interface {
	// Recompute rewrites both cached indices and the round counters of a
	// player. Pass the surrounding transaction as exec.
	Recompute(ctx context.Context, exec repositories.SQLExecutor, playerID int) (*models.Player, error)
	Summary(ctx context.Context, playerID int, courseID *int) (*models.HandicapSummary, error)
	RefreshActive(ctx context.Context) (int, error)
}

type handicapService struct {
	db         *sql.DB
	playerRepo repositories.PlayerRepository
	roundRepo  repositories.RoundRepository
	courseRepo repositories.CourseRepository
	cfg        config.EngineConfig
	logger     *logrus.Logger
	now        func() time.Time
}

func NewHandicapService(
	db *sql.DB,
	playerRepo repositories.PlayerRepository,
	roundRepo repositories.RoundRepository,
	courseRepo repositories.CourseRepository,
	cfg config.EngineConfig,
	logger *logrus.Logger,
) HandicapService {
	return &handicapService{
		db:         db,
		playerRepo: playerRepo,
		roundRepo:  roundRepo,
		courseRepo: courseRepo,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *handicapService) windowStart(now time.Time) time.Time {
	return now.AddDate(0, 0, -s.cfg.Handicap.WindowDays)
}

func (s *handicapService) Recompute(ctx context.Context, exec repositories.SQLExecutor, playerID int) (*models.Player, error) {
	now := s.now().UTC()
	var updated *models.Player

	err := repositories.WithRetry(ctx, repositories.DefaultMaxRetries, playerID,
		func(ctx context.Context, id int) (*models.Player, error) {
			return s.playerRepo.GetByID(ctx, exec, id)
		},
		func(ctx context.Context, p *models.Player, expected int64) (sql.Result, error) {
			return s.playerRepo.UpdateHandicapIfVersion(ctx, exec, p, expected)
		},
		func(p *models.Player) error {
			rounds, err := s.roundRepo.ListCompletedSince(ctx, exec, p.ID, s.windowStart(now), 0)
			if err != nil {
				return err
			}
			total, verified, err := s.roundRepo.CountCompleted(ctx, exec, p.ID)
			if err != nil {
				return err
			}
			applyHandicap(p, rounds, total, verified, now, s.cfg.Handicap)
			updated = p
			return nil
		},
	)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrPlayerNotFound):
			return nil, ErrPlayerNotFound
		case errors.Is(err, repositories.ErrTooMuchContention):
			return nil, fmt.Errorf("%w: handicap of player %d", ErrConcurrentUpdate, playerID)
		}
		return nil, fmt.Errorf("failed to recompute handicap for player %d: %w", playerID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"player_id":   playerID,
		"provisional": formatIndex(updated.ProvisionalHandicapIndex),
		"verified":    formatIndex(updated.VerifiedHandicapIndex),
		"rounds":      updated.RoundsPlayed,
	}).Info("handicap recomputed")
	updated.PasswordHash = ""
	return updated, nil
}

func (s *handicapService) Summary(ctx context.Context, playerID int, courseID *int) (*models.HandicapSummary, error) {
	now := s.now().UTC()

	var (
		player *models.Player
		rounds []models.Round
		course *models.Course
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.playerRepo.GetByID(gCtx, nil, playerID)
		if err != nil {
			if errors.Is(err, repositories.ErrPlayerNotFound) {
				return ErrPlayerNotFound
			}
			return fmt.Errorf("failed to load player %d: %w", playerID, err)
		}
		player = p
		return nil
	})
	g.Go(func() error {
		rs, err := s.roundRepo.ListCompletedSince(gCtx, nil, playerID, s.windowStart(now), 0)
		if err != nil {
			return fmt.Errorf("failed to load rounds of player %d: %w", playerID, err)
		}
		rounds = rs
		return nil
	})
	if courseID != nil {
		g.Go(func() error {
			c, err := s.courseRepo.GetByID(gCtx, *courseID)
			if err != nil {
				if errors.Is(err, repositories.ErrCourseNotFound) {
					return ErrCourseNotFound
				}
				return fmt.Errorf("failed to load course %d: %w", *courseID, err)
			}
			course = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return buildSummary(player, rounds, course, now, s.cfg.Handicap), nil
}

func buildSummary(player *models.Player, rounds []models.Round, course *models.Course, now time.Time, cfg handicap.Config) *models.HandicapSummary {
	diffs := toDifferentials(rounds)
	stats := handicap.Summarize(diffs, now, cfg)

	summary := &models.HandicapSummary{
		PlayerID:                 player.ID,
		ProvisionalHandicapIndex: player.ProvisionalHandicapIndex,
		VerifiedHandicapIndex:    player.VerifiedHandicapIndex,
		RoundsPlayed:             player.RoundsPlayed,
		VerifiedRounds:           player.VerifiedRounds,
		Trend:                    string(stats.Trend),
		StandardDeviation:        stats.StandardDeviation,
		ConsistencyScore:         stats.ConsistencyScore,
		RecentDifferentials:      []string{},
	}
	for _, d := range handicap.Qualifying(diffs, now, false, cfg) {
		summary.RecentDifferentials = append(summary.RecentDifferentials, d.Differential.StringFixed(1))
	}

	if course != nil {
		// Verified index takes precedence for competition play.
		index := player.VerifiedHandicapIndex
		if index == nil {
			index = player.ProvisionalHandicapIndex
		}
		id := course.ID
		summary.CourseID = &id
		playing := handicap.PlayingHandicap(index, course.SlopeRating)
		summary.PlayingHandicap = &playing
		if index != nil {
			ch := handicap.CourseHandicap(*index, course.SlopeRating)
			summary.CourseHandicap = &ch
		}
	}
	return summary
}

func (s *handicapService) RefreshActive(ctx context.Context) (int, error) {
	ids, err := s.playerRepo.ListIDsWithRoundsSince(ctx, s.now().Add(-refreshLookback))
	if err != nil {
		return 0, fmt.Errorf("failed to list players for handicap refresh: %w", err)
	}

	refreshed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
			_, err := s.Recompute(ctx, tx, id)
			return err
		})
		if err != nil {
			s.logger.WithError(err).WithField("player_id", id).Error("handicap refresh failed")
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

func formatIndex(d *decimal.Decimal) string {
	if d == nil {
		return "none"
	}
	return d.StringFixed(1)
}
