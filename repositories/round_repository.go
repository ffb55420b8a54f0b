package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/handicap-system/models"
	"github.com/shopspring/decimal"
)

var (
	ErrRoundNotFound       = errors.New("round not found")
	ErrRoundPlayerInvalid  = errors.New("round player or course invalid")
	ErrRoundStatusConflict = errors.New("round verification state invalid")
)

type RoundRepository interface {
	Create(ctx context.Context, round *models.Round) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Round, error)
	// GetForUpdate locks the round row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, tx SQLExecutor, id int) (*models.Round, error)
	ListHoleScores(ctx context.Context, exec SQLExecutor, roundID int) ([]models.HoleScore, error)
	UpsertHoleScore(ctx context.Context, exec SQLExecutor, score *models.HoleScore) error
	SaveEvaluation(ctx context.Context, exec SQLExecutor, round *models.Round) error
	UpdateVerification(ctx context.Context, exec SQLExecutor, round *models.Round) error
	SetScorecardKey(ctx context.Context, id int, key string) error
	ListByPlayer(ctx context.Context, playerID, limit int) ([]models.Round, error)
	// ListCompletedSince returns completed rounds, most recent first. A
	// non-positive limit returns every match.
	ListCompletedSince(ctx context.Context, exec SQLExecutor, playerID int, since time.Time, limit int) ([]models.Round, error)
	// ListCompletedBetween is ListCompletedSince bounded above: only rounds
	// completed in [from, to) are returned.
	ListCompletedBetween(ctx context.Context, exec SQLExecutor, playerID int, from, to time.Time, limit int) ([]models.Round, error)
	CountCompleted(ctx context.Context, exec SQLExecutor, playerID int) (total int, verified int, err error)
	CountCompletedBefore(ctx context.Context, exec SQLExecutor, playerID int, before time.Time) (int, error)
	// FindNearest returns the player's round on the course whose tee-off is
	// closest to at, or nil when there is none.
	FindNearest(ctx context.Context, playerID, courseID int, at time.Time) (*models.Round, error)
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

const roundColumns = `
	id, player_id, course_id, tee_color, started_at, completed_at, total_strokes,
	start_latitude, start_longitude, location_verified, score_differential,
	fraud_risk_score, fraud_risk_factors, is_verified, is_provisional,
	verification_count, scorecard_key, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRound(row rowScanner) (*models.Round, error) {
	var rd models.Round
	var diff decimal.NullDecimal
	err := row.Scan(
		&rd.ID,
		&rd.PlayerID,
		&rd.CourseID,
		&rd.TeeColor,
		&rd.StartedAt,
		&rd.CompletedAt,
		&rd.TotalStrokes,
		&rd.StartLatitude,
		&rd.StartLongitude,
		&rd.LocationVerified,
		&diff,
		&rd.FraudRiskScore,
		&rd.FraudRiskFactors,
		&rd.IsVerified,
		&rd.IsProvisional,
		&rd.VerificationCount,
		&rd.ScorecardKey,
		&rd.CreatedAt,
		&rd.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rd.ScoreDifferential = decimalPtr(diff)
	return &rd, nil
}

func (r *postgresRoundRepository) Create(ctx context.Context, round *models.Round) error {
	query := `
		INSERT INTO rounds (player_id, course_id, tee_color, started_at, start_latitude, start_longitude, location_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, is_provisional, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		round.PlayerID,
		round.CourseID,
		round.TeeColor,
		round.StartedAt,
		round.StartLatitude,
		round.StartLongitude,
		round.LocationVerified,
	).Scan(&round.ID, &round.IsProvisional, &round.CreatedAt, &round.UpdatedAt)
	if err != nil {
		if _, ok := pqConstraint(err, pgForeignKeyViolation); ok {
			return ErrRoundPlayerInvalid
		}
		return fmt.Errorf("failed to create round: %w", err)
	}
	round.FraudRiskFactors = models.FactorList{}
	return nil
}

func (r *postgresRoundRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Round, error) {
	query := `SELECT` + roundColumns + ` FROM rounds WHERE id = $1`
	return r.getOne(pickExecutor(r.db, exec).QueryRowContext(ctx, query, id), id)
}

func (r *postgresRoundRepository) GetForUpdate(ctx context.Context, tx SQLExecutor, id int) (*models.Round, error) {
	query := `SELECT` + roundColumns + ` FROM rounds WHERE id = $1 FOR UPDATE`
	return r.getOne(tx.QueryRowContext(ctx, query, id), id)
}

func (r *postgresRoundRepository) getOne(row *sql.Row, id int) (*models.Round, error) {
	rd, err := scanRound(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to get round %d: %w", id, err)
	}
	return rd, nil
}

func (r *postgresRoundRepository) ListHoleScores(ctx context.Context, exec SQLExecutor, roundID int) ([]models.HoleScore, error) {
	query := `
		SELECT id, round_id, hole_number, strokes, putts, fairway_hit, green_in_regulation, penalties, recorded_at
		FROM hole_scores
		WHERE round_id = $1
		ORDER BY hole_number`

	rows, err := pickExecutor(r.db, exec).QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list hole scores for round %d: %w", roundID, err)
	}
	defer rows.Close()

	scores := make([]models.HoleScore, 0, 18)
	for rows.Next() {
		var s models.HoleScore
		if err := rows.Scan(&s.ID, &s.RoundID, &s.HoleNumber, &s.Strokes, &s.Putts, &s.FairwayHit, &s.GreenInReg, &s.Penalties, &s.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan hole score: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

// UpsertHoleScore records a hole, replacing an earlier entry for the same hole.
func (r *postgresRoundRepository) UpsertHoleScore(ctx context.Context, exec SQLExecutor, score *models.HoleScore) error {
	query := `
		INSERT INTO hole_scores (round_id, hole_number, strokes, putts, fairway_hit, green_in_regulation, penalties, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (round_id, hole_number) DO UPDATE SET
			strokes = EXCLUDED.strokes,
			putts = EXCLUDED.putts,
			fairway_hit = EXCLUDED.fairway_hit,
			green_in_regulation = EXCLUDED.green_in_regulation,
			penalties = EXCLUDED.penalties,
			recorded_at = EXCLUDED.recorded_at
		RETURNING id`

	err := pickExecutor(r.db, exec).QueryRowContext(ctx, query,
		score.RoundID,
		score.HoleNumber,
		score.Strokes,
		score.Putts,
		score.FairwayHit,
		score.GreenInReg,
		score.Penalties,
		score.RecordedAt,
	).Scan(&score.ID)
	if err != nil {
		if _, ok := pqConstraint(err, pgForeignKeyViolation); ok {
			return ErrRoundNotFound
		}
		return fmt.Errorf("failed to record hole %d: %w", score.HoleNumber, err)
	}
	return nil
}

// SaveEvaluation persists completion, differential, fraud and status fields.
func (r *postgresRoundRepository) SaveEvaluation(ctx context.Context, exec SQLExecutor, round *models.Round) error {
	query := `
		UPDATE rounds SET
			completed_at = $1,
			total_strokes = $2,
			location_verified = $3,
			score_differential = $4,
			fraud_risk_score = $5,
			fraud_risk_factors = $6,
			is_verified = $7,
			is_provisional = $8,
			verification_count = $9,
			updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at`

	err := pickExecutor(r.db, exec).QueryRowContext(ctx, query,
		round.CompletedAt,
		round.TotalStrokes,
		round.LocationVerified,
		nullDecimal(round.ScoreDifferential),
		round.FraudRiskScore,
		round.FraudRiskFactors,
		round.IsVerified,
		round.IsProvisional,
		round.VerificationCount,
		round.ID,
	).Scan(&round.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRoundNotFound
		}
		if _, ok := pqConstraint(err, pgCheckViolation); ok {
			return ErrRoundStatusConflict
		}
		return fmt.Errorf("failed to save evaluation for round %d: %w", round.ID, err)
	}
	return nil
}

func (r *postgresRoundRepository) UpdateVerification(ctx context.Context, exec SQLExecutor, round *models.Round) error {
	query := `
		UPDATE rounds SET
			is_verified = $1,
			is_provisional = $2,
			verification_count = $3,
			updated_at = NOW()
		WHERE id = $4`

	res, err := pickExecutor(r.db, exec).ExecContext(ctx, query,
		round.IsVerified,
		round.IsProvisional,
		round.VerificationCount,
		round.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update verification for round %d: %w", round.ID, err)
	}
	return checkAffectedRows(res, ErrRoundNotFound)
}

func (r *postgresRoundRepository) SetScorecardKey(ctx context.Context, id int, key string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE rounds SET scorecard_key = $1, updated_at = NOW() WHERE id = $2`, key, id)
	if err != nil {
		return fmt.Errorf("failed to set scorecard for round %d: %w", id, err)
	}
	return checkAffectedRows(res, ErrRoundNotFound)
}

func (r *postgresRoundRepository) ListByPlayer(ctx context.Context, playerID, limit int) ([]models.Round, error) {
	query := `SELECT` + roundColumns + `
		FROM rounds
		WHERE player_id = $1
		ORDER BY started_at DESC
		LIMIT $2`
	return r.list(ctx, r.db, query, playerID, limit)
}

func (r *postgresRoundRepository) ListCompletedSince(ctx context.Context, exec SQLExecutor, playerID int, since time.Time, limit int) ([]models.Round, error) {
	query := `SELECT` + roundColumns + `
		FROM rounds
		WHERE player_id = $1 AND completed_at IS NOT NULL AND completed_at >= $2
		ORDER BY completed_at DESC
		LIMIT $3`
	var lim interface{}
	if limit > 0 {
		lim = limit
	}
	return r.list(ctx, pickExecutor(r.db, exec), query, playerID, since, lim)
}

func (r *postgresRoundRepository) ListCompletedBetween(ctx context.Context, exec SQLExecutor, playerID int, from, to time.Time, limit int) ([]models.Round, error) {
	query := `SELECT` + roundColumns + `
		FROM rounds
		WHERE player_id = $1 AND completed_at IS NOT NULL
			AND completed_at >= $2 AND completed_at < $3
		ORDER BY completed_at DESC
		LIMIT $4`
	var lim interface{}
	if limit > 0 {
		lim = limit
	}
	return r.list(ctx, pickExecutor(r.db, exec), query, playerID, from, to, lim)
}

func (r *postgresRoundRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Round, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	defer rows.Close()

	var rounds []models.Round
	for rows.Next() {
		rd, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, *rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rounds: %w", err)
	}
	return rounds, nil
}

func (r *postgresRoundRepository) CountCompleted(ctx context.Context, exec SQLExecutor, playerID int) (int, int, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_verified)
		FROM rounds
		WHERE player_id = $1 AND completed_at IS NOT NULL`

	var total, verified int
	if err := pickExecutor(r.db, exec).QueryRowContext(ctx, query, playerID).Scan(&total, &verified); err != nil {
		return 0, 0, fmt.Errorf("failed to count rounds for player %d: %w", playerID, err)
	}
	return total, verified, nil
}

func (r *postgresRoundRepository) CountCompletedBefore(ctx context.Context, exec SQLExecutor, playerID int, before time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM rounds
		WHERE player_id = $1 AND completed_at IS NOT NULL AND completed_at < $2`

	var n int
	if err := pickExecutor(r.db, exec).QueryRowContext(ctx, query, playerID, before).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rounds for player %d: %w", playerID, err)
	}
	return n, nil
}

func (r *postgresRoundRepository) FindNearest(ctx context.Context, playerID, courseID int, at time.Time) (*models.Round, error) {
	query := `SELECT` + roundColumns + `
		FROM rounds
		WHERE player_id = $1 AND course_id = $2
		ORDER BY ABS(EXTRACT(EPOCH FROM (started_at - $3::timestamptz)))
		LIMIT 1`

	rd, err := scanRound(r.db.QueryRowContext(ctx, query, playerID, courseID, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find round near %s: %w", at.Format(time.RFC3339), err)
	}
	return rd, nil
}
