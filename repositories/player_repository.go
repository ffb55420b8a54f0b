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
	ErrPlayerNotFound         = errors.New("player not found")
	ErrPlayerEmailConflict    = errors.New("player email conflict")
	ErrPlayerNicknameConflict = errors.New("player nickname conflict")
)

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error)
	GetByEmail(ctx context.Context, email string) (*models.Player, error)
	UpdateHandicapIfVersion(ctx context.Context, exec SQLExecutor, player *models.Player, expectedVersion int64) (sql.Result, error)
	ListIDsWithRoundsSince(ctx context.Context, since time.Time) ([]int, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

const playerColumns = `
	id, first_name, last_name, nickname, email, phone, password_hash, role, account_verified,
	provisional_handicap_index, verified_handicap_index, rounds_played, verified_rounds,
	handicap_updated_at, row_version, created_at`

func (r *postgresPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (first_name, last_name, nickname, email, phone, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, row_version, created_at`

	err := r.db.QueryRowContext(ctx, query,
		player.FirstName,
		player.LastName,
		player.Nickname,
		player.Email,
		player.Phone,
		player.PasswordHash,
		player.Role,
	).Scan(&player.ID, &player.RowVersion, &player.CreatedAt)

	if err != nil {
		if constraint, ok := pqConstraint(err, pgUniqueViolation); ok {
			switch constraint {
			case "players_email_key":
				return ErrPlayerEmailConflict
			case "players_nickname_key":
				return ErrPlayerNicknameConflict
			}
		}
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error) {
	query := `SELECT` + playerColumns + ` FROM players WHERE id = $1`
	return scanPlayer(pickExecutor(r.db, exec).QueryRowContext(ctx, query, id))
}

func (r *postgresPlayerRepository) GetByEmail(ctx context.Context, email string) (*models.Player, error) {
	query := `SELECT` + playerColumns + ` FROM players WHERE email = $1`
	return scanPlayer(r.db.QueryRowContext(ctx, query, email))
}

func scanPlayer(row *sql.Row) (*models.Player, error) {
	var p models.Player
	var provisional, verified decimal.NullDecimal
	err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.Nickname,
		&p.Email,
		&p.Phone,
		&p.PasswordHash,
		&p.Role,
		&p.AccountVerified,
		&provisional,
		&verified,
		&p.RoundsPlayed,
		&p.VerifiedRounds,
		&p.HandicapUpdatedAt,
		&p.RowVersion,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player: %w", err)
	}
	p.ProvisionalHandicapIndex = decimalPtr(provisional)
	p.VerifiedHandicapIndex = decimalPtr(verified)
	return &p, nil
}

// UpdateHandicapIfVersion writes the cached handicap fields only when the
// row still carries expectedVersion. Zero rows affected means a lost race.
func (r *postgresPlayerRepository) UpdateHandicapIfVersion(ctx context.Context, exec SQLExecutor, player *models.Player, expectedVersion int64) (sql.Result, error) {
	query := `
		UPDATE players SET
			provisional_handicap_index = $1,
			verified_handicap_index = $2,
			rounds_played = $3,
			verified_rounds = $4,
			handicap_updated_at = $5,
			row_version = row_version + 1
		WHERE id = $6 AND row_version = $7`

	res, err := pickExecutor(r.db, exec).ExecContext(ctx, query,
		nullDecimal(player.ProvisionalHandicapIndex),
		nullDecimal(player.VerifiedHandicapIndex),
		player.RoundsPlayed,
		player.VerifiedRounds,
		player.HandicapUpdatedAt,
		player.ID,
		expectedVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update handicap for player %d: %w", player.ID, err)
	}
	return res, nil
}

func (r *postgresPlayerRepository) ListIDsWithRoundsSince(ctx context.Context, since time.Time) ([]int, error) {
	query := `
		SELECT DISTINCT player_id
		FROM rounds
		WHERE completed_at IS NOT NULL AND completed_at >= $1
		ORDER BY player_id`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list active players: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan player id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
