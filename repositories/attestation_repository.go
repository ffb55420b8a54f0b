package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/handicap-system/models"
)

var (
	ErrAttestationNotFound         = errors.New("attestation not found")
	ErrAttestationDuplicate        = errors.New("attestation already requested for this attester")
	ErrAttestationSelf             = errors.New("attester owns the round")
	ErrAttestationAlreadyResponded = errors.New("attestation already responded")
	ErrAttestationPlayerInvalid    = errors.New("attestation round or attester invalid")
)

type AttestationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, att *models.Attestation) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Attestation, error)
	ListByRound(ctx context.Context, exec SQLExecutor, roundID int) ([]models.Attestation, error)
	// RecordResponse only touches pending attestations.
	RecordResponse(ctx context.Context, exec SQLExecutor, att *models.Attestation) error
	ListPendingForAttester(ctx context.Context, attesterID int) ([]models.Attestation, error)
	ListUnremindedBefore(ctx context.Context, before time.Time, limit int) ([]models.Attestation, error)
	MarkReminded(ctx context.Context, id int, at time.Time) error
}

type postgresAttestationRepository struct {
	db *sql.DB
}

func NewPostgresAttestationRepository(db *sql.DB) AttestationRepository {
	return &postgresAttestationRepository{db: db}
}

const attestationSelect = `
	SELECT
		a.id, a.round_id, a.requester_player_id, a.attester_id, a.is_approved, a.comments,
		a.requested_at, a.attested_at, a.attester_latitude, a.attester_longitude,
		a.location_verified, a.reminded_at,
		p.id, p.first_name, p.last_name, p.nickname, p.email, p.phone, p.account_verified, p.rounds_played
	FROM attestations a
	JOIN players p ON p.id = a.attester_id`

func scanAttestation(row rowScanner) (*models.Attestation, error) {
	var a models.Attestation
	var p models.Player
	err := row.Scan(
		&a.ID,
		&a.RoundID,
		&a.RequesterPlayerID,
		&a.AttesterID,
		&a.IsApproved,
		&a.Comments,
		&a.RequestedAt,
		&a.AttestedAt,
		&a.AttesterLatitude,
		&a.AttesterLongitude,
		&a.LocationVerified,
		&a.RemindedAt,
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.Nickname,
		&p.Email,
		&p.Phone,
		&p.AccountVerified,
		&p.RoundsPlayed,
	)
	if err != nil {
		return nil, err
	}
	a.Attester = &p
	return &a, nil
}

func (r *postgresAttestationRepository) Create(ctx context.Context, exec SQLExecutor, att *models.Attestation) error {
	query := `
		INSERT INTO attestations (round_id, requester_player_id, attester_id, requested_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := pickExecutor(r.db, exec).QueryRowContext(ctx, query,
		att.RoundID,
		att.RequesterPlayerID,
		att.AttesterID,
		att.RequestedAt,
	).Scan(&att.ID)
	if err != nil {
		if constraint, ok := pqConstraint(err, pgUniqueViolation); ok && constraint == "attestations_round_attester_key" {
			return ErrAttestationDuplicate
		}
		if constraint, ok := pqConstraint(err, pgCheckViolation); ok && constraint == "attestations_not_self_check" {
			return ErrAttestationSelf
		}
		if _, ok := pqConstraint(err, pgForeignKeyViolation); ok {
			return ErrAttestationPlayerInvalid
		}
		return fmt.Errorf("failed to create attestation: %w", err)
	}
	return nil
}

func (r *postgresAttestationRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Attestation, error) {
	a, err := scanAttestation(pickExecutor(r.db, exec).QueryRowContext(ctx, attestationSelect+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttestationNotFound
		}
		return nil, fmt.Errorf("failed to get attestation %d: %w", id, err)
	}
	return a, nil
}

func (r *postgresAttestationRepository) ListByRound(ctx context.Context, exec SQLExecutor, roundID int) ([]models.Attestation, error) {
	return r.list(ctx, pickExecutor(r.db, exec), attestationSelect+`
		WHERE a.round_id = $1
		ORDER BY a.requested_at`, roundID)
}

func (r *postgresAttestationRepository) ListPendingForAttester(ctx context.Context, attesterID int) ([]models.Attestation, error) {
	return r.list(ctx, r.db, attestationSelect+`
		WHERE a.attester_id = $1 AND a.attested_at IS NULL
		ORDER BY a.requested_at`, attesterID)
}

func (r *postgresAttestationRepository) ListUnremindedBefore(ctx context.Context, before time.Time, limit int) ([]models.Attestation, error) {
	return r.list(ctx, r.db, attestationSelect+`
		WHERE a.attested_at IS NULL AND a.reminded_at IS NULL AND a.requested_at < $1
		ORDER BY a.requested_at
		LIMIT $2`, before, limit)
}

func (r *postgresAttestationRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Attestation, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attestations: %w", err)
	}
	defer rows.Close()

	atts := []models.Attestation{}
	for rows.Next() {
		a, err := scanAttestation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attestation: %w", err)
		}
		atts = append(atts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attestations: %w", err)
	}
	return atts, nil
}

func (r *postgresAttestationRepository) RecordResponse(ctx context.Context, exec SQLExecutor, att *models.Attestation) error {
	query := `
		UPDATE attestations SET
			is_approved = $1,
			comments = $2,
			attested_at = $3,
			attester_latitude = $4,
			attester_longitude = $5,
			location_verified = $6
		WHERE id = $7 AND attested_at IS NULL`

	res, err := pickExecutor(r.db, exec).ExecContext(ctx, query,
		att.IsApproved,
		att.Comments,
		att.AttestedAt,
		att.AttesterLatitude,
		att.AttesterLongitude,
		att.LocationVerified,
		att.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to record response for attestation %d: %w", att.ID, err)
	}
	return checkAffectedRows(res, ErrAttestationAlreadyResponded)
}

func (r *postgresAttestationRepository) MarkReminded(ctx context.Context, id int, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE attestations SET reminded_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark attestation %d reminded: %w", id, err)
	}
	return checkAffectedRows(res, ErrAttestationNotFound)
}
