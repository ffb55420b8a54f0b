package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/handicap-system/attestation"
	"github.com/Dosada05/handicap-system/config"
	"github.com/Dosada05/handicap-system/geo"
	"github.com/Dosada05/handicap-system/models"
	"github.com/Dosada05/handicap-system/realtime"
	"github.com/Dosada05/handicap-system/repositories"
	"github.com/sirupsen/logrus"
)

const reminderBatchSize = 200

type RespondInput struct {
	Approved  *bool    `json:"approved" validate:"required"`
	Comments  *string  `json:"comments" validate:"omitempty,max=1000"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
}

type AttestationOutcome struct {
	Attestation   *models.Attestation       `json:"attestation"`
	Status        models.VerificationStatus `json:"status"`
	StatusChanged bool                      `json:"status_changed"`
	ApprovedCount int                       `json:"approved_count"`
	Trustworthy   bool                      `json:"trustworthy"`
}

type AttestationResponded struct {
	RoundID       int  `json:"round_id"`
	AttestationID int  `json:"attestation_id"`
	AttesterID    int  `json:"attester_id"`
	Approved      bool `json:"approved"`
}

type AttestationService interface {
	Request(ctx context.Context, requesterID, roundID, attesterID int) (*models.Attestation, error)
	Respond(ctx context.Context, attesterID, attestationID int, input RespondInput) (*AttestationOutcome, error)
	ListPending(ctx context.Context, attesterID int) ([]models.Attestation, error)
	SendReminders(ctx context.Context, olderThan time.Duration) (int, error)
}

type attestationService struct {
	db              *sql.DB
	attestationRepo repositories.AttestationRepository
	roundRepo       repositories.RoundRepository
	courseRepo      repositories.CourseRepository
	playerRepo      repositories.PlayerRepository
	handicapService HandicapService
	notifier        Notifier
	hub             Broadcaster
	cfg             config.EngineConfig
	logger          *logrus.Logger
	now             func() time.Time
}

func NewAttestationService(
	db *sql.DB,
	attestationRepo repositories.AttestationRepository,
	roundRepo repositories.RoundRepository,
	courseRepo repositories.CourseRepository,
	playerRepo repositories.PlayerRepository,
	handicapService HandicapService,
	notifier Notifier,
	hub Broadcaster,
	cfg config.EngineConfig,
	logger *logrus.Logger,
) AttestationService {
	return &attestationService{
		db:              db,
		attestationRepo: attestationRepo,
		roundRepo:       roundRepo,
		courseRepo:      courseRepo,
		playerRepo:      playerRepo,
		handicapService: handicapService,
		notifier:        notifier,
		hub:             hub,
		cfg:             cfg,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *attestationService) Request(ctx context.Context, requesterID, roundID, attesterID int) (*models.Attestation, error) {
	round, err := s.roundRepo.GetByID(ctx, nil, roundID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	if round.PlayerID != requesterID && round.PlayerID != attesterID {
		return nil, ErrForbiddenOperation
	}

	existing, err := s.attestationRepo.ListByRound(ctx, nil, roundID)
	if err != nil {
		return nil, err
	}
	if err := attestation.CheckRequest(round, attesterID, existing); err != nil {
		return nil, err
	}
	if round.PlayerID != requesterID {
		return nil, ErrForbiddenOperation
	}

	attester, err := s.playerRepo.GetByID(ctx, nil, attesterID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	att := attestation.NewRequest(round, attesterID, s.now().UTC())
	if err := s.attestationRepo.Create(ctx, nil, att); err != nil {
		switch {
		case errors.Is(err, repositories.ErrAttestationDuplicate):
			return nil, &attestation.Rejection{Reason: attestation.ReasonDuplicateAttestation}
		case errors.Is(err, repositories.ErrAttestationSelf):
			return nil, &attestation.Rejection{Reason: attestation.ReasonSelfAttestation}
		}
		return nil, fmt.Errorf("failed to create attestation: %w", err)
	}
	att.Attester = attester

	s.logger.WithFields(logrus.Fields{
		"attestation_id": att.ID,
		"round_id":       roundID,
		"attester_id":    attesterID,
	}).Info("attestation requested")

	s.notifier.AttestationRequested(ctx, s.notice(ctx, att, attester, round.PlayerID, round))
	return att, nil
}

// notice fills the parts of a notification every message shares.
func (s *attestationService) notice(ctx context.Context, att *models.Attestation, recipient *models.Player, counterpartID int, round *models.Round) AttestationNotice {
	n := AttestationNotice{
		Recipient:     recipient,
		AttestationID: att.ID,
		RoundID:       att.RoundID,
		Approved:      att.IsApproved,
		Counterpart:   "A fellow player",
		CourseName:    "the course",
	}
	if round != nil {
		n.PlayedAt = round.StartedAt
		n.Status = round.Status()
		if course, err := s.courseRepo.GetByID(ctx, round.CourseID); err == nil {
			n.CourseName = course.Name
		}
	}
	if other, err := s.playerRepo.GetByID(ctx, nil, counterpartID); err == nil {
		n.Counterpart = other.DisplayName()
	}
	return n
}

func (s *attestationService) Respond(ctx context.Context, attesterID, attestationID int, input RespondInput) (*AttestationOutcome, error) {
	if input.Approved == nil {
		return nil, fmt.Errorf("%w: approved is required", ErrValidationFailed)
	}

	att, err := s.getAttestation(ctx, nil, attestationID)
	if err != nil {
		return nil, err
	}
	if att.AttesterID != attesterID {
		return nil, ErrForbiddenOperation
	}
	round, err := s.roundRepo.GetByID(ctx, nil, att.RoundID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	course, err := s.courseRepo.GetByID(ctx, round.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load course %d: %w", round.CourseID, err)
	}

	var outcome *AttestationOutcome
	err = withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		outcome, round, err = s.recordResponse(ctx, tx, round.ID, attestationID, input, course)
		return err
	})
	if err != nil {
		return nil, err
	}

	outcome.Trustworthy = s.trustworthy(ctx, outcome.Attestation, round)
	s.logger.WithFields(logrus.Fields{
		"attestation_id": attestationID,
		"round_id":       round.ID,
		"approved":       outcome.Attestation.IsApproved,
		"status":         outcome.Status,
		"changed":        outcome.StatusChanged,
		"trustworthy":    outcome.Trustworthy,
	}).Info("attestation responded")

	s.publish(round, outcome)

	if requester, err := s.playerRepo.GetByID(ctx, nil, round.PlayerID); err == nil {
		s.notifier.AttestationResponded(ctx, s.notice(ctx, outcome.Attestation, requester, attesterID, round))
	}
	return outcome, nil
}

// recordResponse stores the response and recomputes the round's status
// under the round row lock. The handicap is recomputed only when the
// status changes.
func (s *attestationService) recordResponse(ctx context.Context, exec repositories.SQLExecutor, roundID, attestationID int, input RespondInput, course *models.Course) (*AttestationOutcome, *models.Round, error) {
	if input.Approved == nil {
		return nil, nil, fmt.Errorf("%w: approved is required", ErrValidationFailed)
	}
	locked, err := s.roundRepo.GetForUpdate(ctx, exec, roundID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, nil, ErrRoundNotFound
		}
		return nil, nil, err
	}
	// Read under the lock; a concurrent response may have landed.
	current, err := s.getAttestation(ctx, exec, attestationID)
	if err != nil {
		return nil, nil, err
	}

	resp := attestation.Response{
		Approved:  *input.Approved,
		Comments:  input.Comments,
		Location:  geo.NewPoint(input.Latitude, input.Longitude),
		Responded: s.now().UTC(),
	}
	if err := attestation.Respond(current, resp, attestation.CourseFence(course), s.cfg.Attestation); err != nil {
		return nil, nil, err
	}
	if err := s.attestationRepo.RecordResponse(ctx, exec, current); err != nil {
		if errors.Is(err, repositories.ErrAttestationAlreadyResponded) {
			return nil, nil, &attestation.Rejection{Reason: attestation.ReasonAlreadyResponded}
		}
		return nil, nil, err
	}

	all, err := s.attestationRepo.ListByRound(ctx, exec, locked.ID)
	if err != nil {
		return nil, nil, err
	}
	prev := attestation.Current(locked)
	next := attestation.ComputeStatus(locked.FraudRiskScore, all, s.cfg.Attestation)
	attestation.Apply(locked, next)
	if err := s.roundRepo.UpdateVerification(ctx, exec, locked); err != nil {
		return nil, nil, err
	}

	changed := attestation.Transition(prev, next)
	if changed {
		if _, err := s.handicapService.Recompute(ctx, exec, locked.PlayerID); err != nil {
			return nil, nil, err
		}
	}

	return &AttestationOutcome{
		Attestation:   current,
		Status:        next.Status,
		StatusChanged: changed,
		ApprovedCount: next.ApprovedCount,
	}, locked, nil
}

func (s *attestationService) getAttestation(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Attestation, error) {
	att, err := s.attestationRepo.GetByID(ctx, exec, id)
	if err != nil {
		if errors.Is(err, repositories.ErrAttestationNotFound) {
			return nil, ErrAttestationNotFound
		}
		return nil, err
	}
	return att, nil
}

// trustworthy is advisory, so lookup failures only cost a signal.
func (s *attestationService) trustworthy(ctx context.Context, att *models.Attestation, round *models.Round) bool {
	var attesterRound *models.Round
	if r, err := s.roundRepo.FindNearest(ctx, att.AttesterID, round.CourseID, round.StartedAt); err == nil {
		attesterRound = r
	} else {
		s.logger.WithError(err).WithField("attester_id", att.AttesterID).Debug("same-group lookup failed")
	}
	signals := attestation.CollectSignals(att, round, att.Attester, attesterRound, s.cfg.Attestation)
	return attestation.IsTrustworthy(signals, s.cfg.Attestation)
}

func (s *attestationService) publish(round *models.Round, outcome *AttestationOutcome) {
	if s.hub == nil {
		return
	}
	room := realtime.RoundRoom(round.ID)
	s.hub.BroadcastToRoom(room, realtime.MessageAttestationResponded, AttestationResponded{
		RoundID:       round.ID,
		AttestationID: outcome.Attestation.ID,
		AttesterID:    outcome.Attestation.AttesterID,
		Approved:      outcome.Attestation.IsApproved,
	})
	if outcome.StatusChanged {
		s.hub.BroadcastToRoom(room, realtime.MessageRoundVerificationChanged, VerificationChange{
			RoundID:           round.ID,
			Status:            outcome.Status,
			VerificationCount: outcome.ApprovedCount,
			FraudRiskScore:    round.FraudRiskScore.StringFixed(2),
		})
	}
}

func (s *attestationService) ListPending(ctx context.Context, attesterID int) ([]models.Attestation, error) {
	return s.attestationRepo.ListPendingForAttester(ctx, attesterID)
}

// SendReminders nudges attesters once per attestation left pending longer
// than olderThan.
func (s *attestationService) SendReminders(ctx context.Context, olderThan time.Duration) (int, error) {
	now := s.now().UTC()
	pending, err := s.attestationRepo.ListUnremindedBefore(ctx, now.Add(-olderThan), reminderBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending attestations: %w", err)
	}

	sent := 0
	for i := range pending {
		att := &pending[i]
		round, err := s.roundRepo.GetByID(ctx, nil, att.RoundID)
		if err != nil {
			s.logger.WithError(err).WithField("attestation_id", att.ID).Warn("skipping reminder, round lookup failed")
			continue
		}
		s.notifier.AttestationReminder(ctx, s.notice(ctx, att, att.Attester, att.RequesterPlayerID, round))
		if err := s.attestationRepo.MarkReminded(ctx, att.ID, now); err != nil {
			s.logger.WithError(err).WithField("attestation_id", att.ID).Error("failed to mark attestation reminded")
			continue
		}
		sent++
	}
	return sent, nil
}
