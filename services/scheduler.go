package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const jobTimeout = 10 * time.Minute

type SchedulerConfig struct {
	HandicapRefreshSchedule string
	ReminderSchedule        string
	ReminderAfter           time.Duration
}

// Scheduler runs the nightly handicap refresh and the attestation reminder
// sweep.
type Scheduler struct {
	cron         *cron.Cron
	handicaps    HandicapService
	attestations AttestationService
	cfg          SchedulerConfig
	logger       *logrus.Logger
}

func NewScheduler(handicaps HandicapService, attestations AttestationService, cfg SchedulerConfig, logger *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:         cron.New(),
		handicaps:    handicaps,
		attestations: attestations,
		cfg:          cfg,
		logger:       logger,
	}
	if _, err := s.cron.AddFunc(cfg.HandicapRefreshSchedule, s.refreshHandicaps); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(cfg.ReminderSchedule, s.sendReminders); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"handicap_refresh": s.cfg.HandicapRefreshSchedule,
		"reminders":        s.cfg.ReminderSchedule,
	}).Info("scheduler started")
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with jobs still running")
	}
}

func (s *Scheduler) refreshHandicaps() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := s.handicaps.RefreshActive(ctx)
	entry := s.logger.WithFields(logrus.Fields{"job": "handicap_refresh", "players": n, "took": time.Since(start)})
	if err != nil {
		entry.WithError(err).Error("job failed")
		return
	}
	entry.Info("job finished")
}

func (s *Scheduler) sendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.attestations.SendReminders(ctx, s.cfg.ReminderAfter)
	entry := s.logger.WithFields(logrus.Fields{"job": "attestation_reminders", "sent": n})
	if err != nil {
		entry.WithError(err).Error("job failed")
		return
	}
	entry.Info("job finished")
}
