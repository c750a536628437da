package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/pratik-mahalle/amiaudit/internal/domain/audit"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/logger"
	"github.com/robfig/cron/v3"
)

// ErrRunInProgress is returned when a run is requested while another is active
var ErrRunInProgress = errors.New("an audit run is already in progress")

// TriggerSchedule marks runs started by the scheduler
const TriggerSchedule = "schedule"

// AuditScheduler runs audits on a cron schedule. Overlapping runs are skipped.
type AuditScheduler struct {
	service  audit.Service
	schedule string
	options  audit.Options
	logger   *logger.Logger

	running atomic.Bool
}

// NewAuditScheduler creates a scheduler for a standard five field cron
// expression. An empty schedule only serves manual triggers.
func NewAuditScheduler(service audit.Service, schedule string, opts audit.Options, log *logger.Logger) (*AuditScheduler, error) {
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
		}
	}
	if opts.Trigger == "" {
		opts.Trigger = TriggerSchedule
	}

	return &AuditScheduler{
		service:  service,
		schedule: schedule,
		options:  opts,
		logger:   log.WithComponent("scheduler"),
	}, nil
}

// Start runs the scheduler until ctx is done, then waits for an active run
func (s *AuditScheduler) Start(ctx context.Context) error {
	if s.schedule == "" {
		s.logger.Info("No audit schedule configured, runs are manual only")
		<-ctx.Done()
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrRunInProgress) {
			s.logger.ErrorWithErr(err, "Scheduled audit run failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule audit: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"schedule": s.schedule,
	}).Info("Starting audit scheduler")

	c.Start()
	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()

	s.logger.Info("Audit scheduler stopped")
	return nil
}

// RunOnce starts a run now unless one is already active
func (s *AuditScheduler) RunOnce(ctx context.Context) (*audit.Run, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("Skipping audit run, previous run still in progress")
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	return s.service.Run(ctx, s.options)
}

// Trigger starts a run with opts in the background. ctx bounds the run, so
// it should outlive the caller's request.
func (s *AuditScheduler) Trigger(ctx context.Context, opts audit.Options) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}

	go func() {
		defer s.running.Store(false)
		if _, err := s.service.Run(ctx, opts); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"trigger": opts.Trigger,
			}).ErrorWithErr(err, "Triggered audit run failed")
		}
	}()

	return nil
}

// Running reports whether a run is active
func (s *AuditScheduler) Running() bool {
	return s.running.Load()
}
