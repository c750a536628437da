package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pratik-mahalle/amiaudit/internal/domain/audit"
	"github.com/pratik-mahalle/amiaudit/internal/domain/finding"
	"github.com/pratik-mahalle/amiaudit/internal/domain/resource"
	"github.com/pratik-mahalle/amiaudit/internal/domain/rule"
	apperrors "github.com/pratik-mahalle/amiaudit/internal/pkg/errors"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// AuditConfig controls how runs are executed
type AuditConfig struct {
	// Owner is used when a run does not name one
	Owner       string
	EvalWorkers int
	ProductName string
	Sink        SinkConfig
}

// AuditService implements audit.Service
type AuditService struct {
	lister   resource.Lister
	identity resource.IdentityProvider
	catalog  *rule.Catalog
	store    finding.Store
	runs     audit.Repository
	reporter audit.Reporter
	cfg      AuditConfig
	logger   *logger.Logger
	now      func() time.Time
}

// NewAuditService creates a new audit service. runs and reporter may be nil.
func NewAuditService(
	lister resource.Lister,
	identity resource.IdentityProvider,
	catalog *rule.Catalog,
	store finding.Store,
	runs audit.Repository,
	reporter audit.Reporter,
	cfg AuditConfig,
	log *logger.Logger,
) *AuditService {
	if cfg.Owner == "" {
		cfg.Owner = "self"
	}
	if cfg.EvalWorkers < 1 {
		cfg.EvalWorkers = 8
	}
	return &AuditService{
		lister:   lister,
		identity: identity,
		catalog:  catalog,
		store:    store,
		runs:     runs,
		reporter: reporter,
		cfg:      cfg,
		logger:   log.WithComponent("auditor"),
		now:      time.Now,
	}
}

// runCounters is shared by the evaluation goroutines of a run
type runCounters struct {
	mu               sync.Mutex
	evaluations      int
	evaluationErrors int
	failed           int
	passed           int
}

func (c *runCounters) verdict(passed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evaluations++
	if passed {
		c.passed++
	} else {
		c.failed++
	}
}

func (c *runCounters) evaluationError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evaluations++
	c.evaluationErrors++
}

// Run executes one audit pass: identity, listing, extraction, evaluation of
// every (subject, rule) pair and submission through a FindingSink.
func (s *AuditService) Run(ctx context.Context, opts audit.Options) (*audit.Run, error) {
	rules, err := s.catalog.Select(opts.RuleCodes...)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	owner := opts.Owner
	if owner == "" {
		owner = s.cfg.Owner
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	run := &audit.Run{
		ID:        runID,
		Trigger:   opts.Trigger,
		Status:    audit.StatusRunning,
		Phase:     audit.PhaseInit,
		StartedAt: s.now().UTC(),
	}
	ruleList := rules.All()
	for _, r := range ruleList {
		run.RulesEvaluated = append(run.RulesEvaluated, r.Metadata().Code)
	}

	log := s.logger.WithFields(map[string]interface{}{
		"run_id":  run.ID,
		"trigger": run.Trigger,
		"owner":   owner,
	})
	log.Info("Audit run started")

	id, err := s.identity.Identity(ctx)
	if err != nil {
		return s.fail(ctx, run, log, false, apperrors.ProviderAuthError("identity provider", err))
	}
	if id.Partition == "" {
		id.Partition = resource.PartitionForRegion(id.Region)
	}
	run.AccountID = id.AccountID
	run.Region = id.Region
	run.Partition = id.Partition
	created := s.create(ctx, run, log)

	run.Phase = audit.PhaseListResources
	records, err := s.lister.List(ctx, owner)
	if err != nil {
		return s.fail(ctx, run, log, created, apperrors.ProviderAPIError("resource lister", err))
	}
	run.ResourcesListed = len(records)
	metrics.SetResourcesListed(len(records))

	images := make([]*resource.Image, 0, len(records))
	for _, rec := range records {
		img, err := resource.ExtractImage(rec, id)
		if err != nil {
			run.ResourcesSkipped++
			metrics.RecordExtractionError()
			var extErr *resource.ExtractionError
			if errors.As(err, &extErr) {
				log.WithFields(map[string]interface{}{
					"resource_id": extErr.ResourceID,
					"field":       extErr.Field,
				}).Warn("Skipping resource with missing required field")
			} else {
				log.WarnWithErr(err, "Skipping resource")
			}
			continue
		}
		images = append(images, img)
	}

	run.Phase = audit.PhaseEvaluate
	sink := NewFindingSink(s.store, s.cfg.Sink, log)
	if err := sink.Start(ctx); err != nil {
		return s.fail(ctx, run, log, created, err)
	}

	builder := finding.NewBuilder(id, s.cfg.ProductName)
	at := run.StartedAt
	counters := &runCounters{}

	var g errgroup.Group
	g.SetLimit(s.cfg.EvalWorkers)

produce:
	for _, img := range images {
		for _, r := range ruleList {
			for _, subj := range img.Subjects(r.Scope()) {
				if ctx.Err() != nil {
					break produce
				}
				r, subj := r, subj
				g.Go(func() error {
					s.evaluate(ctx, log, sink, builder, r, subj, at, counters)
					return nil
				})
			}
		}
	}
	_ = g.Wait()

	report := sink.Close()

	run.Evaluations = counters.evaluations
	run.EvaluationErrors = counters.evaluationErrors
	run.FindingsBuilt = counters.failed + counters.passed
	run.FindingsFailed = counters.failed
	run.FindingsPassed = counters.passed
	run.Submitted = report.Submitted
	run.SubmissionErrors = report.Failed()
	run.Skipped = report.Skipped
	run.Failures = report.Failures

	if err := ctx.Err(); err != nil {
		run.Status = audit.StatusCancelled
		run.Error = err.Error()
	} else {
		run.Status = audit.StatusCompleted
	}
	s.finish(ctx, run, log, created)

	return run, nil
}

// evaluate runs one rule against one subject and enqueues the finding
func (s *AuditService) evaluate(
	ctx context.Context,
	log *logger.Logger,
	sink *FindingSink,
	builder *finding.Builder,
	r rule.Rule,
	subj resource.Subject,
	at time.Time,
	counters *runCounters,
) {
	meta := r.Metadata()

	v, err := rule.SafeEvaluate(r, subj)
	if err != nil {
		counters.evaluationError()
		metrics.RecordEvaluationError(meta.Code)
		log.WithFields(map[string]interface{}{
			"rule_code":   meta.Code,
			"subject_key": subj.Key(),
		}).ErrorWithErr(err, "Rule evaluation failed")
		return
	}

	f := builder.Build(meta, v, at)
	counters.verdict(v.Passed)
	metrics.RecordEvaluation(meta.Code, f.Compliance.Status)

	if err := sink.Enqueue(ctx, f); err != nil {
		log.WithFields(map[string]interface{}{
			"finding_id": f.ID,
			"rule_code":  meta.Code,
		}).Debug("Finding not enqueued: " + err.Error())
	}
}

func (s *AuditService) fail(ctx context.Context, run *audit.Run, log *logger.Logger, created bool, err error) (*audit.Run, error) {
	run.Status = audit.StatusFailed
	run.Error = err.Error()
	log.With("retryable", apperrors.As(err).Temporary()).ErrorWithErr(err, "Audit run failed")
	s.finish(ctx, run, log, created)
	return run, err
}

// finish stamps the run as done, persists it and exports the report. Both
// happen even when ctx is cancelled.
func (s *AuditService) finish(ctx context.Context, run *audit.Run, log *logger.Logger, created bool) {
	finished := s.now().UTC()
	run.FinishedAt = &finished
	run.Phase = audit.PhaseDone

	detached := context.WithoutCancel(ctx)
	if s.runs != nil {
		if !created {
			s.create(detached, run, log)
		} else if err := s.runs.Update(detached, run); err != nil {
			log.ErrorWithErr(err, "Failed to persist audit run")
		}
	}

	if s.reporter != nil && run.Status != audit.StatusFailed {
		if err := s.reporter.Export(detached, run); err != nil {
			log.ErrorWithErr(err, "Failed to export audit run report")
		}
	}

	metrics.RecordAuditRun(string(run.Status), run.Duration())

	log.WithFields(map[string]interface{}{
		"status":            run.Status,
		"resources_listed":  run.ResourcesListed,
		"resources_skipped": run.ResourcesSkipped,
		"evaluations":       run.Evaluations,
		"findings_failed":   run.FindingsFailed,
		"findings_passed":   run.FindingsPassed,
		"submitted":         run.Submitted,
		"submission_errors": run.SubmissionErrors,
		"skipped":           run.Skipped,
		"duration":          run.Duration().String(),
	}).Info("Audit run finished")
}

func (s *AuditService) create(ctx context.Context, run *audit.Run, log *logger.Logger) bool {
	if s.runs == nil {
		return false
	}
	if err := s.runs.Create(ctx, run); err != nil {
		log.ErrorWithErr(err, "Failed to record audit run")
		return false
	}
	return true
}

// Catalog returns the rules the service evaluates
func (s *AuditService) Catalog() *rule.Catalog {
	return s.catalog
}
