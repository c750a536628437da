package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pratik-mahalle/amiaudit/internal/domain/finding"
	apperrors "github.com/pratik-mahalle/amiaudit/internal/pkg/errors"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/metrics"
	"golang.org/x/time/rate"
)

// Sink errors
var (
	ErrSinkClosed     = errors.New("finding sink is closed")
	ErrSinkNotStarted = errors.New("finding sink is not started")
	ErrSinkStarted    = errors.New("finding sink already started")
)

// Receipt statuses
const (
	ReceiptSubmitted = "SUBMITTED"
)

// SinkConfig controls queueing, batching and pacing of submissions
type SinkConfig struct {
	Workers       int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	// RateLimit is the number of batch calls per second
	RateLimit float64
	RateBurst int
}

// DefaultSinkConfig returns the defaults used when a field is zero
func DefaultSinkConfig() SinkConfig {
	return SinkConfig{
		Workers:       2,
		QueueSize:     500,
		BatchSize:     100,
		FlushInterval: 2 * time.Second,
		RateLimit:     10,
		RateBurst:     5,
	}
}

func (c SinkConfig) withDefaults() SinkConfig {
	d := DefaultSinkConfig()
	if c.Workers < 1 {
		c.Workers = d.Workers
	}
	if c.QueueSize < 1 {
		c.QueueSize = d.QueueSize
	}
	if c.BatchSize < 1 || c.BatchSize > d.BatchSize {
		c.BatchSize = d.BatchSize
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = d.FlushInterval
	}
	if c.RateLimit <= 0 {
		c.RateLimit = d.RateLimit
	}
	if c.RateBurst < 1 {
		c.RateBurst = d.RateBurst
	}
	return c
}

// SubmissionReport summarizes what a sink did with the findings it was given
type SubmissionReport struct {
	Submitted int                        `json:"submitted"`
	Skipped   int                        `json:"skipped"`
	Failures  []*finding.SubmissionError `json:"failures,omitempty"`
}

// Failed returns the number of findings the store did not accept
func (r SubmissionReport) Failed() int {
	return len(r.Failures)
}

// FindingSink submits findings to a store through a bounded queue drained by
// a pool of batching workers. A sink serves a single run.
type FindingSink struct {
	store   finding.Store
	cfg     SinkConfig
	limiter *rate.Limiter
	logger  *logger.Logger

	queue chan finding.Finding
	wg    sync.WaitGroup

	// gate orders Enqueue sends before the queue is closed
	gate    sync.RWMutex
	started bool
	closed  bool
	runCtx  context.Context

	mu     sync.Mutex
	report SubmissionReport

	closeOnce sync.Once
	final     SubmissionReport
}

// NewFindingSink creates a sink over store
func NewFindingSink(store finding.Store, cfg SinkConfig, log *logger.Logger) *FindingSink {
	cfg = cfg.withDefaults()
	return &FindingSink{
		store:   store,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		logger:  log.WithComponent("finding_sink"),
		queue:   make(chan finding.Finding, cfg.QueueSize),
	}
}

// Submit sends a single finding synchronously.
func (s *FindingSink) Submit(ctx context.Context, f finding.Finding) (*finding.Receipt, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		subErr := finding.NewSubmissionError(&f, finding.ErrCodeCancelled, "submission cancelled", true, err)
		s.recordSkipped(1)
		return nil, subErr
	}

	failures, submitted := s.importBatch(ctx, []finding.Finding{f})
	s.record(submitted, failures)
	if len(failures) > 0 {
		return nil, failures[0]
	}

	return &finding.Receipt{FindingID: f.ID, Status: ReceiptSubmitted}, nil
}

// Start launches the workers. Cancelling ctx stops new work: queued findings
// are skipped and batches already handed to the store finish.
func (s *FindingSink) Start(ctx context.Context) error {
	s.gate.Lock()
	defer s.gate.Unlock()

	if s.closed {
		return ErrSinkClosed
	}
	if s.started {
		return ErrSinkStarted
	}
	s.started = true
	s.runCtx = ctx

	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}

	s.logger.WithFields(map[string]interface{}{
		"workers":        s.cfg.Workers,
		"queue_size":     s.cfg.QueueSize,
		"batch_size":     s.cfg.BatchSize,
		"flush_interval": s.cfg.FlushInterval.String(),
	}).Debug("Finding sink started")

	return nil
}

// Enqueue hands f to the workers, blocking while the queue is full.
func (s *FindingSink) Enqueue(ctx context.Context, f finding.Finding) error {
	s.gate.RLock()
	defer s.gate.RUnlock()

	if s.closed {
		return ErrSinkClosed
	}
	if !s.started {
		return ErrSinkNotStarted
	}

	if err := firstErr(ctx, s.runCtx); err != nil {
		s.recordSkipped(1)
		return err
	}

	select {
	case s.queue <- f:
		metrics.SetQueueDepth(len(s.queue))
		return nil
	case <-ctx.Done():
		s.recordSkipped(1)
		return ctx.Err()
	case <-s.runCtx.Done():
		s.recordSkipped(1)
		return s.runCtx.Err()
	}
}

// Close stops accepting findings, waits for the workers to drain the queue
// and returns the final report. It is safe to call more than once.
func (s *FindingSink) Close() SubmissionReport {
	s.closeOnce.Do(func() {
		s.gate.Lock()
		s.closed = true
		if s.started {
			close(s.queue)
		}
		s.gate.Unlock()

		s.wg.Wait()
		metrics.SetQueueDepth(0)

		s.mu.Lock()
		s.final = s.report
		s.final.Failures = append([]*finding.SubmissionError(nil), s.report.Failures...)
		s.mu.Unlock()
	})
	return s.final
}

// Report returns a snapshot of the counters so far
func (s *FindingSink) Report() SubmissionReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.report
	r.Failures = append([]*finding.SubmissionError(nil), s.report.Failures...)
	return r
}

func (s *FindingSink) worker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]finding.Finding, 0, s.cfg.BatchSize)
	for {
		select {
		case f, ok := <-s.queue:
			if !ok {
				s.flush(ctx, batch)
				return
			}
			metrics.SetQueueDepth(len(s.queue))
			batch = append(batch, f)
			if len(batch) >= s.cfg.BatchSize {
				s.flush(ctx, batch)
				batch = make([]finding.Finding, 0, s.cfg.BatchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(ctx, batch)
				batch = make([]finding.Finding, 0, s.cfg.BatchSize)
			}
		}
	}
}

// flush sends one batch. Batches that have not reached the store when the run
// is cancelled are skipped.
func (s *FindingSink) flush(ctx context.Context, batch []finding.Finding) {
	if len(batch) == 0 {
		return
	}

	if ctx.Err() != nil {
		s.recordSkipped(len(batch))
		return
	}

	if err := s.limiter.Wait(ctx); err != nil {
		s.recordSkipped(len(batch))
		return
	}

	// The store call is not cut short by run cancellation
	failures, submitted := s.importBatch(context.WithoutCancel(ctx), batch)
	s.record(submitted, failures)
}

// importBatch calls the store and turns its answer into per-item outcomes.
func (s *FindingSink) importBatch(ctx context.Context, batch []finding.Finding) ([]*finding.SubmissionError, int) {
	start := time.Now()
	res, err := s.store.BatchImport(ctx, batch)
	metrics.RecordBatch(time.Since(start))

	var failures []*finding.SubmissionError
	if err != nil {
		code := finding.ErrCodeTransport
		if apperrors.IsCode(err, apperrors.ErrCodeServiceUnavailable) {
			code = finding.ErrCodeUnavailable
		}
		for i := range batch {
			subErr := finding.NewSubmissionError(&batch[i], code, "batch import failed", true, err)
			s.logFailure(subErr)
			failures = append(failures, subErr)
		}
		return failures, 0
	}

	if res == nil || len(res.Failed) == 0 {
		return nil, len(batch)
	}

	rejected := make(map[string]finding.FailedImport, len(res.Failed))
	for _, fi := range res.Failed {
		rejected[fi.FindingID] = fi
	}

	submitted := 0
	for i := range batch {
		fi, ok := rejected[batch[i].ID]
		if !ok {
			submitted++
			continue
		}
		code := fi.ErrorCode
		if code == "" {
			code = finding.ErrCodeRejected
		}
		subErr := finding.NewSubmissionError(&batch[i], code, fi.ErrorMessage, finding.IsTransientCode(code), nil)
		s.logFailure(subErr)
		failures = append(failures, subErr)
	}

	return failures, submitted
}

func (s *FindingSink) logFailure(e *finding.SubmissionError) {
	s.logger.WithFields(map[string]interface{}{
		"finding_id":   e.FindingID,
		"rule_code":    e.RuleCode,
		"resource_arn": e.ResourceARN,
		"error_code":   e.Code,
		"transient":    e.Transient,
	}).WarnWithErr(e, "Finding submission failed")
}

func (s *FindingSink) record(submitted int, failures []*finding.SubmissionError) {
	s.mu.Lock()
	s.report.Submitted += submitted
	s.report.Failures = append(s.report.Failures, failures...)
	s.mu.Unlock()

	metrics.RecordSubmissions("submitted", submitted)
	metrics.RecordSubmissions("failed", len(failures))
}

func (s *FindingSink) recordSkipped(n int) {
	s.mu.Lock()
	s.report.Skipped += n
	s.mu.Unlock()

	metrics.RecordSubmissions("skipped", n)
}

func firstErr(ctxs ...context.Context) error {
	for _, c := range ctxs {
		if c != nil && c.Err() != nil {
			return c.Err()
		}
	}
	return nil
}
