package audit

import (
	"time"

	"github.com/pratik-mahalle/amiaudit/internal/domain/finding"
)

// Status is the state of an audit run
type Status string

// Run statuses
const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Phase is a step of the run state machine
type Phase string

// Run phases
const (
	PhaseInit          Phase = "init"
	PhaseListResources Phase = "list_resources"
	PhaseEvaluate      Phase = "evaluate"
	PhaseDone          Phase = "done"
)

// Options controls a single run
type Options struct {
	// RunID identifies the run; a fresh id is generated when empty
	RunID string
	// Owner filters resources by owner, "self" for the caller's account
	Owner string
	// RuleCodes narrows the catalog; empty runs every rule
	RuleCodes []string
	// Timeout bounds the run; zero means no timeout
	Timeout time.Duration
	// Trigger records who started the run (cli, api, schedule)
	Trigger string
}

// Run is the summary of one audit pass
type Run struct {
	ID         string     `json:"id"`
	AccountID  string     `json:"account_id"`
	Region     string     `json:"region"`
	Partition  string     `json:"partition"`
	Trigger    string     `json:"trigger"`
	Status     Status     `json:"status"`
	Phase      Phase      `json:"phase"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`

	RulesEvaluated   []string `json:"rules_evaluated"`
	ResourcesListed  int      `json:"resources_listed"`
	ResourcesSkipped int      `json:"resources_skipped"`
	Evaluations      int      `json:"evaluations"`
	EvaluationErrors int      `json:"evaluation_errors"`
	FindingsBuilt    int      `json:"findings_built"`
	FindingsFailed   int      `json:"findings_failed"`
	FindingsPassed   int      `json:"findings_passed"`
	Submitted        int      `json:"submitted"`
	SubmissionErrors int      `json:"submission_errors"`
	Skipped          int      `json:"skipped"`

	// Failures lists the submission errors of the run; not persisted
	Failures []*finding.SubmissionError `json:"failures,omitempty"`
}

// Duration returns how long the run took, zero while running
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Filter contains run filtering options
type Filter struct {
	AccountID string
	Status    Status
}
