package dto

import (
	"time"

	"github.com/pratik-mahalle/amiaudit/internal/domain/audit"
	"github.com/pratik-mahalle/amiaudit/internal/domain/rule"
)

// StartRunRequest represents a manual audit run request
type StartRunRequest struct {
	Owner string   `json:"owner,omitempty" validate:"omitempty,image_owner"`
	Rules []string `json:"rules,omitempty" validate:"omitempty,dive,required,max=32"`
	// Timeout is a Go duration string such as "10m"
	Timeout string `json:"timeout,omitempty"`
}

// StartRunResponse is returned when a run is accepted
type StartRunResponse struct {
	RunID  string `json:"runId"`
	Status string `json:"status"`
}

// RuleDTO represents a rule in API responses
type RuleDTO struct {
	Code                string   `json:"code"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Severity            string   `json:"severity"`
	Scope               string   `json:"scope"`
	RemediationText     string   `json:"remediationText"`
	RemediationURL      string   `json:"remediationUrl"`
	RelatedRequirements []string `json:"relatedRequirements"`
}

// NewRuleDTO converts a rule
func NewRuleDTO(r rule.Rule) RuleDTO {
	m := r.Metadata()
	return RuleDTO{
		Code:                m.Code,
		Title:               m.Title,
		Description:         m.Description,
		Severity:            string(m.Severity),
		Scope:               string(r.Scope()),
		RemediationText:     m.Remediation.Text,
		RemediationURL:      m.Remediation.URL,
		RelatedRequirements: m.RelatedRequirements,
	}
}

// RunDTO represents an audit run in API responses
type RunDTO struct {
	ID               string     `json:"id"`
	AccountID        string     `json:"accountId"`
	Region           string     `json:"region"`
	Trigger          string     `json:"trigger"`
	Status           string     `json:"status"`
	Phase            string     `json:"phase"`
	StartedAt        time.Time  `json:"startedAt"`
	FinishedAt       *time.Time `json:"finishedAt,omitempty"`
	DurationMs       int64      `json:"durationMs"`
	Error            string     `json:"error,omitempty"`
	Rules            []string   `json:"rules"`
	ResourcesListed  int        `json:"resourcesListed"`
	ResourcesSkipped int        `json:"resourcesSkipped"`
	Evaluations      int        `json:"evaluations"`
	EvaluationErrors int        `json:"evaluationErrors"`
	FindingsFailed   int        `json:"findingsFailed"`
	FindingsPassed   int        `json:"findingsPassed"`
	Submitted        int        `json:"submitted"`
	SubmissionErrors int        `json:"submissionErrors"`
	Skipped          int        `json:"skipped"`
}

// NewRunDTO converts a run
func NewRunDTO(r *audit.Run) RunDTO {
	return RunDTO{
		ID:               r.ID,
		AccountID:        r.AccountID,
		Region:           r.Region,
		Trigger:          r.Trigger,
		Status:           string(r.Status),
		Phase:            string(r.Phase),
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
		DurationMs:       r.Duration().Milliseconds(),
		Error:            r.Error,
		Rules:            r.RulesEvaluated,
		ResourcesListed:  r.ResourcesListed,
		ResourcesSkipped: r.ResourcesSkipped,
		Evaluations:      r.Evaluations,
		EvaluationErrors: r.EvaluationErrors,
		FindingsFailed:   r.FindingsFailed,
		FindingsPassed:   r.FindingsPassed,
		Submitted:        r.Submitted,
		SubmissionErrors: r.SubmissionErrors,
		Skipped:          r.Skipped,
	}
}

// FindingSummaryDTO represents finding counts by record state
type FindingSummaryDTO struct {
	Active   int64 `json:"active"`
	Archived int64 `json:"archived"`
	Total    int64 `json:"total"`
}
