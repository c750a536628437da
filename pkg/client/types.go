package client

import "time"

// Rule represents a registered compliance rule
type Rule struct {
	Code                string   `json:"code"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Severity            string   `json:"severity"`
	Scope               string   `json:"scope"` // image, volume
	RemediationText     string   `json:"remediationText"`
	RemediationURL      string   `json:"remediationUrl"`
	RelatedRequirements []string `json:"relatedRequirements"`
}

// Run represents an audit run summary
type Run struct {
	ID               string     `json:"id"`
	AccountID        string     `json:"accountId"`
	Region           string     `json:"region"`
	Trigger          string     `json:"trigger"` // cli, api, schedule
	Status           string     `json:"status"`  // running, completed, cancelled, failed
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

// Finding represents a stored compliance finding
type Finding struct {
	ID              string            `json:"Id"`
	GeneratorID     string            `json:"GeneratorId"`
	AwsAccountID    string            `json:"AwsAccountId"`
	Title           string            `json:"Title"`
	Description     string            `json:"Description"`
	FirstObservedAt string            `json:"FirstObservedAt"`
	UpdatedAt       string            `json:"UpdatedAt"`
	ProductFields   map[string]string `json:"ProductFields,omitempty"`
	RecordState     string            `json:"RecordState"`
	Severity        struct {
		Label string `json:"Label"`
	} `json:"Severity"`
	Compliance struct {
		Status string `json:"Status"`
	} `json:"Compliance"`
	Workflow struct {
		Status string `json:"Status"`
	} `json:"Workflow"`
	Resources []struct {
		Type   string `json:"Type"`
		ID     string `json:"Id"`
		Region string `json:"Region"`
	} `json:"Resources"`
}

// ResourceARN returns the ARN of the first resource
func (f *Finding) ResourceARN() string {
	if len(f.Resources) == 0 {
		return ""
	}
	return f.Resources[0].ID
}

// FindingSummary holds finding counts by record state
type FindingSummary struct {
	Active   int64 `json:"active"`
	Archived int64 `json:"archived"`
	Total    int64 `json:"total"`
}

// ListOptions contains common options for list operations
type ListOptions struct {
	Page     int `json:"page,omitempty"`      // Page number (1-based)
	PageSize int `json:"page_size,omitempty"` // Items per page
}

// ListResponse represents a paginated list response
type ListResponse[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}
