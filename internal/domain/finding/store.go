package finding

import (
	"context"
	"fmt"
)

// Store is the outbound findings store. Duplicate ids are updates.
type Store interface {
	// BatchImport submits findings. A non-nil error means the whole batch
	// failed; per-item rejections are reported in the result.
	BatchImport(ctx context.Context, findings []Finding) (*ImportResult, error)
}

// ImportResult reports the outcome of a batch
type ImportResult struct {
	SuccessCount int            `json:"success_count"`
	Failed       []FailedImport `json:"failed,omitempty"`
}

// FailedImport is a structured per-item rejection
type FailedImport struct {
	FindingID    string `json:"finding_id"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// Receipt acknowledges a submitted finding
type Receipt struct {
	FindingID string `json:"finding_id"`
	Status    string `json:"status"`
}

// Submission error codes
const (
	ErrCodeRejected    = "REJECTED"
	ErrCodeTransport   = "TRANSPORT_ERROR"
	ErrCodeCancelled   = "CANCELLED"
	ErrCodeInvalid     = "INVALID_FINDING"
	ErrCodeUnavailable = "STORE_UNAVAILABLE"
)

// transientCodes are per-item error codes worth retrying
var transientCodes = map[string]bool{
	ErrCodeTransport:           true,
	ErrCodeUnavailable:         true,
	"ThrottlingException":      true,
	"LimitExceededException":   true,
	"InternalException":        true,
	"ServiceUnavailable":       true,
	"TooManyRequestsException": true,
}

// IsTransientCode reports whether a store error code describes a retryable failure
func IsTransientCode(code string) bool {
	return transientCodes[code]
}

// SubmissionError describes a finding the store did not accept. It carries
// enough context to resubmit out of band.
type SubmissionError struct {
	FindingID   string `json:"finding_id"`
	RuleCode    string `json:"rule_code"`
	ResourceARN string `json:"resource_arn"`
	Code        string `json:"code"`
	Message     string `json:"message"`
	Transient   bool   `json:"transient"`
	Err         error  `json:"-"`
}

func (e *SubmissionError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("submit finding %s: %s: %s", e.FindingID, e.Code, msg)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// NewSubmissionError creates a SubmissionError for f.
func NewSubmissionError(f *Finding, code, message string, transient bool, err error) *SubmissionError {
	return &SubmissionError{
		FindingID:   f.ID,
		RuleCode:    f.RuleCode,
		ResourceARN: f.ResourceARN(),
		Code:        code,
		Message:     message,
		Transient:   transient,
		Err:         err,
	}
}
