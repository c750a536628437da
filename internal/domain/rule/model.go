package rule

import (
	"fmt"

	"github.com/pratik-mahalle/amiaudit/internal/domain/resource"
)

// Severity is the label a failing rule reports
type Severity string

// Severity levels
const (
	SeverityCritical      Severity = "CRITICAL"
	SeverityHigh          Severity = "HIGH"
	SeverityMedium        Severity = "MEDIUM"
	SeverityLow           Severity = "LOW"
	SeverityInformational Severity = "INFORMATIONAL"
)

// Remediation points operators at the fix for a failing check
type Remediation struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Metadata is the static description of a rule
type Metadata struct {
	Code        string      `json:"code"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Severity    Severity    `json:"severity"`
	Remediation Remediation `json:"remediation"`
	Types       []string    `json:"types"`
	// RelatedRequirements maps the rule to external framework controls. It
	// does not depend on the verdict.
	RelatedRequirements []string `json:"related_requirements"`
}

// Verdict is the outcome of evaluating one subject against one rule
type Verdict struct {
	RuleCode    string           `json:"rule_code"`
	Passed      bool             `json:"passed"`
	Subject     resource.Subject `json:"subject"`
	Description string           `json:"description"`
}

// Rule is a single compliance check. Evaluate must be pure.
type Rule interface {
	Metadata() Metadata
	// Scope is the kind of subject the rule is evaluated against
	Scope() resource.Kind
	Evaluate(s resource.Subject) Verdict
}

// EvaluationError wraps a failure raised while evaluating a rule
type EvaluationError struct {
	RuleCode  string
	SubjectID string
	Cause     interface{}
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("rule %s on %s: evaluation failed: %v", e.RuleCode, e.SubjectID, e.Cause)
}

// Unwrap returns the cause when it is an error
func (e *EvaluationError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}

// SafeEvaluate evaluates r against s, converting a panic into an EvaluationError.
func SafeEvaluate(r Rule, s resource.Subject) (v Verdict, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &EvaluationError{
				RuleCode:  r.Metadata().Code,
				SubjectID: s.Key(),
				Cause:     rec,
			}
		}
	}()
	v = r.Evaluate(s)
	if v.RuleCode == "" {
		v.RuleCode = r.Metadata().Code
	}
	return v, nil
}
