package finding

import (
	"fmt"
	"time"

	"github.com/pratik-mahalle/amiaudit/internal/domain/resource"
	"github.com/pratik-mahalle/amiaudit/internal/domain/rule"
)

// ProductName is reported in ProductFields unless overridden
const ProductName = "amiaudit"

// ID derives the finding identifier from the subject key and rule code.
func ID(subjectKey, ruleCode string) string {
	return subjectKey + "/" + ruleCode
}

// ProductArn returns the default product ARN of the account's own findings.
func ProductArn(id resource.Identity) string {
	return resource.ARN{
		Partition: id.Partition,
		Service:   "securityhub",
		Region:    id.Region,
		AccountID: id.AccountID,
		Resource:  fmt.Sprintf("product/%s/default", id.AccountID),
	}.String()
}

// FormatTime renders t in TimeFormat, in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// Builder constructs findings for one run
type Builder struct {
	Identity    resource.Identity
	ProductName string
}

// NewBuilder creates a builder stamping findings with id.
func NewBuilder(id resource.Identity, productName string) *Builder {
	if productName == "" {
		productName = ProductName
	}
	return &Builder{Identity: id, ProductName: productName}
}

// Build constructs the finding for verdict v at the run timestamp.
func (b *Builder) Build(meta rule.Metadata, v rule.Verdict, at time.Time) Finding {
	ts := FormatTime(at)
	s := v.Subject

	f := Finding{
		SchemaVersion:   SchemaVersion,
		ID:              ID(s.Key(), meta.Code),
		ProductArn:      ProductArn(b.Identity),
		GeneratorID:     s.ResourceARN,
		AwsAccountID:    b.Identity.AccountID,
		Types:           append([]string(nil), meta.Types...),
		FirstObservedAt: ts,
		CreatedAt:       ts,
		UpdatedAt:       ts,
		Confidence:      DefaultConfidence,
		Title:           meta.Title,
		Description:     v.Description,
		Remediation: Remediation{
			Recommendation: Recommendation{
				Text: meta.Remediation.Text,
				URL:  meta.Remediation.URL,
			},
		},
		ProductFields: map[string]string{
			"Product Name": b.ProductName,
			"Rule Code":    meta.Code,
		},
		Resources: []Resource{
			{
				Type:      ResourceTypeOther,
				ID:        s.ResourceARN,
				Partition: b.Identity.Partition,
				Region:    b.Identity.Region,
				Details:   Details{Other: s.Details()},
			},
		},
		Compliance: Compliance{
			RelatedRequirements: append([]string(nil), meta.RelatedRequirements...),
		},
		RuleCode: meta.Code,
	}

	if v.Passed {
		f.Severity.Label = string(rule.SeverityInformational)
		f.Compliance.Status = CompliancePassed
		f.Workflow.Status = WorkflowResolved
		f.RecordState = RecordStateArchived
	} else {
		f.Severity.Label = string(meta.Severity)
		f.Compliance.Status = ComplianceFailed
		f.Workflow.Status = WorkflowNew
		f.RecordState = RecordStateActive
	}

	return f
}

// Build is a convenience wrapper around Builder.Build.
func Build(id resource.Identity, meta rule.Metadata, v rule.Verdict, at time.Time) Finding {
	return NewBuilder(id, "").Build(meta, v, at)
}
