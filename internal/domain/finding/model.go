package finding

// SchemaVersion is the finding format version understood by Security Hub
const SchemaVersion = "2018-10-08"

// TimeFormat renders timestamps with date, time and UTC offset. It round-trips
// through time.Parse.
const TimeFormat = "2006-01-02T15:04:05.000000-07:00"

// DefaultConfidence is reported on every finding
const DefaultConfidence = 99

// Compliance status
const (
	ComplianceFailed = "FAILED"
	CompliancePassed = "PASSED"
)

// Workflow status
const (
	WorkflowNew      = "NEW"
	WorkflowResolved = "RESOLVED"
)

// Record state
const (
	RecordStateActive   = "ACTIVE"
	RecordStateArchived = "ARCHIVED"
)

// ResourceTypeOther is the resource type reported for machine images
const ResourceTypeOther = "Other"

// Finding is a normalized compliance assertion about one subject under one rule
type Finding struct {
	SchemaVersion   string            `json:"SchemaVersion" validate:"required"`
	ID              string            `json:"Id" validate:"required,max=512"`
	ProductArn      string            `json:"ProductArn" validate:"required,startswith=arn:"`
	GeneratorID     string            `json:"GeneratorId" validate:"required,max=512"`
	AwsAccountID    string            `json:"AwsAccountId" validate:"required,aws_account"`
	Types           []string          `json:"Types" validate:"required,min=1"`
	FirstObservedAt string            `json:"FirstObservedAt" validate:"required"`
	CreatedAt       string            `json:"CreatedAt" validate:"required"`
	UpdatedAt       string            `json:"UpdatedAt" validate:"required"`
	Severity        Severity          `json:"Severity"`
	Confidence      int               `json:"Confidence" validate:"gte=0,lte=100"`
	Title           string            `json:"Title" validate:"required,max=256"`
	Description     string            `json:"Description" validate:"required,max=1024"`
	Remediation     Remediation       `json:"Remediation"`
	ProductFields   map[string]string `json:"ProductFields,omitempty"`
	Resources       []Resource        `json:"Resources" validate:"required,min=1,dive"`
	Compliance      Compliance        `json:"Compliance"`
	Workflow        Workflow          `json:"Workflow"`
	RecordState     string            `json:"RecordState" validate:"oneof=ACTIVE ARCHIVED"`

	// RuleCode is not part of the submitted record
	RuleCode string `json:"-"`
}

// Severity carries the severity label
type Severity struct {
	Label string `json:"Label" validate:"oneof=INFORMATIONAL LOW MEDIUM HIGH CRITICAL"`
}

// Remediation wraps the recommendation
type Remediation struct {
	Recommendation Recommendation `json:"Recommendation"`
}

// Recommendation is the remediation text and link
type Recommendation struct {
	Text string `json:"Text" validate:"required"`
	URL  string `json:"Url" validate:"omitempty,url"`
}

// Resource is the resource a finding is about
type Resource struct {
	Type      string  `json:"Type" validate:"required"`
	ID        string  `json:"Id" validate:"required"`
	Partition string  `json:"Partition" validate:"required"`
	Region    string  `json:"Region" validate:"required"`
	Details   Details `json:"Details"`
}

// Details is the structured resource detail bag
type Details struct {
	Other map[string]string `json:"Other,omitempty"`
}

// Compliance carries the verdict and the framework cross-references
type Compliance struct {
	Status              string   `json:"Status" validate:"oneof=PASSED FAILED"`
	RelatedRequirements []string `json:"RelatedRequirements,omitempty"`
}

// Workflow carries the lifecycle marker
type Workflow struct {
	Status string `json:"Status" validate:"oneof=NEW NOTIFIED RESOLVED SUPPRESSED"`
}

// Passed reports whether the finding records a passing check
func (f *Finding) Passed() bool {
	return f.Compliance.Status == CompliancePassed
}

// ResourceARN returns the ARN of the first resource
func (f *Finding) ResourceARN() string {
	if len(f.Resources) == 0 {
		return ""
	}
	return f.Resources[0].ID
}

// Filter contains finding filtering options
type Filter struct {
	RuleCode         string
	RecordState      string
	ComplianceStatus string
	ResourceID       string
	AwsAccountID     string
}
