package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/pratik-mahalle/amiaudit/internal/domain/audit"
	"github.com/pratik-mahalle/amiaudit/internal/domain/finding"
	"github.com/pratik-mahalle/amiaudit/internal/domain/resource"
	"github.com/pratik-mahalle/amiaudit/internal/domain/rule"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/errors"
)

// TestAccountID is the account every mock identity reports
const TestAccountID = "123456789012"

// TestIdentity returns the identity used across tests
func TestIdentity() resource.Identity {
	return resource.Identity{AccountID: TestAccountID, Region: "us-east-1", Partition: "aws"}
}

// MockLister is a mock implementation of resource.Lister
type MockLister struct {
	Records   []resource.Record
	ListError error
	// Block, when set, waits for ctx to be done before returning
	Block bool

	mu     sync.Mutex
	Owners []string
}

func (m *MockLister) List(ctx context.Context, owner string) ([]resource.Record, error) {
	m.mu.Lock()
	m.Owners = append(m.Owners, owner)
	m.mu.Unlock()

	if m.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.Records, nil
}

// MockIdentity is a mock implementation of resource.IdentityProvider
type MockIdentity struct {
	ID    resource.Identity
	Error error
}

func NewMockIdentity() *MockIdentity {
	return &MockIdentity{ID: TestIdentity()}
}

func (m *MockIdentity) Identity(ctx context.Context) (resource.Identity, error) {
	if m.Error != nil {
		return resource.Identity{}, m.Error
	}
	return m.ID, nil
}

// MockStore is a mock implementation of finding.Store. It records every
// accepted finding by id; later imports of the same id overwrite earlier ones.
type MockStore struct {
	mu sync.Mutex

	// BatchError fails every batch as a whole
	BatchError error
	// Reject maps finding ids to the error code returned for them
	Reject map[string]string
	// Hold, when set, parks the first call after it closes Entered until
	// Hold is closed. The call then fails if its ctx was cancelled meanwhile.
	Hold    chan struct{}
	Entered chan struct{}

	Calls    int
	Batches  [][]finding.Finding
	Findings map[string]finding.Finding
}

func NewMockStore() *MockStore {
	return &MockStore{
		Reject:   make(map[string]string),
		Findings: make(map[string]finding.Finding),
	}
}

func (m *MockStore) BatchImport(ctx context.Context, findings []finding.Finding) (*finding.ImportResult, error) {
	m.mu.Lock()
	m.Calls++
	first := m.Calls == 1
	batch := make([]finding.Finding, len(findings))
	copy(batch, findings)
	m.Batches = append(m.Batches, batch)
	m.mu.Unlock()

	if first && m.Hold != nil {
		if m.Entered != nil {
			close(m.Entered)
		}
		<-m.Hold
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if m.BatchError != nil {
		return nil, m.BatchError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	result := &finding.ImportResult{}
	for _, f := range findings {
		if code, ok := m.Reject[f.ID]; ok {
			result.Failed = append(result.Failed, finding.FailedImport{
				FindingID:    f.ID,
				ErrorCode:    code,
				ErrorMessage: "rejected by mock store",
			})
			continue
		}
		m.Findings[f.ID] = f
		result.SuccessCount++
	}
	return result, nil
}

// Stored returns the accepted findings sorted by id
func (m *MockStore) Stored() []finding.Finding {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]finding.Finding, 0, len(m.Findings))
	for _, f := range m.Findings {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BatchSizes returns the size of every batch received
func (m *MockStore) BatchSizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()

	sizes := make([]int, len(m.Batches))
	for i, b := range m.Batches {
		sizes[i] = len(b)
	}
	return sizes
}

// MockFindingRepository is a mock implementation of finding.Repository
type MockFindingRepository struct {
	mu          sync.Mutex
	Findings    map[string]*finding.Finding
	UpsertError error
	ListError   error
}

func NewMockFindingRepository() *MockFindingRepository {
	return &MockFindingRepository{
		Findings: make(map[string]*finding.Finding),
	}
}

func (m *MockFindingRepository) Upsert(ctx context.Context, f *finding.Finding) error {
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *f
	if existing, ok := m.Findings[f.ID]; ok {
		cp.FirstObservedAt = existing.FirstObservedAt
		cp.CreatedAt = existing.CreatedAt
	}
	m.Findings[f.ID] = &cp
	return nil
}

func (m *MockFindingRepository) GetByID(ctx context.Context, id string) (*finding.Finding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.Findings[id]
	if !ok {
		return nil, errors.NotFound("Finding")
	}
	return f, nil
}

func (m *MockFindingRepository) List(ctx context.Context, filter finding.Filter, limit, offset int) ([]*finding.Finding, int64, error) {
	if m.ListError != nil {
		return nil, 0, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*finding.Finding
	for _, f := range m.Findings {
		if filter.RuleCode != "" && f.RuleCode != filter.RuleCode {
			continue
		}
		if filter.RecordState != "" && f.RecordState != filter.RecordState {
			continue
		}
		if filter.ComplianceStatus != "" && f.Compliance.Status != filter.ComplianceStatus {
			continue
		}
		if filter.ResourceID != "" && f.ResourceARN() != filter.ResourceID {
			continue
		}
		if filter.AwsAccountID != "" && f.AwsAccountID != filter.AwsAccountID {
			continue
		}
		matched = append(matched, f)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	if offset >= len(matched) {
		return []*finding.Finding{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *MockFindingRepository) CountByState(ctx context.Context, accountID string) (map[string]int64, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := map[string]int64{
		finding.RecordStateActive:   0,
		finding.RecordStateArchived: 0,
	}
	for _, f := range m.Findings {
		if accountID == "" || f.AwsAccountID == accountID {
			counts[f.RecordState]++
		}
	}
	return counts, nil
}

// MockRunRepository is a mock implementation of audit.Repository
type MockRunRepository struct {
	mu          sync.Mutex
	Runs        map[string]*audit.Run
	Order       []string
	CreateError error
	UpdateError error
}

func NewMockRunRepository() *MockRunRepository {
	return &MockRunRepository{
		Runs: make(map[string]*audit.Run),
	}
}

func (m *MockRunRepository) Create(ctx context.Context, run *audit.Run) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *run
	m.Runs[run.ID] = &cp
	m.Order = append(m.Order, run.ID)
	return nil
}

func (m *MockRunRepository) Update(ctx context.Context, run *audit.Run) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Runs[run.ID]; !ok {
		return errors.NotFound("Audit run")
	}
	cp := *run
	m.Runs[run.ID] = &cp
	return nil
}

func (m *MockRunRepository) GetByID(ctx context.Context, id string) (*audit.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.Runs[id]
	if !ok {
		return nil, errors.NotFound("Audit run")
	}
	return run, nil
}

func (m *MockRunRepository) List(ctx context.Context, filter audit.Filter, limit, offset int) ([]*audit.Run, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*audit.Run
	for i := len(m.Order) - 1; i >= 0; i-- {
		run := m.Runs[m.Order[i]]
		if filter.AccountID != "" && run.AccountID != filter.AccountID {
			continue
		}
		if filter.Status != "" && run.Status != filter.Status {
			continue
		}
		matched = append(matched, run)
	}

	total := int64(len(matched))
	if offset >= len(matched) {
		return []*audit.Run{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// MockReporter is a mock implementation of audit.Reporter
type MockReporter struct {
	mu       sync.Mutex
	Exported []*audit.Run
	Error    error
}

func (m *MockReporter) Export(ctx context.Context, run *audit.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Exported = append(m.Exported, run)
	return m.Error
}

// PanicRule is a rule whose evaluation always panics
type PanicRule struct {
	Code string
}

func (p PanicRule) Metadata() rule.Metadata {
	return rule.Metadata{
		Code:        p.Code,
		Title:       "[" + p.Code + "] Always panics",
		Description: "Test rule that panics during evaluation.",
		Severity:    rule.SeverityLow,
		Remediation: rule.Remediation{Text: "None", URL: "https://example.com/panic"},
		Types:       []string{"Software and Configuration Checks"},
	}
}

func (PanicRule) Scope() resource.Kind { return resource.KindImage }

func (p PanicRule) Evaluate(s resource.Subject) rule.Verdict {
	panic("boom")
}
