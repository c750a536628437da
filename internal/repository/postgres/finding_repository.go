package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pratik-mahalle/amiaudit/internal/domain/finding"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/errors"
)

// FindingRepository implements finding.Repository
type FindingRepository struct {
	db     *sql.DB
	driver string
}

// NewFindingRepository creates a new finding repository
func NewFindingRepository(db *sql.DB, driver string) finding.Repository {
	return &FindingRepository{db: db, driver: driver}
}

// Upsert inserts a finding or refreshes the mutable fields of an existing one
func (r *FindingRepository) Upsert(ctx context.Context, f *finding.Finding) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return errors.Internal("Failed to encode finding", err)
	}

	query := `
		INSERT INTO findings (
			id, rule_code, aws_account_id, region, resource_id, generator_id, title,
			severity_label, compliance_status, workflow_status, record_state,
			first_observed_at, created_at, updated_at, payload
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			rule_code = excluded.rule_code,
			aws_account_id = excluded.aws_account_id,
			region = excluded.region,
			resource_id = excluded.resource_id,
			generator_id = excluded.generator_id,
			title = excluded.title,
			severity_label = excluded.severity_label,
			compliance_status = excluded.compliance_status,
			workflow_status = excluded.workflow_status,
			record_state = excluded.record_state,
			updated_at = excluded.updated_at,
			payload = excluded.payload
	`

	region := ""
	if len(f.Resources) > 0 {
		region = f.Resources[0].Region
	}

	_, err = r.db.ExecContext(ctx, Rebind(r.driver, query),
		f.ID, f.RuleCode, f.AwsAccountID, region, f.ResourceARN(), f.GeneratorID, f.Title,
		f.Severity.Label, f.Compliance.Status, f.Workflow.Status, f.RecordState,
		f.FirstObservedAt, f.CreatedAt, f.UpdatedAt, string(payload),
	)
	if err != nil {
		return errors.DatabaseError("Failed to upsert finding", err)
	}

	return nil
}

// GetByID retrieves a finding by ID
func (r *FindingRepository) GetByID(ctx context.Context, id string) (*finding.Finding, error) {
	query := `
		SELECT rule_code, first_observed_at, created_at, payload
		FROM findings
		WHERE id = ?
	`

	var ruleCode, firstObserved, created, payload string
	err := r.db.QueryRowContext(ctx, Rebind(r.driver, query), id).Scan(&ruleCode, &firstObserved, &created, &payload)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Finding")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get finding", err)
	}

	return decodeFinding(ruleCode, firstObserved, created, payload)
}

// List retrieves findings with filters and pagination, most recently updated first
func (r *FindingRepository) List(ctx context.Context, filter finding.Filter, limit, offset int) ([]*finding.Finding, int64, error) {
	whereClause, args := findingWhere(filter)

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM findings WHERE %s", whereClause)
	if err := r.db.QueryRowContext(ctx, Rebind(r.driver, countQuery), args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count findings", err)
	}

	query := fmt.Sprintf(`
		SELECT rule_code, first_observed_at, created_at, payload
		FROM findings
		WHERE %s
		ORDER BY updated_at DESC, id
		LIMIT ? OFFSET ?
	`, whereClause)

	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx, Rebind(r.driver, query), args...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list findings", err)
	}
	defer rows.Close()

	var findings []*finding.Finding
	for rows.Next() {
		var ruleCode, firstObserved, created, payload string
		if err := rows.Scan(&ruleCode, &firstObserved, &created, &payload); err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan finding", err)
		}
		f, err := decodeFinding(ruleCode, firstObserved, created, payload)
		if err != nil {
			return nil, 0, err
		}
		findings = append(findings, f)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to iterate findings", err)
	}

	return findings, total, nil
}

// CountByState returns finding counts keyed by record state
func (r *FindingRepository) CountByState(ctx context.Context, accountID string) (map[string]int64, error) {
	whereClause, args := findingWhere(finding.Filter{AwsAccountID: accountID})
	query := fmt.Sprintf(`
		SELECT record_state, COUNT(*)
		FROM findings
		WHERE %s
		GROUP BY record_state
	`, whereClause)

	rows, err := r.db.QueryContext(ctx, Rebind(r.driver, query), args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to count findings by state", err)
	}
	defer rows.Close()

	counts := map[string]int64{
		finding.RecordStateActive:   0,
		finding.RecordStateArchived: 0,
	}
	for rows.Next() {
		var state string
		var n int64
		if err := rows.Scan(&state, &n); err != nil {
			return nil, errors.DatabaseError("Failed to scan finding count", err)
		}
		counts[state] = n
	}

	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate finding counts", err)
	}

	return counts, nil
}

func findingWhere(filter finding.Filter) (string, []interface{}) {
	where := []string{"1 = 1"}
	var args []interface{}

	if filter.AwsAccountID != "" {
		where = append(where, "aws_account_id = ?")
		args = append(args, filter.AwsAccountID)
	}
	if filter.RuleCode != "" {
		where = append(where, "rule_code = ?")
		args = append(args, filter.RuleCode)
	}
	if filter.RecordState != "" {
		where = append(where, "record_state = ?")
		args = append(args, filter.RecordState)
	}
	if filter.ComplianceStatus != "" {
		where = append(where, "compliance_status = ?")
		args = append(args, filter.ComplianceStatus)
	}
	if filter.ResourceID != "" {
		where = append(where, "resource_id = ?")
		args = append(args, filter.ResourceID)
	}

	return strings.Join(where, " AND "), args
}

// decodeFinding restores a finding from its payload. The stored first-observed
// and created timestamps win over the payload's.
func decodeFinding(ruleCode, firstObserved, created, payload string) (*finding.Finding, error) {
	var f finding.Finding
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		return nil, errors.DatabaseError("Failed to decode finding", err)
	}
	f.RuleCode = ruleCode
	f.FirstObservedAt = firstObserved
	f.CreatedAt = created
	return &f, nil
}
