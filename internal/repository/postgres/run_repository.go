package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pratik-mahalle/amiaudit/internal/domain/audit"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/errors"
)

// RunRepository implements audit.Repository
type RunRepository struct {
	db     *sql.DB
	driver string
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sql.DB, driver string) audit.Repository {
	return &RunRepository{db: db, driver: driver}
}

const runColumns = `
	id, account_id, region, partition_name, trigger_source, status, phase,
	started_at, finished_at, error_message, rules_evaluated,
	resources_listed, resources_skipped, evaluations, evaluation_errors,
	findings_built, findings_failed, findings_passed,
	submitted, submission_errors, skipped
`

// Create stores a new run
func (r *RunRepository) Create(ctx context.Context, run *audit.Run) error {
	query := fmt.Sprintf(`
		INSERT INTO audit_runs (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runColumns)

	_, err := r.db.ExecContext(ctx, Rebind(r.driver, query),
		run.ID, run.AccountID, run.Region, run.Partition, run.Trigger, string(run.Status), string(run.Phase),
		formatTime(run.StartedAt), nullTime(run.FinishedAt), run.Error, strings.Join(run.RulesEvaluated, ","),
		run.ResourcesListed, run.ResourcesSkipped, run.Evaluations, run.EvaluationErrors,
		run.FindingsBuilt, run.FindingsFailed, run.FindingsPassed,
		run.Submitted, run.SubmissionErrors, run.Skipped,
	)
	if err != nil {
		return errors.DatabaseError("Failed to create audit run", err)
	}

	return nil
}

// Update stores the latest state of a run
func (r *RunRepository) Update(ctx context.Context, run *audit.Run) error {
	query := `
		UPDATE audit_runs
		SET account_id = ?, region = ?, partition_name = ?, status = ?, phase = ?,
			finished_at = ?, error_message = ?, rules_evaluated = ?,
			resources_listed = ?, resources_skipped = ?, evaluations = ?, evaluation_errors = ?,
			findings_built = ?, findings_failed = ?, findings_passed = ?,
			submitted = ?, submission_errors = ?, skipped = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, Rebind(r.driver, query),
		run.AccountID, run.Region, run.Partition, string(run.Status), string(run.Phase),
		nullTime(run.FinishedAt), run.Error, strings.Join(run.RulesEvaluated, ","),
		run.ResourcesListed, run.ResourcesSkipped, run.Evaluations, run.EvaluationErrors,
		run.FindingsBuilt, run.FindingsFailed, run.FindingsPassed,
		run.Submitted, run.SubmissionErrors, run.Skipped,
		run.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update audit run", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}

	if rows == 0 {
		return errors.NotFound("Audit run")
	}

	return nil
}

// GetByID retrieves a run by ID
func (r *RunRepository) GetByID(ctx context.Context, id string) (*audit.Run, error) {
	query := fmt.Sprintf(`SELECT %s FROM audit_runs WHERE id = ?`, runColumns)

	run, err := scanRun(r.db.QueryRowContext(ctx, Rebind(r.driver, query), id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Audit run")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get audit run", err)
	}

	return run, nil
}

// List retrieves runs with filters and pagination, newest first
func (r *RunRepository) List(ctx context.Context, filter audit.Filter, limit, offset int) ([]*audit.Run, int64, error) {
	where := []string{"1 = 1"}
	var args []interface{}

	if filter.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM audit_runs WHERE %s", whereClause)
	if err := r.db.QueryRowContext(ctx, Rebind(r.driver, countQuery), args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count audit runs", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM audit_runs
		WHERE %s
		ORDER BY started_at DESC, id
		LIMIT ? OFFSET ?
	`, runColumns, whereClause)

	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx, Rebind(r.driver, query), args...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list audit runs", err)
	}
	defer rows.Close()

	var runs []*audit.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan audit run", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to iterate audit runs", err)
	}

	return runs, total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*audit.Run, error) {
	var (
		run        audit.Run
		status     string
		phase      string
		startedAt  string
		finishedAt sql.NullString
		rules      string
	)

	err := row.Scan(
		&run.ID, &run.AccountID, &run.Region, &run.Partition, &run.Trigger, &status, &phase,
		&startedAt, &finishedAt, &run.Error, &rules,
		&run.ResourcesListed, &run.ResourcesSkipped, &run.Evaluations, &run.EvaluationErrors,
		&run.FindingsBuilt, &run.FindingsFailed, &run.FindingsPassed,
		&run.Submitted, &run.SubmissionErrors, &run.Skipped,
	)
	if err != nil {
		return nil, err
	}

	run.Status = audit.Status(status)
	run.Phase = audit.Phase(phase)
	run.StartedAt = parseTime(startedAt)
	if finishedAt.Valid && finishedAt.String != "" {
		t := parseTime(finishedAt.String)
		run.FinishedAt = &t
	}
	if rules != "" {
		run.RulesEvaluated = strings.Split(rules, ",")
	}

	return &run, nil
}

// runTimeFormat is fixed width so stored timestamps sort as text
const runTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(runTimeFormat)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(runTimeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
