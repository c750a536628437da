package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/amiaudit/internal/domain/finding"
	"github.com/pratik-mahalle/amiaudit/internal/domain/resource"
	"github.com/pratik-mahalle/amiaudit/internal/domain/rule"
	apperrors "github.com/pratik-mahalle/amiaudit/internal/pkg/errors"
	"github.com/pratik-mahalle/amiaudit/internal/testutil"
)

func testFinding(t *testing.T, imageID string, public bool, at time.Time) *finding.Finding {
	t.Helper()
	img, err := resource.ExtractImage(resource.Record{
		resource.KeyImageID: imageID,
		resource.KeyName:    "img-" + imageID,
		resource.KeyPublic:  public,
	}, testutil.TestIdentity())
	require.NoError(t, err)

	r := rule.PublicImageRule{}
	v, err := rule.SafeEvaluate(r, img.Subject)
	require.NoError(t, err)
	f := finding.Build(testutil.TestIdentity(), r.Metadata(), v, at)
	return &f
}

func TestFindingRepository_UpsertPreservesFirstObserved(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)
	repo := NewFindingRepository(db, DriverSQLite)
	ctx := context.Background()

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	failing := testFinding(t, "ami-1", true, first)
	require.NoError(t, repo.Upsert(ctx, failing))

	later := first.Add(48 * time.Hour)
	passing := testFinding(t, "ami-1", false, later)
	require.Equal(t, failing.ID, passing.ID)
	require.NoError(t, repo.Upsert(ctx, passing))

	got, err := repo.GetByID(ctx, failing.ID)
	require.NoError(t, err)

	assert.Equal(t, finding.FormatTime(first), got.FirstObservedAt)
	assert.Equal(t, finding.FormatTime(first), got.CreatedAt)
	assert.Equal(t, finding.FormatTime(later), got.UpdatedAt)
	assert.Equal(t, finding.CompliancePassed, got.Compliance.Status)
	assert.Equal(t, finding.RecordStateArchived, got.RecordState)
	assert.Equal(t, "AMI.1", got.RuleCode)

	list, total, err := repo.List(ctx, finding.Filter{}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)
}

func TestFindingRepository_GetByIDNotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)
	repo := NewFindingRepository(db, DriverSQLite)

	_, err := repo.GetByID(context.Background(), "arn:aws:ec2:us-east-1::image/ami-missing/AMI.1")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFindingRepository_ListAndCount(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)
	repo := NewFindingRepository(db, DriverSQLite)
	ctx := context.Background()

	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, testFinding(t, "ami-1", true, base)))
	require.NoError(t, repo.Upsert(ctx, testFinding(t, "ami-2", true, base.Add(time.Minute))))
	require.NoError(t, repo.Upsert(ctx, testFinding(t, "ami-3", false, base.Add(2*time.Minute))))

	tests := []struct {
		name      string
		filter    finding.Filter
		wantTotal int64
	}{
		{name: "all", filter: finding.Filter{}, wantTotal: 3},
		{name: "active", filter: finding.Filter{RecordState: finding.RecordStateActive}, wantTotal: 2},
		{name: "passed", filter: finding.Filter{ComplianceStatus: finding.CompliancePassed}, wantTotal: 1},
		{name: "by rule", filter: finding.Filter{RuleCode: "AMI.2"}, wantTotal: 0},
		{name: "by resource", filter: finding.Filter{ResourceID: "arn:aws:ec2:us-east-1::image/ami-2"}, wantTotal: 1},
		{name: "other account", filter: finding.Filter{AwsAccountID: "999999999999"}, wantTotal: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := repo.List(ctx, tt.filter, 10, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
		})
	}

	page, total, err := repo.List(ctx, finding.Filter{}, 2, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "arn:aws:ec2:us-east-1::image/ami-3/AMI.1", page[0].ID)

	counts, err := repo.CountByState(ctx, testutil.TestAccountID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts[finding.RecordStateActive])
	assert.EqualValues(t, 1, counts[finding.RecordStateArchived])

	counts, err = repo.CountByState(ctx, "999999999999")
	require.NoError(t, err)
	assert.EqualValues(t, 0, counts[finding.RecordStateActive])
}

func TestFindingRepository_PostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewFindingRepository(db, DriverPostgres)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"rule_code", "first_observed_at", "created_at", "payload"}))

	_, err = repo.GetByID(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindingRepository_DatabaseErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewFindingRepository(db, DriverSQLite)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO findings").WillReturnError(errors.New("disk I/O error"))
	err = repo.Upsert(ctx, testFinding(t, "ami-1", true, time.Now()))
	assert.Equal(t, apperrors.ErrCodeDatabase, apperrors.As(err).Code)

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("no such table"))
	_, _, err = repo.List(ctx, finding.Filter{}, 10, 0)
	assert.Equal(t, apperrors.ErrCodeDatabase, apperrors.As(err).Code)

	mock.ExpectQuery("SELECT rule_code").
		WillReturnRows(sqlmock.NewRows([]string{"rule_code", "first_observed_at", "created_at", "payload"}).
			AddRow("AMI.1", "x", "x", "{not json"))
	_, err = repo.GetByID(ctx, "broken")
	assert.Equal(t, apperrors.ErrCodeDatabase, apperrors.As(err).Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}
