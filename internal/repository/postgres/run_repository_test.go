package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/amiaudit/internal/domain/audit"
	apperrors "github.com/pratik-mahalle/amiaudit/internal/pkg/errors"
	"github.com/pratik-mahalle/amiaudit/internal/testutil"
)

func newRun(started time.Time, status audit.Status) *audit.Run {
	return &audit.Run{
		ID:             uuid.NewString(),
		AccountID:      testutil.TestAccountID,
		Region:         "us-east-1",
		Partition:      "aws",
		Trigger:        "cli",
		Status:         status,
		Phase:          audit.PhaseInit,
		StartedAt:      started,
		RulesEvaluated: []string{"AMI.1", "AMI.2"},
	}
}

func TestRunRepository_CreateAndUpdate(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)
	repo := NewRunRepository(db, DriverSQLite)
	ctx := context.Background()

	started := time.Date(2024, 4, 2, 9, 30, 0, 123000000, time.UTC)
	run := newRun(started, audit.StatusRunning)
	require.NoError(t, repo.Create(ctx, run))

	got, err := repo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, audit.StatusRunning, got.Status)
	assert.True(t, got.StartedAt.Equal(started))
	assert.Nil(t, got.FinishedAt)
	assert.Equal(t, []string{"AMI.1", "AMI.2"}, got.RulesEvaluated)

	finished := started.Add(90 * time.Second)
	run.Status = audit.StatusCompleted
	run.Phase = audit.PhaseDone
	run.FinishedAt = &finished
	run.ResourcesListed = 4
	run.ResourcesSkipped = 1
	run.Evaluations = 6
	run.FindingsFailed = 2
	run.FindingsPassed = 4
	run.FindingsBuilt = 6
	run.Submitted = 5
	run.SubmissionErrors = 1
	require.NoError(t, repo.Update(ctx, run))

	got, err = repo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, audit.StatusCompleted, got.Status)
	assert.Equal(t, audit.PhaseDone, got.Phase)
	require.NotNil(t, got.FinishedAt)
	assert.Equal(t, 90*time.Second, got.Duration())
	assert.Equal(t, 5, got.Submitted)
	assert.Equal(t, 1, got.SubmissionErrors)
	assert.Equal(t, 1, got.ResourcesSkipped)
}

func TestRunRepository_UpdateMissing(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)
	repo := NewRunRepository(db, DriverSQLite)

	err := repo.Update(context.Background(), newRun(time.Now(), audit.StatusCompleted))
	assert.True(t, apperrors.IsNotFound(err))

	_, err = repo.GetByID(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRunRepository_List(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)
	repo := NewRunRepository(db, DriverSQLite)
	ctx := context.Background()

	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	oldest := newRun(base, audit.StatusCompleted)
	middle := newRun(base.Add(time.Hour), audit.StatusFailed)
	newest := newRun(base.Add(2*time.Hour), audit.StatusCompleted)
	for _, run := range []*audit.Run{middle, newest, oldest} {
		require.NoError(t, repo.Create(ctx, run))
	}

	runs, total, err := repo.List(ctx, audit.Filter{}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, runs, 3)
	assert.Equal(t, newest.ID, runs[0].ID)
	assert.Equal(t, middle.ID, runs[1].ID)
	assert.Equal(t, oldest.ID, runs[2].ID)

	runs, total, err = repo.List(ctx, audit.Filter{Status: audit.StatusCompleted}, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, runs, 1)
	assert.Equal(t, oldest.ID, runs[0].ID)

	_, total, err = repo.List(ctx, audit.Filter{AccountID: "000000000000"}, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}
