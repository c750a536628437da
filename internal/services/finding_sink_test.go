package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/amiaudit/internal/domain/finding"
	apperrors "github.com/pratik-mahalle/amiaudit/internal/pkg/errors"
	"github.com/pratik-mahalle/amiaudit/internal/testutil"
)

// testSinkConfig flushes only on full batches or Close
func testSinkConfig(batchSize int) SinkConfig {
	return SinkConfig{
		Workers:       1,
		QueueSize:     50,
		BatchSize:     batchSize,
		FlushInterval: time.Hour,
		RateLimit:     1000,
		RateBurst:     100,
	}
}

func sinkFindings(n int) []finding.Finding {
	out := make([]finding.Finding, n)
	for i := range out {
		out[i] = finding.Finding{
			ID:       fmt.Sprintf("arn:aws:ec2:us-east-1::image/ami-%d/AMI.1", i),
			RuleCode: "AMI.1",
			Resources: []finding.Resource{
				{ID: fmt.Sprintf("arn:aws:ec2:us-east-1::image/ami-%d", i)},
			},
		}
	}
	return out
}

func TestFindingSink_Batching(t *testing.T) {
	store := testutil.NewMockStore()
	sink := NewFindingSink(store, testSinkConfig(3), testutil.NewLogger())
	ctx := context.Background()
	require.NoError(t, sink.Start(ctx))

	for _, f := range sinkFindings(7) {
		require.NoError(t, sink.Enqueue(ctx, f))
	}
	report := sink.Close()

	assert.Equal(t, 7, report.Submitted)
	assert.Zero(t, report.Skipped)
	assert.Empty(t, report.Failures)
	assert.Equal(t, []int{3, 3, 1}, store.BatchSizes())
	assert.Len(t, store.Stored(), 7)
}

func TestFindingSink_BatchSizeCapped(t *testing.T) {
	sink := NewFindingSink(testutil.NewMockStore(), SinkConfig{BatchSize: 500}, testutil.NewLogger())
	assert.Equal(t, 100, sink.cfg.BatchSize)
}

func TestFindingSink_BatchFailure(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "transport error", err: errors.New("connection reset by peer"), wantCode: finding.ErrCodeTransport},
		{name: "store unavailable", err: apperrors.ServiceUnavailable("store is down"), wantCode: finding.ErrCodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewMockStore()
			store.BatchError = tt.err
			sink := NewFindingSink(store, testSinkConfig(10), testutil.NewLogger())
			ctx := context.Background()
			require.NoError(t, sink.Start(ctx))

			for _, f := range sinkFindings(4) {
				require.NoError(t, sink.Enqueue(ctx, f))
			}
			report := sink.Close()

			assert.Zero(t, report.Submitted)
			require.Len(t, report.Failures, 4)
			for _, fail := range report.Failures {
				assert.Equal(t, tt.wantCode, fail.Code)
				assert.True(t, fail.Transient)
				assert.Equal(t, "AMI.1", fail.RuleCode)
				assert.NotEmpty(t, fail.ResourceARN)
				assert.ErrorIs(t, fail, tt.err)
			}
		})
	}
}

func TestFindingSink_PerItemRejection(t *testing.T) {
	findings := sinkFindings(5)
	store := testutil.NewMockStore()
	store.Reject[findings[1].ID] = "ThrottlingException"
	store.Reject[findings[3].ID] = "InvalidInputException"

	sink := NewFindingSink(store, testSinkConfig(10), testutil.NewLogger())
	ctx := context.Background()
	require.NoError(t, sink.Start(ctx))
	for _, f := range findings {
		require.NoError(t, sink.Enqueue(ctx, f))
	}
	report := sink.Close()

	assert.Equal(t, 3, report.Submitted)
	require.Equal(t, 2, report.Failed())

	byID := map[string]*finding.SubmissionError{}
	for _, fail := range report.Failures {
		byID[fail.FindingID] = fail
	}
	require.Contains(t, byID, findings[1].ID)
	require.Contains(t, byID, findings[3].ID)
	assert.True(t, byID[findings[1].ID].Transient)
	assert.False(t, byID[findings[3].ID].Transient)
	assert.Equal(t, "rejected by mock store", byID[findings[3].ID].Message)
}

func TestFindingSink_CancelledRunSkipsQueued(t *testing.T) {
	store := testutil.NewMockStore()
	sink := NewFindingSink(store, testSinkConfig(10), testutil.NewLogger())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, sink.Start(ctx))

	for _, f := range sinkFindings(3) {
		require.NoError(t, sink.Enqueue(context.Background(), f))
	}
	cancel()

	err := sink.Enqueue(context.Background(), sinkFindings(1)[0])
	assert.ErrorIs(t, err, context.Canceled)

	report := sink.Close()
	assert.Zero(t, report.Submitted)
	assert.Equal(t, 4, report.Skipped)
	assert.Zero(t, store.Calls)
}

func TestFindingSink_CancelDuringImportCompletesInFlight(t *testing.T) {
	store := testutil.NewMockStore()
	store.Hold = make(chan struct{})
	store.Entered = make(chan struct{})
	sink := NewFindingSink(store, testSinkConfig(2), testutil.NewLogger())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, sink.Start(ctx))

	findings := sinkFindings(6)
	for _, f := range findings[:2] {
		require.NoError(t, sink.Enqueue(context.Background(), f))
	}

	select {
	case <-store.Entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first batch never reached the store")
	}

	for _, f := range findings[2:5] {
		require.NoError(t, sink.Enqueue(context.Background(), f))
	}
	cancel()
	assert.ErrorIs(t, sink.Enqueue(context.Background(), findings[5]), context.Canceled)

	close(store.Hold)
	report := sink.Close()

	assert.Equal(t, 2, report.Submitted)
	assert.Equal(t, 4, report.Skipped)
	assert.Empty(t, report.Failures)
	assert.Equal(t, 1, store.Calls)
	require.Len(t, store.Stored(), 2)
	assert.Equal(t, findings[0].ID, store.Stored()[0].ID)
}

func TestFindingSink_Lifecycle(t *testing.T) {
	sink := NewFindingSink(testutil.NewMockStore(), testSinkConfig(10), testutil.NewLogger())
	ctx := context.Background()
	f := sinkFindings(1)[0]

	assert.ErrorIs(t, sink.Enqueue(ctx, f), ErrSinkNotStarted)
	require.NoError(t, sink.Start(ctx))
	assert.ErrorIs(t, sink.Start(ctx), ErrSinkStarted)
	require.NoError(t, sink.Enqueue(ctx, f))

	first := sink.Close()
	second := sink.Close()
	assert.Equal(t, first, second)
	assert.Equal(t, 1, first.Submitted)

	assert.ErrorIs(t, sink.Enqueue(ctx, f), ErrSinkClosed)
	assert.ErrorIs(t, sink.Start(ctx), ErrSinkClosed)
}

func TestFindingSink_CloseWithoutStart(t *testing.T) {
	sink := NewFindingSink(testutil.NewMockStore(), testSinkConfig(10), testutil.NewLogger())
	report := sink.Close()
	assert.Zero(t, report.Submitted)
	assert.Zero(t, report.Skipped)
}

func TestFindingSink_Submit(t *testing.T) {
	findings := sinkFindings(2)
	store := testutil.NewMockStore()
	store.Reject[findings[1].ID] = finding.ErrCodeInvalid
	sink := NewFindingSink(store, testSinkConfig(10), testutil.NewLogger())
	ctx := context.Background()

	receipt, err := sink.Submit(ctx, findings[0])
	require.NoError(t, err)
	assert.Equal(t, findings[0].ID, receipt.FindingID)
	assert.Equal(t, ReceiptSubmitted, receipt.Status)

	receipt, err = sink.Submit(ctx, findings[1])
	assert.Nil(t, receipt)
	var subErr *finding.SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, finding.ErrCodeInvalid, subErr.Code)
	assert.False(t, subErr.Transient)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = sink.Submit(cancelled, findings[0])
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, finding.ErrCodeCancelled, subErr.Code)

	report := sink.Report()
	assert.Equal(t, 1, report.Submitted)
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, 1, report.Skipped)
}
