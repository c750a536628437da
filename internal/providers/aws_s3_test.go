package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/amiaudit/internal/domain/audit"
	"github.com/pratik-mahalle/amiaudit/internal/testutil"
)

type fakeS3 struct {
	key  string
	body []byte
	err  error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.key = aws.ToString(in.Key)
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3ReportExporter_Export(t *testing.T) {
	client := &fakeS3{}
	exporter := NewS3ReportExporterWithClient(client, "reports", "amiaudit/runs", testutil.NewLogger())

	run := &audit.Run{
		ID:        "run-42",
		AccountID: "123456789012",
		Region:    "us-east-1",
		Status:    audit.StatusCompleted,
		StartedAt: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		Submitted: 3,
	}
	require.NoError(t, exporter.Export(context.Background(), run))

	assert.Equal(t, "amiaudit/runs/123456789012/us-east-1/run-42.json", client.key)

	var decoded audit.Run
	require.NoError(t, json.Unmarshal(client.body, &decoded))
	assert.Equal(t, "run-42", decoded.ID)
	assert.Equal(t, 3, decoded.Submitted)
}

func TestS3ReportExporter_Error(t *testing.T) {
	exporter := NewS3ReportExporterWithClient(&fakeS3{err: errors.New("NoSuchBucket")}, "reports", "", testutil.NewLogger())

	err := exporter.Export(context.Background(), &audit.Run{ID: "run-1"})
	assert.Error(t, err)
}
