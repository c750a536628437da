package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pratik-mahalle/amiaudit/internal/domain/audit"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/errors"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/logger"
)

// S3PutAPI is the part of the S3 client used to upload reports
type S3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ReportExporter uploads run summaries as JSON objects
type S3ReportExporter struct {
	client S3PutAPI
	bucket string
	prefix string
	logger *logger.Logger
}

// NewS3ReportExporter creates an exporter writing to bucket under prefix
func NewS3ReportExporter(cfg aws.Config, bucket, prefix string, log *logger.Logger) *S3ReportExporter {
	return NewS3ReportExporterWithClient(s3.NewFromConfig(cfg), bucket, prefix, log)
}

// NewS3ReportExporterWithClient creates an exporter over an existing client
func NewS3ReportExporterWithClient(client S3PutAPI, bucket, prefix string, log *logger.Logger) *S3ReportExporter {
	return &S3ReportExporter{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: log.WithComponent("s3_reporter"),
	}
}

// ReportKey returns the object key of a run report
func (e *S3ReportExporter) ReportKey(run *audit.Run) string {
	return path.Join(e.prefix, run.AccountID, run.Region, run.ID+".json")
}

// Export implements audit.Reporter
func (e *S3ReportExporter) Export(ctx context.Context, run *audit.Run) error {
	body, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run report: %w", err)
	}

	key := e.ReportKey(run)
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return errors.ProviderAPIError("AWS S3", err)
	}

	e.logger.WithFields(map[string]interface{}{
		"run_id": run.ID,
		"bucket": e.bucket,
		"key":    key,
	}).Info("Exported audit run report")

	return nil
}
