package store

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/Sternrassler/freight-batch/pkg/report"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// PutObjectAPI is the part of the S3 client the archiver needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config configures the archive bucket.
type S3Config struct {
	Bucket string
	Prefix string // e.g. "freight-batch/reports"
	Region string
}

// S3Archiver uploads finished reports as CSV.
type S3Archiver struct {
	client PutObjectAPI
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3Archiver creates an archiver using the default AWS credential chain.
func NewS3Archiver(ctx context.Context, cfg S3Config) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
		if region == "" {
			region = "us-east-1"
		}
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewS3ArchiverWithClient(s3.NewFromConfig(awsCfg), cfg), nil
}

// NewS3ArchiverWithClient creates an archiver on top of an existing client.
func NewS3ArchiverWithClient(client PutObjectAPI, cfg S3Config) *S3Archiver {
	a := &S3Archiver{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: log.With().Str("component", "s3-archiver").Logger(),
	}
	a.logger.Info().Str("bucket", cfg.Bucket).Str("prefix", cfg.Prefix).Msg("Report archive enabled")
	return a
}

// Archive uploads result as CSV to s3://bucket/prefix/<operation>/<id>.csv.
func (a *S3Archiver) Archive(ctx context.Context, result *report.BatchResult) error {
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, result); err != nil {
		ArchiveUploads.WithLabelValues("error").Inc()
		return fmt.Errorf("render report: %w", err)
	}

	key := ObjectKey(a.prefix, result.Operation, result.ID)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
		Metadata: map[string]string{
			"operation":        result.Operation,
			"duration-seconds": result.DurationSeconds(),
		},
	})
	if err != nil {
		ArchiveUploads.WithLabelValues("error").Inc()
		return fmt.Errorf("upload s3://%s/%s: %w", a.bucket, key, err)
	}

	ArchiveUploads.WithLabelValues("ok").Inc()
	a.logger.Debug().Str("batch_id", result.ID).Str("key", key).Int("bytes", buf.Len()).Msg("Report archived")
	return nil
}
