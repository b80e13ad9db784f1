// Package source provides access to the normalized text of contract
// documents produced by the upstream conversion pipeline.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"kontra/internal/config"
	"kontra/internal/domain"
	"kontra/internal/port"
)

var _ port.DocumentSource = (*S3Source)(nil)

type S3Source struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Source creates an S3-backed DocumentSource. Normalized text lives at
// <prefix><documentID>.md, one object per document version.
func NewS3Source(cfg *config.S3Config) (*S3Source, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return &S3Source{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		prefix:   cfg.KeyPrefix,
	}, nil
}

func (s *S3Source) key(documentID uuid.UUID) string {
	return s.prefix + documentID.String() + ".md"
}

// GetNormalizedText fetches a document's normalized markdown text.
func (s *S3Source) GetNormalizedText(ctx context.Context, documentID uuid.UUID) (string, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(documentID)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return "", fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, documentID)
		}
		return "", fmt.Errorf("fetching normalized text for %s: %w", documentID, err)
	}
	defer func() { _ = result.Body.Close() }()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return "", fmt.Errorf("reading normalized text for %s: %w", documentID, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: document %s is not valid UTF-8", domain.ErrInvalidInput, documentID)
	}
	return string(data), nil
}

// PutNormalizedText stores a document's normalized text. Used by ingestion
// tooling and tests; the service itself only reads.
func (s *S3Source) PutNormalizedText(ctx context.Context, documentID uuid.UUID, text string) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(documentID)),
		Body:        strings.NewReader(text),
		ContentType: aws.String("text/markdown; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("storing normalized text for %s: %w", documentID, err)
	}
	return nil
}
