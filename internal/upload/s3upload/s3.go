// Package s3upload implements an Uploader publishing artifacts to an
// AWS S3 bucket or an S3-compatible service.
package s3upload

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/discochess/streaklab/internal/upload"
)

// Compile-time checks that Uploader implements the upload interfaces.
var (
	_ upload.Uploader = (*Uploader)(nil)
	_ upload.Lister   = (*Uploader)(nil)
)

// Uploader publishes artifacts to an S3 bucket.
type Uploader struct {
	client *s3.Client
	bucket string
	prefix string
}

// New creates an S3 uploader. The bucket must already exist.
func New(ctx context.Context, bucketName string, opts ...Option) (*Uploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	u := &Uploader{
		client: s3.NewFromConfig(cfg),
		bucket: bucketName,
	}
	for _, opt := range opts {
		if err := opt(u); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// Option configures an Uploader.
type Option func(*Uploader) error

// WithPrefix sets a key prefix for all uploads.
func WithPrefix(prefix string) Option {
	return func(u *Uploader) error {
		u.prefix = strings.TrimSuffix(prefix, "/")
		if u.prefix != "" {
			u.prefix += "/"
		}
		return nil
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(u *Uploader) error {
		cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
		if err != nil {
			return fmt.Errorf("loading AWS config with region: %w", err)
		}
		u.client = s3.NewFromConfig(cfg)
		return nil
	}
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
func WithEndpoint(endpoint string) Option {
	return func(u *Uploader) error {
		cfg, err := config.LoadDefaultConfig(context.Background())
		if err != nil {
			return fmt.Errorf("loading AWS config for endpoint: %w", err)
		}
		u.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
		return nil
	}
}

// Upload writes the artifact to the bucket under prefix/name.
func (u *Uploader) Upload(ctx context.Context, name string, r io.Reader) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(u.prefix + name),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("uploading object %s: %w", name, err)
	}
	return nil
}

// List returns the keys of objects under the prefix, sorted.
func (u *Uploader) List(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(u.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(u.bucket),
		Prefix: aws.String(u.prefix),
	})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		for _, obj := range page.Contents {
			names = append(names, strings.TrimPrefix(aws.ToString(obj.Key), u.prefix))
		}
	}
	return names, nil
}

// Close releases resources.
func (u *Uploader) Close() error {
	// The S3 client doesn't need explicit closing.
	return nil
}
