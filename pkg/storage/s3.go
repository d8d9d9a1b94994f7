package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// expiresMetaKey is the S3 object metadata key holding the entry expiry.
// S3 has no per-object TTL, so expiry is enforced on read.
const expiresMetaKey = "loom-expires-at"

// S3API is the subset of the S3 client the backend needs. *s3.Client from
// aws-sdk-go-v2 satisfies it; tests can substitute a fake.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Backend stores entries as S3 objects under a key prefix. Latency makes
// it a poor fit for hot state; it suits durable, rarely-written values such
// as per-user preferences.
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	backend := storage.NewS3Backend(s3.NewFromConfig(cfg), "my-bucket")
type S3Backend struct {
	client S3API
	bucket string
	prefix string
	closed bool
}

// S3Option configures S3Backend behavior.
type S3Option func(*s3Config)

type s3Config struct {
	prefix string
}

// WithS3Prefix sets the object key prefix. Default: "loom/state/".
func WithS3Prefix(prefix string) S3Option {
	return func(c *s3Config) {
		c.prefix = prefix
	}
}

// NewS3Backend creates an S3-backed Backend writing to bucket.
func NewS3Backend(client S3API, bucket string, opts ...S3Option) *S3Backend {
	cfg := &s3Config{
		prefix: "loom/state/",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &S3Backend{
		client: client,
		bucket: bucket,
		prefix: cfg.prefix,
	}
}

// Set uploads value. A non-zero ttl is recorded as object metadata and
// enforced by Get.
func (b *S3Backend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if b.closed {
		return ErrClosed{}
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.prefix + key),
		Body:   bytes.NewReader(value),
	}
	if ttl > 0 {
		input.Metadata = map[string]string{
			expiresMetaKey: time.Now().Add(ttl).Format(time.RFC3339),
		}
	}

	_, err := b.client.PutObject(ctx, input)
	return err
}

// Get downloads the value, or returns (nil, nil) when the object is absent
// or its recorded expiry has passed.
func (b *S3Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if b.closed {
		return nil, ErrClosed{}
	}

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.prefix + key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil
		}
		return nil, err
	}
	defer out.Body.Close()

	if raw, ok := out.Metadata[expiresMetaKey]; ok {
		if expiresAt, perr := time.Parse(time.RFC3339, raw); perr == nil && time.Now().After(expiresAt) {
			return nil, nil
		}
	}

	return io.ReadAll(out.Body)
}

// Delete removes the object.
func (b *S3Backend) Delete(ctx context.Context, key string) error {
	if b.closed {
		return ErrClosed{}
	}

	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.prefix + key),
	})
	return err
}

// Close marks the backend closed. The S3 client is caller-owned.
func (b *S3Backend) Close() error {
	b.closed = true
	return nil
}

var _ Backend = (*S3Backend)(nil)
