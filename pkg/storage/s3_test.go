package storage

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeS3 implements S3API over a map of bucket-independent objects.
type fakeS3 struct {
	objects map[string][]byte
	meta    map[string]map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects: make(map[string][]byte),
		meta:    make(map[string]map[string]string),
	}
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*params.Key] = body
	f.meta[*params.Key] = params.Metadata
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[*params.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:     io.NopCloser(bytes.NewReader(body)),
		Metadata: f.meta[*params.Key],
	}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *params.Key)
	delete(f.meta, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3BackendRoundTrip(t *testing.T) {
	client := newFakeS3()
	b := NewS3Backend(client, "bucket")
	ctx := context.Background()

	if err := b.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := b.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, []byte("v")) {
		t.Errorf("expected v, got %q", got)
	}

	// The configured prefix is part of the object key
	if _, ok := client.objects["loom/state/k"]; !ok {
		t.Errorf("expected object key loom/state/k, have %v", client.objects)
	}
}

func TestS3BackendPrefix(t *testing.T) {
	client := newFakeS3()
	b := NewS3Backend(client, "bucket", WithS3Prefix("prefs/"))

	b.Set(context.Background(), "u1", []byte("v"), 0)

	if _, ok := client.objects["prefs/u1"]; !ok {
		t.Errorf("expected object key prefs/u1, have %v", client.objects)
	}
}

func TestS3BackendMissingKey(t *testing.T) {
	b := NewS3Backend(newFakeS3(), "bucket")

	got, err := b.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("missing key should return nil, got %q", got)
	}
}

func TestS3BackendTTL(t *testing.T) {
	client := newFakeS3()
	b := NewS3Backend(client, "bucket")
	ctx := context.Background()

	b.Set(ctx, "k", []byte("v"), 5*time.Millisecond)

	meta := client.meta["loom/state/k"]
	if _, ok := meta[expiresMetaKey]; !ok {
		t.Fatalf("expected expiry metadata, have %v", meta)
	}

	time.Sleep(10 * time.Millisecond)

	got, err := b.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expired object should return nil, got %q", got)
	}
}

func TestS3BackendDelete(t *testing.T) {
	b := NewS3Backend(newFakeS3(), "bucket")
	ctx := context.Background()

	b.Set(ctx, "k", []byte("v"), 0)
	if err := b.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, _ := b.Get(ctx, "k")
	if got != nil {
		t.Errorf("deleted object should return nil, got %q", got)
	}
}
