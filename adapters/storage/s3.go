package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/x-cod3r/Image-Converter-Resizer/core"
	apperrors "github.com/x-cod3r/Image-Converter-Resizer/errors"
)

// S3Client defines the minimal AWS S3 interface used by the adapter.
// This allows injection of the aws-sdk-go-v2 client (NewAWSClient) or test
// doubles.  PutObject must fail with errors.ErrOutputExists instead of
// replacing an existing object.
type S3Client interface {
	PutObject(ctx context.Context, bucket, key string, body io.Reader, meta map[string]string) error
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	HeadObject(ctx context.Context, bucket, key string) (bool, error)
}

// S3 is the StorageAdapter backed by AWS S3 (or S3-compatible stores).  The
// output directory is mirrored under prefix as the object key path.
type S3 struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3 creates an S3 adapter.  client must not be nil.
func NewS3(client S3Client, bucket, prefix string) (*S3, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 storage: client must not be nil")
	}
	if bucket == "" {
		return nil, fmt.Errorf("s3 storage: bucket must not be empty")
	}
	return &S3{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

func (s *S3) objectKey(key core.StorageKey) string {
	return strings.TrimPrefix(path.Join(s.prefix, filepath.ToSlash(key.Dir), key.Name), "/")
}

// Locate returns the s3:// URL of key.
func (s *S3) Locate(key core.StorageKey) string {
	return "s3://" + s.bucket + "/" + s.objectKey(key)
}

func (s *S3) Put(ctx context.Context, key core.StorageKey, r io.Reader, meta map[string]string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.CategoryIO, "s3.put", err)
	}
	if err := s.client.PutObject(ctx, s.bucket, s.objectKey(key), r, meta); err != nil {
		if errors.Is(err, apperrors.ErrOutputExists) {
			return apperrors.New(apperrors.CategoryIO, "s3.put", err)
		}
		return apperrors.Transient("s3.put", err)
	}
	return nil
}

func (s *S3) Get(ctx context.Context, key core.StorageKey) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryIO, "s3.get", err)
	}
	rc, err := s.client.GetObject(ctx, s.bucket, s.objectKey(key))
	if err != nil {
		return nil, apperrors.Transient("s3.get", err)
	}
	return rc, nil
}

func (s *S3) Delete(ctx context.Context, key core.StorageKey) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.CategoryIO, "s3.delete", err)
	}
	if err := s.client.DeleteObject(ctx, s.bucket, s.objectKey(key)); err != nil {
		return apperrors.Transient("s3.delete", err)
	}
	return nil
}

func (s *S3) Exists(ctx context.Context, key core.StorageKey) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, apperrors.Wrap(apperrors.CategoryIO, "s3.exists", err)
	}
	ok, err := s.client.HeadObject(ctx, s.bucket, s.objectKey(key))
	if err != nil {
		return false, apperrors.Transient("s3.exists", err)
	}
	return ok, nil
}

var _ core.StorageAdapter = (*S3)(nil)
