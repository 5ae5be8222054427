package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Options configures the object-storage backend. Any S3-compatible service
// (AWS, MinIO) works.
type S3Options struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3Store persists artifacts into an S3-compatible bucket.
type S3Store struct {
	client *minio.Client
	bucket string
}

// NewS3Store connects an S3 client for the configured bucket.
func NewS3Store(opts S3Options) (*S3Store, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("storage: s3 endpoint is required")
	}
	if opts.Bucket == "" {
		return nil, errors.New("storage: s3 bucket is required")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create s3 client: %w", err)
	}
	return &S3Store{client: client, bucket: opts.Bucket}, nil
}

// Put uploads the artifact under a fresh key below the hint folder and
// returns the object key.
func (s *S3Store) Put(ctx context.Context, data []byte, hint string) (string, error) {
	if s == nil || s.client == nil {
		return "", errors.New("storage: s3 client not initialized")
	}
	if len(data) == 0 {
		return "", errors.New("storage: empty payload")
	}
	key := objectKey(hint, data)
	_, err := s.client.PutObject(ctx, s.bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: http.DetectContentType(data)},
	)
	if err != nil {
		return "", fmt.Errorf("storage: s3 put object: %w", err)
	}
	return key, nil
}

var _ Sink = (*S3Store)(nil)
