package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"git.home.luguber.info/inful/siteconfig/internal/config"
	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
)

const hashMetaKey = "Content-Sha256"

// S3Target publishes into an S3-compatible bucket. Object keys are
// "<group>/<name>".
type S3Target struct {
	client   *minio.Client
	bucket   string
	region   string
	baseURL  string
	initOnce sync.Once
	initErr  error
}

// NewS3Target creates the minio client. The bucket is created lazily.
func NewS3Target(_ context.Context, cfg config.S3Config, baseURL string) (*S3Target, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.ConfigError("s3 endpoint is required").Build()
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "init s3 client").Build()
	}
	return &S3Target{client: client, bucket: cfg.Bucket, region: region, baseURL: baseURL}, nil
}

func (s *S3Target) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	if s.initErr != nil {
		return errors.WrapError(s.initErr, errors.CategoryStorage, "ensure bucket").
			WithContext("bucket", s.bucket).
			Retryable().
			Build()
	}
	return nil
}

// Put uploads the file unless an object with the same content hash exists.
func (s *S3Target) Put(ctx context.Context, group, name string, data []byte) (Object, error) {
	if err := validateKey(group, name); err != nil {
		return Object{}, err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return Object{}, err
	}
	key := group + "/" + name
	obj := Object{URL: URLFor(s.baseURL, group, name), Hash: hashOf(data), Size: int64(len(data))}

	if info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err == nil {
		if info.UserMetadata[hashMetaKey] == obj.Hash {
			return obj, nil
		}
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  "application/json",
		UserMetadata: map[string]string{hashMetaKey: obj.Hash},
	})
	if err != nil {
		return Object{}, errors.WrapError(err, errors.CategoryStorage, "put object").
			WithContext("key", key).
			Retryable().
			Build()
	}
	obj.Changed = true
	return obj, nil
}

// Get downloads a published file.
func (s *S3Target) Get(ctx context.Context, group, name string) ([]byte, error) {
	if err := validateKey(group, name); err != nil {
		return nil, err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	key := group + "/" + name
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "get object").WithContext("key", key).Build()
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return nil, ErrNotFound{Key: key}
		}
		return nil, errors.WrapError(err, errors.CategoryStorage, "read object").WithContext("key", key).Build()
	}
	return data, nil
}

// Close is a no-op; the minio client holds no resources needing release.
func (s *S3Target) Close() error { return nil }
