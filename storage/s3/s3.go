// Package s3 stores blobs in an Amazon S3 (or S3-compatible) bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/kbukum/portfolio/logger"
	"github.com/kbukum/portfolio/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderS3, func(cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		s, err := NewStorage(context.Background(), cfg.S3)
		if err != nil {
			return nil, err
		}
		log.Info("s3 storage ready", logger.Fields("bucket", cfg.S3.Bucket, "region", cfg.S3.Region))
		return s, nil
	})
}

// Storage implements storage.Storage on an S3 bucket.
type Storage struct {
	client     *awss3.Client
	presigner  *awss3.PresignClient
	bucket     string
	baseURL    string
	presignTTL time.Duration
}

var (
	_ storage.Storage    = (*Storage)(nil)
	_ storage.Redirector = (*Storage)(nil)
	_ storage.Pinger     = (*Storage)(nil)
)

// NewStorage creates an S3 client with static credentials from cfg.
// No request is made until the first operation.
func NewStorage(ctx context.Context, cfg storage.S3Config) (*Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = storage.DefaultRegion
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	return &Storage{
		client:     client,
		presigner:  awss3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		baseURL:    objectBaseURL(cfg, region),
		presignTTL: cfg.PresignTTL,
	}, nil
}

// objectBaseURL returns the URL prefix objects are publicly reachable under.
func objectBaseURL(cfg storage.S3Config, region string) string {
	switch {
	case cfg.PublicBaseURL != "":
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	case cfg.ForcePathStyle:
		return fmt.Sprintf("https://s3.%s.amazonaws.com/%s", region, cfg.Bucket)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
	}
}

// Put uploads r under key. The SDK needs a seekable body to sign the
// payload, so callers should pass a *bytes.Reader or similar.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	if err := storage.ValidateKey(key); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrWrite, err)
	}
	in := &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		IfNoneMatch: aws.String("*"), // rejected with 412 if the key is taken
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		if isPreconditionFailed(err) {
			return fmt.Errorf("%w: %s", storage.ErrExists, key)
		}
		return fmt.Errorf("%w: s3 put %s: %w", storage.ErrWrite, key, err)
	}
	return nil
}

// Open streams the object at key.
func (s *Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
		}
		return nil, fmt.Errorf("storage: s3 get %s: %w", key, err)
	}
	return out.Body, nil
}

// Delete removes the object at key. S3 deletes are idempotent and do not
// report whether the object existed, so a HEAD request runs first.
func (s *Storage) Delete(ctx context.Context, key string) (bool, error) {
	if err := storage.ValidateKey(key); err != nil {
		return false, fmt.Errorf("%w: %w", storage.ErrDelete, err)
	}
	existed, err := s.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("%w: %w", storage.ErrDelete, err)
	}
	if !existed {
		return false, nil
	}
	if _, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return false, fmt.Errorf("%w: s3 delete %s: %w", storage.ErrDelete, key, err)
	}
	return true, nil
}

// Exists checks whether an object exists at key.
func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("storage: s3 head %s: %w", key, err)
	}
	return true, nil
}

// URL returns the public object URL for key.
func (s *Storage) URL(key string) string {
	return s.baseURL + "/" + escapeKey(key)
}

// RedirectURL returns a presigned GET URL when presigning is configured,
// the public object URL otherwise.
func (s *Storage) RedirectURL(ctx context.Context, key string) (string, error) {
	if s.presignTTL <= 0 {
		return s.URL(key), nil
	}
	req, err := s.presigner.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, awss3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", fmt.Errorf("storage: s3 presign %s: %w", key, err)
	}
	return req.URL, nil
}

// Ping checks that the bucket is reachable with the configured credentials.
func (s *Storage) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("storage: s3 head bucket %s: %w", s.bucket, err)
	}
	return nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

// isPreconditionFailed reports whether a conditional PutObject lost to an
// existing object or to a concurrent write of the same key.
func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	return false
}
