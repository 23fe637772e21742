package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Options configures the S3-backed Store.
type S3Options struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// BaseEndpoint overrides the AWS endpoint, e.g. for MinIO.
	BaseEndpoint string
}

// S3Store implements Store on top of an S3-compatible bucket. Objects are
// written world-readable because avatar URLs are served directly to
// browsers.
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3Store builds an S3Store from static credentials.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey, opts.SecretKey, "",
		)))
	if err != nil {
		return nil, fmt.Errorf("loading s3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
		}
	})

	baseURL := fmt.Sprintf("https://%s.s3.amazonaws.com/", opts.Bucket)
	if opts.BaseEndpoint != "" {
		baseURL = strings.TrimSuffix(opts.BaseEndpoint, "/") + "/" + opts.Bucket + "/"
	}

	return &S3Store{client: client, bucket: opts.Bucket, baseURL: baseURL}, nil
}

// Put uploads data under key and verifies the write with a head check
// before handing back the public URL.
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if !AllowedContentType(contentType) {
		return "", fmt.Errorf("%w: %s", ErrDisallowedContentType, contentType)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ACL:         types.ObjectCannedACLPublicRead,
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("putting object %q: %w", key, err)
	}

	exists, err := s.Head(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("object %q missing after upload", key)
	}

	return s.baseURL + key, nil
}

// Delete removes the object under key.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting object %q: %w", key, err)
	}
	return nil
}

// Head reports whether the object under key exists.
func (s *S3Store) Head(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("heading object %q: %w", key, err)
	}
	return true, nil
}

// Key maps a public URL under this store's base back to its object key.
func (s *S3Store) Key(uri string) (string, bool) {
	if !strings.HasPrefix(uri, s.baseURL) {
		return "", false
	}
	return strings.TrimPrefix(uri, s.baseURL), true
}
