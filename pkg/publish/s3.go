package publish

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/vango-dev/stencil/internal/errors"
)

// S3API is the part of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store stores snapshots in an S3 bucket under a key prefix.
type S3Store struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Store creates an S3 store. prefix is prepended to every key as is.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// Bucket returns the bucket name.
func (s *S3Store) Bucket() string { return s.bucket }

// Put uploads body with PutObject.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	clean, err := CleanKey(key)
	if err != nil {
		return errors.New(errors.CodePublish).Wrap(err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + clean),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"published-at": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return errors.New(errors.CodePublish).
			WithDetail(fmt.Sprintf("s3://%s/%s%s", s.bucket, s.prefix, clean)).
			Wrap(err)
	}
	return nil
}

// s3Config holds the client settings read from the environment.
type s3Config struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
	PathStyle    bool
}

func envS3Config() s3Config {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}
	return s3Config{
		Region:       region,
		Endpoint:     os.Getenv("AWS_ENDPOINT_URL"),
		AccessKey:    os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken: os.Getenv("AWS_SESSION_TOKEN"),
		PathStyle:    os.Getenv("AWS_S3_USE_PATH_STYLE") == "true",
	}
}

func newS3Client(_ context.Context, cfg s3Config) (*s3.Client, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
	}
	creds := aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     cfg.AccessKey,
			SecretAccessKey: cfg.SecretKey,
			SessionToken:    cfg.SessionToken,
			Source:          "environment",
		}, nil
	})

	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  aws.NewCredentialsCache(creds),
		UsePathStyle: cfg.PathStyle,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts), nil
}
