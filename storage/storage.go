// Package storage publishes rendered subtitle files to S3-compatible
// object storage and issues time-limited signed URLs.
package storage

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/AgentDance/yt-subs/config"
	"github.com/AgentDance/yt-subs/errors"
	"github.com/AgentDance/yt-subs/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Publisher uploads subtitle artifacts and signs download links. A nil
// Publisher means publishing is disabled.
type Publisher interface {
	Upload(ctx context.Context, videoID string, artifact models.Artifact) (string, error)
	Sign(ctx context.Context, videoID string, artifact models.Artifact, ttl time.Duration) (string, error)
}

// S3Publisher talks to any S3-compatible endpoint (Spaces, MinIO, AWS).
type S3Publisher struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	prefix  string
	signing bool
}

// NewS3Publisher returns nil when no bucket is configured.
func NewS3Publisher(cfg config.StorageConfig) (*S3Publisher, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	if cfg.Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{URL: cfg.Endpoint}, nil
		})
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %v", err)
	}

	client := s3.NewFromConfig(awsConfig)
	return &S3Publisher{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.KeyPrefix, "/"),
		signing: cfg.EnableSignedURL,
	}, nil
}

// Key returns the deterministic object key for an artifact.
func (p *S3Publisher) Key(videoID string, artifact models.Artifact) string {
	key := fmt.Sprintf("%s.%s.%s", videoID, artifact.Lang, artifact.Format)
	if p.prefix != "" {
		key = p.prefix + "/" + key
	}
	return key
}

// Upload stores an artifact and returns its storage URI.
func (p *S3Publisher) Upload(ctx context.Context, videoID string, artifact models.Artifact) (string, error) {
	const op = "storage.S3Publisher.Upload"

	key := p.Key(videoID, artifact)
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(artifact.Content),
		ContentType: aws.String(artifact.Format.ContentType()),
	})
	if err != nil {
		return "", errors.Classified(op, errors.KindPublishFailure, err,
			"failed to publish subtitle file", http.StatusBadGateway)
	}

	return fmt.Sprintf("s3://%s/%s", p.bucket, key), nil
}

// Sign issues a presigned GET URL for a published artifact. It returns an
// empty string without error when signing is disabled.
func (p *S3Publisher) Sign(ctx context.Context, videoID string, artifact models.Artifact, ttl time.Duration) (string, error) {
	const op = "storage.S3Publisher.Sign"

	if !p.signing {
		return "", nil
	}

	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.Key(videoID, artifact)),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", errors.Classified(op, errors.KindSigningFailure, err,
			"failed to sign download link", http.StatusBadGateway)
	}

	return req.URL, nil
}
