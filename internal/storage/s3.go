package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Config holds the configuration for S3-compatible object storage.
// Cloudflare R2 and MinIO work through the same settings.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: for custom S3-compatible endpoints
	AccessKeyID     string
	SecretAccessKey string
	// PublicBaseURL is the base URL objects are served from. The public
	// URL of an asset is PublicBaseURL + "/" + key.
	PublicBaseURL string
	// UploadTimeout bounds each PutObject call. Zero disables the bound.
	UploadTimeout time.Duration
}

// Compile-time check that S3Publisher implements Publisher.
var _ Publisher = (*S3Publisher)(nil)

// S3Publisher implements Publisher against an S3-compatible API. The
// client is stateless and safe to share across concurrent requests.
type S3Publisher struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
	uploadTimeout time.Duration
}

// NewS3Publisher creates a new S3Publisher.
func NewS3Publisher(cfg S3Config) (*S3Publisher, error) {
	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	clientOpts := []func(*s3.Options){
		func(o *s3.Options) {
			// A failed publish is surfaced immediately; retry decisions
			// belong to the caller.
			o.RetryMaxAttempts = 1
		},
	}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, clientOpts...)

	return &S3Publisher{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		uploadTimeout: cfg.UploadTimeout,
	}, nil
}

// Publish issues a single PutObject of the full buffer under the key
// {folder}/{uuid}-{fileName} and returns the public URL. Buffers are
// assumed to fit in memory; the upload size ceiling is enforced
// upstream.
func (p *S3Publisher) Publish(ctx context.Context, data []byte, fileName, contentType, folder string) (*Asset, error) {
	key := fmt.Sprintf("%s/%s-%s", folder, uuid.NewString(), sanitizeFileName(fileName))

	if p.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.uploadTimeout)
		defer cancel()
	}

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	return &Asset{
		URL: p.publicBaseURL + "/" + key,
		Key: key,
	}, nil
}

// sanitizeFileName strips path components and replaces characters that
// are awkward in object keys and URLs.
func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}
