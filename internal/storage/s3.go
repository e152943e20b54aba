// Package storage keeps photo and cover image blobs in S3 compatible storage.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	appconfig "event-photo-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store issues pre-signed upload URLs for a bucket
type S3Store struct {
	presign *s3.PresignClient
	cfg     appconfig.AWSConfig
}

// NewS3Store creates an S3 store. Static credentials are used when configured,
// the default AWS chain otherwise.
func NewS3Store(ctx context.Context, cfg appconfig.AWSConfig) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(endpointURL(cfg.Endpoint, cfg.DisableSSL))
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		presign: s3.NewPresignClient(client),
		cfg:     cfg,
	}, nil
}

// PresignPut returns a URL the client can PUT the object to
func (s *S3Store) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	request, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.S3Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.cfg.PresignTTL
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}
	return request.URL, nil
}

// ObjectURL returns the stored URL of key
func (s *S3Store) ObjectURL(key string) string {
	return s.cfg.ObjectURL(key)
}

// TTL is how long pre-signed URLs stay valid
func (s *S3Store) TTL() time.Duration {
	return s.cfg.PresignTTL
}

// PhotoKey is the object key of a photo: events/{event_id}/photos/{photo_id}.jpg
func PhotoKey(eventID, photoID string) string {
	return fmt.Sprintf("events/%s/photos/%s.jpg", eventID, photoID)
}

// CoverKey is the object key of an event cover image
func CoverKey(eventID, imageID string) string {
	return fmt.Sprintf("events/%s/cover/%s.jpg", eventID, imageID)
}

// IsCoverKey reports whether key was issued by CoverKey for eventID
func IsCoverKey(eventID, key string) bool {
	prefix := fmt.Sprintf("events/%s/cover/", eventID)
	name, ok := strings.CutPrefix(key, prefix)
	return ok && strings.HasSuffix(name, ".jpg") && !strings.Contains(name, "/") && len(name) > len(".jpg")
}

func endpointURL(endpoint string, disableSSL bool) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if disableSSL {
		return "http://" + endpoint
	}
	return "https://" + endpoint
}
