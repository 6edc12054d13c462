package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"stay-web/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MediaService uploads listing images to an S3-compatible bucket
type MediaService struct {
	s3Client  *s3.Client
	bucket    string
	region    string
	endpoint  string
	publicURL string
}

// NewMediaService creates a media service from the AWS configuration
func NewMediaService(ctx context.Context, cfg config.AWSConfig) (*MediaService, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is not configured")
	}

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

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &MediaService{
		s3Client:  s3Client,
		bucket:    cfg.S3Bucket,
		region:    cfg.Region,
		endpoint:  cfg.Endpoint,
		publicURL: cfg.PublicURL,
	}, nil
}

// Upload stores img under listings/ and returns its public URL
func (s *MediaService) Upload(ctx context.Context, img ImageFile) (string, error) {
	key := objectKey(img.Name)

	contentType := img.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        img.Body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	url := s.objectURL(key)
	log.Info().Str("key", key).Str("url", url).Msg("Listing image uploaded")
	return url, nil
}

// objectKey builds listings/{uuid}{ext}
func objectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	return "listings/" + uuid.NewString() + ext
}

func (s *MediaService) objectURL(key string) string {
	switch {
	case s.publicURL != "":
		return strings.TrimRight(s.publicURL, "/") + "/" + key
	case s.endpoint != "":
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.endpoint, "/"), s.bucket, key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
	}
}
