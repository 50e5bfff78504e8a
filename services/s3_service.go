package services

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"time"

	"loopr_server/apperrors"
	"loopr_server/logger"
	"loopr_server/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3API is the subset of the S3 client used for avatar uploads
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Presigner signs read URLs for private buckets
type S3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Service stores profile pictures in the avatars bucket
type S3Service struct {
	Client        S3API
	Presigner     S3Presigner
	Bucket        string
	PublicBaseURL string
}

const (
	avatarCacheControl = "max-age=3600"
	readURLExpiry      = 5 * time.Minute
)

// InitializeS3Service builds an S3Service backed by the default AWS config
func InitializeS3Service(ctx context.Context, region, bucket, publicBaseURL string) (*S3Service, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg)
	return &S3Service{
		Client:        client,
		Presigner:     s3.NewPresignClient(client),
		Bucket:        bucket,
		PublicBaseURL: publicBaseURL,
	}, nil
}

// UploadAvatar writes data under key, replacing any object already there
func (s *S3Service) UploadAvatar(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return apperrors.UploadFailed("avatar key is empty", nil)
	}

	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String(avatarCacheControl),
	})
	if err != nil {
		return apperrors.UploadFailed("failed to upload avatar to bucket "+s.Bucket, err)
	}

	metrics.Get().AvatarUploadBytes.Observe(float64(len(data)))
	logger.Log.Info("Avatar uploaded",
		logger.WithKey(key),
		zap.String("bucket", s.Bucket),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// PublicURL resolves the durable public address of an uploaded avatar
func (s *S3Service) PublicURL(key string) (string, error) {
	if key == "" {
		return "", apperrors.UploadFailed("avatar key is empty", nil)
	}
	base, err := url.Parse(strings.TrimSuffix(s.PublicBaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", apperrors.UploadFailed("avatar public base URL is not usable", err)
	}
	return base.JoinPath(strings.Split(key, "/")...).String(), nil
}

// GenerateReadURL generates a presigned URL for reading an avatar
func (s *S3Service) GenerateReadURL(ctx context.Context, key string) (string, error) {
	if s.Presigner == nil {
		return "", apperrors.Internal("presigner not configured", nil)
	}
	presigned, err := s.Presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(readURLExpiry))
	if err != nil {
		return "", apperrors.UpstreamFailed("failed to presign avatar read", err)
	}
	return presigned.URL, nil
}

// KeyFromPublicURL maps one of our public avatar URLs back to its object key
func (s *S3Service) KeyFromPublicURL(publicURL string) (string, bool) {
	prefix := strings.TrimSuffix(s.PublicBaseURL, "/") + "/"
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimPrefix(publicURL, prefix))
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}
