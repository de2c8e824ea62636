package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wavelength-backend/internal/apperror"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// AvatarStore updates the stored avatar URL. Implemented by
// repository.UserRepository.
type AvatarStore interface {
	UpdateAvatarURL(ctx context.Context, userID, avatarURL string) error
}

// AvatarService issues pre-signed S3 upload URLs for profile avatars and
// records the resulting public URL on the user.
type AvatarService struct {
	store    AvatarStore
	s3Client *s3.Client
	bucket   string
	region   string
}

// NewAvatarService creates a new avatar service
func NewAvatarService(store AvatarStore, region, bucket string) (*AvatarService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AvatarService{
		store:    store,
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucket,
		region:   region,
	}, nil
}

// UploadTicket is a pre-signed upload slot for one avatar image.
type UploadTicket struct {
	UploadURL string `json:"upload_url"`
	AvatarURL string `json:"avatar_url"`
	ExpiresIn int    `json:"expires_in"`
}

// CreateUploadURL generates a pre-signed PUT URL for an avatar image. The
// client uploads directly to S3 and then confirms with ConfirmUpload.
func (s *AvatarService) CreateUploadURL(ctx context.Context, userID, contentType string) (*UploadTicket, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperror.ValidationFailed("content_type", "avatar must be an image")
	}

	key := fmt.Sprintf("avatars/%s/%s", userID, uuid.New().String())

	presignClient := s3.NewPresignClient(s.s3Client)
	request, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = 5 * time.Minute
	})
	if err != nil {
		return nil, apperror.BackendUnavailable(err)
	}

	avatarURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)

	return &UploadTicket{
		UploadURL: request.URL,
		AvatarURL: avatarURL,
		ExpiresIn: 300,
	}, nil
}

// ConfirmUpload records the uploaded avatar URL on the user.
func (s *AvatarService) ConfirmUpload(ctx context.Context, userID, avatarURL string) error {
	if avatarURL == "" {
		return apperror.ValidationFailed("avatar_url", "avatar_url is required")
	}
	if err := s.store.UpdateAvatarURL(ctx, userID, avatarURL); err != nil {
		return apperror.BackendUnavailable(err)
	}
	return nil
}
