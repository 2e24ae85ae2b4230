package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ThanhLuuv/user-management-backend/internal/common"
	"github.com/ThanhLuuv/user-management-backend/internal/logging"
	sc "github.com/ThanhLuuv/user-management-backend/internal/server/config"
	"github.com/ThanhLuuv/user-management-backend/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// AvatarUpload tells the client where to PUT an avatar image. Key is what
// the client stores in its profile afterwards.
type AvatarUpload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AvatarService hands out presigned S3 URLs for profile avatars, so image
// bytes never pass through the API.
type AvatarService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
	now         func() time.Time
}

func NewAvatarService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config, logger logging.Logger) *AvatarService {
	return &AvatarService{
		db:          db,
		repomanager: m,
		config:      cfg,
		logger:      logger.With("module", "avatar-service"),
		now:         time.Now,
	}
}

// AvatarStorageKey returns a fresh object key under the account's prefix.
func AvatarStorageKey(accountID string, at time.Time) string {
	return fmt.Sprintf("avatars/%s/%d/%02d/%v", accountID, at.Year(), at.Month(), uuid.New())
}

// OwnsAvatarKey reports whether key lies under accountID's avatar prefix.
func OwnsAvatarKey(accountID, key string) bool {
	if accountID == "" {
		return false
	}
	rest, ok := strings.CutPrefix(key, "avatars/"+accountID+"/")
	return ok && rest != ""
}

func (s *AvatarService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

// PresignUpload returns a URL the caller can PUT a new avatar to.
func (s *AvatarService) PresignUpload(ctx context.Context, actorID string) (*AvatarUpload, error) {
	if _, err := loadActor(ctx, s.repomanager, s.db, actorID); err != nil {
		return nil, failure(ctx, s.logger, "presign_avatar_upload", actorID, err)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, failure(ctx, s.logger, "presign_avatar_upload", actorID, err)
	}

	now := s.now()
	bucket := s.config.S3Bucket
	key := AvatarStorageKey(actorID, now)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.AvatarUploadExpiry))
	if err != nil {
		return nil, failure(ctx, s.logger, "presign_avatar_upload", actorID, err)
	}

	return &AvatarUpload{Key: key, URL: req.URL, ExpiresAt: now.Add(s.config.AvatarUploadExpiry)}, nil
}

// PresignDownload returns a short-lived URL for the caller's current avatar.
// An account without an avatar yields ErrorNotFound; a stored key outside
// the account prefix is refused.
func (s *AvatarService) PresignDownload(ctx context.Context, actorID string) (string, error) {
	profile, err := loadProfile(ctx, s.repomanager, s.db, actorID)
	if err != nil {
		return "", failure(ctx, s.logger, "presign_avatar_download", actorID, err)
	}
	if profile == nil || profile.Avatar == nil || *profile.Avatar == "" {
		return "", common.ErrorNotFound
	}
	if !OwnsAvatarKey(actorID, *profile.Avatar) {
		return "", failure(ctx, s.logger, "presign_avatar_download", actorID,
			fmt.Errorf("%w: avatar key outside the account prefix", common.ErrPermissionDenied))
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", failure(ctx, s.logger, "presign_avatar_download", actorID, err)
	}

	bucket := s.config.S3Bucket
	key := *profile.Avatar

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.AvatarUploadExpiry))
	if err != nil {
		return "", failure(ctx, s.logger, "presign_avatar_download", actorID, err)
	}

	return req.URL, nil
}
