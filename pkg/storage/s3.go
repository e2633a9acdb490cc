package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MaxImageSize is the maximum allowed size for uploaded images (5MB).
	MaxImageSize = 5 * 1024 * 1024
	// FolderImages is the S3 prefix for image objects.
	FolderImages = "images"
)

// Allowed image MIME types and their canonical extensions.
var (
	AllowedImageTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/jpg":  ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
	}
	AllowedImageExtensions = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
	}
)

// S3Config holds S3 client configuration.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ImagesBucket    string
	UploadTimeout   time.Duration
}

// S3 stores host images in a public-read bucket.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or .env (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY).
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ImagesBucket == "" {
		return nil, fmt.Errorf("images bucket is required")
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = 15 * time.Second
	}
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
		logger.Info("S3 client using static credentials", zap.String("region", cfg.Region), zap.String("images_bucket", cfg.ImagesBucket))
	} else {
		logger.Warn("S3 client using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	uploader := manager.NewUploader(client)
	return &S3{
		client:   client,
		uploader: uploader,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// ImageContentType resolves the MIME type of an upload from its declared type, falling back to the extension.
// It returns "" when neither is an allowed image type.
func ImageContentType(contentType, filename string) string {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if _, ok := AllowedImageTypes[ct]; ok {
		if ct == "image/jpg" {
			return "image/jpeg"
		}
		return ct
	}
	if ct != "" && ct != "application/octet-stream" {
		return ""
	}
	return AllowedImageExtensions[strings.ToLower(path.Ext(filename))]
}

// ImageKey returns the S3 object key: images/{host_id}/{uuid}{ext}.
func ImageKey(hostID int64, contentType string) string {
	return path.Join(FolderImages, strconv.FormatInt(hostID, 10), uuid.NewString()+AllowedImageTypes[contentType])
}

// PublicObjectURL returns the public URL for an object in the images bucket.
func (s *S3) PublicObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.ImagesBucket, s.cfg.Region, key)
}

// UploadImage streams an image to the bucket with a public-read ACL and returns its URL.
func (s *S3) UploadImage(ctx context.Context, hostID int64, filename, contentType string, body io.Reader, size int64) (string, error) {
	ct := ImageContentType(contentType, filename)
	if ct == "" {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}
	key := ImageKey(hostID, ct)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.UploadTimeout)
	defer cancel()

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.ImagesBucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(ct),
		ACL:         types.ObjectCannedACLPublicRead,
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	url := s.PublicObjectURL(key)
	s.logger.Info("image uploaded to S3", zap.Int64("host_id", hostID), zap.String("key", key))
	return url, nil
}
