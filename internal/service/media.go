package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tripshare/internal/config"
	"tripshare/internal/logger"
	domain "tripshare/internal/model"
)

// ObjectStore is the subset of the S3 API used for uploads.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// MediaService handles image uploads to Cloudflare R2.
type MediaService struct {
	store     ObjectStore
	bucket    string
	publicURL string
	log       zerolog.Logger
}

// NewMediaService constructs an S3-compatible client for Cloudflare R2.
func NewMediaService(ctx context.Context, cfg *config.Config) (*MediaService, error) {
	if !cfg.MediaEnabled() {
		return nil, domain.ErrMediaDisabled
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return NewMediaServiceWithStore(s3Client, cfg.R2BucketName, cfg.R2PublicURL), nil
}

// NewMediaServiceWithStore wires an already constructed object store.
func NewMediaServiceWithStore(store ObjectStore, bucket, publicURL string) *MediaService {
	return &MediaService{
		store:     store,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		log:       logger.For("MediaService"),
	}
}

// UploadImage validates an experience photo, fits it inside
// ImageMaxDimension without enlarging, re-encodes it as JPEG and uploads it.
func (s *MediaService) UploadImage(ctx context.Context, file io.Reader, header *multipart.FileHeader) (*domain.UploadResult, error) {
	data, _, err := readAndValidateImage(file, header, domain.MaxImageSizeBytes)
	if err != nil {
		return nil, err
	}

	jpegBytes, err := encodeJPEG(data, fitWithin(domain.ImageMaxDimension), domain.ImageJPEGQuality)
	if err != nil {
		return nil, err
	}

	return s.upload(ctx, domain.ImageFolder, jpegBytes)
}

// UploadAvatar enforces size/type, normalizes to a 200x200 centre crop and uploads.
func (s *MediaService) UploadAvatar(ctx context.Context, file io.Reader, header *multipart.FileHeader) (*domain.UploadResult, error) {
	data, _, err := readAndValidateImage(file, header, domain.MaxAvatarSizeBytes)
	if err != nil {
		return nil, err
	}

	jpegBytes, err := encodeJPEG(data, func(img image.Image) image.Image {
		return imaging.Fill(img, domain.AvatarWidth, domain.AvatarHeight, imaging.Center, imaging.Lanczos)
	}, 85)
	if err != nil {
		return nil, err
	}

	return s.upload(ctx, domain.AvatarFolder, jpegBytes)
}

// DeleteObject removes an object by key.
func (s *MediaService) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.store.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from r2: %w", err)
	}
	return nil
}

func (s *MediaService) upload(ctx context.Context, folder string, body []byte) (*domain.UploadResult, error) {
	key := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), domain.ImageExt)

	_, err := s.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(domain.ContentTypeJPEG),
		CacheControl: aws.String(domain.ImageCacheControl),
	})
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("upload FAILED")
		return nil, fmt.Errorf("failed to upload to r2: %w", err)
	}

	s.log.Info().Str("key", key).Int("bytes", len(body)).Msg("upload OK")
	return &domain.UploadResult{URL: s.publicURL + "/" + key, Key: key}, nil
}

// readAndValidateImage loads the upload into memory with size and type checks.
func readAndValidateImage(file io.Reader, header *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	if header.Size > maxSize {
		return nil, "", domain.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, "", domain.ErrFileTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data[:min(len(data), 512)])
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !domain.IsAllowedImageType(contentType) {
		return nil, "", domain.ErrInvalidImageType
	}

	return data, contentType, nil
}

// fitWithin shrinks images larger than limit on either side; smaller ones pass through.
func fitWithin(limit int) func(image.Image) image.Image {
	return func(img image.Image) image.Image {
		b := img.Bounds()
		if b.Dx() <= limit && b.Dy() <= limit {
			return img
		}
		return imaging.Fit(img, limit, limit, imaging.Lanczos)
	}
}

func encodeJPEG(data []byte, transform func(image.Image) image.Image, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImageType, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, transform(img), imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
