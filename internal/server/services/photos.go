package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrijs2005/growkeeper/internal/common"
	"github.com/dmitrijs2005/growkeeper/internal/logging"
	"github.com/dmitrijs2005/growkeeper/internal/server/config"
	"github.com/dmitrijs2005/growkeeper/internal/timex"
)

const (
	presignExpiry = 15 * time.Minute
	photoPageSize = 100
)

// Constructors are package variables so tests can run without an S3 backend.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}
)

// objectStore is the part of *s3.Client the photo service uses.
type objectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type getPresigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// StoredPhoto describes one object in the photo bucket.
type StoredPhoto struct {
	Key      string
	Size     int64
	Uploaded time.Time
}

// PhotoService keeps photo bytes in an S3-compatible bucket. Keys are opaque
// to clients; they only store and send them back.
type PhotoService struct {
	store     objectStore
	presigner getPresigner
	bucket    string
	maxSize   int64
	logger    logging.Logger
	now       func() time.Time
}

func NewPhotoService(ctx context.Context, cfg *config.Config, l logging.Logger) (*PhotoService, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &PhotoService{
		store:     client,
		presigner: newS3PresignClient(client),
		bucket:    cfg.S3Bucket,
		maxSize:   cfg.MaxPhotoSize,
		logger:    l,
		now:       time.Now,
	}, nil
}

// MaxSize is the largest accepted upload in bytes.
func (s *PhotoService) MaxSize() int64 {
	return s.maxSize
}

// NewPhotoKey builds YYYY/MM/DD/<unix-millis>-<12 hex>.<ext>. The extension
// comes from filename and defaults to jpg.
func NewPhotoKey(now time.Time, filename string) (string, error) {
	now = now.UTC()
	ext := "jpg"
	if i := strings.LastIndex(filename, "."); i >= 0 && i < len(filename)-1 {
		ext = strings.ToLower(filename[i+1:])
	}
	rnd, err := common.MakeRandHexString(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%d-%s.%s", now.Format("2006/01/02"), now.UnixMilli(), rnd, ext), nil
}

// ValidateKey rejects keys that are empty, absolute or not in clean form.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || path.Clean(key) != key || strings.HasPrefix(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Upload stores size bytes from r under a new key and returns the key.
func (s *PhotoService) Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	if s.maxSize > 0 && size > s.maxSize {
		return "", ErrPhotoTooLarge
	}

	key, err := NewPhotoKey(s.now(), filename)
	if err != nil {
		return "", err
	}

	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	if _, err := s.store.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	s.logger.Info(ctx, "photo stored", "key", key, "size", size)
	return key, nil
}

// DownloadURL returns a short-lived presigned GET URL for key.
func (s *PhotoService) DownloadURL(ctx context.Context, key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}

	_, err := s.store.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("head object: %w", err)
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign: %w", err)
	}

	return req.URL, nil
}

// Delete removes key. Deleting a missing key succeeds.
func (s *PhotoService) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	_, err := s.store.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete object: %w", err)
	}

	s.logger.Info(ctx, "photo deleted", "key", key)
	return nil
}

// List returns up to one page of photos under prefix, starting after cursor.
// next is empty on the last page.
func (s *PhotoService) List(ctx context.Context, prefix, cursor string) (photos []StoredPhoto, next string, err error) {
	in := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		MaxKeys: aws.Int32(photoPageSize),
	}
	if prefix != "" {
		in.Prefix = aws.String(prefix)
	}
	if cursor != "" {
		in.StartAfter = aws.String(cursor)
	}

	out, err := s.store.ListObjectsV2(ctx, in)
	if err != nil {
		return nil, "", fmt.Errorf("list objects: %w", err)
	}

	photos = make([]StoredPhoto, 0, len(out.Contents))
	for _, o := range out.Contents {
		p := StoredPhoto{Key: aws.ToString(o.Key), Size: aws.ToInt64(o.Size)}
		if o.LastModified != nil {
			p.Uploaded = o.LastModified.UTC()
		}
		photos = append(photos, p)
	}

	if aws.ToBool(out.IsTruncated) && len(photos) > 0 {
		next = photos[len(photos)-1].Key
	}
	return photos, next, nil
}

// FormatUploaded renders the upload time the way sync timestamps are written.
func (p StoredPhoto) FormatUploaded() string {
	if p.Uploaded.IsZero() {
		return ""
	}
	return timex.FormatTimestamp(p.Uploaded)
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}
