package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/models"
)

// S3Options configures an S3Store. Endpoint is set for MinIO and other
// S3-compatible servers.
type S3Options struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Store keeps blobs as objects in one bucket. The content ref is the
// object key.
type S3Store struct {
	bucket     string
	prefix     string
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
	logger     *zap.Logger
}

func NewS3Store(opts S3Options, logger *zap.Logger) *S3Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	s3Opts := []func(*s3.Options){}
	if opts.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true // required by MinIO
		})
	}

	awsCfg := aws.Config{Region: opts.Region}
	if opts.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"",
		)
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	logger.Info("s3 content store initialized",
		zap.String("bucket", opts.Bucket),
		zap.String("endpoint", opts.Endpoint),
	)

	return &S3Store{
		bucket:     opts.Bucket,
		prefix:     opts.Prefix,
		client:     client,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
		logger:     logger,
	}
}

func (s *S3Store) key(id string) string {
	if s.prefix == "" {
		return id
	}
	return path.Join(s.prefix, id)
}

func (s *S3Store) SaveContent(ctx context.Context, data []byte) (models.ContentRef, error) {
	key := s.key(newID())

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	s.logger.Debug("blob uploaded", zap.String("key", key), zap.Int("bytes", len(data)))
	return models.ContentRef(key), nil
}

func (s *S3Store) LoadContent(ctx context.Context, ref models.ContentRef) ([]byte, error) {
	buf := manager.NewWriteAtBuffer(nil)
	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(string(ref)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("download %s: %w", ref, err)
	}
	return buf.Bytes(), nil
}

// HealthCheck verifies the bucket is reachable.
func (s *S3Store) HealthCheck(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	return nil
}
