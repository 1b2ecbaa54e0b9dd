package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"yelpcamp/internal/domain"
)

// MinIOConfig carries the connection settings for a MinIO server.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

// MinIOAPI is the subset of *minio.Client the driver calls.
type MinIOAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// MinIOService stores images in a MinIO bucket.
type MinIOService struct {
	client MinIOAPI
	opts   Options
}

func NewMinIOService(cfg MinIOConfig, opts Options) (*MinIOService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return newMinIOService(client, opts)
}

func newMinIOService(client MinIOAPI, opts Options) (*MinIOService, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &MinIOService{client: client, opts: opts}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (m *MinIOService) EnsureBucket(ctx context.Context, region string) error {
	exists, err := m.client.BucketExists(ctx, m.opts.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.opts.Bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.opts.Bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("make bucket %s: %w", m.opts.Bucket, err)
	}
	return nil
}

func (m *MinIOService) Upload(ctx context.Context, in UploadInput) (domain.MediaAsset, error) {
	key := m.opts.objectKey(in.Name)
	size := in.Size
	if size <= 0 {
		size = -1
	}
	_, err := m.client.PutObject(ctx, m.opts.Bucket, key, in.Body, size, minio.PutObjectOptions{
		ContentType: contentTypeFor(in),
		UserMetadata: map[string]string{
			"original-filename": in.Name,
		},
	})
	if err != nil {
		return domain.MediaAsset{}, fmt.Errorf("upload %s: %w: %w", key, domain.ErrUpstream, err)
	}
	return domain.MediaAsset{URL: m.opts.publicURL(key), ID: key}, nil
}

func (m *MinIOService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	err := m.client.RemoveObject(ctx, m.opts.Bucket, id, minio.RemoveObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("delete %s: %w: %w", id, domain.ErrUpstream, err)
	}
	return nil
}

var _ MediaGateway = (*MinIOService)(nil)
