package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"yelpcamp/internal/domain"
)

// S3API is the subset of the S3 client used for deletes.
type S3API interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Uploader is the subset of manager.Uploader used for uploads.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Service stores images in Amazon S3 (or a compatible API).
type S3Service struct {
	client   S3API
	uploader Uploader
	opts     Options
}

func NewS3Service(client *s3.Client, opts Options) (*S3Service, error) {
	return newS3Service(client, manager.NewUploader(client), opts)
}

func newS3Service(client S3API, uploader Uploader, opts Options) (*S3Service, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &S3Service{client: client, uploader: uploader, opts: opts}, nil
}

func (s *S3Service) Upload(ctx context.Context, in UploadInput) (domain.MediaAsset, error) {
	key := s.opts.objectKey(in.Name)
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.opts.Bucket),
		Key:         aws.String(key),
		Body:        in.Body,
		ContentType: aws.String(contentTypeFor(in)),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return domain.MediaAsset{}, fmt.Errorf("upload %s: %w: %w", key, domain.ErrUpstream, err)
	}
	return domain.MediaAsset{URL: s.opts.publicURL(key), ID: key}, nil
}

// Delete removes the object. S3 answers a delete of a missing key with success; a NoSuchKey
// from compatible servers is treated the same way.
func (s *S3Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil
		}
		return fmt.Errorf("delete %s: %w: %w", id, domain.ErrUpstream, err)
	}
	return nil
}

var _ MediaGateway = (*S3Service)(nil)
