package s3content

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tunemarket/tunemarket/internal/domain"
)

// minPartSize is the minimum allowed part size for S3 multipart uploads
// (5 MiB).
const minPartSize int64 = 5 * 1024 * 1024

// Archive implements domain.ArchiveWriter for event-log exports. Unlike the
// content Store, keys are chosen by the caller, and uploads stream through
// the multipart upload manager so large batches do not buffer in memory.
type Archive struct {
	client *s3.Client
	bucket string
}

// NewArchive creates an Archive on the given client's bucket.
func NewArchive(c *Client) *Archive {
	return &Archive{
		client: c.S3(),
		bucket: c.Bucket(),
	}
}

// Put uploads body under the given key using the multipart upload manager,
// which splits the payload into parts and uploads them concurrently.
func (a *Archive) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	uploader := manager.NewUploader(a.client, func(u *manager.Uploader) {
		u.PartSize = minPartSize
	})

	input := &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("s3content: archive upload %s: %w", key, err)
	}
	return nil
}

// List returns metadata for all objects whose key starts with the given
// prefix, following continuation tokens until every match is collected.
func (a *Archive) List(ctx context.Context, prefix string) ([]domain.BlobInfo, error) {
	var infos []domain.BlobInfo

	paginator := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3content: list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			info := domain.BlobInfo{
				Key: aws.ToString(obj.Key),
			}
			if obj.Size != nil {
				info.Size = *obj.Size
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			infos = append(infos, info)
		}
	}

	return infos, nil
}

// Compile-time interface check.
var _ domain.ArchiveWriter = (*Archive)(nil)
