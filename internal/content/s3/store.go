package s3content

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/crypto/sha3"

	"github.com/tunemarket/tunemarket/internal/domain"
)

// contentPrefix namespaces content-addressed objects inside the bucket,
// keeping them apart from archive exports.
const contentPrefix = "content/"

// Store implements domain.ContentStore over an S3-compatible bucket. Object
// keys are derived from the content itself (SHA3-256), so uploads are
// idempotent and a CID always resolves to the same bytes.
type Store struct {
	client *s3.Client
	bucket string
}

// NewStore creates a content Store on the given client's bucket.
func NewStore(c *Client) *Store {
	return &Store{
		client: c.S3(),
		bucket: c.Bucket(),
	}
}

// CID returns the content identifier for data: the lowercase hex SHA3-256
// digest.
func CID(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Put stores data under its content identifier and returns the identifier.
// Re-uploading identical bytes overwrites the same object and returns the
// same CID.
func (s *Store) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	cid := CID(data)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(contentPrefix + cid),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("s3content: put %s: %w", cid, err)
	}
	return cid, nil
}

// Get resolves a content identifier to its bytes. Returns
// domain.ErrNotFound when no object exists for the CID.
func (s *Store) Get(ctx context.Context, cid string) ([]byte, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(contentPrefix + cid),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("s3content: get %s: %w", cid, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("s3content: get %s: %w", cid, err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("s3content: read %s: %w", cid, err)
	}
	return data, nil
}

// isNotFound reports whether an S3 error means the object does not exist.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	// HeadObject does not return NoSuchKey; it returns a generic 404. Some
	// S3-compatible providers do the same for GetObject.
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	type httpResponseError interface {
		HTTPStatusCode() int
	}
	var httpErr httpResponseError
	if errors.As(err, &httpErr) && httpErr.HTTPStatusCode() == 404 {
		return true
	}

	return false
}

// Compile-time interface check.
var _ domain.ContentStore = (*Store)(nil)
