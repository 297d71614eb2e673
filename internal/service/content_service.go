package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tunemarket/tunemarket/internal/domain"
)

// URIScheme prefixes content URIs stored on assets, mirroring the ipfs://
// convention of the original marketplace.
const URIScheme = "cas://"

// ContentService handles media and metadata uploads to the content store.
type ContentService struct {
	store  domain.ContentStore
	logger *slog.Logger
}

// NewContentService creates a ContentService over the given store.
func NewContentService(store domain.ContentStore, logger *slog.Logger) *ContentService {
	return &ContentService{
		store:  store,
		logger: logger.With(slog.String("component", "content_service")),
	}
}

// Upload stores opaque bytes and returns their content identifier.
func (s *ContentService) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("content_service: upload: empty content")
	}
	cid, err := s.store.Put(ctx, data, contentType)
	if err != nil {
		return "", fmt.Errorf("content_service: upload: %w", err)
	}
	s.logger.InfoContext(ctx, "content uploaded",
		slog.String("cid", cid),
		slog.Int("bytes", len(data)),
	)
	return cid, nil
}

// UploadMetadata stores a track metadata document and returns its cid and
// the cas:// URI suitable for minting.
func (s *ContentService) UploadMetadata(ctx context.Context, md domain.TrackMetadata) (cid, uri string, err error) {
	if strings.TrimSpace(md.Name) == "" {
		return "", "", fmt.Errorf("content_service: metadata requires a name: %w", domain.ErrInvalidMetadata)
	}
	data, err := json.Marshal(md)
	if err != nil {
		return "", "", fmt.Errorf("content_service: marshal metadata: %w", err)
	}
	cid, err = s.Upload(ctx, data, "application/json")
	if err != nil {
		return "", "", err
	}
	return cid, URIScheme + cid, nil
}

// Fetch resolves a cid, or a cas:// URI, to its stored bytes.
func (s *ContentService) Fetch(ctx context.Context, ref string) ([]byte, error) {
	cid := strings.TrimPrefix(ref, URIScheme)
	data, err := s.store.Get(ctx, cid)
	if err != nil {
		return nil, fmt.Errorf("content_service: fetch %s: %w", cid, err)
	}
	return data, nil
}
