package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/tunemarket/tunemarket/internal/domain"
)

// ContentService defines what the content handler needs from the content
// store layer.
type ContentService interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
	UploadMetadata(ctx context.Context, md domain.TrackMetadata) (cid, uri string, err error)
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// ContentHandler serves media and metadata uploads and retrieval.
type ContentHandler struct {
	content        ContentService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewContentHandler creates a ContentHandler. maxUploadBytes caps upload
// request bodies.
func NewContentHandler(content ContentService, maxUploadBytes int64, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{
		content:        content,
		maxUploadBytes: maxUploadBytes,
		logger:         logHandler(logger, "content"),
	}
}

// Upload stores the raw request body in the content store and returns the
// content identifier. The Content-Type header is preserved on the stored
// object.
// POST /api/content
func (h *ContentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireCaller(w, r); !ok {
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	cid, err := h.content.Upload(r.Context(), data, contentType)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "upload failed",
			slog.Int("bytes", len(data)),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "content store unavailable")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"cid": cid})
}

// UploadMetadata stores a track metadata document and returns the cid and
// content URI suitable for minting.
// POST /api/content/metadata
func (h *ContentHandler) UploadMetadata(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireCaller(w, r); !ok {
		return
	}

	var md domain.TrackMetadata
	if err := decodeBody(r, &md); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cid, uri, err := h.content.UploadMetadata(r.Context(), md)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidMetadata) {
			writeError(w, http.StatusUnprocessableEntity, "metadata requires a name")
			return
		}
		h.logger.ErrorContext(r.Context(), "metadata upload failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "content store unavailable")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"cid": cid,
		"uri": uri,
	})
}

// Fetch returns stored content by cid.
// GET /api/content/{cid}
func (h *ContentHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	cid := r.PathValue("cid")
	if cid == "" {
		writeError(w, http.StatusBadRequest, "missing cid")
		return
	}

	data, err := h.content.Fetch(r.Context(), cid)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
