package domain

import (
	"context"
	"io"
	"time"
)

// ContentStore is the IPFS stand-in. Put stores opaque bytes and returns a
// deterministic content identifier; Get resolves an identifier back to
// bytes or ErrNotFound. The marketplace never interprets stored content.
type ContentStore interface {
	Put(ctx context.Context, data []byte, contentType string) (cid string, err error)
	Get(ctx context.Context, cid string) ([]byte, error)
}

// BlobInfo describes one stored object.
type BlobInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ArchiveWriter writes named objects to long-term storage. Used by the
// event archiver; keys are chosen by the caller, unlike ContentStore.
type ArchiveWriter interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
}
