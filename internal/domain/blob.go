package domain

import (
	"context"
	"io"
)

// BlobWriter uploads data to object storage. Put is a one-shot upload;
// PutMultipart streams large payloads in parts.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// Archiver exports a market's settled transaction log to cold storage.
type Archiver interface {
	ArchiveMarket(ctx context.Context, marketID string) (int64, error)
}
