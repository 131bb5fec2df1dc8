// Package blob stores and serves uploaded submission files.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when no blob exists for the given ID.
var ErrNotFound = errors.New("blob not found")

// Info describes a stored blob.
type Info struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"sizeBytes"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Store persists uploaded files and resolves them for serving.
type Store interface {
	// Save writes the content and returns the blob's metadata. The returned
	// ID is opaque and safe to embed in URLs.
	Save(ctx context.Context, filename string, content []byte) (*Info, error)
	// Stat returns metadata for a stored blob.
	Stat(ctx context.Context, id string) (*Info, error)
	// Open returns a reader over a stored blob's content.
	Open(ctx context.Context, id string) (io.ReadCloser, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, id string) error
	// URL returns the public path at which the blob can be fetched.
	URL(id string) string
}
