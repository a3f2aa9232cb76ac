package services

import (
	"context"
	"io"
)

// BlobStore holds raw document content addressed by an opaque locator.
type BlobStore interface {
	// Store writes content and returns its locator. Every call yields a fresh locator.
	Store(ctx context.Context, r io.Reader, suggestedName string) (string, error)

	// Retrieve opens the content at locator. Returns domain.ErrNotFound if absent.
	Retrieve(ctx context.Context, locator string) (io.ReadCloser, error)

	// Delete removes the content at locator
	Delete(ctx context.Context, locator string) error
}
