package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"docvault/internal/domain"
)

// LocalStore keeps blobs as files under one directory.
// Locators are file paths of the form <dir>/<uuid>-<sanitized name>.
type LocalStore struct {
	dir    string
	logger *slog.Logger
}

// NewLocalStore creates the directory if needed
func NewLocalStore(dir string, logger *slog.Logger) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("upload directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	logger.Info("local blob store ready", "dir", dir)
	return &LocalStore{dir: filepath.Clean(dir), logger: logger}, nil
}

// Store writes r to a fresh file. A partial file is removed on error.
func (s *LocalStore) Store(ctx context.Context, r io.Reader, suggestedName string) (string, error) {
	locator := filepath.Join(s.dir, uuid.NewString()+"-"+sanitizeName(suggestedName))

	f, err := os.OpenFile(locator, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("create blob file: %w", err)
	}

	if _, err := io.Copy(f, readerWithContext(ctx, r)); err != nil {
		f.Close()
		os.Remove(locator)
		return "", fmt.Errorf("write blob file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(locator)
		return "", fmt.Errorf("close blob file: %w", err)
	}

	return locator, nil
}

// Retrieve opens the file at locator
func (s *LocalStore) Retrieve(ctx context.Context, locator string) (io.ReadCloser, error) {
	p, err := s.resolve(locator)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("blob %s: %w", locator, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("open blob file: %w", err)
	}
	return f, nil
}

// Delete removes the file at locator. A missing file is not an error.
func (s *LocalStore) Delete(ctx context.Context, locator string) error {
	p, err := s.resolve(locator)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove blob file: %w", err)
	}
	return nil
}

// resolve rejects locators outside the store directory
func (s *LocalStore) resolve(locator string) (string, error) {
	p := filepath.Clean(locator)
	rel, err := filepath.Rel(s.dir, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", fmt.Errorf("blob %s outside %s: %w", locator, s.dir, domain.ErrNotFound)
	}
	return p, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// readerWithContext stops a copy once ctx is done
func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
