// Package storage holds BlobStore implementations for uploaded document content.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"unicode"

	"docvault/internal/config"
	"docvault/internal/domain/services"
)

// maxStoredNameRunes keeps the extension when long names are cut
const maxStoredNameRunes = 128

// New builds the blob store selected by cfg.StorageBackend
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (services.BlobStore, error) {
	switch cfg.StorageBackend {
	case config.StorageLocal:
		return NewLocalStore(cfg.UploadDir, logger)
	case config.StorageS3:
		return NewS3Store(ctx, cfg.S3, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// sanitizeName reduces a client-supplied file name to a safe single path segment
func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))

	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}

	out := []rune(strings.TrimLeft(b.String(), "."))
	if len(out) > maxStoredNameRunes {
		out = out[len(out)-maxStoredNameRunes:]
	}
	if len(out) == 0 {
		return "file"
	}
	return string(out)
}
