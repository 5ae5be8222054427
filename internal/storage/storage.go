package storage

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"repurposer/internal/infra"
)

// Sink persists binary artifacts and returns a stable retrieval locator.
// Locators embed a fresh UUID per call, so repeated writes for the same
// artifact never overwrite an earlier one.
type Sink interface {
	Put(ctx context.Context, data []byte, hint string) (string, error)
}

// NewSink selects a backend from configuration. Unknown backends fall back to
// local storage with a warning, matching how storage was selected upstream of
// the worker historically.
func NewSink(cfg *infra.Config, logger infra.Logger) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StorageBackend)) {
	case "s3":
		return NewS3Store(S3Options{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
		})
	case "local", "":
		return NewFileStore(cfg.StoragePath)
	default:
		logger.Warn().Str("backend", cfg.StorageBackend).Msg("storage: unknown backend, using local")
		return NewFileStore(cfg.StoragePath)
	}
}

// objectKey builds a collision-free key under the hint folder.
func objectKey(hint string, data []byte) string {
	folder := strings.Trim(strings.TrimSpace(hint), "/")
	if folder == "" {
		folder = "artifacts"
	}
	return fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), extensionFor(data))
}

// extensionFor sniffs the payload so stored objects keep a useful extension.
func extensionFor(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}
