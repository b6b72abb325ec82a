package objectstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"

	"property-maintenance-backend/config"
)

// Store is write-once blob storage addressed by slash-separated paths.
type Store interface {
	// Upload stores body at objectPath and returns a publicly resolvable URL.
	Upload(ctx context.Context, objectPath, contentType string, body io.Reader) (string, error)
	// Delete removes the object at objectPath. A missing object is not an error.
	Delete(ctx context.Context, objectPath string) error
}

// New builds the configured backend.
func New(cfg config.StorageConfig, log *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "cloudinary":
		return NewCloudinary(cfg.Cloudinary, log)
	case "disk":
		return NewDisk(cfg.Disk.Root, cfg.Disk.URLPrefix)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

// cleanPath normalises an object path and rejects anything escaping the root.
func cleanPath(objectPath string) (string, error) {
	p := path.Clean("/" + strings.ReplaceAll(objectPath, "\\", "/"))
	p = strings.TrimPrefix(p, "/")
	if p == "" || p == "." {
		return "", fmt.Errorf("invalid object path %q", objectPath)
	}
	return p, nil
}
