package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrExists is returned when an object path has already been written.
var ErrExists = errors.New("object already exists")

// Disk stores objects under a local directory; the HTTP router serves the
// directory at URLPrefix.
type Disk struct {
	Root      string
	URLPrefix string
}

// NewDisk creates the root directory if needed.
func NewDisk(root, urlPrefix string) (*Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload root %s: %w", root, err)
	}
	return &Disk{Root: root, URLPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (d *Disk) Upload(ctx context.Context, objectPath, contentType string, body io.Reader) (string, error) {
	p, err := cleanPath(objectPath)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := filepath.Join(d.Root, filepath.FromSlash(p))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", p, err)
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%s: %w", p, ErrExists)
		}
		return "", fmt.Errorf("failed to create %s: %w", p, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(target)
		return "", fmt.Errorf("failed to write %s: %w", p, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", p, err)
	}

	return d.URLPrefix + "/" + p, nil
}

func (d *Disk) Delete(ctx context.Context, objectPath string) error {
	p, err := cleanPath(objectPath)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(d.Root, filepath.FromSlash(p))); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", p, err)
	}
	return nil
}
