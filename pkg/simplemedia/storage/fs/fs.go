package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tendant/simple-media/pkg/simplemedia"
)

// Backend is a filesystem implementation of the simplemedia.BlobStore
// interface. All keys resolve to canonical paths under the storage root;
// any key that escapes the root is rejected with ErrPathOutsideRoot.
type Backend struct {
	root string // absolute, cleaned storage root
}

// Config options for the filesystem backend
type Config struct {
	BaseDir string // Base directory for storing artifacts
}

// New creates a new filesystem storage backend
func New(config Config) (simplemedia.BlobStore, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	root, err := filepath.Abs(config.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{root: root}, nil
}

// resolve canonicalizes a key under the root and requires the result to be
// a descendant of the root.
func (b *Backend) resolve(objectKey string) (string, error) {
	path, err := filepath.Abs(filepath.Join(b.root, objectKey))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if path != b.root && !strings.HasPrefix(path, b.root+string(filepath.Separator)) {
		return "", simplemedia.ErrPathOutsideRoot
	}
	return path, nil
}

// EnsureOwnerDirectory idempotently creates the per-owner directory.
// Concurrent creation attempts are safe; only filesystem errors unrelated
// to "already exists" surface.
func (b *Backend) EnsureOwnerDirectory(ctx context.Context, ownerName string) error {
	dir, err := b.resolve(ownerName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create owner directory: %w", err)
	}
	return nil
}

// Upload writes an artifact to the filesystem
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	path, err := b.resolve(objectKey)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Download reads an artifact from the filesystem
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	path, err := b.resolve(objectKey)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, simplemedia.ErrObjectNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes an artifact from the filesystem
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	path, err := b.resolve(objectKey)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return simplemedia.ErrObjectNotFound
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	b.cleanupEmptyDirectories(filepath.Dir(path))

	return nil
}

// cleanupEmptyDirectories recursively removes empty directories up to root
func (b *Backend) cleanupEmptyDirectories(dir string) {
	if dir == b.root {
		return
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
