package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/tendant/simple-media/pkg/simplemedia"
)

// Backend is an in-memory implementation of the simplemedia.BlobStore
// interface, used in tests and development.
type Backend struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New creates a new in-memory storage backend
func New() simplemedia.BlobStore {
	return &Backend{
		objects: make(map[string][]byte),
	}
}

// EnsureOwnerDirectory is a no-op; memory keys have no directory concept.
func (b *Backend) EnsureOwnerDirectory(ctx context.Context, ownerName string) error {
	return nil
}

// Upload stores an artifact under the given key
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[objectKey] = data
	return nil
}

// Download reads an artifact back
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, simplemedia.ErrObjectNotFound
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes an artifact
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return simplemedia.ErrObjectNotFound
	}

	delete(b.objects, objectKey)
	return nil
}
