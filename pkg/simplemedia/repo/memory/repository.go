package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-media/pkg/simplemedia"
)

// Repository implements simplemedia.Repository using in-memory storage
type Repository struct {
	mu         sync.RWMutex
	files      map[uuid.UUID]*simplemedia.MediaFile
	tags       map[uuid.UUID][]string
	registered map[string]string // owner_key -> display name
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		files:      make(map[uuid.UUID]*simplemedia.MediaFile),
		tags:       make(map[uuid.UUID][]string),
		registered: make(map[string]string),
	}
}

// RegisterIdentity adds an owner key to the identity registry. Test and
// development helper; production registries live in the metadata store.
func (r *Repository) RegisterIdentity(ownerKey, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registered[ownerKey] = name
}

// File record operations

func (r *Repository) CreateFile(ctx context.Context, file *simplemedia.MediaFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Copy to avoid external modifications
	fileCopy := *file
	r.files[file.ID] = &fileCopy

	return nil
}

func (r *Repository) GetFile(ctx context.Context, id uuid.UUID) (*simplemedia.MediaFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	file, exists := r.files[id]
	if !exists {
		return nil, simplemedia.ErrFileNotFound
	}

	fileCopy := *file
	return &fileCopy, nil
}

func (r *Repository) GetFileForOwner(ctx context.Context, id uuid.UUID, ownerKey, publicKey string) (*simplemedia.MediaFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	file, exists := r.files[id]
	if !exists {
		return nil, simplemedia.ErrFileNotFound
	}
	if file.OwnerKey != ownerKey && file.OwnerKey != publicKey {
		return nil, simplemedia.ErrFileNotFound
	}

	fileCopy := *file
	return &fileCopy, nil
}

func (r *Repository) UpdateFile(ctx context.Context, file *simplemedia.MediaFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.files[file.ID]; !exists {
		return simplemedia.ErrFileNotFound
	}

	fileCopy := *file
	r.files[file.ID] = &fileCopy

	return nil
}

func (r *Repository) UpdateFileStatus(ctx context.Context, id uuid.UUID, status simplemedia.MediaStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, exists := r.files[id]
	if !exists {
		return simplemedia.ErrFileNotFound
	}

	file.Status = status
	file.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *Repository) CompleteFile(ctx context.Context, params simplemedia.CompleteFileParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, exists := r.files[params.FileID]
	if !exists {
		return simplemedia.ErrFileNotFound
	}
	// Only a processing file may complete; keeps the status monotonic
	// under racing workers.
	if file.Status != simplemedia.StatusProcessing {
		return simplemedia.ErrInvalidTransition
	}

	file.Status = simplemedia.StatusCompleted
	file.OutputHash = params.OutputHash
	file.Width = params.Width
	file.Height = params.Height
	file.Blurhash = params.Blurhash
	file.Magnet = params.Magnet
	file.UpdatedAt = time.Now().UTC()

	return nil
}

func (r *Repository) DeleteFile(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.files[id]; !exists {
		return simplemedia.ErrFileNotFound
	}

	delete(r.files, id)
	delete(r.tags, id)
	return nil
}

// Dedup index operations

func (r *Repository) FindByOriginalHash(ctx context.Context, ownerKey, originalHash string, kind simplemedia.MediaKind) (*simplemedia.MediaFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, file := range r.files {
		if file.OwnerKey == ownerKey && file.OriginalHash == originalHash && file.Kind == kind {
			fileCopy := *file
			return &fileCopy, nil
		}
	}

	return nil, simplemedia.ErrFileNotFound
}

func (r *Repository) FindFixedSlotFile(ctx context.Context, ownerKey string, kind simplemedia.MediaKind) (*simplemedia.MediaFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, file := range r.files {
		if file.OwnerKey == ownerKey && file.Kind == kind {
			fileCopy := *file
			return &fileCopy, nil
		}
	}

	return nil, simplemedia.ErrFileNotFound
}

// Deletion fan-out operations

func (r *Repository) ListFilesByOutputHash(ctx context.Context, ownerKey, outputHash string) ([]*simplemedia.MediaFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*simplemedia.MediaFile
	for _, file := range r.files {
		if file.OwnerKey == ownerKey && file.OutputHash == outputHash {
			fileCopy := *file
			result = append(result, &fileCopy)
		}
	}

	return result, nil
}

func (r *Repository) DeleteFilesByOutputHash(ctx context.Context, ownerKey, outputHash string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for id, file := range r.files {
		if file.OwnerKey == ownerKey && file.OutputHash == outputHash {
			delete(r.files, id)
			delete(r.tags, id)
			count++
		}
	}

	return count, nil
}

// Listing

func (r *Repository) ListFiles(ctx context.Context, ownerKey string) ([]*simplemedia.MediaFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*simplemedia.MediaFile
	for _, file := range r.files {
		if file.OwnerKey == ownerKey {
			fileCopy := *file
			result = append(result, &fileCopy)
		}
	}

	// Sort by created_at descending
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// Identity registry

func (r *Repository) LookupRegisteredName(ctx context.Context, ownerKey string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, exists := r.registered[ownerKey]
	if !exists {
		return "", simplemedia.ErrIdentityNotFound
	}
	return name, nil
}

// Tag operations

func (r *Repository) AddTags(ctx context.Context, fileID uuid.UUID, tags []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.files[fileID]; !exists {
		return simplemedia.ErrFileNotFound
	}

	// (file, tag) pairs are unique, matching the postgres primary key.
	for _, tag := range tags {
		if !containsTag(r.tags[fileID], tag) {
			r.tags[fileID] = append(r.tags[fileID], tag)
		}
	}
	return nil
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (r *Repository) GetTags(ctx context.Context, fileID uuid.UUID) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.files[fileID]; !exists {
		return nil, simplemedia.ErrFileNotFound
	}

	tags := make([]string, len(r.tags[fileID]))
	copy(tags, r.tags[fileID])
	return tags, nil
}
