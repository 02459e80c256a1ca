package simplemedia

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Service defines the media lifecycle pipeline: admission and dedup,
// asynchronous transform scheduling, status queries, safe retrieval and
// content-scoped deletion.
type Service interface {
	// UploadMedia admits an upload: resolves the effective owner, hashes
	// the raw bytes, short-circuits on duplicate content, inserts a pending
	// record and enqueues the transform.
	UploadMedia(ctx context.Context, req UploadMediaRequest) (*UploadMediaResult, error)

	// GetMediaStatus reports the recorded state of a file by id, falling
	// back to the shared public identity for ownership.
	GetMediaStatus(ctx context.Context, req MediaStatusRequest) (*MediaStatusResult, error)

	// OpenMedia resolves (owner_name, filename) to the stored artifact,
	// rejecting paths that escape the storage root. A valid path with no
	// artifact on disk yields the configured fallback asset.
	OpenMedia(ctx context.Context, ownerName, filename string) (io.ReadCloser, error)

	// DeleteMedia removes every record owned by ownerKey sharing the
	// addressed file's output hash, plus the corresponding artifacts.
	// The shared public identity is refused with ErrForbidden.
	DeleteMedia(ctx context.Context, ownerKey string, fileID uuid.UUID) (int64, error)

	// SetVisibility flips the public/private flag on a file record.
	SetVisibility(ctx context.Context, ownerKey string, fileID uuid.UUID, visible bool) error

	// ListMedia returns the owner's file records, newest first.
	ListMedia(ctx context.Context, ownerKey string) ([]*MediaFile, error)

	// Tag operations
	AddTags(ctx context.Context, fileID uuid.UUID, tags []string) error
	GetTags(ctx context.Context, fileID uuid.UUID) ([]string, error)

	// PendingTransforms reports the transform queue depth.
	PendingTransforms() int

	// Start launches the transform workers. Close drains them.
	Start(ctx context.Context)
	Close()
}
