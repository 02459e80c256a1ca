package simplemedia

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Repository defines the metadata store operations the pipeline issues.
// Implementations live in repo/memory and repo/postgres.
type Repository interface {
	// File record operations
	CreateFile(ctx context.Context, file *MediaFile) error
	GetFile(ctx context.Context, id uuid.UUID) (*MediaFile, error)
	// GetFileForOwner looks up a file by id owned by ownerKey, falling back
	// to the shared public identity when publicKey differs.
	GetFileForOwner(ctx context.Context, id uuid.UUID, ownerKey, publicKey string) (*MediaFile, error)
	UpdateFile(ctx context.Context, file *MediaFile) error
	UpdateFileStatus(ctx context.Context, id uuid.UUID, status MediaStatus) error
	CompleteFile(ctx context.Context, params CompleteFileParams) error
	DeleteFile(ctx context.Context, id uuid.UUID) error

	// Dedup index operations
	FindByOriginalHash(ctx context.Context, ownerKey, originalHash string, kind MediaKind) (*MediaFile, error)
	FindFixedSlotFile(ctx context.Context, ownerKey string, kind MediaKind) (*MediaFile, error)

	// Deletion fan-out operations
	ListFilesByOutputHash(ctx context.Context, ownerKey, outputHash string) ([]*MediaFile, error)
	DeleteFilesByOutputHash(ctx context.Context, ownerKey, outputHash string) (int64, error)

	// Listing
	ListFiles(ctx context.Context, ownerKey string) ([]*MediaFile, error)

	// Identity registry
	LookupRegisteredName(ctx context.Context, ownerKey string) (string, error)

	// Tag operations
	AddTags(ctx context.Context, fileID uuid.UUID, tags []string) error
	GetTags(ctx context.Context, fileID uuid.UUID) ([]string, error)
}

// CompleteFileParams carries the derived metadata persisted when a
// transform reaches its terminal completed state.
type CompleteFileParams struct {
	FileID     uuid.UUID
	OutputHash string
	Width      int
	Height     int
	Blurhash   string
	Magnet     string
}

// BlobStore defines the interface for artifact storage backends.
// Keys are always "<owner_name>/<filename>".
type BlobStore interface {
	// EnsureOwnerDirectory idempotently creates the per-owner location.
	// Backends without a directory concept treat this as a no-op.
	EnsureOwnerDirectory(ctx context.Context, ownerName string) error

	// Upload writes an artifact under the given key
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// Download reads an artifact back
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes an artifact. Deleting a missing key returns
	// ErrObjectNotFound.
	Delete(ctx context.Context, objectKey string) error
}

// Transcoder is the boundary to the external transform capability.
// A built-in image implementation lives in the transcode package; video and
// audio transforms require an injected implementation.
type Transcoder interface {
	Transform(ctx context.Context, input []byte, opts TransformOptions) (*TransformResult, error)
}

// TaskQueue decouples admission from transcoding. The production
// implementation is *Scheduler; tests may inject fakes.
type TaskQueue interface {
	// Enqueue submits a task, returning ErrQueueFull or ErrSchedulerClosed
	// when the task cannot be accepted.
	Enqueue(task *ProcessingTask) error

	// Pending reports the number of submitted tasks no worker has started.
	Pending() int
}
