package simplemedia

import (
	"github.com/google/uuid"
)

// UploadMediaRequest contains parameters for admitting an upload.
// OwnerKey is the authenticated key as returned by the request
// authenticator; the service substitutes the shared public identity when
// the key is unregistered.
type UploadMediaRequest struct {
	OwnerKey      string
	Kind          MediaKind
	Data          []byte
	SourceAddress string
	Tags          []string
}

// UploadMediaResult reports the admission outcome.
type UploadMediaResult struct {
	FileID      uuid.UUID
	OwnerKey    string // effective owner after identity resolution
	OwnerName   string
	FileName    string
	URL         string
	Status      MediaStatus
	Duplicate   bool
	Description string
}

// MediaStatusRequest looks up a file's state by id on behalf of an
// authenticated owner.
type MediaStatusRequest struct {
	FileID   uuid.UUID
	OwnerKey string
}

// MediaStatusResult reports the recorded state of a file, with the stable
// URL populated once the transform has completed.
type MediaStatusResult struct {
	FileID      uuid.UUID
	OwnerKey    string
	FileName    string
	URL         string
	Status      MediaStatus
	OutputHash  string
	Width       int
	Height      int
	Blurhash    string
	Magnet      string
	Description string
}
