package simplemedia

import (
	"time"

	"github.com/google/uuid"
)

// MediaStatus is the domain type for media file lifecycle states.
type MediaStatus string

// Media status constants (typed).
const (
	StatusPending    MediaStatus = "pending"
	StatusProcessing MediaStatus = "processing"
	StatusCompleted  MediaStatus = "completed"
	StatusFailed     MediaStatus = "failed"
)

// MediaKind selects the transform target and filename policy for an upload.
type MediaKind string

// Media kind constants (typed).
const (
	KindMedia  MediaKind = "media"
	KindAvatar MediaKind = "avatar"
	KindBanner MediaKind = "banner"
)

// KindPolicy carries the per-kind transform and naming rules as data.
// A non-empty FixedName marks a single-slot kind: the output filename is
// constant per owner and a re-upload overwrites the previous artifact
// instead of participating in the hash-based dedup check.
type KindPolicy struct {
	Width     int
	Height    int
	FixedName string
	ExactFit  bool // crop to exact dimensions instead of fitting inside them
}

var kindPolicies = map[MediaKind]KindPolicy{
	KindMedia:  {Width: 1280, Height: 960},
	KindAvatar: {Width: 400, Height: 400, FixedName: "avatar", ExactFit: true},
	KindBanner: {Width: 900, Height: 300, FixedName: "banner", ExactFit: true},
}

// Policy returns the transform policy for the kind. Unknown kinds fall back
// to the media policy, matching the admission default.
func (k MediaKind) Policy() KindPolicy {
	if p, ok := kindPolicies[k]; ok {
		return p
	}
	return kindPolicies[KindMedia]
}

// Valid reports whether k is a recognized media kind.
func (k MediaKind) Valid() bool {
	_, ok := kindPolicies[k]
	return ok
}

// FixedSlot reports whether the kind keeps exactly one artifact per owner.
func (k MediaKind) FixedSlot() bool {
	return k.Policy().FixedName != ""
}

// MediaFile represents one stored output artifact and its lifecycle record.
//
// OriginalHash addresses the raw uploaded bytes; OutputHash addresses the
// transformed artifact and stays empty until the transform completes.
type MediaFile struct {
	ID            uuid.UUID   `json:"id"`
	OwnerKey      string      `json:"owner_key"`
	OwnerName     string      `json:"owner_name"`
	OriginalHash  string      `json:"original_hash"`
	OutputHash    string      `json:"output_hash,omitempty"`
	FileName      string      `json:"filename"`
	Kind          MediaKind   `json:"media_kind"`
	Status        MediaStatus `json:"status"`
	Visible       bool        `json:"visible"`
	Magnet        string      `json:"magnet,omitempty"`
	Blurhash      string      `json:"blurhash,omitempty"`
	Width         int         `json:"width,omitempty"`
	Height        int         `json:"height,omitempty"`
	SourceAddress string      `json:"source_address,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Tag is a (file, tag) pair. Many tags may attach to one file; the parent
// MediaFile owns the lifecycle.
type Tag struct {
	FileID uuid.UUID `json:"file_id"`
	Tag    string    `json:"tag"`
}

// ProcessingTask is the ephemeral unit of work handed to the transform
// scheduler. It is created at enqueue time, consumed exactly once by a
// worker, and never persisted.
type ProcessingTask struct {
	FileID    uuid.UUID
	OwnerKey  string
	OwnerName string
	FileName  string
	Data      []byte
	Options   TransformOptions
}

// TransformOptions describe the target of a transcode operation.
type TransformOptions struct {
	Width    int
	Height   int
	Format   string // output format extension, e.g. "jpg", "png"
	ExactFit bool
}

// TransformResult is what a Transcoder produces on success.
type TransformResult struct {
	Data     []byte
	Width    int
	Height   int
	Blurhash string
}
