package simplemedia

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrFileNotFound indicates a media file record was not found
	ErrFileNotFound = errors.New("media file not found")

	// ErrIdentityNotFound indicates an owner key is not registered
	ErrIdentityNotFound = errors.New("identity not registered")

	// ErrInvalidStatus indicates an unknown media status
	ErrInvalidStatus = errors.New("invalid media status")

	// ErrInvalidTransition indicates a status change that would move backward
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrValidation indicates malformed input (bad shape or length)
	ErrValidation = errors.New("validation failed")

	// ErrForbidden indicates an operation the shared public identity may not perform
	ErrForbidden = errors.New("operation not allowed for public identity")

	// ErrQueueFull indicates the transform queue cannot accept more tasks
	ErrQueueFull = errors.New("transform queue is full")

	// ErrSchedulerClosed indicates the transform scheduler is shut down
	ErrSchedulerClosed = errors.New("transform scheduler is closed")

	// ErrObjectNotFound indicates a stored artifact was not found on a backend
	ErrObjectNotFound = errors.New("object not found")

	// ErrPathOutsideRoot indicates a retrieval path escaping the storage root
	ErrPathOutsideRoot = errors.New("path escapes storage root")

	// ErrTransformFailed indicates the transcoder collaborator failed
	ErrTransformFailed = errors.New("transform failed")
)

// FileError represents an error related to media file operations
type FileError struct {
	FileID uuid.UUID
	Op     string
	Err    error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file operation %s failed for file %s: %v", e.Op, e.FileID, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to artifact storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
