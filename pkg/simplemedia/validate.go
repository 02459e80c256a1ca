package simplemedia

import (
	"fmt"
	"strings"
)

// Length bounds enforced before any filesystem or store access.
const (
	MaxOwnerNameLength = 50
	MaxFileNameLength  = 128
)

// ValidateOwnerName rejects owner names that are empty, too long, or that
// could alter the storage path.
func ValidateOwnerName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: owner name is empty", ErrValidation)
	}
	if len(name) > MaxOwnerNameLength {
		return fmt.Errorf("%w: owner name exceeds %d characters", ErrValidation, MaxOwnerNameLength)
	}
	if containsPathTraversal(name) {
		return fmt.Errorf("%w: owner name contains path separators", ErrValidation)
	}
	return nil
}

// ValidateFileName rejects filenames that are empty, too long, or that
// could escape the per-owner directory.
func ValidateFileName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: filename is empty", ErrValidation)
	}
	if len(name) > MaxFileNameLength {
		return fmt.Errorf("%w: filename exceeds %d characters", ErrValidation, MaxFileNameLength)
	}
	if containsPathTraversal(name) {
		return fmt.Errorf("%w: filename contains path separators", ErrValidation)
	}
	return nil
}

func containsPathTraversal(s string) bool {
	return strings.ContainsAny(s, `/\`) || strings.Contains(s, "..") || strings.HasPrefix(s, ".")
}
