package simplemedia

import "fmt"

// canStartProcessing checks whether a worker may move a file to processing.
// Returns true if the transition is allowed, false with an error otherwise.
func canStartProcessing(status MediaStatus) (bool, error) {
	switch status {
	case StatusPending:
		return true, nil
	case StatusProcessing:
		return false, fmt.Errorf("%w: file is already being processed (status: %s)", ErrInvalidTransition, status)
	case StatusCompleted, StatusFailed:
		return false, fmt.Errorf("%w: file already reached a terminal state (status: %s)", ErrInvalidTransition, status)
	default:
		return false, fmt.Errorf("%w: unknown status %s", ErrInvalidStatus, status)
	}
}

// canComplete checks whether a file may move to completed.
func canComplete(status MediaStatus) (bool, error) {
	switch status {
	case StatusProcessing:
		return true, nil
	case StatusPending:
		return false, fmt.Errorf("%w: file has not started processing (status: %s)", ErrInvalidTransition, status)
	case StatusCompleted, StatusFailed:
		return false, fmt.Errorf("%w: file already reached a terminal state (status: %s)", ErrInvalidTransition, status)
	default:
		return false, fmt.Errorf("%w: unknown status %s", ErrInvalidStatus, status)
	}
}

// canFail checks whether a file may move to failed. Pending is allowed so
// admission can fail a record whose task was never accepted by the queue.
func canFail(status MediaStatus) (bool, error) {
	switch status {
	case StatusPending, StatusProcessing:
		return true, nil
	case StatusCompleted, StatusFailed:
		return false, fmt.Errorf("%w: file already reached a terminal state (status: %s)", ErrInvalidTransition, status)
	default:
		return false, fmt.Errorf("%w: unknown status %s", ErrInvalidStatus, status)
	}
}
