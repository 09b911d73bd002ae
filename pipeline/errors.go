package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrNoImages is returned for a batch without items. Nothing is created or generated.
	ErrNoImages = errors.New("no images provided")
	// ErrMissingImage is the per-item validation failure for an item without a top garment.
	ErrMissingImage = errors.New("garment image url is required")
)

// UpstreamGenerationError is a failed required stage. It abandons one item only.
type UpstreamGenerationError struct {
	Stage string
	Err   error
}

func (e *UpstreamGenerationError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *UpstreamGenerationError) Unwrap() error { return e.Err }

// StorageError is a failed collection write. Items written before it stay durable.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// StageOf reports which stage an item error belongs to, for the error record.
func StageOf(err error) string {
	var upstream *UpstreamGenerationError
	if errors.As(err, &upstream) {
		return upstream.Stage
	}
	var storage *StorageError
	if errors.As(err, &storage) {
		return "persist"
	}
	if errors.Is(err, ErrMissingImage) {
		return "validate"
	}
	return ""
}
