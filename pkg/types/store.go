package types

import (
	"context"
	"errors"
)

// BookStore persists the ordered book collection as a single unit.
// Implementations serialize their own Load and Save calls; at most one of
// them runs its critical section at a time.
type BookStore interface {
	// Load returns the persisted collection in the order it was saved.
	// A missing data file yields an empty, non-nil slice and no error.
	// Content that cannot be parsed is preserved aside and also yields an
	// empty slice. I/O failures wrap ErrStorage; a done context wraps
	// ErrCancelled.
	Load(ctx context.Context) ([]Book, error)

	// Save replaces the persisted collection with books. After Save returns
	// nil a later Load observes exactly books; if Save fails or the process
	// dies midway, Load observes the previous collection.
	Save(ctx context.Context, books []Book) error
}

// Store error kinds. Recoverable conditions (missing file, malformed
// content) never reach the caller of Load.
var (
	// ErrStorage marks an unrecoverable I/O failure such as a permission
	// or disk error.
	ErrStorage = errors.New("storage failure")

	// ErrCancelled marks an operation aborted by its context. Errors that
	// wrap it also wrap the context's own error.
	ErrCancelled = errors.New("operation cancelled")

	// ErrMalformedContent marks a data file whose content is not a valid
	// serialized collection.
	ErrMalformedContent = errors.New("malformed content")
)

// Collection errors returned to adapters that look books up by ID.
var (
	ErrBookNotFound = errors.New("book not found")
	ErrInvalidID    = errors.New("invalid book ID")
)
