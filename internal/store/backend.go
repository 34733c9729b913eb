// Package store persists notes behind a small Backend interface and
// publishes every mutation to registered observers.
package store

import (
	"context"
	"errors"

	"github.com/pbaille/fitlog/internal/domain"
)

// ErrNotFound is returned for lookups of unknown note ids
var ErrNotFound = errors.New("note not found")

// ErrAmbiguous is returned when an id prefix matches more than one note
var ErrAmbiguous = errors.New("ambiguous note id")

// Backend is the storage capability the NoteStore depends on. All
// implementations share the same observable semantics.
type Backend interface {
	// Name identifies the backend in logs
	Name() string
	// Put inserts or replaces the note with n.ID
	Put(ctx context.Context, n domain.Note) error
	// Get returns ErrNotFound for unknown ids
	Get(ctx context.Context, id string) (domain.Note, error)
	// Delete removes a note; unknown ids are not an error
	Delete(ctx context.Context, id string) error
	// List returns notes newest first. Only notes with TS < before are
	// returned when before > 0, and at most limit notes when limit > 0.
	List(ctx context.Context, before int64, limit int) ([]domain.Note, error)
	Close() error
}
