package store

import (
	"context"
	"errors"

	"github.com/shelfmark/shelfmark/engine"
)

// ErrNotFound is returned when a work id does not exist.
var ErrNotFound = errors.New("work not found")

// ErrVersionConflict is returned by UpdateWork when the work was modified
// since it was read. Callers re-read and retry; this is the serialization
// point for concurrent evaluations over the same work.
var ErrVersionConflict = errors.New("work version conflict")

// Store persists the settings aggregate and the tracked-work collection.
// The engine never calls it; the server, the sweeper and the settings
// surface do.
type Store interface {
	// LoadSettings returns the saved settings, or engine.DefaultSettings()
	// when nothing has been saved yet.
	LoadSettings(ctx context.Context) (engine.Settings, error)
	SaveSettings(ctx context.Context, settings engine.Settings) error

	AddWork(ctx context.Context, work *engine.Work) error
	GetWork(ctx context.Context, id string) (*engine.Work, error)
	ListWorks(ctx context.Context) ([]*engine.Work, error)

	// UpdateWork writes the work back if its version still matches, then
	// bumps the version. A stale version yields ErrVersionConflict.
	UpdateWork(ctx context.Context, work *engine.Work) error
	DeleteWork(ctx context.Context, id string) error

	Close() error
}
