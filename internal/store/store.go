// Package store persists analysis history.
package store

import (
	"context"
	"errors"

	"github.com/sells-group/brochure-cli/internal/model"
)

// ErrNotFound is returned when an analysis does not exist.
var ErrNotFound = errors.New("store: analysis not found")

// Store defines the persistence interface for analysis history.
type Store interface {
	// SaveAnalysis assigns an ID and creation time when they are unset.
	SaveAnalysis(ctx context.Context, a *model.Analysis) error
	GetAnalysis(ctx context.Context, id string) (*model.Analysis, error)
	// ListAnalyses returns the newest analyses first.
	ListAnalyses(ctx context.Context, limit int) ([]model.Analysis, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
