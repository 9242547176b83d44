// Package repository persists the snapshot collection.
package repository

import (
	"context"

	"github.com/okian/leaguestats/internal/domain/model"
)

// Store provides read/write access to the persisted snapshot collection.
type Store interface {
	// Load returns the stored collection. A missing or unreadable store
	// yields an empty collection, not an error.
	Load(ctx context.Context) (model.Collection, error)

	// Save replaces the stored collection with c.
	Save(ctx context.Context, c model.Collection) error
}
