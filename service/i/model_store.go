package i

import (
	"context"

	"github.com/adaptivemaze/amaze-api/agent"
)

// ValueTableStore persists trained value tables between sessions.
// Snapshots are indexed by grid shape; concurrent writers stay apart
// through the worker tag.
type ValueTableStore interface {
	// Save persists a snapshot under the worker's namespace.
	Save(ctx context.Context, worker string, snap agent.Snapshot) error

	// Load returns the most advanced snapshot for the shape, across all
	// workers. It returns modelstore.ErrNotFound when none exists.
	Load(ctx context.Context, width, height int) (agent.Snapshot, error)
}
