// Package persistence stores live-entry session state durably per event
// so a restart or resume does not lose in-progress work. Writes are
// best-effort: a failed save never blocks score entry.
package persistence

import (
	"context"

	"github.com/fieldday/combine/internal/domain/model"
)

// Snapshot is the persisted slice of session state. Each field maps to its
// own namespaced key so partial reads stay cheap.
type Snapshot struct {
	SelectedDrill    string
	RecentEntries    []model.ScoreEntry
	Locks            map[string]bool
	ReviewDismissed  map[string]bool
	LastPlayerNumber string
}

// SessionStore persists and restores session snapshots keyed by event id.
type SessionStore interface {
	// Save writes the snapshot. Failures are swallowed after logging;
	// persistence is advisory, never load-bearing.
	Save(ctx context.Context, eventID string, snap Snapshot)

	// Load restores the snapshot for an event. The second return is false
	// when nothing was persisted or the stored state is unreadable.
	Load(ctx context.Context, eventID string) (Snapshot, bool)

	// Clear drops all persisted state for an event.
	Clear(ctx context.Context, eventID string)
}
