// Package inflight guards against concurrent submissions for one
// (player, drill) pair.
package inflight

import (
	"context"
	"sync"
	"sync/atomic"
)

// Guard records submissions in flight so no two run against the same pair.
type Guard interface {
	// Begin atomically checks whether the pair is already in flight and
	// records it if not. Returns false if a submission is already pending.
	Begin(ctx context.Context, playerID, drillKey string) bool

	// Finish releases the pair once its submission settled, success or not.
	Finish(ctx context.Context, playerID, drillKey string)

	Size() int64
}

// pairKey joins player and drill with a separator neither may contain.
func pairKey(playerID, drillKey string) string {
	return playerID + "\x1f" + drillKey
}

// inMemoryGuard implements Guard with a mutex-protected set. Cardinality is
// bounded by one event's roster, so no eviction machinery is needed.
type inMemoryGuard struct {
	mu      sync.Mutex
	pending map[string]struct{}
	size    atomic.Int64
}

// NewInMemoryGuard creates a new in-memory guard.
func NewInMemoryGuard() Guard {
	return &inMemoryGuard{
		pending: make(map[string]struct{}),
	}
}

func (g *inMemoryGuard) Begin(_ context.Context, playerID, drillKey string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := pairKey(playerID, drillKey)
	if _, exists := g.pending[key]; exists {
		return false
	}
	g.pending[key] = struct{}{}
	g.size.Add(1)
	return true
}

func (g *inMemoryGuard) Finish(_ context.Context, playerID, drillKey string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := pairKey(playerID, drillKey)
	if _, exists := g.pending[key]; exists {
		delete(g.pending, key)
		g.size.Add(-1)
	}
}

func (g *inMemoryGuard) Size() int64 {
	return g.size.Load()
}
