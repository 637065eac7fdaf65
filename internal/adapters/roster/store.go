// Package roster defines the event roster cache interface and errors.
package roster

import (
	"context"

	"github.com/fieldday/combine/internal/domain/model"
)

// Cache provides read access to the cached event roster. The cache is
// refreshed wholesale after every mutating operation rather than patched
// locally, trading latency for consistency with the external store.
type Cache interface {
	// Replace swaps in a fresh roster snapshot.
	Replace(ctx context.Context, players []model.Player)

	// ByNumber returns the player holding exactly this number.
	ByNumber(ctx context.Context, number int) (model.Player, bool)

	// ByID returns the player with the given store id.
	ByID(ctx context.Context, id string) (model.Player, bool)

	// PrefixCandidates returns players whose number starts with the given
	// decimal digits, in number order, capped at limit.
	PrefixCandidates(ctx context.Context, prefix string, limit int) []model.Player

	// SearchName returns players whose names fuzzily match the query,
	// best matches first, capped at limit.
	SearchName(ctx context.Context, query string, limit int) []model.Player

	// Players returns the full roster in number order.
	Players(ctx context.Context) []model.Player

	// ScoredCount returns how many players have a recorded value for the
	// given drill.
	ScoredCount(ctx context.Context, drillKey string) int

	// Numbers returns every assigned number in the roster.
	Numbers(ctx context.Context) []int

	// Count returns the number of cached players.
	Count(ctx context.Context) int
}
