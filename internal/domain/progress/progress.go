// Package progress derives per-drill completion from the cached roster.
package progress

import (
	"github.com/fieldday/combine/internal/domain/model"
)

// Default threshold constants.
const (
	defaultSuggestThreshold = 0.8
)

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithSuggestThreshold overrides the ratio at which the next-drill
// suggestion fires.
func WithSuggestThreshold(ratio float64) Option {
	return func(t *Tracker) {
		if ratio > 0 && ratio <= 1 {
			t.suggestThreshold = ratio
		}
	}
}

// Snapshot is the completion picture for one drill.
type Snapshot struct {
	DrillKey    string  `json:"drill_key"`
	Scored      int     `json:"scored"`
	Total       int     `json:"total"`
	Ratio       float64 `json:"ratio"`
	Complete    bool    `json:"complete"`     // every player has a score
	SuggestNext bool    `json:"suggest_next"` // past the suggestion threshold
}

// Tracker computes completion snapshots.
type Tracker struct {
	suggestThreshold float64
}

// New creates a Tracker with configuration options.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		suggestThreshold: defaultSuggestThreshold,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ForDrill counts players holding a score for the drill. An empty roster is
// never complete; banners have nothing to announce.
func (t *Tracker) ForDrill(drillKey string, players []model.Player) Snapshot {
	s := Snapshot{DrillKey: drillKey, Total: len(players)}
	for _, p := range players {
		if _, ok := p.Score(drillKey); ok {
			s.Scored++
		}
	}
	if s.Total == 0 {
		return s
	}
	s.Ratio = float64(s.Scored) / float64(s.Total)
	s.Complete = s.Scored == s.Total
	s.SuggestNext = s.Ratio >= t.suggestThreshold
	return s
}
