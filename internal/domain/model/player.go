// Package model contains domain models passed between layers.
package model

import "time"

// RawRow maps an original spreadsheet column header to its raw cell value.
// Rows are ephemeral: they exist between parsing and field mapping.
type RawRow map[string]string

// Player mirrors the external store's player record.
// Number zero means no number has been assigned yet.
type Player struct {
	ID       string             `json:"id"`
	Number   int                `json:"number"`
	AgeGroup string             `json:"age_group"`
	Name     string             `json:"name"`
	Scores   map[string]float64 `json:"scores,omitempty"` // drill key -> recorded value
}

// Numbered reports whether the player already has an assigned number.
func (p Player) Numbered() bool {
	return p.Number > 0
}

// Score returns the recorded value for a drill key, if any.
func (p Player) Score(drillKey string) (float64, bool) {
	v, ok := p.Scores[drillKey]
	return v, ok
}

// ScoreEntry is a session-local record of one submitted drill result.
// DrillResultID is empty until the store acknowledges the submission.
type ScoreEntry struct {
	ID            string          `json:"id"`
	DrillResultID string          `json:"drill_result_id"`
	PlayerID      string          `json:"player_id"`
	PlayerNumber  int             `json:"player_number"`
	PlayerName    string          `json:"player_name"`
	Drill         DrillDefinition `json:"drill"`
	Value         float64         `json:"value"`
	Note          string          `json:"note,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	Overridden    bool            `json:"overridden"`
}
