package model

// DrillDefinition describes one measured or timed skill test for an event.
// Definitions are fetched per event and immutable within a session.
type DrillDefinition struct {
	Key           string `json:"key"`
	Label         string `json:"label"`
	Unit          string `json:"unit"`
	LowerIsBetter bool   `json:"lower_is_better"` // interpretation only; no computation depends on it
	Category      string `json:"category"`
}
