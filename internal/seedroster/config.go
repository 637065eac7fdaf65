// Package seedroster generates realistic sample rosters and pushes them
// through a running combine service, exercising the full preview and
// upload path end to end.
package seedroster

import "time"

// Config holds configuration for one seeding run.
type Config struct {
	BaseURL    string        // Base URL of the combine service
	EventID    string        // Event to seed
	NumPlayers int           // Number of roster rows to generate
	AgeGroups  []string      // Age groups to spread players across
	NumberedPc float64       // Fraction of rows carrying an explicit number
	MessyPc    float64       // Fraction of rows with deliberate data problems
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // When set, write the CSV here instead of uploading
	Seed       int64         // Random seed; zero means time-based
}

// Stats summarizes a seeding run.
type Stats struct {
	RowsGenerated int
	RowsAttempted int
	RowsAdded     int
	RowsSkipped   int
	RowErrors     int
	RosterSize    int
	Duration      time.Duration
}
