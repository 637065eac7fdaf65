package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fieldday/combine/internal/seedroster"
	"github.com/fieldday/combine/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumPlayers = 60
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 2 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the combine service")
		eventID    = flag.String("event", "", "Event ID to seed (required unless -output is set)")
		numPlayers = flag.Int("players", defaultNumPlayers, "Number of roster rows to generate")
		ageGroups  = flag.String("age-groups", "10U,12U,14U", "Comma-separated age groups")
		numberedPc = flag.Float64("numbered", 0.3, "Fraction of rows with an explicit number")
		messyPc    = flag.Float64("messy", 0, "Fraction of rows with deliberate data problems")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Write the CSV to this file instead of uploading")
		seed       = flag.Int64("seed", 0, "Random seed (0 = time-based)")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	if *eventID == "" && *outputFile == "" {
		os.Stderr.WriteString("either -event or -output is required\n")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &seedroster.Config{
		BaseURL:    *baseURL,
		EventID:    *eventID,
		NumPlayers: *numPlayers,
		AgeGroups:  strings.Split(*ageGroups, ","),
		NumberedPc: *numberedPc,
		MessyPc:    *messyPc,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		Seed:       *seed,
	}

	stats, err := seedroster.Run(ctx, cfg)
	if err != nil {
		os.Stderr.WriteString("seeding failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	fmt.Printf("generated %d rows, uploaded %d, skipped %d, roster now %d players (%s)\n",
		stats.RowsGenerated, stats.RowsAdded, stats.RowsSkipped, stats.RosterSize, stats.Duration.Round(time.Millisecond))
}
