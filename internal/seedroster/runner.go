package seedroster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fieldday/combine/pkg/logger"
)

const outputFilePermission = 0o600

// Run generates a roster and either writes it to a file or pushes it
// through the service's preview and upload endpoints, then reads the
// roster back to confirm the commit.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	start := time.Now()
	log := logger.Named("seedroster")

	csv := GenerateCSV(cfg)
	stats := &Stats{RowsGenerated: cfg.NumPlayers}

	if cfg.OutputFile != "" {
		if err := os.WriteFile(cfg.OutputFile, []byte(csv), outputFilePermission); err != nil {
			return nil, fmt.Errorf("write output file: %w", err)
		}
		log.Info(ctx, "roster written",
			logger.String("file", cfg.OutputFile),
			logger.Int("rows", cfg.NumPlayers))
		stats.Duration = time.Since(start)
		return stats, nil
	}

	client := &http.Client{Timeout: cfg.Timeout}
	base := fmt.Sprintf("%s/api/events/%s", cfg.BaseURL, cfg.EventID)

	// Preview first, the way the mapping screen would.
	var preview struct {
		NeedsMapping bool `json:"needs_mapping"`
		Summary      struct {
			Total    int `json:"total"`
			Critical int `json:"critical"`
		} `json:"summary"`
	}
	if err := postJSON(ctx, client, base+"/roster/preview", map[string]string{"csv": csv}, &preview); err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}
	if preview.NeedsMapping {
		return nil, fmt.Errorf("preview requires manual field mapping")
	}
	log.Info(ctx, "preview accepted",
		logger.Int("total", preview.Summary.Total),
		logger.Int("critical", preview.Summary.Critical))

	var report struct {
		Attempted   int   `json:"attempted"`
		Added       int   `json:"added"`
		SkippedRows []int `json:"skipped_rows"`
		RowErrors   []struct {
			Row     int    `json:"row"`
			Message string `json:"message"`
		} `json:"row_errors"`
	}
	if err := postJSON(ctx, client, base+"/roster/upload", map[string]string{"csv": csv}, &report); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	stats.RowsAttempted = report.Attempted
	stats.RowsAdded = report.Added
	stats.RowsSkipped = len(report.SkippedRows)
	stats.RowErrors = len(report.RowErrors)

	var roster struct {
		Players []json.RawMessage `json:"players"`
	}
	if err := getJSON(ctx, client, base+"/roster", &roster); err != nil {
		return nil, fmt.Errorf("roster readback: %w", err)
	}
	stats.RosterSize = len(roster.Players)
	stats.Duration = time.Since(start)

	log.Info(ctx, "seeding complete",
		logger.Int("added", stats.RowsAdded),
		logger.Int("skipped", stats.RowsSkipped),
		logger.Int("rosterSize", stats.RosterSize),
		logger.String("took", stats.Duration.String()))
	return stats, nil
}

func postJSON(ctx context.Context, client *http.Client, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return doJSON(client, req, out)
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return doJSON(client, req, out)
}

func doJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
