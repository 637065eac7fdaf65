// Package store is the HTTP client for the external player and drill
// result store. The store owns the durable roster; this service keeps
// only a cache and refreshes it after every mutation.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/fieldday/combine/internal/domain/model"
	"github.com/fieldday/combine/pkg/logger"
	"github.com/fieldday/combine/pkg/metrics"
)

const (
	defaultTimeout       = 5 * time.Second
	defaultRetryInitial  = 250 * time.Millisecond
	defaultRetryAttempts = 3
	defaultRateLimitRPS  = 20
	defaultRateBurst     = 10
)

// PlayerUpload is one roster row sent to the store's batch endpoint.
type PlayerUpload struct {
	Name     string             `json:"name"`
	Number   int                `json:"number"`
	AgeGroup string             `json:"age_group,omitempty"`
	Team     string             `json:"team,omitempty"`
	Position string             `json:"position,omitempty"`
	Notes    string             `json:"notes,omitempty"`
	Scores   map[string]float64 `json:"scores,omitempty"`
}

// RowError is a store-side rejection of one uploaded row. Messages are
// surfaced to the operator verbatim.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// UploadResult summarizes a batch upload.
type UploadResult struct {
	Added  int        `json:"added"`
	Errors []RowError `json:"errors,omitempty"`
}

// Client talks JSON over HTTP to the external store.
type Client struct {
	base    string
	http    *http.Client
	limiter *rate.Limiter
	log     logger.Logger

	retryInitial  time.Duration
	retryAttempts int
}

// New creates a store client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:          baseURL,
		http:          &http.Client{Timeout: defaultTimeout},
		limiter:       rate.NewLimiter(rate.Limit(defaultRateLimitRPS), defaultRateBurst),
		log:           logger.Named("store"),
		retryInitial:  defaultRetryInitial,
		retryAttempts: defaultRetryAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Players fetches the full roster for an event. The fetch retries with
// capped exponential backoff since it happens on session cold start,
// when the store may still be warming up.
func (c *Client) Players(ctx context.Context, eventID string) ([]model.Player, error) {
	var players []model.Player

	op := func() error {
		var page struct {
			Players []model.Player `json:"players"`
		}
		if err := c.getJSON(ctx, "players", c.url("events/%s/players", eventID), &page); err != nil {
			return err
		}
		players = page.Players
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInitial
	bo.MaxInterval = c.retryInitial * 8

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.retryAttempts)), ctx))
	if err != nil {
		return nil, err
	}
	return players, nil
}

// UploadPlayers posts a batch of new roster rows. A non-zero error count
// in the result is not a client error; callers surface row errors as-is.
func (c *Client) UploadPlayers(ctx context.Context, eventID string, players []PlayerUpload) (UploadResult, error) {
	var result UploadResult
	body := struct {
		Players []PlayerUpload `json:"players"`
	}{Players: players}

	err := c.postJSON(ctx, "upload_players", c.url("events/%s/players/batch", eventID), body, &result)
	if err != nil {
		return UploadResult{}, err
	}
	return result, nil
}

// PostDrillResult records one drill value and returns the store's result id.
func (c *Client) PostDrillResult(ctx context.Context, eventID, playerID, drillKey string, value float64) (string, error) {
	body := struct {
		PlayerID string  `json:"player_id"`
		Drill    string  `json:"drill"`
		Value    float64 `json:"value"`
	}{PlayerID: playerID, Drill: drillKey, Value: value}

	var ack struct {
		ID string `json:"id"`
	}
	err := c.postJSON(ctx, "post_drill_result", c.url("events/%s/drill-results", eventID), body, &ack)
	if err != nil {
		return "", err
	}
	return ack.ID, nil
}

// DeleteDrillResult removes a previously recorded drill result.
func (c *Client) DeleteDrillResult(ctx context.Context, id, eventID, playerID string) error {
	url := c.url("events/%s/drill-results/%s", eventID, id) + "?player_id=" + playerID

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	return c.do("delete_drill_result", req, nil)
}

// EventSchema fetches the drills configured for an event.
func (c *Client) EventSchema(ctx context.Context, eventID string) ([]model.DrillDefinition, error) {
	var schema struct {
		Drills []model.DrillDefinition `json:"drills"`
	}
	if err := c.getJSON(ctx, "event_schema", c.url("events/%s/schema", eventID), &schema); err != nil {
		return nil, err
	}
	return schema.Drills, nil
}

func (c *Client) url(format string, args ...interface{}) string {
	return c.base + "/api/" + fmt.Sprintf(format, args...)
}

func (c *Client) getJSON(ctx context.Context, op, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	return c.do(op, req, out)
}

func (c *Client) postJSON(ctx context.Context, op, url string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncodeBody, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req, out)
}

// do runs one rate-limited request and decodes the JSON response into out
// when out is non-nil.
func (c *Client) do(op string, req *http.Request, out interface{}) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		metrics.RecordStoreRequest(op, "rate_limited")
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.RecordStoreRequestLatency(op, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordStoreRequest(op, "error")
		c.log.Error(req.Context(), "store request failed",
			logger.String("op", op),
			logger.Error(err))
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RecordStoreRequest(op, "bad_status")
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Error(req.Context(), "store returned error status",
			logger.String("op", op),
			logger.Int("status", resp.StatusCode),
			logger.String("body", string(body)))
		return fmt.Errorf("%w: %s %d", ErrBadStatus, op, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			metrics.RecordStoreRequest(op, "decode_error")
			return fmt.Errorf("%w: %w", ErrDecodeBody, err)
		}
	}

	metrics.RecordStoreRequest(op, "success")
	return nil
}
