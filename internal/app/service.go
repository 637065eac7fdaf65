// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fieldday/combine/internal/adapters/http/api"
	"github.com/fieldday/combine/internal/adapters/persistence"
	"github.com/fieldday/combine/internal/adapters/roster"
	"github.com/fieldday/combine/internal/adapters/store"
	"github.com/fieldday/combine/internal/config"
	"github.com/fieldday/combine/internal/domain/model"
	"github.com/fieldday/combine/internal/domain/progress"
	"github.com/fieldday/combine/internal/domain/sheet"
	"github.com/fieldday/combine/internal/ingest"
	"github.com/fieldday/combine/internal/session"
	"github.com/fieldday/combine/pkg/logger"
)

// Store is the slice of the external store client the service depends on.
type Store interface {
	Players(ctx context.Context, eventID string) ([]model.Player, error)
	UploadPlayers(ctx context.Context, eventID string, players []store.PlayerUpload) (store.UploadResult, error)
	PostDrillResult(ctx context.Context, eventID, playerID, drillKey string, value float64) (string, error)
	DeleteDrillResult(ctx context.Context, id, eventID, playerID string) error
	EventSchema(ctx context.Context, eventID string) ([]model.DrillDefinition, error)
}

var _ api.Dependencies = (*Service)(nil)

// eventRuntime bundles everything the service keeps per touched event.
type eventRuntime struct {
	drills   []model.DrillDefinition
	cache    *roster.TreapCache
	runner   *session.Runner
	pipeline *ingest.Pipeline
}

// Service implements the API dependencies for the combine day system.
// Event runtimes are created lazily on first touch: the schema is fetched
// once, then the roster cache, entry session and ingest pipeline share it.
type Service struct {
	mu sync.Mutex

	// Core components
	store    Store
	sessions persistence.SessionStore
	redis    *redis.Client
	events   map[string]*eventRuntime

	// Configuration
	storeBaseURL     string
	storeTimeout     time.Duration
	storeRateRPS     float64
	storeRateBurst   int
	retryInitial     time.Duration
	retryAttempts    int
	redisAddr        string
	redisDB          int
	persistNamespace string
	workerCount      int
	maxUploadRows    int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects a pre-built store client.
func WithStore(st Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithSessionStore injects a pre-built session persistence store.
func WithSessionStore(ss persistence.SessionStore) Option {
	return func(s *Service) {
		if ss != nil {
			s.sessions = ss
		}
	}
}

// WithStoreBaseURL sets the external store base URL.
func WithStoreBaseURL(url string) Option {
	return func(s *Service) {
		if url != "" {
			s.storeBaseURL = url
		}
	}
}

// WithStoreTimeout bounds individual store requests.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// WithStoreRateLimit throttles outbound store calls.
func WithStoreRateLimit(rps float64, burst int) Option {
	return func(s *Service) {
		if rps > 0 && burst > 0 {
			s.storeRateRPS = rps
			s.storeRateBurst = burst
		}
	}
}

// WithStoreRetry shapes the roster fetch backoff.
func WithStoreRetry(initial time.Duration, attempts int) Option {
	return func(s *Service) {
		if initial > 0 && attempts > 0 {
			s.retryInitial = initial
			s.retryAttempts = attempts
		}
	}
}

// WithRedis points the session persistence at a redis instance.
func WithRedis(addr string, db int) Option {
	return func(s *Service) {
		if addr != "" {
			s.redisAddr = addr
			s.redisDB = db
		}
	}
}

// WithPersistNamespace sets the key prefix for persisted sessions.
func WithPersistNamespace(ns string) Option {
	return func(s *Service) {
		if ns != "" {
			s.persistNamespace = ns
		}
	}
}

// WithWorkerCount sets the number of row validation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithMaxUploadRows caps the rows accepted in one upload batch.
func WithMaxUploadRows(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxUploadRows = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// FromConfig translates loaded configuration into service options.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithStoreBaseURL(cfg.StoreBaseURL),
		WithStoreTimeout(time.Duration(cfg.StoreTimeoutMS) * time.Millisecond),
		WithStoreRateLimit(cfg.StoreRateLimitRPS, cfg.StoreRateBurst),
		WithStoreRetry(time.Duration(cfg.RosterRetryInitialMS)*time.Millisecond, cfg.RosterRetryAttempts),
		WithRedis(cfg.RedisAddr, cfg.RedisDB),
		WithPersistNamespace(cfg.PersistNamespace),
		WithWorkerCount(cfg.WorkerCount),
		WithMaxUploadRows(cfg.MaxUploadRows),
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		events:           make(map[string]*eventRuntime),
		storeBaseURL:     "http://localhost:9081",
		storeTimeout:     5 * time.Second,
		storeRateRPS:     20,
		storeRateBurst:   10,
		retryInitial:     250 * time.Millisecond,
		retryAttempts:    3,
		redisAddr:        "localhost:6379",
		persistNamespace: "combine",
		workerCount:      runtime.NumCPU() * 2,
		maxUploadRows:    2000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	if s.store == nil {
		s.store = store.New(s.storeBaseURL,
			store.WithTimeout(s.storeTimeout),
			store.WithRateLimit(s.storeRateRPS, s.storeRateBurst),
			store.WithRetry(s.retryInitial, s.retryAttempts),
		)
	}
	if s.sessions == nil {
		s.redis = redis.NewClient(&redis.Options{Addr: s.redisAddr, DB: s.redisDB})
		s.sessions = persistence.NewRedisStore(s.redis, s.persistNamespace)
	}

	s.started = true
	s.logger.Info(ctx, "combine service started",
		logger.String("store", s.storeBaseURL),
		logger.Int("workers", s.workerCount),
	)
	return nil
}

// Stop releases service resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	s.started = false
	s.logger.Info(context.Background(), "combine service stopped")
}

// event returns the runtime for an event, creating it on first touch. An
// unknown event surfaces as api.ErrUnknownEvent so the handler layer can
// answer 404 instead of a generic upstream failure.
func (s *Service) event(ctx context.Context, eventID string) (*eventRuntime, error) {
	s.mu.Lock()
	rt, ok := s.events[eventID]
	s.mu.Unlock()
	if ok {
		return rt, nil
	}

	drills, err := s.store.EventSchema(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrBadStatus) {
			return nil, fmt.Errorf("%w: %s", api.ErrUnknownEvent, eventID)
		}
		return nil, err
	}

	cache := roster.NewTreapCache()
	rt = &eventRuntime{
		drills: drills,
		cache:  cache,
		runner: session.NewRunner(eventID, drills, s.store, cache, s.sessions),
		pipeline: ingest.New(s.store, cache,
			ingest.WithWorkerCount(s.workerCount),
			ingest.WithMaxRows(s.maxUploadRows),
		),
	}
	rt.runner.Start(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.events[eventID]; ok {
		// Lost a first-touch race; keep the registered runtime.
		return existing, nil
	}
	s.events[eventID] = rt
	s.logger.Info(ctx, "event runtime created",
		logger.String("event_id", eventID),
		logger.Int("drills", len(drills)),
	)
	return rt, nil
}

// refreshCache reloads the roster cache from the store.
func (s *Service) refreshCache(ctx context.Context, eventID string, rt *eventRuntime) {
	players, err := s.store.Players(ctx, eventID)
	if err != nil {
		s.logger.Warn(ctx, "roster refresh failed",
			logger.String("event_id", eventID),
			logger.Error(err))
		return
	}
	rt.cache.Replace(ctx, players)
}

// Schema returns the drills configured for an event.
func (s *Service) Schema(ctx context.Context, eventID string) ([]model.DrillDefinition, error) {
	rt, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return rt.drills, nil
}

// Roster returns the roster in number order, refreshed from the store.
func (s *Service) Roster(ctx context.Context, eventID string) ([]model.Player, error) {
	rt, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	s.refreshCache(ctx, eventID, rt)
	return rt.cache.Players(ctx), nil
}

// SearchRoster fuzzily matches cached players by name.
func (s *Service) SearchRoster(ctx context.Context, eventID, query string, limit int) ([]model.Player, error) {
	rt, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return rt.cache.SearchName(ctx, query, limit), nil
}

// Progress reports per-drill completion for the event.
func (s *Service) Progress(ctx context.Context, eventID string) ([]progress.Snapshot, error) {
	rt, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return rt.runner.Progress(ctx), nil
}

// PreviewRoster dry-runs a sheet through mapping and validation.
func (s *Service) PreviewRoster(ctx context.Context, eventID string, req ingest.Request) (ingest.Preview, error) {
	rt, err := s.event(ctx, eventID)
	if err != nil {
		return ingest.Preview{}, err
	}
	return rt.pipeline.PreviewRequest(ctx, req, rt.drills)
}

// UploadRoster commits a sheet and refreshes the cache with the result.
func (s *Service) UploadRoster(ctx context.Context, eventID string, req ingest.Request) (ingest.Report, error) {
	rt, err := s.event(ctx, eventID)
	if err != nil {
		return ingest.Report{}, err
	}
	report, err := rt.pipeline.UploadRequest(ctx, eventID, req, rt.drills)
	if err != nil {
		return ingest.Report{}, err
	}
	s.refreshCache(ctx, eventID, rt)
	return report, nil
}

// SampleCSV renders a downloadable starter sheet for the event's drills.
func (s *Service) SampleCSV(ctx context.Context, eventID string) (string, error) {
	rt, err := s.event(ctx, eventID)
	if err != nil {
		return "", err
	}
	return sheet.ExportSample(rt.drills), nil
}

// Session returns the live-entry session runner for an event.
func (s *Service) Session(ctx context.Context, eventID string) (*session.Runner, error) {
	rt, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return rt.runner, nil
}
