// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldday/combine/internal/domain/model"
	"github.com/fieldday/combine/internal/domain/progress"
	"github.com/fieldday/combine/internal/ingest"
	"github.com/fieldday/combine/internal/session"
	"github.com/fieldday/combine/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the application service.
type Dependencies interface {
	// Schema returns the drills configured for an event.
	Schema(ctx context.Context, eventID string) ([]model.DrillDefinition, error)

	// Roster returns the cached roster in number order.
	Roster(ctx context.Context, eventID string) ([]model.Player, error)

	// SearchRoster fuzzily matches players by name.
	SearchRoster(ctx context.Context, eventID, query string, limit int) ([]model.Player, error)

	// Progress reports per-drill completion for the event.
	Progress(ctx context.Context, eventID string) ([]progress.Snapshot, error)

	// PreviewRoster dry-runs a sheet through mapping and validation.
	PreviewRoster(ctx context.Context, eventID string, req ingest.Request) (ingest.Preview, error)

	// UploadRoster commits a sheet to the external store.
	UploadRoster(ctx context.Context, eventID string, req ingest.Request) (ingest.Report, error)

	// SampleCSV renders a downloadable sample sheet for the event's drills.
	SampleCSV(ctx context.Context, eventID string) (string, error)

	// Session returns the live-entry session runner for an event.
	Session(ctx context.Context, eventID string) (*session.Runner, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	rosterHandler  *RosterHandler
	sessionHandler *SessionHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		rosterHandler:  NewRosterHandler(deps),
		sessionHandler: NewSessionHandler(deps),
	}
}

// Router builds the chi router with all routes registered.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	r.Route("/api/events/{eventID}", func(r chi.Router) {
		r.Get("/schema", MetricsMiddleware(s.rosterHandler.HandleSchema, "schema"))
		r.Get("/roster", MetricsMiddleware(s.rosterHandler.HandleRoster, "roster"))
		r.Get("/progress", MetricsMiddleware(s.rosterHandler.HandleProgress, "progress"))
		r.Post("/roster/preview", MetricsMiddleware(s.rosterHandler.HandlePreview, "roster_preview"))
		r.Post("/roster/upload", MetricsMiddleware(s.rosterHandler.HandleUpload, "roster_upload"))
		r.Get("/roster/sample.csv", MetricsMiddleware(s.rosterHandler.HandleSample, "roster_sample"))
		r.Get("/session", MetricsMiddleware(s.sessionHandler.HandleState, "session_state"))
		r.Post("/session/{msg}", MetricsMiddleware(s.sessionHandler.HandleMsg, "session_msg"))
	})

	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
