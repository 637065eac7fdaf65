package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fieldday/combine/internal/ingest"
)

// maxUploadBody bounds request bodies for preview and upload.
const maxUploadBody = 8 << 20 // 8 MiB

// defaultSearchLimit bounds roster name search results.
const defaultSearchLimit = 10

// RosterHandler handles schema, roster and ingestion requests.
type RosterHandler struct {
	deps Dependencies
}

// NewRosterHandler creates a new roster handler.
func NewRosterHandler(deps Dependencies) *RosterHandler {
	return &RosterHandler{deps: deps}
}

// HandleSchema handles GET /api/events/{eventID}/schema requests.
func (h *RosterHandler) HandleSchema(w http.ResponseWriter, r *http.Request) {
	drills, err := h.deps.Schema(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		writeDepError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"drills": drills})
}

// HandleRoster handles GET /api/events/{eventID}/roster requests. An
// optional ?q= parameter switches to fuzzy name search.
func (h *RosterHandler) HandleRoster(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	if q := r.URL.Query().Get("q"); q != "" {
		limit := defaultSearchLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}
		players, err := h.deps.SearchRoster(r.Context(), eventID, q, limit)
		if err != nil {
			writeDepError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"players": players})
		return
	}

	players, err := h.deps.Roster(r.Context(), eventID)
	if err != nil {
		writeDepError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": players})
}

// HandleProgress handles GET /api/events/{eventID}/progress requests.
func (h *RosterHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.deps.Progress(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		writeDepError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"drills": snaps})
}

// HandlePreview handles POST /api/events/{eventID}/roster/preview requests.
func (h *RosterHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeIngestRequest(w, r)
	if !ok {
		return
	}
	preview, err := h.deps.PreviewRoster(r.Context(), chi.URLParam(r, "eventID"), req)
	if err != nil {
		writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// HandleUpload handles POST /api/events/{eventID}/roster/upload requests.
func (h *RosterHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeIngestRequest(w, r)
	if !ok {
		return
	}
	report, err := h.deps.UploadRoster(r.Context(), chi.URLParam(r, "eventID"), req)
	if err != nil {
		writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleSample handles GET /api/events/{eventID}/roster/sample.csv requests.
func (h *RosterHandler) HandleSample(w http.ResponseWriter, r *http.Request) {
	csv, err := h.deps.SampleCSV(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		writeDepError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="sample-roster.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(csv))
}

// decodeIngestRequest reads a preview/upload payload. Spreadsheet files
// arrive as multipart form data under "file"; JSON bodies carry inline CSV
// text plus mapping overrides.
func decodeIngestRequest(w http.ResponseWriter, r *http.Request) (ingest.Request, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)

	ct := r.Header.Get("Content-Type")
	if len(ct) >= 19 && ct[:19] == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBody); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return ingest.Request{}, false
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return ingest.Request{}, false
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return ingest.Request{}, false
		}

		req := ingest.Request{Workbook: data}
		if raw := r.FormValue("mapping"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Overrides); err != nil {
				writeError(w, http.StatusBadRequest, "bad_request", err)
				return ingest.Request{}, false
			}
		}
		return req, true
	}

	var req ingest.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return ingest.Request{}, false
	}
	return req, true
}

func writeIngestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownEvent):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ingest.ErrEmptySheet),
		errors.Is(err, ingest.ErrTooManyRows),
		errors.Is(err, ingest.ErrMappingIncomplete):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusBadGateway, "store_error", err)
	}
}

func writeDepError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrUnknownEvent) {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	writeError(w, http.StatusBadGateway, "store_error", err)
}
