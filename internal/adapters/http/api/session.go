package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fieldday/combine/internal/domain/model"
	"github.com/fieldday/combine/internal/session"
)

// SessionHandler drives the live-entry state machine over HTTP. Each POST
// is one message; the response is always the full render state.
type SessionHandler struct {
	deps Dependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps Dependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// sessionMsgRequest is the union body for all session messages; each
// message reads only the fields it needs.
type sessionMsgRequest struct {
	Key     string `json:"key,omitempty"`
	Value   string `json:"value,omitempty"`
	Delta   int    `json:"delta,omitempty"`
	Replace bool   `json:"replace,omitempty"`
}

// renderState is the wire shape of the session state.
type renderState struct {
	EventID         string                  `json:"event_id"`
	Phase           string                  `json:"phase"`
	Drills          []model.DrillDefinition `json:"drills"`
	SelectedDrill   string                  `json:"selected_drill,omitempty"`
	Locked          map[string]bool         `json:"locked,omitempty"`
	ReviewDismissed map[string]bool         `json:"review_dismissed,omitempty"`
	NumberInput     string                  `json:"number_input,omitempty"`
	Resolved        *model.Player           `json:"resolved_player,omitempty"`
	Candidates      []model.Player          `json:"candidates,omitempty"`
	ScoreInput      string                  `json:"score_input,omitempty"`
	NoteInput       string                  `json:"note_input,omitempty"`
	Recent          []model.ScoreEntry      `json:"recent_entries"`
	Conflict        *renderConflict         `json:"conflict,omitempty"`
	UndoPending     bool                    `json:"undo_pending"`
	Error           string                  `json:"error,omitempty"`
}

type renderConflict struct {
	Player    model.Player          `json:"player"`
	Drill     model.DrillDefinition `json:"drill"`
	Existing  float64               `json:"existing"`
	Candidate float64               `json:"candidate"`
}

func phaseName(p session.Phase) string {
	switch p {
	case session.PhaseDrillSelected:
		return "drill_selected"
	case session.PhaseEntryActive:
		return "entry_active"
	case session.PhaseSubmitting:
		return "submitting"
	case session.PhaseConflict:
		return "conflict"
	default:
		return "no_drill"
	}
}

func render(s session.State) renderState {
	out := renderState{
		EventID:         s.EventID,
		Phase:           phaseName(s.Phase),
		Drills:          s.Drills,
		SelectedDrill:   s.SelectedDrill,
		Locked:          s.Locked,
		ReviewDismissed: s.ReviewDismissed,
		NumberInput:     s.NumberInput,
		Resolved:        s.Resolved,
		Candidates:      s.Candidates,
		ScoreInput:      s.ScoreInput,
		NoteInput:       s.NoteInput,
		Recent:          s.Recent,
		UndoPending:     s.UndoPending,
		Error:           s.Err,
	}
	if s.Conflict != nil {
		out.Conflict = &renderConflict{
			Player:    s.Conflict.Player,
			Drill:     s.Conflict.Drill,
			Existing:  s.Conflict.Existing,
			Candidate: s.Conflict.Candidate,
		}
	}
	if out.Recent == nil {
		out.Recent = []model.ScoreEntry{}
	}
	return out
}

// HandleState handles GET /api/events/{eventID}/session requests.
func (h *SessionHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	runner, err := h.deps.Session(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		writeDepError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, render(runner.State()))
}

// HandleMsg handles POST /api/events/{eventID}/session/{msg} requests.
func (h *SessionHandler) HandleMsg(w http.ResponseWriter, r *http.Request) {
	runner, err := h.deps.Session(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		writeDepError(w, err)
		return
	}

	var req sessionMsgRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
	}

	state, ok := applyMsg(r.Context(), runner, chi.URLParam(r, "msg"), req)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_msg", ErrUnknownMsg)
		return
	}
	writeJSON(w, http.StatusOK, render(state))
}

func applyMsg(ctx context.Context, runner *session.Runner, msg string, req sessionMsgRequest) (session.State, bool) {
	switch msg {
	case "select-drill":
		return runner.SelectDrill(ctx, req.Key), true
	case "confirm":
		return runner.ConfirmDrill(ctx), true
	case "cycle":
		return runner.CycleDrill(ctx, req.Delta), true
	case "number":
		return runner.EnterNumber(ctx, req.Value), true
	case "score":
		return runner.EnterScore(ctx, req.Value), true
	case "note":
		return runner.EnterNote(ctx, req.Value), true
	case "submit":
		return runner.Submit(ctx), true
	case "resolve":
		return runner.ResolveConflict(ctx, req.Replace), true
	case "undo":
		return runner.Undo(ctx), true
	case "confirm-undo":
		return runner.ConfirmUndo(ctx), true
	case "cancel-undo":
		return runner.CancelUndo(ctx), true
	case "lock":
		return runner.ToggleLock(ctx, req.Key), true
	case "dismiss-review":
		return runner.DismissReview(ctx, req.Key), true
	default:
		return session.State{}, false
	}
}
