package session

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fieldday/combine/internal/adapters/persistence"
	"github.com/fieldday/combine/internal/adapters/roster"
	"github.com/fieldday/combine/internal/domain/inflight"
	"github.com/fieldday/combine/internal/domain/model"
	"github.com/fieldday/combine/internal/domain/progress"
	"github.com/fieldday/combine/pkg/logger"
	"github.com/fieldday/combine/pkg/metrics"
)

// maxCandidates bounds the prefix suggestion list.
const maxCandidates = 8

// StoreClient is the slice of the external store the session mutates
// through.
type StoreClient interface {
	Players(ctx context.Context, eventID string) ([]model.Player, error)
	PostDrillResult(ctx context.Context, eventID, playerID, drillKey string, value float64) (string, error)
	DeleteDrillResult(ctx context.Context, id, eventID, playerID string) error
}

// Runner owns one event's session: it serializes messages through the
// reducer and executes the effects the reducer returns. All exported
// methods are safe for concurrent use; the reducer itself only ever sees
// one message at a time.
type Runner struct {
	mu      sync.Mutex
	machine *Machine
	state   State

	store    StoreClient
	cache    roster.Cache
	sessions persistence.SessionStore
	guard    inflight.Guard
	tracker  *progress.Tracker
	log      logger.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithMachine overrides the reducer, for deterministic tests.
func WithMachine(m *Machine) RunnerOption {
	return func(r *Runner) {
		r.machine = m
	}
}

// WithGuard overrides the in-flight submission guard.
func WithGuard(g inflight.Guard) RunnerOption {
	return func(r *Runner) {
		r.guard = g
	}
}

// WithTracker overrides the progress tracker.
func WithTracker(t *progress.Tracker) RunnerOption {
	return func(r *Runner) {
		r.tracker = t
	}
}

// WithRunnerLogger sets the runner logger.
func WithRunnerLogger(log logger.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = log
	}
}

// NewRunner creates a session runner for one event.
func NewRunner(eventID string, drills []model.DrillDefinition, store StoreClient, cache roster.Cache, sessions persistence.SessionStore, opts ...RunnerOption) *Runner {
	r := &Runner{
		machine:  NewMachine(),
		state:    NewState(eventID, drills),
		store:    store,
		cache:    cache,
		sessions: sessions,
		guard:    inflight.NewInMemoryGuard(),
		tracker:  progress.New(),
		log:      logger.Named("session"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start restores persisted state and warms the roster cache. Restore is
// best-effort: a missing or unreadable snapshot just means a fresh session.
func (r *Runner) Start(ctx context.Context) {
	if snap, ok := r.sessions.Load(ctx, r.eventID()); ok {
		r.dispatch(ctx, Hydrate{Snap: snap})
	}
	r.refreshRoster(ctx)
}

// SwitchEvent resets the session for a new active event, then restores
// whatever was persisted for that event. Nothing leaks across the switch.
func (r *Runner) SwitchEvent(ctx context.Context, eventID string, drills []model.DrillDefinition) {
	r.dispatch(ctx, Reset{EventID: eventID, Drills: drills})
	if snap, ok := r.sessions.Load(ctx, eventID); ok {
		r.dispatch(ctx, Hydrate{Snap: snap})
	}
}

// State returns a copy of the current render state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Progress reports per-drill completion against the cached roster.
func (r *Runner) Progress(ctx context.Context) []progress.Snapshot {
	players := r.cache.Players(ctx)
	s := r.State()

	out := make([]progress.Snapshot, 0, len(s.Drills))
	for _, d := range s.Drills {
		snap := r.tracker.ForDrill(d.Key, players)
		if s.ReviewDismissed[d.Key] {
			snap.Complete = false
			snap.SuggestNext = false
		}
		out = append(out, snap)
	}
	return out
}

// SelectDrill picks a drill, pending confirmation.
func (r *Runner) SelectDrill(ctx context.Context, key string) State {
	return r.dispatch(ctx, SelectDrill{Key: key})
}

// ConfirmDrill confirms the pending selection.
func (r *Runner) ConfirmDrill(ctx context.Context) State {
	return r.dispatch(ctx, ConfirmDrill{})
}

// CycleDrill moves the selection by delta and re-enters entry.
func (r *Runner) CycleDrill(ctx context.Context, delta int) State {
	return r.dispatch(ctx, CycleDrill{Delta: delta})
}

// EnterNumber records the typed player number, resolving it against the
// roster cache: an exact match resolves the player, otherwise digit-prefix
// candidates are offered.
func (r *Runner) EnterNumber(ctx context.Context, value string) State {
	return r.dispatch(ctx, r.lookupNumber(ctx, value))
}

// EnterScore records the typed score text.
func (r *Runner) EnterScore(ctx context.Context, value string) State {
	return r.dispatch(ctx, InputScore{Value: value})
}

// EnterNote records the typed note text.
func (r *Runner) EnterNote(ctx context.Context, value string) State {
	return r.dispatch(ctx, InputNote{Value: value})
}

// Submit attempts to record the current score.
func (r *Runner) Submit(ctx context.Context) State {
	return r.dispatch(ctx, Submit{})
}

// ResolveConflict settles a duplicate-score collision.
func (r *Runner) ResolveConflict(ctx context.Context, replace bool) State {
	return r.dispatch(ctx, ResolveConflict{Replace: replace})
}

// Undo asks to revert the most recent entry.
func (r *Runner) Undo(ctx context.Context) State {
	return r.dispatch(ctx, Undo{})
}

// ConfirmUndo confirms the pending undo.
func (r *Runner) ConfirmUndo(ctx context.Context) State {
	return r.dispatch(ctx, ConfirmUndo{})
}

// CancelUndo abandons the pending undo.
func (r *Runner) CancelUndo(ctx context.Context) State {
	return r.dispatch(ctx, CancelUndo{})
}

// ToggleLock flips a drill's lock flag.
func (r *Runner) ToggleLock(ctx context.Context, key string) State {
	return r.dispatch(ctx, ToggleLock{Key: key})
}

// DismissReview hides a drill's completion banner.
func (r *Runner) DismissReview(ctx context.Context, key string) State {
	return r.dispatch(ctx, DismissReview{Key: key})
}

// dispatch runs one message through the reducer under the lock, then
// executes the returned effects outside it. Effect outcomes re-enter as
// messages through the same path.
func (r *Runner) dispatch(ctx context.Context, msg Msg) State {
	r.mu.Lock()
	next, effects := r.machine.Dispatch(r.state, msg)
	r.state = next
	r.mu.Unlock()

	for _, e := range effects {
		r.runEffect(ctx, e)
	}
	return r.State()
}

func (r *Runner) runEffect(ctx context.Context, e Effect) {
	switch e := e.(type) {
	case SubmitScore:
		r.submitScore(ctx, e)
	case DeleteResult:
		r.deleteResult(ctx, e)
	case RefreshRoster:
		r.refreshRoster(ctx)
	case Persist:
		r.persist(ctx)
	}
}

func (r *Runner) submitScore(ctx context.Context, e SubmitScore) {
	if !r.guard.Begin(ctx, e.PlayerID, e.DrillKey) {
		r.dispatch(ctx, SubmitSettled{Seq: e.Seq, Err: "a submission for this player and drill is already pending"})
		return
	}
	defer r.guard.Finish(ctx, e.PlayerID, e.DrillKey)

	start := time.Now()
	id, err := r.store.PostDrillResult(ctx, r.eventID(), e.PlayerID, e.DrillKey, e.Value)
	metrics.RecordSubmitLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		r.log.Warn(ctx, "score submission failed",
			logger.String("player_id", e.PlayerID),
			logger.String("drill", e.DrillKey),
			logger.Error(err))
		r.dispatch(ctx, SubmitSettled{Seq: e.Seq, Err: err.Error()})
		return
	}
	r.dispatch(ctx, SubmitSettled{Seq: e.Seq, ResultID: id})
}

func (r *Runner) deleteResult(ctx context.Context, e DeleteResult) {
	err := r.store.DeleteDrillResult(ctx, e.ResultID, r.eventID(), e.PlayerID)
	if err != nil {
		r.log.Warn(ctx, "undo delete failed",
			logger.String("result_id", e.ResultID),
			logger.Error(err))
		r.dispatch(ctx, UndoSettled{Seq: e.Seq, Err: err.Error()})
		return
	}
	r.dispatch(ctx, UndoSettled{Seq: e.Seq})
}

// refreshRoster reloads the cache wholesale, then re-runs the current
// number lookup so a resolved player's scores reflect the fresh values.
func (r *Runner) refreshRoster(ctx context.Context) {
	players, err := r.store.Players(ctx, r.eventID())
	if err != nil {
		r.log.Warn(ctx, "roster refresh failed", logger.Error(err))
		return
	}
	r.cache.Replace(ctx, players)

	s := r.State()
	if s.Phase == PhaseEntryActive && s.NumberInput != "" {
		r.dispatch(ctx, r.lookupNumber(ctx, s.NumberInput))
	}
}

func (r *Runner) persist(ctx context.Context) {
	r.mu.Lock()
	snap := persistence.Snapshot{
		SelectedDrill:    r.state.SelectedDrill,
		RecentEntries:    r.state.Recent,
		Locks:            r.state.Locked,
		ReviewDismissed:  r.state.ReviewDismissed,
		LastPlayerNumber: r.state.NumberInput,
	}
	eventID := r.state.EventID
	r.mu.Unlock()

	r.sessions.Save(ctx, eventID, snap)
}

func (r *Runner) lookupNumber(ctx context.Context, value string) InputNumber {
	msg := InputNumber{Value: value}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return msg
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		// Not a number; fall back to name search.
		msg.Candidates = r.cache.SearchName(ctx, trimmed, maxCandidates)
		return msg
	}
	if p, ok := r.cache.ByNumber(ctx, n); ok {
		msg.Resolved = &p
		return msg
	}
	msg.Candidates = r.cache.PrefixCandidates(ctx, trimmed, maxCandidates)
	return msg
}

func (r *Runner) eventID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.EventID
}
