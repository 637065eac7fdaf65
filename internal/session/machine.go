package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/fieldday/combine/internal/domain/model"
	"github.com/fieldday/combine/internal/domain/rowcheck"
	"github.com/fieldday/combine/pkg/metrics"
)

// Surfaced error messages, stable so the UI can rely on them.
const (
	errNoDrill      = "no drill selected"
	errDrillLocked  = "drill is locked"
	errNoPlayer     = "no player resolved"
	errInvalidScore = "score is not a complete number"
)

// Machine is the reducer. Identifier and timestamp generation are injected
// so tests stay deterministic; everything else is a pure function of
// (state, message).
type Machine struct {
	now   func() time.Time
	newID func() string
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithClock overrides timestamp generation, for tests.
func WithClock(now func() time.Time) MachineOption {
	return func(m *Machine) {
		m.now = now
	}
}

// WithIDGenerator overrides entry id generation, for tests.
func WithIDGenerator(newID func() string) MachineOption {
	return func(m *Machine) {
		m.newID = newID
	}
}

// NewMachine creates a Machine with configuration options.
func NewMachine(opts ...MachineOption) *Machine {
	m := &Machine{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dispatch applies one message and returns the next state plus the effects
// the runner must execute. The input state is never mutated.
func (m *Machine) Dispatch(s State, msg Msg) (State, []Effect) {
	switch msg := msg.(type) {
	case SelectDrill:
		return m.selectDrill(s, msg)
	case ConfirmDrill:
		return m.confirmDrill(s)
	case CycleDrill:
		return m.cycleDrill(s, msg)
	case InputNumber:
		return m.inputNumber(s, msg)
	case InputScore:
		return m.inputScore(s, msg)
	case InputNote:
		return m.inputNote(s, msg)
	case Submit:
		return m.submit(s)
	case ResolveConflict:
		return m.resolveConflict(s, msg)
	case SubmitSettled:
		return m.submitSettled(s, msg)
	case Undo:
		return m.undo(s)
	case ConfirmUndo:
		return m.confirmUndo(s)
	case CancelUndo:
		return m.cancelUndo(s)
	case UndoSettled:
		return m.undoSettled(s, msg)
	case ToggleLock:
		return m.toggleLock(s, msg)
	case DismissReview:
		return m.dismissReview(s, msg)
	case Hydrate:
		return m.hydrate(s, msg)
	case Reset:
		return NewState(msg.EventID, msg.Drills), []Effect{RefreshRoster{}}
	default:
		return s, nil
	}
}

func (m *Machine) selectDrill(s State, msg SelectDrill) (State, []Effect) {
	if _, ok := drillByKey(s.Drills, msg.Key); !ok {
		return s, nil
	}
	s.SelectedDrill = msg.Key
	s.Phase = PhaseDrillSelected
	s.ScoreInput = ""
	s.NoteInput = ""
	s.Conflict = nil
	s.Err = ""
	return s, []Effect{Persist{}}
}

func (m *Machine) confirmDrill(s State) (State, []Effect) {
	if s.Phase != PhaseDrillSelected {
		return s, nil
	}
	s.Phase = PhaseEntryActive
	return s, nil
}

// cycleDrill is the left/right shortcut: it re-enters entry for the new
// drill immediately, skipping the confirmation step by convention.
func (m *Machine) cycleDrill(s State, msg CycleDrill) (State, []Effect) {
	if len(s.Drills) == 0 || s.Phase == PhaseSubmitting || s.Phase == PhaseConflict {
		return s, nil
	}

	idx := 0
	if cur, ok := drillIndex(s.Drills, s.SelectedDrill); ok {
		n := len(s.Drills)
		idx = ((cur+msg.Delta)%n + n) % n
	} else if msg.Delta < 0 {
		idx = len(s.Drills) - 1
	}

	s.SelectedDrill = s.Drills[idx].Key
	s.Phase = PhaseEntryActive
	s.ScoreInput = ""
	s.NoteInput = ""
	s.Err = ""
	return s, []Effect{Persist{}}
}

func (m *Machine) inputNumber(s State, msg InputNumber) (State, []Effect) {
	if s.Phase != PhaseEntryActive {
		return s, nil
	}
	s.NumberInput = msg.Value
	s.Resolved = msg.Resolved
	if msg.Resolved != nil {
		s.Candidates = nil
	} else {
		s.Candidates = msg.Candidates
	}
	s.Err = ""
	return s, []Effect{Persist{}}
}

func (m *Machine) inputScore(s State, msg InputScore) (State, []Effect) {
	if s.Phase != PhaseEntryActive {
		return s, nil
	}
	s.ScoreInput = msg.Value
	s.Err = ""
	return s, nil
}

func (m *Machine) inputNote(s State, msg InputNote) (State, []Effect) {
	if s.Phase != PhaseEntryActive {
		return s, nil
	}
	s.NoteInput = msg.Value
	s.Err = ""
	return s, nil
}

func (m *Machine) submit(s State) (State, []Effect) {
	if s.Phase != PhaseEntryActive {
		return s, nil
	}
	if s.SelectedDrill == "" {
		s.Err = errNoDrill
		return s, nil
	}
	if s.DrillLocked() {
		metrics.RecordLockRejection()
		s.Err = errDrillLocked
		return s, nil
	}
	if s.Resolved == nil {
		s.Err = errNoPlayer
		return s, nil
	}
	value, ok := rowcheck.StrictFloat(s.ScoreInput)
	if !ok {
		s.Err = errInvalidScore
		return s, nil
	}

	drill, _ := s.Drill()
	if existing, has := s.Resolved.Score(s.SelectedDrill); has {
		s.Phase = PhaseConflict
		s.Conflict = &Conflict{
			Player:    *s.Resolved,
			Drill:     drill,
			Existing:  existing,
			Candidate: value,
			Note:      s.NoteInput,
		}
		s.Err = ""
		return s, nil
	}

	return m.issueSubmit(s, *s.Resolved, drill, value, s.NoteInput, false)
}

func (m *Machine) resolveConflict(s State, msg ResolveConflict) (State, []Effect) {
	if s.Phase != PhaseConflict || s.Conflict == nil {
		return s, nil
	}

	if !msg.Replace {
		metrics.RecordConflict("keep")
		s.Phase = PhaseEntryActive
		s.Conflict = nil
		return s, nil
	}

	c := *s.Conflict
	// The drill may have been locked while the conflict sat on screen.
	if s.Locked[c.Drill.Key] {
		metrics.RecordLockRejection()
		s.Phase = PhaseEntryActive
		s.Conflict = nil
		s.Err = errDrillLocked
		return s, nil
	}

	metrics.RecordConflict("replace")
	s.Conflict = nil
	return m.issueSubmit(s, c.Player, c.Drill, c.Candidate, c.Note, true)
}

// issueSubmit tags the submission with the next sequence number and builds
// the optimistic entry that joins the log once the store acknowledges.
func (m *Machine) issueSubmit(s State, player model.Player, drill model.DrillDefinition, value float64, note string, overridden bool) (State, []Effect) {
	s.Seq++
	s.Phase = PhaseSubmitting
	s.Err = ""
	s.Pending = &model.ScoreEntry{
		ID:           m.newID(),
		PlayerID:     player.ID,
		PlayerNumber: player.Number,
		PlayerName:   player.Name,
		Drill:        drill,
		Value:        value,
		Note:         note,
		Timestamp:    m.now(),
		Overridden:   overridden,
	}
	return s, []Effect{SubmitScore{
		Seq:      s.Seq,
		PlayerID: player.ID,
		DrillKey: drill.Key,
		Value:    value,
	}}
}

func (m *Machine) submitSettled(s State, msg SubmitSettled) (State, []Effect) {
	if s.Phase != PhaseSubmitting || msg.Seq != s.Seq {
		metrics.RecordStaleResponse()
		return s, nil
	}

	if msg.Err != "" {
		metrics.RecordSubmission("failure")
		s.Phase = PhaseEntryActive
		s.Pending = nil
		s.Err = msg.Err
		return s, nil
	}

	metrics.RecordSubmission("success")
	entry := *s.Pending
	entry.DrillResultID = msg.ResultID

	recent := make([]model.ScoreEntry, 0, recentEntriesCap)
	recent = append(recent, entry)
	for i := 0; i < len(s.Recent) && len(recent) < recentEntriesCap; i++ {
		recent = append(recent, s.Recent[i])
	}

	s.Recent = recent
	s.Pending = nil
	s.Phase = PhaseEntryActive
	s.NumberInput = ""
	s.Resolved = nil
	s.Candidates = nil
	s.ScoreInput = ""
	s.NoteInput = ""
	return s, []Effect{RefreshRoster{}, Persist{}}
}

func (m *Machine) undo(s State) (State, []Effect) {
	if len(s.Recent) == 0 || s.UndoInFlight {
		return s, nil
	}
	s.UndoPending = true
	return s, nil
}

func (m *Machine) cancelUndo(s State) (State, []Effect) {
	s.UndoPending = false
	return s, nil
}

func (m *Machine) confirmUndo(s State) (State, []Effect) {
	if !s.UndoPending || len(s.Recent) == 0 || s.UndoInFlight || s.Phase == PhaseSubmitting {
		return s, nil
	}
	target := s.Recent[0]
	s.UndoSeq++
	s.UndoPending = false
	s.UndoInFlight = true
	s.Err = ""
	return s, []Effect{DeleteResult{
		Seq:      s.UndoSeq,
		ResultID: target.DrillResultID,
		PlayerID: target.PlayerID,
		DrillKey: target.Drill.Key,
	}}
}

func (m *Machine) undoSettled(s State, msg UndoSettled) (State, []Effect) {
	if !s.UndoInFlight || msg.Seq != s.UndoSeq {
		metrics.RecordStaleResponse()
		return s, nil
	}

	s.UndoInFlight = false
	if msg.Err != "" {
		// The remote record still exists, so the local entry stays too.
		metrics.RecordUndo("failure")
		s.Err = msg.Err
		return s, nil
	}

	metrics.RecordUndo("success")
	s.Recent = append([]model.ScoreEntry{}, s.Recent[1:]...)
	return s, []Effect{RefreshRoster{}, Persist{}}
}

func (m *Machine) toggleLock(s State, msg ToggleLock) (State, []Effect) {
	if _, ok := drillByKey(s.Drills, msg.Key); !ok {
		return s, nil
	}
	locked := cloneFlags(s.Locked)
	locked[msg.Key] = !locked[msg.Key]
	s.Locked = locked
	return s, []Effect{Persist{}}
}

func (m *Machine) dismissReview(s State, msg DismissReview) (State, []Effect) {
	dismissed := cloneFlags(s.ReviewDismissed)
	dismissed[msg.Key] = true
	s.ReviewDismissed = dismissed
	return s, []Effect{Persist{}}
}

func (m *Machine) hydrate(s State, msg Hydrate) (State, []Effect) {
	s = NewState(s.EventID, s.Drills)
	if _, ok := drillByKey(s.Drills, msg.Snap.SelectedDrill); ok {
		s.SelectedDrill = msg.Snap.SelectedDrill
		s.Phase = PhaseEntryActive
	}
	if len(msg.Snap.RecentEntries) > recentEntriesCap {
		s.Recent = append([]model.ScoreEntry{}, msg.Snap.RecentEntries[:recentEntriesCap]...)
	} else {
		s.Recent = append([]model.ScoreEntry{}, msg.Snap.RecentEntries...)
	}
	if msg.Snap.Locks != nil {
		s.Locked = cloneFlags(msg.Snap.Locks)
	}
	if msg.Snap.ReviewDismissed != nil {
		s.ReviewDismissed = cloneFlags(msg.Snap.ReviewDismissed)
	}
	s.NumberInput = msg.Snap.LastPlayerNumber
	return s, nil
}

func drillByKey(drills []model.DrillDefinition, key string) (model.DrillDefinition, bool) {
	for _, d := range drills {
		if d.Key == key {
			return d, true
		}
	}
	return model.DrillDefinition{}, false
}

func drillIndex(drills []model.DrillDefinition, key string) (int, bool) {
	for i, d := range drills {
		if d.Key == key {
			return i, true
		}
	}
	return 0, false
}
