// Package session implements the live drill-entry state machine. All
// behavior lives in a single reducer from (state, message) to (state,
// effects); the runner executes effects and feeds their outcomes back in
// as messages, so conflict, undo and lock interactions are testable
// without any transport.
package session

import (
	"github.com/fieldday/combine/internal/domain/model"
)

// Phase is the main entry-flow state. Lock state is orthogonal and lives
// in State.Locked.
type Phase int

const (
	// PhaseNoDrill is the initial state: nothing selected yet.
	PhaseNoDrill Phase = iota
	// PhaseDrillSelected holds a selection awaiting confirmation.
	PhaseDrillSelected
	// PhaseEntryActive accepts player/score input for the selected drill.
	PhaseEntryActive
	// PhaseSubmitting has one submission in flight.
	PhaseSubmitting
	// PhaseConflict awaits a keep-or-replace decision for a duplicate score.
	PhaseConflict
)

// recentEntriesCap bounds the undo log.
const recentEntriesCap = 10

// Conflict exposes both values of a duplicate-score collision so the
// operator can decide. Nothing is written until they do.
type Conflict struct {
	Player    model.Player
	Drill     model.DrillDefinition
	Existing  float64
	Candidate float64
	Note      string
}

// State is the full render state of one event's entry session. It is a
// value: the reducer copies it and clones any map it touches, so old
// states stay valid for comparison.
type State struct {
	EventID string
	Drills  []model.DrillDefinition

	Phase         Phase
	SelectedDrill string

	Locked          map[string]bool
	ReviewDismissed map[string]bool

	NumberInput string
	Resolved    *model.Player
	Candidates  []model.Player
	ScoreInput  string
	NoteInput   string

	Recent  []model.ScoreEntry
	Pending *model.ScoreEntry

	Conflict *Conflict

	UndoPending  bool
	UndoInFlight bool

	// Seq tags the most recently issued submission and UndoSeq the most
	// recently issued undo delete. Responses carrying an older tag are
	// discarded so a slow reply cannot overwrite newer optimistic state;
	// separate counters keep a submit from invalidating an in-flight undo.
	Seq     uint64
	UndoSeq uint64

	// Err is the last surfaced error, cleared by the next user action.
	Err string
}

// NewState returns the initial state for an event.
func NewState(eventID string, drills []model.DrillDefinition) State {
	return State{
		EventID:         eventID,
		Drills:          drills,
		Locked:          map[string]bool{},
		ReviewDismissed: map[string]bool{},
	}
}

// Drill returns the definition for the selected drill key.
func (s State) Drill() (model.DrillDefinition, bool) {
	for _, d := range s.Drills {
		if d.Key == s.SelectedDrill {
			return d, true
		}
	}
	return model.DrillDefinition{}, false
}

// DrillLocked reports whether the selected drill is frozen from entry.
func (s State) DrillLocked() bool {
	return s.Locked[s.SelectedDrill]
}

func cloneFlags(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
