package session

import (
	"github.com/fieldday/combine/internal/adapters/persistence"
	"github.com/fieldday/combine/internal/domain/model"
)

// Msg is one input to the reducer: a user action, a lookup result, or the
// settled outcome of a network effect.
type Msg interface {
	isMsg()
}

// SelectDrill picks a drill, awaiting confirmation.
type SelectDrill struct {
	Key string
}

// ConfirmDrill confirms the pending selection and opens entry.
type ConfirmDrill struct{}

// CycleDrill moves the selection left or right relative to the current
// drill and re-enters entry immediately, skipping confirmation.
type CycleDrill struct {
	Delta int
}

// InputNumber carries the typed player number plus the roster lookup the
// runner performed against the cache: an exact match resolves the player,
// otherwise prefix candidates are shown.
type InputNumber struct {
	Value      string
	Resolved   *model.Player
	Candidates []model.Player
}

// InputScore carries the typed score text, unparsed.
type InputScore struct {
	Value string
}

// InputNote carries the typed note text.
type InputNote struct {
	Value string
}

// Submit asks to record the current score for the resolved player.
type Submit struct{}

// ResolveConflict settles a duplicate-score collision. Replace re-submits
// flagged as overridden; keep aborts with no side effect.
type ResolveConflict struct {
	Replace bool
}

// SubmitSettled reports the outcome of a submission effect.
type SubmitSettled struct {
	Seq      uint64
	ResultID string
	Err      string
}

// Undo asks to revert the most recent entry, pending confirmation.
type Undo struct{}

// ConfirmUndo confirms the pending undo and issues the remote delete.
type ConfirmUndo struct{}

// CancelUndo abandons the pending undo.
type CancelUndo struct{}

// UndoSettled reports the outcome of a delete effect. The local entry is
// only removed on success.
type UndoSettled struct {
	Seq uint64
	Err string
}

// ToggleLock flips the lock flag for a drill. Locked drills reject
// submissions outright.
type ToggleLock struct {
	Key string
}

// DismissReview hides the completion banner for a drill.
type DismissReview struct {
	Key string
}

// Hydrate restores persisted session state after a reload or restart.
type Hydrate struct {
	Snap persistence.Snapshot
}

// Reset discards all session state for a new active event.
type Reset struct {
	EventID string
	Drills  []model.DrillDefinition
}

func (SelectDrill) isMsg()     {}
func (ConfirmDrill) isMsg()    {}
func (CycleDrill) isMsg()      {}
func (InputNumber) isMsg()     {}
func (InputScore) isMsg()      {}
func (InputNote) isMsg()       {}
func (Submit) isMsg()          {}
func (ResolveConflict) isMsg() {}
func (SubmitSettled) isMsg()   {}
func (Undo) isMsg()            {}
func (ConfirmUndo) isMsg()     {}
func (CancelUndo) isMsg()      {}
func (UndoSettled) isMsg()     {}
func (ToggleLock) isMsg()      {}
func (DismissReview) isMsg()   {}
func (Hydrate) isMsg()         {}
func (Reset) isMsg()           {}
