package session

// Effect is an instruction the reducer hands to the runner: a network
// call or a storage write. The reducer never performs I/O itself.
type Effect interface {
	isEffect()
}

// SubmitScore posts one drill result to the external store. The runner
// reports back with SubmitSettled carrying the same Seq.
type SubmitScore struct {
	Seq      uint64
	PlayerID string
	DrillKey string
	Value    float64
}

// DeleteResult deletes one drill result from the external store. The
// runner reports back with UndoSettled carrying the same Seq.
type DeleteResult struct {
	Seq      uint64
	ResultID string
	PlayerID string
	DrillKey string
}

// RefreshRoster reloads the roster cache from the external store so the
// next duplicate check reflects the latest values.
type RefreshRoster struct{}

// Persist writes the current session snapshot to durable storage.
type Persist struct{}

func (SubmitScore) isEffect()   {}
func (DeleteResult) isEffect()  {}
func (RefreshRoster) isEffect() {}
func (Persist) isEffect()       {}
