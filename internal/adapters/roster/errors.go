package roster

import "errors"

// Sentinel kinds for roster cache errors.
var (
	ErrNotFound = errors.New("player not found")
)
