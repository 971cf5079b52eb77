package roster

import "errors"

var (
	ErrEntryNotFound = errors.New("roster entry not found")
)
