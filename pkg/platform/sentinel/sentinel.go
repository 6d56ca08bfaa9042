package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors:
//
//   - ErrNotFound: row does not exist in the store
//   - ErrConflict: a write kept losing races until the retry budget ran out
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
