package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: entity does not exist in store (soft-deleted rows count as absent
//     only where the query filters them)
//   - ErrAlreadyUsed: a unique constraint rejected the write (duplicate book entry number,
//     duplicate act index)
//   - ErrInvalidState: entity in wrong state for requested operation
//   - ErrUnavailable: store or lease backend temporarily unavailable
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
