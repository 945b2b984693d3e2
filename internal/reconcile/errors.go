package reconcile

import "errors"

var (
	// ErrStoreUnavailable is returned by operations that require the remote
	// store when it was not reachable at startup.
	ErrStoreUnavailable = errors.New("remote store unavailable")
	ErrNotFound         = errors.New("not found")
	ErrInvalidStatus    = errors.New("invalid status")
	// ErrInvalidTransition is returned when an entity is not in a state the
	// requested change can start from.
	ErrInvalidTransition = errors.New("invalid status transition")
)
