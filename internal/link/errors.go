package link

import "errors"

// Domain-specific errors for link operations.
var (
	// ErrTimeout is returned when the link did not come up within the attempt budget.
	ErrTimeout = errors.New("link: timed out waiting for connection")

	// ErrJoinFailed is returned when the station join command fails.
	ErrJoinFailed = errors.New("link: join command failed")
)
