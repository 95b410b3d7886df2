package identity

import "errors"

var (
	// ErrNoHardwareAddress is returned when no usable 6-byte hardware address is found.
	// An all-zero address counts as unusable.
	ErrNoHardwareAddress = errors.New("identity: no hardware address")

	// ErrInvalidID is returned when a configured id is not 12 lowercase hex characters.
	ErrInvalidID = errors.New("identity: invalid device id")
)
