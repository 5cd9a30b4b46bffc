package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound       = errors.New("not found")
	ErrCanceled       = errors.New("announcement canceled")
	ErrUnsupported    = errors.New("speech output not supported")
	ErrInvalidProfile = errors.New("invalid profile")
)
