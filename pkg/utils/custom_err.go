package utils

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrTripNotFound         = errors.New("trip not found")
	ErrUnexpectedAIBehavior = errors.New("unexpected AI behavior")
	ErrCacheWrite           = errors.New("cache write failed")
)
