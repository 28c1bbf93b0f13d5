package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Matching cycle errors
	ErrStoreUnavailable = fmt.Errorf("preference store unavailable")
	ErrMalformedListing = fmt.Errorf("malformed listing snapshot")
	ErrDispatchFailure  = fmt.Errorf("notification dispatch failed")
	ErrInvalidContact   = fmt.Errorf("invalid recipient contact")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Engine lifecycle errors
	ErrQueueFull     = fmt.Errorf("event queue full")
	ErrEngineStopped = fmt.Errorf("engine stopped")

	// Persistence errors
	ErrNotFound = fmt.Errorf("record not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
