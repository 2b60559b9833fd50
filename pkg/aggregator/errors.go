package aggregator

import "errors"

// Common errors returned by the aggregator package.
var (
	// ErrFinalized is returned when the state is mutated after Finalize.
	ErrFinalized = errors.New("aggregator already finalized")

	// ErrContextLoaded is returned when the initial context is loaded twice.
	ErrContextLoaded = errors.New("initial context already loaded")
)
