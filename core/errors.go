package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine's failure taxonomy. Adapter failures are
// wrapped in AdapterError instead and propagate verbatim.
var (
	ErrNotFound           = errors.New("not found")
	ErrUnknownQuery       = errors.New("unknown query")
	ErrUnknownMutation    = errors.New("unknown mutation")
	ErrMissingInitializer = errors.New("no initializer registered")
)

// AdapterError wraps a failure returned by a source adapter, carrying which
// source and operation failed. Multi-source writes are not transactional, so
// after a mid-sequence failure the caller reconciles using these fields.
type AdapterError struct {
	Source string
	Op     string
	Err    error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("source %q: %s failed: %v", e.Source, e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}
