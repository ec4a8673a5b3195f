package dispatch

import "errors"

var (
	// ErrValidation indicates a malformed request: empty tool name, missing
	// required field, or input rejected by the tool's schema.
	ErrValidation = errors.New("validation error")

	// ErrInvocation indicates the tool's Execute returned an error or panicked.
	ErrInvocation = errors.New("invocation error")
)
