package autopoiesis

import (
	"errors"
	"fmt"
)

// LoadErrorKind classifies why a unit could not be loaded.
type LoadErrorKind int

const (
	LoadNotFound        LoadErrorKind = iota // no store entry for the name
	LoadMissingContract                      // source has no usable Invoke
	LoadException                            // parse, eval, or init failure
)

func (k LoadErrorKind) String() string {
	switch k {
	case LoadNotFound:
		return "not_found"
	case LoadMissingContract:
		return "missing_contract"
	case LoadException:
		return "load_exception"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching against a *LoadError.
var (
	ErrUnitNotFound    = errors.New("unit not found")
	ErrMissingContract = errors.New("unit does not expose Invoke")
	ErrLoadException   = errors.New("unit failed to load")

	// ErrGoStatement rejects code that starts goroutines while restricted.
	ErrGoStatement = errors.New("go statements are not allowed in restricted mode")
)

// LoadError reports a failed load. It never replaces a registry entry.
type LoadError struct {
	Kind   LoadErrorKind
	Tool   string
	Detail string
	Err    error
}

func newLoadError(kind LoadErrorKind, tool string, err error, format string, args ...interface{}) *LoadError {
	return &LoadError{
		Kind:   kind,
		Tool:   tool,
		Detail: fmt.Sprintf(format, args...),
		Err:    err,
	}
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s: %s", e.Tool, e.Kind, e.Detail)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *LoadError) Is(target error) bool {
	switch e.Kind {
	case LoadNotFound:
		return target == ErrUnitNotFound
	case LoadMissingContract:
		return target == ErrMissingContract
	case LoadException:
		return target == ErrLoadException
	}
	return false
}
