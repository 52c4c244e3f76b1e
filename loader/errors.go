package loader

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors matched by LoadError via errors.Is.
var (
	ErrTimeout            = errors.New("loader: script load timed out")
	ErrScriptFailed       = errors.New("loader: script failed to load")
	ErrConstructorMissing = errors.New("loader: constructor not found")
)

// Kind classifies a LoadError.
type Kind int

const (
	KindTimeout Kind = iota + 1
	KindScript
	KindConstructorMissing
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindScript:
		return "script"
	case KindConstructorMissing:
		return "constructor-missing"
	}
	return "unknown"
}

// LoadError is returned by injectors and by Loader.Load.
type LoadError struct {
	Kind    Kind
	URL     string
	Timeout time.Duration
	// Err is the underlying cause, if any (e.g. the fetch error).
	Err error
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("Script load timeout after %dms: %s", e.Timeout.Milliseconds(), e.URL)
	case KindScript:
		return fmt.Sprintf("Failed to load script: %s", e.URL)
	case KindConstructorMissing:
		return "Kakao Postcode constructor not found after script load"
	}
	return "loader: unknown error"
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is matches the Kind's sentinel.
func (e *LoadError) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrScriptFailed:
		return e.Kind == KindScript
	case ErrConstructorMissing:
		return e.Kind == KindConstructorMissing
	}
	return false
}

// IsTimeout checks if err is an attempt timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsScriptFailure checks if err is a script load failure.
func IsScriptFailure(err error) bool {
	return errors.Is(err, ErrScriptFailed)
}

// IsConstructorMissing checks if err means the script loaded but published
// no constructor.
func IsConstructorMissing(err error) bool {
	return errors.Is(err, ErrConstructorMissing)
}
