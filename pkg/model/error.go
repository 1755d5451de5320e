package model

import (
	"errors"
	"fmt"
)

// ErrLoad is the sentinel matched by every *LoadError.
var ErrLoad = errors.New("load failed")

// LoadError reports a model or base document source that is missing,
// unreadable or malformed. Line is 0 when the failure is not tied to a line.
type LoadError struct {
	Source string
	Line   int
	Err    error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("loading %s: line %d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("loading %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is reports whether target is ErrLoad.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }
