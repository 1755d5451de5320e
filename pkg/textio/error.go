package textio

import (
	"errors"
	"fmt"
)

// ErrIO is the sentinel matched by every *IOError.
var ErrIO = errors.New("i/o failure")

// IOError reports that a resource could not be opened or created.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is reports whether target is ErrIO.
func (e *IOError) Is(target error) bool { return target == ErrIO }
