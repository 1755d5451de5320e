package runner

import (
	"errors"
	"fmt"
)

// ErrRecordParse is the sentinel matched by every *RecordParseError.
var ErrRecordParse = errors.New("malformed record")

// RecordParseError reports an input record that cannot be predicted: too few
// columns, or a key that would break the tab-separated output. It is never
// fatal: the record is skipped and counted.
type RecordParseError struct {
	Line   int
	Fields int
	// Key is set when the key itself is unusable.
	Key string
}

func (e *RecordParseError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("line %d: key %q contains a tab", e.Line, e.Key)
	}
	return fmt.Sprintf("line %d: expected at least %d columns, got %d", e.Line, minFields, e.Fields)
}

// Is reports whether target is ErrRecordParse.
func (e *RecordParseError) Is(target error) bool { return target == ErrRecordParse }
