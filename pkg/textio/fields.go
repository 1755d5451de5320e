package textio

import "strings"

const (
	// FieldSeparator separates the columns of a record.
	FieldSeparator = '\t'

	quoteChars = "\"'"
)

// SplitFields splits a record into tab-separated fields. A double or single
// quote toggles quoting: separators inside quotes are kept as part of the
// field and the quote characters themselves are dropped.
//
// An empty record yields a single empty field.
func SplitFields(line string) []string {
	fields := make([]string, 0, 4)

	var (
		b      strings.Builder
		quoted bool
	)
	for _, r := range line {
		switch {
		case strings.ContainsRune(quoteChars, r):
			quoted = !quoted
		case r == FieldSeparator && !quoted:
			fields = append(fields, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}

	return append(fields, b.String())
}
