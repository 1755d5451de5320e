package predict

import (
	"fmt"
	"time"
)

// Summary contains statistics from a prediction run.
type Summary struct {
	RunID      string
	Processed  int
	Skipped    int
	Keys       int
	Candidates int
	Features   int
	Workers    uint
	Elapsed    time.Duration
}

// String returns a human-readable summary of the run.
func (s *Summary) String() string {
	return fmt.Sprintf(
		"Prediction complete: %d processed, %d skipped (malformed)\n"+
			"Wrote %d keys scored against %d candidates (%d model features, %d workers)",
		s.Processed, s.Skipped,
		s.Keys, s.Candidates, s.Features, s.Workers,
	)
}
