// Package results holds per-worker prediction accumulators and merges them
// into the single, deterministically ordered output of a run.
package results

// Record is the ranked prediction for one occurrence of an external key.
// Scores is parallel to Labels.
type Record struct {
	Labels []string
	Scores []float32
}

// Accumulator is the private key -> Record mapping of one worker. It is
// written by its owning worker only and read by Merge after every worker has
// finished, so it needs no locking.
type Accumulator struct {
	Worker    int
	Results   map[string]Record
	Processed int
	Skipped   int
}

// NewAccumulator creates an empty accumulator for the given worker slot.
func NewAccumulator(worker int) *Accumulator {
	return &Accumulator{
		Worker:  worker,
		Results: make(map[string]Record),
	}
}

// Put records the prediction for key. A later Put for the same key replaces
// the earlier one.
func (a *Accumulator) Put(key string, rec Record) {
	a.Results[key] = rec
	a.Processed++
}

// Skip counts a record that could not be parsed.
func (a *Accumulator) Skip() {
	a.Skipped++
}
