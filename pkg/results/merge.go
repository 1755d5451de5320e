package results

import (
	"fmt"
	"slices"
	"strings"
)

// MergePolicy decides which worker's Record survives when the same external
// key was produced by more than one worker.
type MergePolicy string

const (
	// MergeLast lets a later worker (by ascending worker index) overwrite an
	// earlier one. This is the default.
	MergeLast MergePolicy = "last"

	// MergeFirst keeps the Record of the first worker holding the key.
	MergeFirst MergePolicy = "first"
)

// ParseMergePolicy parses a merge policy name.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch MergePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case MergeLast, "":
		return MergeLast, nil
	case MergeFirst:
		return MergeFirst, nil
	default:
		return "", fmt.Errorf("unknown merge policy %q (expected last or first)", s)
	}
}

// Merged is the combined output of all workers.
type Merged struct {
	// Keys holds every distinct key in ascending byte order.
	Keys    []string
	Records map[string]Record

	Processed int
	Skipped   int

	// Overwritten counts keys that appeared in more than one accumulator.
	Overwritten int
}

// Merge combines accumulators in ascending worker index order according to
// policy. Accumulators may be passed in any order; nil entries are ignored.
func Merge(accs []*Accumulator, policy MergePolicy) *Merged {
	ordered := make([]*Accumulator, 0, len(accs))
	for _, acc := range accs {
		if acc != nil {
			ordered = append(ordered, acc)
		}
	}
	slices.SortStableFunc(ordered, func(a, b *Accumulator) int {
		return a.Worker - b.Worker
	})

	m := &Merged{Records: make(map[string]Record)}
	for _, acc := range ordered {
		m.Processed += acc.Processed
		m.Skipped += acc.Skipped

		for key, rec := range acc.Results {
			if _, seen := m.Records[key]; seen {
				m.Overwritten++
				if policy == MergeFirst {
					continue
				}
			}
			m.Records[key] = rec
		}
	}

	m.Keys = make([]string, 0, len(m.Records))
	for key := range m.Records {
		m.Keys = append(m.Keys, key)
	}
	slices.Sort(m.Keys)

	return m
}
