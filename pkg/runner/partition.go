package runner

import (
	"fmt"
	"strings"
)

// Partition decides which worker slot processes which input record.
type Partition string

const (
	// PartitionChunk gives worker w the contiguous records
	// [w*n/W, (w+1)*n/W). Combined with last-writer-wins merging, a repeated
	// key always resolves to its last occurrence in the input, whatever W is.
	PartitionChunk Partition = "chunk"

	// PartitionRoundRobin gives record i to worker i mod W.
	PartitionRoundRobin Partition = "round-robin"
)

// ParsePartition parses a partition strategy name.
func ParsePartition(s string) (Partition, error) {
	switch Partition(strings.ToLower(strings.TrimSpace(s))) {
	case PartitionChunk, "":
		return PartitionChunk, nil
	case PartitionRoundRobin, "roundrobin", "rr":
		return PartitionRoundRobin, nil
	default:
		return "", fmt.Errorf("unknown partition %q (expected chunk or round-robin)", s)
	}
}

// ChunkBounds returns the half-open record range [lo, hi) that worker w of
// workers owns under PartitionChunk.
func ChunkBounds(w, workers, n int) (lo, hi int) {
	return w * n / workers, (w + 1) * n / workers
}
