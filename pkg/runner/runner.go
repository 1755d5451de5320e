// Package runner drives input records through the encoder and scorer on a
// fixed pool of workers. Every worker owns its accumulator; the model and the
// candidate index are shared read-only, so the hot path takes no locks.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/docpredict/pkg/candidates"
	"github.com/papercomputeco/docpredict/pkg/encoder"
	"github.com/papercomputeco/docpredict/pkg/logger"
	"github.com/papercomputeco/docpredict/pkg/results"
	"github.com/papercomputeco/docpredict/pkg/textio"
	"github.com/papercomputeco/docpredict/pkg/topk"
)

const (
	defaultNumWorkers uint = 1

	// minFields is the external key plus the feature text.
	minFields = 2

	// cancelCheckInterval is how many records a worker handles between
	// context checks.
	cancelCheckInterval = 256

	// queueSize is the per-worker buffer of dealt records under
	// PartitionRoundRobin.
	queueSize = 64
)

// Config is the configuration of a Runner.
type Config struct {
	// Encoder turns feature text into query vectors.
	Encoder *encoder.Encoder

	// Scorer ranks candidates for a query vector.
	Scorer *topk.Scorer

	// Index is the candidate index shared by all workers.
	Index *candidates.Index

	// K is the number of predictions per record. Must be >= 0.
	K int

	// NumWorkers is the size of the worker pool (defaults to 1).
	NumWorkers uint

	// Partition assigns records to workers (defaults to PartitionChunk).
	Partition Partition

	// Separator splits feature text into tokens (defaults to a space).
	Separator string

	// Logger defaults to logger.Nop().
	Logger *slog.Logger
}

// Runner scores batches of records.
type Runner struct {
	config *Config
	logger *slog.Logger
}

// New validates c, applies defaults and returns a Runner.
func New(c *Config) (*Runner, error) {
	if c.Encoder == nil || c.Scorer == nil || c.Index == nil {
		return nil, errors.New("runner needs an encoder, a scorer and a candidate index")
	}
	if c.K < 0 {
		return nil, fmt.Errorf("k must be >= 0, got %d", c.K)
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.NumWorkers > uint(math.MaxInt32) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int32", c.NumWorkers)
	}
	if c.Partition == "" {
		c.Partition = PartitionChunk
	}
	if _, err := ParsePartition(string(c.Partition)); err != nil {
		return nil, err
	}
	if c.Separator == "" {
		c.Separator = encoder.DefaultSeparator
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	return &Runner{config: c, logger: c.Logger}, nil
}

// Source is a re-readable sequence of input records of known length.
// Range may be called concurrently for disjoint ranges.
type Source interface {
	Len() int
	Range(ctx context.Context, lo, hi int, fn func(i int, record string) error) error
}

// Lines is an in-memory Source.
type Lines []string

func (l Lines) Len() int { return len(l) }

func (l Lines) Range(ctx context.Context, lo, hi int, fn func(i int, record string) error) error {
	for i := max(lo, 0); i < min(hi, len(l)); i++ {
		if (i-lo)%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := fn(i, l[i]); err != nil {
			return err
		}
	}
	return nil
}

// Run processes in-memory records. See RunSource.
func (r *Runner) Run(ctx context.Context, records []string) ([]*results.Accumulator, error) {
	return r.RunSource(ctx, Lines(records))
}

// RunSource processes src on the worker pool and returns one accumulator per
// worker, indexed by worker slot. Malformed records are skipped and counted.
// RunSource returns early only when ctx is cancelled or src fails.
//
// With PartitionChunk every worker reads its own range of src. With
// PartitionRoundRobin a single reader deals records out to the workers.
func (r *Runner) RunSource(ctx context.Context, src Source) ([]*results.Accumulator, error) {
	workers := int(r.config.NumWorkers)
	n := src.Len()
	accs := make([]*results.Accumulator, workers)
	for w := range workers {
		accs[w] = results.NewAccumulator(w)
	}

	g, gctx := errgroup.WithContext(ctx)

	if r.config.Partition == PartitionRoundRobin {
		queues := make([]chan record, workers)
		for w := range queues {
			queues[w] = make(chan record, queueSize)
		}

		g.Go(func() error {
			defer func() {
				for _, q := range queues {
					close(q)
				}
			}()
			return src.Range(gctx, 0, n, func(i int, line string) error {
				select {
				case queues[i%workers] <- record{index: i, line: line}:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		})

		for w := range workers {
			g.Go(func() error {
				return r.worker(w, accs[w], func(fn func(i int, line string) error) error {
					for rec := range queues[w] {
						if err := fn(rec.index, rec.line); err != nil {
							return err
						}
					}
					return nil
				})
			})
		}
	} else {
		for w := range workers {
			lo, hi := ChunkBounds(w, workers, n)
			g.Go(func() error {
				return r.worker(w, accs[w], func(fn func(i int, line string) error) error {
					return src.Range(gctx, lo, hi, fn)
				})
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return accs, nil
}

// record is one input line dealt out to a round-robin worker.
type record struct {
	index int
	line  string
}

// worker processes the records that each yields into acc.
func (r *Runner) worker(id int, acc *results.Accumulator, each func(fn func(i int, line string) error) error) error {
	log := r.logger.With("worker_id", id)
	log.Debug("worker started")

	err := each(func(i int, line string) error {
		key, text, err := parseRecord(i+1, line)
		if err != nil {
			log.Warn("skipping malformed record", "error", err)
			acc.Skip()
			return nil
		}

		acc.Put(key, r.predict(text))
		return nil
	})
	if err != nil {
		return err
	}

	log.Debug("worker stopped",
		"processed", acc.Processed,
		"skipped", acc.Skipped,
	)
	return nil
}

// predict encodes text, selects the top K candidates and resolves labels.
func (r *Runner) predict(text string) results.Record {
	query := r.config.Encoder.Encode(text, r.config.Separator)
	preds := r.config.Scorer.TopK(query, r.config.Index, r.config.K)

	rec := results.Record{
		Labels: make([]string, len(preds)),
		Scores: make([]float32, len(preds)),
	}
	for i, p := range preds {
		rec.Labels[i] = r.config.Index.Label(p.Index)
		rec.Scores[i] = p.Score
	}
	return rec
}

// parseRecord splits a query record into its external key and feature text.
// Columns after the feature text are ignored.
func parseRecord(lineNo int, line string) (key, text string, err error) {
	fields := textio.SplitFields(line)
	if len(fields) < minFields {
		return "", "", &RecordParseError{Line: lineNo, Fields: len(fields)}
	}
	if strings.ContainsRune(fields[0], '\t') {
		return "", "", &RecordParseError{Line: lineNo, Fields: len(fields), Key: fields[0]}
	}
	return fields[0], fields[1], nil
}
