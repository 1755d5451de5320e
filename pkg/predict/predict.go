// Package predict wires the model, candidate index, worker pool and result
// writer into one batch prediction run.
package predict

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/docpredict/pkg/candidates"
	"github.com/papercomputeco/docpredict/pkg/encoder"
	"github.com/papercomputeco/docpredict/pkg/model"
	"github.com/papercomputeco/docpredict/pkg/results"
	"github.com/papercomputeco/docpredict/pkg/runner"
	"github.com/papercomputeco/docpredict/pkg/textio"
	"github.com/papercomputeco/docpredict/pkg/topk"
)

// Run executes a full prediction run: load the model and candidates, score
// every input record on the worker pool, merge and write the output.
//
// Model and candidate failures wrap model.ErrLoad, input and output failures
// wrap textio.ErrIO and bad options wrap ErrInvalidOptions.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	start := time.Now()
	runID := uuid.New().String()
	log := opts.Logger.With("run_id", runID)

	log.Info("starting prediction run",
		"model", opts.ModelPath,
		"basedoc", opts.BaseDocPath,
		"input", opts.InputPath,
		"output", opts.OutputPath,
		"k", opts.K,
		"workers", opts.Workers,
	)

	var m *model.Model
	err := opts.Stage("Loading model", func() error {
		var err error
		m, err = model.Load(opts.ModelPath, model.WithArgs(opts.ModelArgs), model.WithLogger(log))
		return err
	})
	if err != nil {
		return nil, err
	}

	enc := encoder.New(m)

	var idx *candidates.Index
	err = opts.Stage("Loading base documents", func() error {
		var err error
		idx, err = candidates.LoadFile(opts.BaseDocPath, candidates.Options{
			Mode:      opts.Mode,
			Encoder:   enc,
			Separator: opts.Separator,
			Logger:    log,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	var input *textio.LineFile
	err = opts.Stage("Reading input", func() error {
		var err error
		input, err = textio.IndexLines(ctx, opts.InputPath)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Debug("indexed input", "records", input.Len())

	// The output is created before scoring so a bad path fails fast. A run
	// that does not finish removes it again.
	out, err := textio.Create(opts.OutputPath)
	if err != nil {
		return nil, err
	}
	closed, committed := false, false
	defer func() {
		if !closed {
			_ = out.Close()
		}
		if !committed {
			discardOutput(opts.OutputPath, log)
		}
	}()

	r, err := runner.New(&runner.Config{
		Encoder:    enc,
		Scorer:     topk.NewScorer(m.Args.Similarity),
		Index:      idx,
		K:          opts.K,
		NumWorkers: opts.Workers,
		Partition:  opts.Partition,
		Separator:  opts.Separator,
		Logger:     log,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	var accs []*results.Accumulator
	err = opts.Stage("Predicting", func() error {
		var err error
		accs, err = r.RunSource(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	merged := results.Merge(accs, opts.Merge)
	if merged.Overwritten > 0 {
		log.Debug("duplicate keys resolved", "overwritten", merged.Overwritten, "policy", opts.Merge)
	}

	err = opts.Stage("Writing predictions", func() error {
		if err := writeOutput(out, opts, merged); err != nil {
			return err
		}
		closed = true
		if err := out.Close(); err != nil {
			return &textio.IOError{Op: "close", Path: opts.OutputPath, Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	committed = true

	summary := &Summary{
		RunID:      runID,
		Processed:  merged.Processed,
		Skipped:    merged.Skipped,
		Keys:       len(merged.Keys),
		Candidates: idx.Len(),
		Features:   m.Store.Len(),
		Workers:    opts.Workers,
		Elapsed:    time.Since(start),
	}

	log.Info("prediction run complete",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"keys", summary.Keys,
		"elapsed", summary.Elapsed,
	)
	return summary, nil
}

// writeOutput writes merged in the configured format.
func writeOutput(out io.Writer, opts Options, merged *results.Merged) error {
	w, err := results.NewWriter(opts.Format)
	if err != nil {
		return err
	}
	if err := w.Write(out, merged); err != nil {
		return &textio.IOError{Op: "write", Path: opts.OutputPath, Err: err}
	}
	return nil
}

// discardOutput removes a partially written output.
func discardOutput(path string, log *slog.Logger) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("could not remove partial output", "output", path, "error", err)
		return
	}
	log.Debug("removed partial output", "output", path)
}
