package predict

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/docpredict/pkg/candidates"
	"github.com/papercomputeco/docpredict/pkg/logger"
	"github.com/papercomputeco/docpredict/pkg/model"
	"github.com/papercomputeco/docpredict/pkg/results"
	"github.com/papercomputeco/docpredict/pkg/runner"
)

// ErrInvalidOptions is returned by Run when Options fail validation.
var ErrInvalidOptions = errors.New("invalid options")

// StageFunc runs one named phase of a prediction run. The CLI uses it to wrap
// phases in a spinner.
type StageFunc func(name string, fn func() error) error

// Options configures a prediction run.
type Options struct {
	ModelPath   string
	BaseDocPath string
	InputPath   string
	OutputPath  string

	// K is the number of predictions per record.
	K int

	// Workers is the worker pool size. Zero means one worker.
	Workers uint

	// Separator splits feature text into tokens.
	Separator string

	Mode      candidates.Mode
	Partition runner.Partition
	Merge     results.MergePolicy
	Format    results.Format

	// ModelArgs carries the similarity and text handling settings. Dropout is
	// always disabled at load.
	ModelArgs model.Args

	Logger *slog.Logger

	// Stage wraps each phase. Nil runs phases directly.
	Stage StageFunc
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOptions, fmt.Sprintf(format, args...))
}

// normalize validates o and fills in defaults.
func (o *Options) normalize() error {
	for _, p := range []struct{ name, value string }{
		{"model", o.ModelPath},
		{"basedoc", o.BaseDocPath},
		{"input", o.InputPath},
		{"output", o.OutputPath},
	} {
		if p.value == "" {
			return invalid("%s path is required", p.name)
		}
	}

	if o.K < 0 {
		return invalid("k must be >= 0, got %d", o.K)
	}
	if o.Workers == 0 {
		o.Workers = 1
	}

	var err error
	if o.Mode, err = candidates.ParseMode(string(o.Mode)); err != nil {
		return invalid("%v", err)
	}
	if o.Partition, err = runner.ParsePartition(string(o.Partition)); err != nil {
		return invalid("%v", err)
	}
	if o.Merge, err = results.ParseMergePolicy(string(o.Merge)); err != nil {
		return invalid("%v", err)
	}
	if o.Format, err = results.ParseFormat(string(o.Format)); err != nil {
		return invalid("%v", err)
	}
	if o.ModelArgs.Similarity, err = model.ParseSimilarity(string(o.ModelArgs.Similarity)); err != nil {
		return invalid("%v", err)
	}

	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	if o.Stage == nil {
		o.Stage = func(_ string, fn func() error) error { return fn() }
	}
	return nil
}
