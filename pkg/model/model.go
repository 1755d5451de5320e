// Package model loads the trained embedding model used for prediction: the
// vector store mapping every feature to its embedding, plus the model args
// that fix how queries are encoded and scored.
package model

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/papercomputeco/docpredict/pkg/logger"
	"github.com/papercomputeco/docpredict/pkg/textio"
)

// Model is a loaded embedding model. It is immutable and shared read-only by
// every prediction worker.
type Model struct {
	Args   Args
	Store  *Store
	Source string
}

// Option configures Load and LoadTSV.
type Option func(*loadConfig)

type loadConfig struct {
	args   Args
	logger *slog.Logger
}

// WithArgs sets the model args. Defaults to DefaultArgs().
func WithArgs(args Args) Option {
	return func(c *loadConfig) {
		c.args = args
	}
}

// WithLogger sets the logger used while loading. Defaults to logger.Nop().
func WithLogger(l *slog.Logger) Option {
	return func(c *loadConfig) {
		c.logger = l
	}
}

// Load reads a TSV embedding model from path. Compressed models are
// decompressed according to their extension.
func Load(path string, opts ...Option) (*Model, error) {
	r, err := textio.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer r.Close()

	return LoadTSV(r, path, opts...)
}

// LoadTSV parses a model with one embedding per line: the token name followed
// by its values, separated by tabs or spaces. source names the model in
// errors.
func LoadTSV(r io.Reader, source string, opts ...Option) (*Model, error) {
	cfg := &loadConfig{args: DefaultArgs(), logger: logger.Nop()}
	for _, opt := range opts {
		opt(cfg)
	}

	store := newStore()
	err := textio.ForEachLine(r, func(lineNo int, line string) error {
		fields := strings.FieldsFunc(line, isModelSeparator)
		if len(fields) == 0 {
			return nil
		}

		vec := make([]float32, len(fields)-1)
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return &LoadError{Source: source, Line: lineNo, Err: fmt.Errorf("token %q: %w", fields[0], err)}
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &LoadError{Source: source, Line: lineNo, Err: fmt.Errorf("token %q: non-finite value %q", fields[0], f)}
			}
			vec[i] = float32(v)
		}

		if err := store.add(fields[0], vec); err != nil {
			return &LoadError{Source: source, Line: lineNo, Err: err}
		}
		return nil
	})
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return nil, err
		}
		return nil, &LoadError{Source: source, Err: err}
	}

	if store.Len() == 0 {
		return nil, &LoadError{Source: source, Err: errEmptyModel}
	}

	args := cfg.args
	if args.Similarity == "" {
		args.Similarity = SimilarityCosine
	}
	if args.DropoutLHS != 0 || args.DropoutRHS != 0 {
		cfg.logger.Debug("dropout disabled for prediction",
			"dropout_lhs", args.DropoutLHS,
			"dropout_rhs", args.DropoutRHS,
		)
	}
	args.DropoutLHS = 0
	args.DropoutRHS = 0

	cfg.logger.Debug("loaded model",
		"source", source,
		"features", store.Len(),
		"dim", store.Dim(),
		"similarity", string(args.Similarity),
	)

	return &Model{Args: args, Store: store, Source: source}, nil
}

func isModelSeparator(r rune) bool {
	return r == '\t' || r == ' '
}
