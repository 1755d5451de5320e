// Package candidates holds the candidate index: the fixed set of base
// documents every query is scored against.
package candidates

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/papercomputeco/docpredict/pkg/encoder"
	"github.com/papercomputeco/docpredict/pkg/logger"
	"github.com/papercomputeco/docpredict/pkg/model"
	"github.com/papercomputeco/docpredict/pkg/textio"
)

// Mode fixes how base documents are identified for the whole run.
type Mode string

const (
	// ModeLabeled reads "label<TAB>feature_text" records; the label is the
	// external id written to the output.
	ModeLabeled Mode = "labeled"

	// ModePlain reads "feature_text" records; candidates are identified by
	// their zero-based load position.
	ModePlain Mode = "plain"
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLabeled, "":
		return ModeLabeled, nil
	case ModePlain:
		return ModePlain, nil
	default:
		return "", fmt.Errorf("unknown candidate mode %q (expected labeled or plain)", s)
	}
}

var (
	errMissingText = errors.New("labeled base document needs label and feature text columns")
	errTabInLabel  = errors.New("base document label contains a tab")
)

// Candidate is one base document.
type Candidate struct {
	Index  int
	Label  string
	Vector []float32
}

// Index is the ordered candidate index. It is append-only while loading and
// read-only afterwards, so workers share it without locking.
type Index struct {
	mode   Mode
	dim    int
	labels []string
	data   []float32
	norms  []float32
	empty  int
}

// Options configures Load.
type Options struct {
	Mode      Mode
	Encoder   *encoder.Encoder
	Separator string
	Logger    *slog.Logger
}

// LoadFile loads base documents from path.
func LoadFile(path string, opts Options) (*Index, error) {
	r, err := textio.Open(path)
	if err != nil {
		return nil, &model.LoadError{Source: path, Err: err}
	}
	defer r.Close()

	return Load(r, path, opts)
}

// Load reads base documents from r, encoding each one with opts.Encoder.
// Blank records are skipped. source names the resource in errors.
func Load(r io.Reader, source string, opts Options) (*Index, error) {
	if opts.Encoder == nil {
		return nil, &model.LoadError{Source: source, Err: errors.New("no encoder configured")}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return nil, &model.LoadError{Source: source, Err: err}
	}

	idx := &Index{mode: mode, dim: opts.Encoder.Dim()}
	err = textio.ForEachLine(r, func(lineNo int, line string) error {
		if strings.TrimSpace(line) == "" {
			return nil
		}

		label, text := "", line
		if mode == ModeLabeled {
			fields := textio.SplitFields(line)
			if len(fields) < 2 {
				return &model.LoadError{Source: source, Line: lineNo, Err: errMissingText}
			}
			label, text = fields[0], fields[1]
			if strings.ContainsRune(label, '\t') {
				return &model.LoadError{Source: source, Line: lineNo, Err: errTabInLabel}
			}
		}

		return idx.add(label, opts.Encoder.Encode(text, opts.Separator))
	})
	if err != nil {
		var loadErr *model.LoadError
		if errors.As(err, &loadErr) {
			return nil, err
		}
		return nil, &model.LoadError{Source: source, Err: err}
	}

	if idx.empty > 0 {
		opts.Logger.Warn("base documents without known features",
			"source", source,
			"count", idx.empty,
		)
	}
	opts.Logger.Debug("loaded base documents",
		"source", source,
		"mode", string(mode),
		"candidates", idx.Len(),
	)

	return idx, nil
}

func (idx *Index) add(label string, vec []float32) error {
	if len(vec) != idx.dim {
		return &model.DimensionError{Token: label, Expected: idx.dim, Actual: len(vec)}
	}

	if idx.mode == ModePlain {
		label = strconv.Itoa(len(idx.labels))
	}

	var sq float64
	for _, v := range vec {
		sq += float64(v) * float64(v)
	}
	if sq == 0 {
		idx.empty++
	}

	idx.labels = append(idx.labels, label)
	idx.data = append(idx.data, vec...)
	idx.norms = append(idx.norms, float32(math.Sqrt(sq)))
	return nil
}

// Mode returns the mode the index was loaded in.
func (idx *Index) Mode() Mode { return idx.mode }

// Len returns the number of candidates.
func (idx *Index) Len() int { return len(idx.labels) }

// Dim returns the candidate vector dimension.
func (idx *Index) Dim() int { return idx.dim }

// Empty returns how many candidates resolved no known features.
func (idx *Index) Empty() int { return idx.empty }

// Vector returns the embedding of candidate i. The slice aliases the index
// and must not be modified.
func (idx *Index) Vector(i int) []float32 {
	return idx.data[i*idx.dim : (i+1)*idx.dim : (i+1)*idx.dim]
}

// Norm returns the L2 norm of candidate i.
func (idx *Index) Norm(i int) float32 { return idx.norms[i] }

// Label returns the external id of candidate i.
func (idx *Index) Label(i int) string { return idx.labels[i] }

// Candidate returns candidate i.
func (idx *Index) Candidate(i int) Candidate {
	return Candidate{Index: i, Label: idx.labels[i], Vector: idx.Vector(i)}
}
