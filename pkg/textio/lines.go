package textio

import (
	"context"
	"errors"
	"io"
	"os"
)

const (
	// checkpointEvery is the number of lines between recorded byte offsets.
	checkpointEvery = 4096

	// ctxCheckInterval is how many lines are read between context checks.
	ctxCheckInterval = 1024
)

var errStopRange = errors.New("stop range")

// LineFile is an indexed line resource that can be read again by line range.
// Workers read disjoint ranges through their own handles, so the resource is
// never held in memory.
//
// Uncompressed files keep a byte offset every few thousand lines and seek
// close to the start of a range. Compressed files are decompressed from the
// beginning and the leading lines are skipped.
type LineFile struct {
	path    string
	codec   Codec
	lines   int
	offsets []int64
}

// IndexLines reads path once to count its lines. Failures are returned as
// *IOError.
func IndexLines(ctx context.Context, path string) (*LineFile, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	f := &LineFile{path: path, codec: CodecFor(path)}
	err = scanLines(r, 0, func(lineNo int, offset int64, _ string) error {
		i := lineNo - 1
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if f.codec == CodecNone && i%checkpointEvery == 0 {
			f.offsets = append(f.offsets, offset)
		}
		f.lines = lineNo
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	return f, nil
}

// Path returns the path the file was indexed from.
func (f *LineFile) Path() string { return f.path }

// Len returns the number of lines.
func (f *LineFile) Len() int { return f.lines }

// Range calls fn for the lines [lo, hi) in order, passing each line's 0-based
// index. It opens its own handle, so concurrent calls are safe. Iteration
// stops at the first error returned by fn or when ctx is done.
func (f *LineFile) Range(ctx context.Context, lo, hi int, fn func(i int, line string) error) error {
	lo, hi = max(lo, 0), min(hi, f.lines)
	if lo >= hi {
		return nil
	}

	r, first, err := f.openAt(lo)
	if err != nil {
		return err
	}
	defer r.Close()

	err = scanLines(r, first, func(lineNo int, _ int64, line string) error {
		i := lineNo - 1
		if i < lo {
			return nil
		}
		if i >= hi {
			return errStopRange
		}
		if (i-lo)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		return fn(i, line)
	})

	switch {
	case err == nil, errors.Is(err, errStopRange):
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		var readErr *readError
		if errors.As(err, &readErr) {
			return &IOError{Op: "read", Path: f.path, Err: err}
		}
		return err
	}
}

// openAt opens the resource positioned at or before line lo and returns the
// number of lines that precede the position.
func (f *LineFile) openAt(lo int) (io.ReadCloser, int, error) {
	if f.codec != CodecNone || len(f.offsets) == 0 {
		r, err := Open(f.path)
		return r, 0, err
	}

	cp := min(lo/checkpointEvery, len(f.offsets)-1)
	file, err := os.Open(f.path)
	if err != nil {
		return nil, 0, &IOError{Op: "open", Path: f.path, Err: err}
	}
	if _, err := file.Seek(f.offsets[cp], io.SeekStart); err != nil {
		_ = file.Close()
		return nil, 0, &IOError{Op: "seek", Path: f.path, Err: err}
	}
	return file, cp * checkpointEvery, nil
}
