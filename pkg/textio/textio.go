// Package textio opens and creates the line-oriented text resources used by
// docpredict (models, base documents, query inputs and prediction outputs).
//
// Resources ending in .gz, .zst or .lz4 are transparently decompressed on read
// and compressed on write.
package textio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// maxLineSize bounds a single record. Base documents can be long, so the
// bufio default of 64KiB is too small.
const maxLineSize = 64 << 20

// Codec identifies the compression applied to a resource.
type Codec string

const (
	CodecNone Codec = ""
	CodecGzip Codec = "gzip"
	CodecZstd Codec = "zstd"
	CodecLZ4  Codec = "lz4"
)

// CodecFor returns the codec implied by the file extension of path.
func CodecFor(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return CodecGzip
	case ".zst", ".zstd":
		return CodecZstd
	case ".lz4":
		return CodecLZ4
	default:
		return CodecNone
	}
}

// Open opens path for reading, decompressing it according to its extension.
// Failures are returned as *IOError.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}

	rc, err := wrapReader(f, CodecFor(path))
	if err != nil {
		_ = f.Close()
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	return rc, nil
}

// Create creates (or truncates) path for writing, compressing according to its
// extension. Closing the returned writer flushes the compressor and closes the
// file. Failures are returned as *IOError.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &IOError{Op: "create", Path: path, Err: err}
	}

	wc, err := wrapWriter(f, CodecFor(path))
	if err != nil {
		_ = f.Close()
		return nil, &IOError{Op: "create", Path: path, Err: err}
	}
	return wc, nil
}

func wrapReader(f *os.File, codec Codec) (io.ReadCloser, error) {
	switch codec {
	case CodecGzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("reading gzip header: %w", err)
		}
		return &stackedReader{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case CodecZstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		rc := zr.IOReadCloser()
		return &stackedReader{Reader: rc, closers: []io.Closer{rc, f}}, nil
	case CodecLZ4:
		return &stackedReader{Reader: lz4.NewReader(f), closers: []io.Closer{f}}, nil
	default:
		return f, nil
	}
}

func wrapWriter(f *os.File, codec Codec) (io.WriteCloser, error) {
	switch codec {
	case CodecGzip:
		return &stackedWriter{Writer: gzip.NewWriter(f), file: f}, nil
	case CodecZstd:
		zw, err := zstd.NewWriter(f)
		if err != nil {
			return nil, fmt.Errorf("creating zstd encoder: %w", err)
		}
		return &stackedWriter{Writer: zw, file: f}, nil
	case CodecLZ4:
		return &stackedWriter{Writer: lz4.NewWriter(f), file: f}, nil
	default:
		return f, nil
	}
}

// stackedReader closes every layer of a decompression stack, innermost first.
type stackedReader struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReader) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// stackedWriter flushes the compressor before closing the file underneath it.
type stackedWriter struct {
	io.Writer
	file *os.File
}

func (s *stackedWriter) Close() error {
	var first error
	if c, ok := s.Writer.(io.Closer); ok {
		first = c.Close()
	}
	if err := s.file.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// ForEachLine calls fn for every line of r with its 1-based line number.
// Iteration stops at the first error returned by fn.
func ForEachLine(r io.Reader, fn func(lineNo int, line string) error) error {
	return scanLines(r, 0, func(lineNo int, _ int64, line string) error {
		return fn(lineNo, line)
	})
}

// scanLines calls fn for every line of r with its line number, counted on
// from firstLine, and the byte offset of its first byte within r.
func scanLines(r io.Reader, firstLine int, fn func(lineNo int, offset int64, line string) error) error {
	var pos, start int64
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(func(data []byte, atEOF bool) (int, []byte, error) {
		advance, token, err := bufio.ScanLines(data, atEOF)
		start = pos
		pos += int64(advance)
		return advance, token, err
	})

	lineNo := firstLine
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if err := fn(lineNo, start, line); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return &readError{line: lineNo + 1, err: err}
	}
	return nil
}

// readError is a failure of the underlying reader, as opposed to an error
// returned by a line callback.
type readError struct {
	line int
	err  error
}

func (e *readError) Error() string { return fmt.Sprintf("reading line %d: %v", e.line, e.err) }

func (e *readError) Unwrap() error { return e.err }
