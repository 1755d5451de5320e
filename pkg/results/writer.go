package results

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Format selects the output serialization.
type Format string

const (
	// FormatTSV writes key<TAB>label_1<TAB>...<TAB>label_k lines.
	FormatTSV Format = "tsv"

	// FormatParquet writes one {key, labels, scores} row per key.
	FormatParquet Format = "parquet"
)

// ParseFormat parses an output format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatTSV, "":
		return FormatTSV, nil
	case FormatParquet:
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected tsv or parquet)", s)
	}
}

// Writer serializes merged results.
type Writer interface {
	Write(w io.Writer, m *Merged) error
}

// NewWriter returns the Writer for format.
func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatTSV, "":
		return TSVWriter{}, nil
	case FormatParquet:
		return ParquetWriter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// TSVWriter writes one line per key in key order. A key without predictions
// is written alone; there is no padding up to K.
type TSVWriter struct{}

func (TSVWriter) Write(w io.Writer, m *Merged) error {
	bw := bufio.NewWriterSize(w, 256*1024)
	for _, key := range m.Keys {
		bw.WriteString(key)
		for _, label := range m.Records[key].Labels {
			bw.WriteByte('\t')
			bw.WriteString(label)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing predictions for %q: %w", key, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing predictions: %w", err)
	}
	return nil
}

// ParquetRow is the schema of a Parquet prediction row.
type ParquetRow struct {
	Key    string    `parquet:"key"`
	Labels []string  `parquet:"labels,list"`
	Scores []float32 `parquet:"scores,list"`
}

// ParquetWriter writes predictions as a Parquet file, keys in order.
type ParquetWriter struct{}

const parquetBatchSize = 4096

func (ParquetWriter) Write(w io.Writer, m *Merged) error {
	pw := parquet.NewGenericWriter[ParquetRow](w)

	batch := make([]ParquetRow, 0, parquetBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := pw.Write(batch); err != nil {
			return fmt.Errorf("writing parquet rows: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for _, key := range m.Keys {
		rec := m.Records[key]
		batch = append(batch, ParquetRow{Key: key, Labels: rec.Labels, Scores: rec.Scores})
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	if err := pw.Close(); err != nil {
		return fmt.Errorf("closing parquet writer: %w", err)
	}
	return nil
}
