// Package output writes paired records to their published forms.
package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/roach88/shelterpair/internal/canonical"
	"github.com/roach88/shelterpair/internal/record"
)

// Formats accepted by Open.
const (
	FormatCSV    = "csv"
	FormatNDJSON = "ndjson"
)

// ValidFormats lists the accepted output formats.
var ValidFormats = []string{FormatCSV, FormatNDJSON}

// Sink is a destination for one run's paired records.
type Sink interface {
	Write(ctx context.Context, records []record.PairedRecord) error
	Close() error
}

// New returns a sink of the given format writing to w.
func New(w io.Writer, format string) (Sink, error) {
	switch format {
	case FormatCSV, "":
		return NewCSVSink(w), nil
	case FormatNDJSON:
		return NewJSONSink(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q: must be one of %v", format, ValidFormats)
	}
}

// Digest returns the canonical digest of records. Equal record slices give
// equal digests.
func Digest(records []record.PairedRecord) (string, error) {
	rows := make([]map[string]any, len(records))
	for i, r := range records {
		rows[i] = r.Map()
	}
	return canonical.DigestValue(canonical.DomainRecords, rows)
}

// FileSink writes to a temporary file next to the target and renames it
// into place on Close, so a failed run never leaves a partial file behind.
// Path "-" writes straight to stdout.
type FileSink struct {
	Sink
	path string
	tmp  *os.File
	done bool
}

// Open creates a file sink for path.
func Open(path, format string) (*FileSink, error) {
	if path == "-" {
		s, err := New(os.Stdout, format)
		if err != nil {
			return nil, err
		}
		return &FileSink{Sink: s, path: path}, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	s, err := New(tmp, format)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}
	return &FileSink{Sink: s, path: path, tmp: tmp}, nil
}

// Path returns the final destination.
func (f *FileSink) Path() string { return f.path }

// Commit flushes the sink and moves the file into place.
func (f *FileSink) Commit() error {
	if err := f.Sink.Close(); err != nil {
		f.Abort()
		return fmt.Errorf("commit output: %w", err)
	}
	if f.tmp == nil {
		f.done = true
		return nil
	}
	if err := f.tmp.Close(); err != nil {
		os.Remove(f.tmp.Name())
		return fmt.Errorf("commit output: %w", err)
	}
	if err := os.Rename(f.tmp.Name(), f.path); err != nil {
		os.Remove(f.tmp.Name())
		return fmt.Errorf("commit output: %w", err)
	}
	f.done = true
	return nil
}

// Abort discards anything written. Safe to call after Commit.
func (f *FileSink) Abort() {
	if f.done || f.tmp == nil {
		return
	}
	f.done = true
	f.tmp.Close()
	os.Remove(f.tmp.Name())
}
