package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/roach88/shelterpair/internal/record"
)

// CSVSink writes the published header followed by one row per record.
// Null cells are written empty.
type CSVSink struct {
	w      *csv.Writer
	header bool
}

// NewCSVSink returns a CSV sink on w.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w)}
}

// Write appends records. The header is written once, before the first row.
func (s *CSVSink) Write(ctx context.Context, records []record.PairedRecord) error {
	if !s.header {
		if err := s.w.Write(record.OutputColumns); err != nil {
			return fmt.Errorf("csv output: header: %w", err)
		}
		s.header = true
	}

	row := make([]string, len(record.OutputColumns))
	for i, r := range records {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for j, v := range r.Values() {
			if v == nil {
				row[j] = ""
				continue
			}
			row[j] = v.(string)
		}
		if err := s.w.Write(row); err != nil {
			return fmt.Errorf("csv output: %w", err)
		}
	}
	return nil
}

// Close flushes buffered rows. An empty run still gets a header.
func (s *CSVSink) Close() error {
	if !s.header {
		if err := s.w.Write(record.OutputColumns); err != nil {
			return fmt.Errorf("csv output: header: %w", err)
		}
		s.header = true
	}
	s.w.Flush()
	return s.w.Error()
}
