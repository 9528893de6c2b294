package output

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/roach88/shelterpair/internal/canonical"
	"github.com/roach88/shelterpair/internal/record"
)

// JSONSink writes one canonical JSON object per line.
type JSONSink struct {
	w *bufio.Writer
}

// NewJSONSink returns an NDJSON sink on w.
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{w: bufio.NewWriter(w)}
}

// Write appends records.
func (s *JSONSink) Write(ctx context.Context, records []record.PairedRecord) error {
	for i, r := range records {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		data, err := canonical.Marshal(r.Map())
		if err != nil {
			return fmt.Errorf("json output: %w", err)
		}
		if _, err := s.w.Write(data); err != nil {
			return fmt.Errorf("json output: %w", err)
		}
		if err := s.w.WriteByte('\n'); err != nil {
			return fmt.Errorf("json output: %w", err)
		}
	}
	return nil
}

// Close flushes buffered output.
func (s *JSONSink) Close() error {
	return s.w.Flush()
}
