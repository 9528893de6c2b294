package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/roach88/shelterpair/internal/record"
)

// utf8BOM is the byte-order mark spreadsheet exports put before the header.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV reads a header row followed by data rows. A leading UTF-8 BOM is
// skipped. Rows with fewer or more fields than the header are accepted as-is.
func ReadCSV(r io.Reader) (record.Table, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return record.Table{}, fmt.Errorf("read csv: empty input")
	}
	if err != nil {
		return record.Table{}, fmt.Errorf("read csv header: %w", err)
	}

	t := record.Table{Columns: header}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return record.Table{}, fmt.Errorf("read csv: %w", err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ReadFile opens path and reads it with ReadCSV.
func ReadFile(path string) (record.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return record.Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return record.Table{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// WriteCSV writes t with its header. Short rows are padded with empty cells.
func WriteCSV(w io.Writer, t record.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range t.Rows {
		if len(row) < len(t.Columns) {
			padded := make([]string, len(t.Columns))
			copy(padded, row)
			row = padded
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes t to path, replacing any existing file.
func WriteFile(path string, t record.Table) error {
	return WriteFiles(map[string]record.Table{path: t})
}

// WriteFiles writes each table to a temporary file next to its path and
// renames them into place only once all of them were written, so a failure
// replaces none of the targets.
func WriteFiles(tables map[string]record.Table) error {
	staged := make(map[string]string, len(tables))
	cleanup := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}

	for path, t := range tables {
		tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
		if err != nil {
			cleanup()
			return fmt.Errorf("create %s: %w", path, err)
		}
		staged[path] = tmp.Name()
		if err := WriteCSV(tmp, t); err != nil {
			tmp.Close()
			cleanup()
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := tmp.Close(); err != nil {
			cleanup()
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	for path, tmp := range staged {
		if err := os.Rename(tmp, path); err != nil {
			cleanup()
			return fmt.Errorf("%s: %w", path, err)
		}
		delete(staged, path)
	}
	return nil
}
