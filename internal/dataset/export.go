package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/natefinch/atomic"
)

// Write encodes t with a header row. Missing cells are written as empty fields.
func Write(w io.Writer, t *Table, delim rune) error {
	if delim == 0 {
		delim = ','
	}
	cw := csv.NewWriter(w)
	cw.Comma = delim
	if err := cw.Write(t.columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range t.rows {
		if err := cw.Write(t.Strings(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Export writes t to path atomically; readers never observe a partial file.
func Export(t *Table, path string, delim rune) error {
	if delim == 0 {
		delim = SniffDelimiter(path)
	}
	var buf bytes.Buffer
	if err := Write(&buf, t, delim); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}
