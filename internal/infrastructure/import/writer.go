package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// WriteTable writes a header and rows as UTF-8 CSV prefixed with a BOM so
// spreadsheet tools detect the encoding of Hebrew names.
func WriteTable(w io.Writer, headers []string, rows [][]string) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

// WriteTableFile writes a table to path, replacing any existing file
func WriteTableFile(path string, headers []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	return WriteTable(f, headers, rows)
}
