package data

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDelimiter is the field separator of spreadsheet exports with decimal commas.
const DefaultDelimiter = ';'

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadCSV reads a delimited file into a Table.
func LoadCSV(path string, delim rune) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCSV(raw, delim)
}

// ParseCSV parses delimited text. A UTF-8 BOM is skipped, header names are
// trimmed, and fully blank lines are ignored.
func ParseCSV(raw []byte, delim rune) (*Table, error) {
	if delim == 0 {
		delim = DefaultDelimiter
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	r := csv.NewReader(bytes.NewReader(raw))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := &Table{Header: header}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+2, err)
		}
		if blank(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// LoadTable picks the loader from the file extension: .json or delimited text.
func LoadTable(path string, delim rune) (*Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSONRows(path)
	}
	return LoadCSV(path, delim)
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// WriteCSV writes the header and rows of t.
func WriteCSV(out io.Writer, t *Table, delim rune) error {
	if delim == 0 {
		delim = DefaultDelimiter
	}
	w := csv.NewWriter(out)
	w.Comma = delim
	if err := w.Write(t.Header); err != nil {
		return err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return err
	}
	return w.Error()
}
