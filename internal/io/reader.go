package io

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	goio "io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a CSV file opened for row-by-row reading
type Table struct {
	csv *csv.Reader
}

// Next returns the next row, or io.EOF after the last one
func (t *Table) Next() ([]string, error) {
	record, err := t.csv.Read()
	if errors.Is(err, goio.EOF) {
		return nil, goio.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("read row: %w", err)
	}
	return record, nil
}

// ReadAll returns every remaining row
func (t *Table) ReadAll() ([][]string, error) {
	var rows [][]string
	for {
		row, err := t.Next()
		if errors.Is(err, goio.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// TableReader opens input tables, converting legacy codepages to UTF-8
type TableReader struct {
	FallbackEncoding string
}

// NewTableReader creates a reader that decodes non-UTF-8 input with the
// named codepage (e.g. "windows-1251").
func NewTableReader(fallbackEncoding string) *TableReader {
	return &TableReader{FallbackEncoding: fallbackEncoding}
}

// Open reads the whole file and returns it as a Table. Rows may have
// differing column counts.
func (r *TableReader) Open(filename string) (*Table, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("open table %s: %w", filename, err)
	}
	return r.FromBytes(data), nil
}

// FromBytes wraps already loaded table data
func (r *TableReader) FromBytes(data []byte) *Table {
	cr := csv.NewReader(bytes.NewReader(ToUTF8(data, r.FallbackEncoding)))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return &Table{csv: cr}
}

// ToUTF8 strips a UTF-8 byte order mark and, when data is not valid UTF-8,
// decodes it from the fallback encoding. Data is returned unchanged when the
// encoding is unknown or decoding fails.
func ToUTF8(data []byte, fallback string) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) || fallback == "" {
		return data
	}

	enc, err := htmlindex.Get(fallback)
	if err != nil {
		return data
	}

	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return decoded
}
