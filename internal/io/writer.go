package io

import (
	"encoding/csv"
	"fmt"
	"os"
)

// ResultWriter appends rows to a CSV table, flushing after each one so a
// partially completed run still leaves a valid table behind.
type ResultWriter struct {
	file   *os.File
	csv    *csv.Writer
	closed bool
}

// NewResultWriter creates (or truncates) filename and writes header when
// it is non-empty.
func NewResultWriter(filename string, header []string) (*ResultWriter, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create table %s: %w", filename, err)
	}

	w := &ResultWriter{file: f, csv: csv.NewWriter(f)}
	if len(header) > 0 {
		if err := w.Write(header); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return w, nil
}

// Write appends one row and flushes it to disk
func (w *ResultWriter) Write(record []string) error {
	if err := w.csv.Write(record); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush row: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file. Later calls are no-ops.
func (w *ResultWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.csv.Flush()
	flushErr := w.csv.Error()
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close table: %w", err)
	}
	return flushErr
}
