// Package merge combines site tables and removes rows that point at the
// same site.
package merge

import (
	"fmt"

	"github.com/williampepple1/dspace-site-finder/internal/io"
	"github.com/williampepple1/dspace-site-finder/internal/uri"
)

// DefaultOutput is used when no merged file name is given
const DefaultOutput = "output.csv"

// DefaultURLColumn is the URL column of discovery tables
const DefaultURLColumn = 1

// Rows concatenates first (header kept) and second (header dropped), then
// keeps the first row for each comparable URL in column. Rows whose URL has
// no comparable key, including the header, are always kept.
func Rows(first, second [][]string, column int) [][]string {
	all := make([][]string, 0, len(first)+len(second))
	all = append(all, first...)
	if len(second) > 0 {
		all = append(all, second[1:]...)
	}

	return uri.UniqueBy(all, func(row []string) string {
		if column < 0 || column >= len(row) {
			return ""
		}
		return row[column]
	})
}

// Result summarises a file merge
type Result struct {
	Read    int
	Written int
}

// Files merges firstPath and the optional secondPath into outPath
func Files(reader *io.TableReader, firstPath, secondPath, outPath string, column int) (Result, error) {
	first, err := readAll(reader, firstPath)
	if err != nil {
		return Result{}, err
	}

	var second [][]string
	if secondPath != "" {
		if second, err = readAll(reader, secondPath); err != nil {
			return Result{}, err
		}
	}

	merged := Rows(first, second, column)

	w, err := io.NewResultWriter(outPath, nil)
	if err != nil {
		return Result{}, err
	}
	for _, row := range merged {
		if err := w.Write(row); err != nil {
			_ = w.Close()
			return Result{}, err
		}
	}
	if err := w.Close(); err != nil {
		return Result{}, err
	}

	return Result{Read: len(first) + len(second), Written: len(merged)}, nil
}

func readAll(reader *io.TableReader, path string) ([][]string, error) {
	table, err := reader.Open(path)
	if err != nil {
		return nil, err
	}
	rows, err := table.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}
