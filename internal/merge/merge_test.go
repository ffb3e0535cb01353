package merge_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/williampepple1/dspace-site-finder/internal/io"
	"github.com/williampepple1/dspace-site-finder/internal/merge"
)

func TestRows(t *testing.T) {
	t.Parallel()

	first := [][]string{
		{"SOURCE", "DSPACE_URL"},
		{"OpenDOAR.org", "http://www.repo.org/jspui"},
		{"OpenDOAR.org", ""},
		{"OpenDOAR.org", "not a url"},
	}
	second := [][]string{
		{"SOURCE", "DSPACE_URL"},
		{"Google 'x'", "https://repo.org/jspui/"},
		{"Google 'x'", ""},
		{"Google 'x'", "http://new.org/"},
		{"short"},
	}

	got := merge.Rows(first, second, merge.DefaultURLColumn)
	assert.Equal(t, [][]string{
		{"SOURCE", "DSPACE_URL"},
		{"OpenDOAR.org", "http://www.repo.org/jspui"},
		{"OpenDOAR.org", ""},
		{"OpenDOAR.org", "not a url"},
		{"Google 'x'", ""},
		{"Google 'x'", "http://new.org/"},
		{"short"},
	}, got)
}

func TestRows_SingleTable(t *testing.T) {
	t.Parallel()

	got := merge.Rows([][]string{
		{"SOURCE", "DSPACE_URL"},
		{"a", "http://x.org/"},
		{"b", "http://X.org"},
	}, nil, 1)
	assert.Len(t, got, 2)
}

func TestFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	firstPath := filepath.Join(dir, "first.csv")
	secondPath := filepath.Join(dir, "second.csv")
	outPath := filepath.Join(dir, "merged.csv")

	legacy, err := charmap.Windows1251.NewEncoder().String("SOURCE,DSPACE_URL\nРепозиторий,http://repo.ru/\n")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(firstPath, []byte(legacy), 0o600))
	require.NoError(t, os.WriteFile(secondPath, []byte("SOURCE,DSPACE_URL\nx,http://www.repo.ru\ny,http://b.org/\n"), 0o600))

	res, err := merge.Files(io.NewTableReader("windows-1251"), firstPath, secondPath, outPath, 1)
	require.NoError(t, err)
	assert.Equal(t, merge.Result{Read: 5, Written: 3}, res)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "SOURCE,DSPACE_URL\nРепозиторий,http://repo.ru/\ny,http://b.org/\n", string(data))
}
