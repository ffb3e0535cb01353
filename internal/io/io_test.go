package io_test

import (
	"errors"
	goio "io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/williampepple1/dspace-site-finder/internal/io"
)

func TestToUTF8_PassesThroughUTF8(t *testing.T) {
	t.Parallel()

	in := []byte("SOURCE,DSPACE_URL\nМосква,http://example.ru/\n")
	assert.Equal(t, in, io.ToUTF8(in, "windows-1251"))
}

func TestToUTF8_StripsBOM(t *testing.T) {
	t.Parallel()

	in := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b\n")...)
	assert.Equal(t, []byte("a,b\n"), io.ToUTF8(in, "windows-1251"))
}

func TestToUTF8_DecodesWindows1251(t *testing.T) {
	t.Parallel()

	encoded, err := charmap.Windows1251.NewEncoder().String("Репозиторий,http://example.ru/\n")
	require.NoError(t, err)

	got := io.ToUTF8([]byte(encoded), "windows-1251")
	assert.Equal(t, "Репозиторий,http://example.ru/\n", string(got))
}

func TestToUTF8_UnknownEncodingLeavesData(t *testing.T) {
	t.Parallel()

	in := []byte{0xC0, 0xC1, ','}
	assert.Equal(t, in, io.ToUTF8(in, "no-such-codepage"))
}

func TestTableReader_RaggedRows(t *testing.T) {
	t.Parallel()

	table := io.NewTableReader("windows-1251").FromBytes([]byte(
		"SOURCE,DSPACE_URL\nOpenDOAR.org,http://a.org/\nhttp://b.org/\n\"x\"y,http://c.org/\n"))

	rows, err := table.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"http://b.org/"}, rows[2])
	assert.Equal(t, "http://c.org/", rows[3][1])
}

func TestResultWriter_FlushesEachRow(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := io.NewResultWriter(path, []string{"SOURCE", "DSPACE_URL"})
	require.NoError(t, err)

	require.NoError(t, w.Write([]string{"Google 'x'", "http://a.org/"}))

	// Readable before Close.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SOURCE,DSPACE_URL\nGoogle 'x',http://a.org/\n", string(data))

	require.NoError(t, w.Close())

	table, err := io.NewTableReader("").Open(path)
	require.NoError(t, err)
	header, err := table.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"SOURCE", "DSPACE_URL"}, header)
	_, err = table.Next()
	require.NoError(t, err)
	_, err = table.Next()
	assert.True(t, errors.Is(err, goio.EOF))
}

func TestTableReader_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := io.NewTableReader("").Open(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func TestResultWriter_CloseTwice(t *testing.T) {
	t.Parallel()

	w, err := io.NewResultWriter(filepath.Join(t.TempDir(), "out.csv"), nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
