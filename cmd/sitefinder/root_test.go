package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnArg(t *testing.T) {
	t.Parallel()

	column, err := columnArg([]string{"in.csv", "out.csv"}, 2, -1)
	require.NoError(t, err)
	assert.Equal(t, -1, column)

	column, err = columnArg([]string{"in.csv", "out.csv", "3"}, 2, -1)
	require.NoError(t, err)
	assert.Equal(t, 3, column)

	_, err = columnArg([]string{"in.csv", "out.csv", "x"}, 2, -1)
	require.Error(t, err)

	_, err = columnArg([]string{"in.csv", "out.csv", "-2"}, 2, -1)
	require.Error(t, err)
}

func TestStringArg(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "output.csv", stringArg([]string{"a.csv"}, 2, "output.csv"))
	assert.Equal(t, "b.csv", stringArg([]string{"a.csv", "b.csv"}, 1, ""))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "sitefinder version dev\n", out.String())
}
