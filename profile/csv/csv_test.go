package csv

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource(t *testing.T) {
	b := bytes.NewBufferString(`name,color,dob
John,Blue,03/11/2013
Jane,Red,2008-02-24
Joe,,2010-02-11
`)

	src := NewSource(b)

	columns, err := src.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "color", "dob"}, columns)

	batch, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, 3, batch.NumRows)
	assert.Equal(t, []any{"John", "Jane", "Joe"}, batch.Columns["name"])

	// Empty cells are nulls.
	assert.Equal(t, []any{"Blue", "Red", nil}, batch.Columns["color"])

	_, err = src.Next()
	assert.Equal(t, io.EOF, err)
}

func TestSourceNoHeader(t *testing.T) {
	b := bytes.NewBufferString("1,x\n2,y\n")

	src := NewSource(b)
	src.Header = false

	columns, err := src.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"c0", "c1"}, columns)

	batch, err := src.Next()
	require.NoError(t, err)

	// The first record is data, not a header.
	assert.Equal(t, 2, batch.NumRows)
	assert.Equal(t, []any{"1", "2"}, batch.Columns["c0"])
}

func TestSourceBatching(t *testing.T) {
	b := bytes.NewBufferString("v\n1\n2\n3\n4\n5\n")

	src := NewSource(b)
	src.BatchSize = 2

	var rows int
	var batches int

	for {
		batch, err := src.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		rows += batch.NumRows
		batches++
	}

	assert.Equal(t, 5, rows)
	assert.Equal(t, 3, batches)
}

func TestSourceRaggedRecord(t *testing.T) {
	b := bytes.NewBufferString("a,b\n1,2\n3\n")

	src := NewSource(b)

	_, err := src.Next()
	assert.Error(t, err)
}

func TestSourceDelimiter(t *testing.T) {
	b := bytes.NewBufferString("a\tb\n1\t2\n")

	src := NewSource(b)
	src.Delimiter = '\t'

	columns, err := src.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, columns)
}
