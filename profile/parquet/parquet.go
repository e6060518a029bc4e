// Package parquet turns a Parquet file into column-oriented row batches
// for profiling.
package parquet

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/studioevoque/tableprof/profile"
)

const defaultBatchSize = 1024

// Source reads row batches from a Parquet file, one row group at a
// time.
type Source struct {
	// BatchSize is the maximum number of rows per batch.
	BatchSize int

	file    *parquet.File
	osFile  *os.File
	columns []string

	group int
	rows  parquet.Rows
	buf   []parquet.Row
}

// Open opens a Parquet file on disk as a batch source.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	s := NewSource(pf)
	s.osFile = f

	return s, nil
}

// NewSource wraps an already opened Parquet file.
func NewSource(f *parquet.File) *Source {
	fields := f.Schema().Fields()
	columns := make([]string, len(fields))

	for i, fld := range fields {
		columns[i] = fld.Name()
	}

	return &Source{
		BatchSize: defaultBatchSize,
		file:      f,
		columns:   columns,
	}
}

// Columns returns the column names in schema order.
func (s *Source) Columns() []string {
	return s.columns
}

// Next returns the next batch of rows, or io.EOF when every row group
// has been read.
func (s *Source) Next() (profile.Batch, error) {
	if s.BatchSize <= 0 {
		s.BatchSize = defaultBatchSize
	}

	if s.buf == nil {
		s.buf = make([]parquet.Row, s.BatchSize)
	}

	for {
		if s.rows == nil {
			groups := s.file.RowGroups()
			if s.group >= len(groups) {
				return profile.Batch{}, io.EOF
			}

			s.rows = groups[s.group].Rows()
			s.group++
		}

		n, err := s.rows.ReadRows(s.buf)
		if n > 0 {
			return s.batch(s.buf[:n]), nil
		}

		if err != nil && err != io.EOF {
			return profile.Batch{}, fmt.Errorf("read row group %d: %w", s.group-1, err)
		}

		// Row group exhausted, move on.
		if cerr := s.rows.Close(); cerr != nil {
			return profile.Batch{}, cerr
		}
		s.rows = nil
	}
}

func (s *Source) batch(rows []parquet.Row) profile.Batch {
	batch := profile.Batch{
		NumRows: len(rows),
		Columns: make(map[string][]any, len(s.columns)),
	}

	for _, name := range s.columns {
		batch.Columns[name] = make([]any, 0, len(rows))
	}

	for _, row := range rows {
		for _, v := range row {
			col := int(v.Column())
			if col < 0 || col >= len(s.columns) {
				continue
			}

			name := s.columns[col]
			batch.Columns[name] = append(batch.Columns[name], cell(v))
		}
	}

	return batch
}

// Close releases the underlying file when the source owns one.
func (s *Source) Close() error {
	if s.rows != nil {
		s.rows.Close()
		s.rows = nil
	}

	if s.osFile != nil {
		return s.osFile.Close()
	}

	return nil
}

// cell converts a parquet value to the profiling value model.
func cell(v parquet.Value) any {
	if v.IsNull() {
		return nil
	}

	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		// Int96 and friends: count as a type mismatch downstream.
		return v
	}
}
