// Package csv turns a CSV stream into column-oriented row batches for
// profiling. Empty cells are treated as null values.
package csv

import (
	"fmt"
	"io"
	"strings"

	"github.com/studioevoque/tableprof/profile"
)

const defaultBatchSize = 1024

// Source reads row batches from CSV input.
type Source struct {
	// Header indicates the first record holds the column names. When
	// false, columns are named c0..cN.
	Header bool

	// Delimiter is the field separator.
	Delimiter byte

	// BatchSize is the maximum number of rows per batch.
	BatchSize int

	sc      *scanner
	columns []string
	pending []string
	started bool
}

// NewSource returns a source with the usual defaults: comma separated,
// header present, batches of 1024 rows.
func NewSource(r io.Reader) *Source {
	s := &Source{
		Header:    true,
		Delimiter: ',',
		BatchSize: defaultBatchSize,
	}
	s.sc = newScanner(r, s.Delimiter)

	return s
}

// start reads the first record and fixes the column names.
func (s *Source) start() error {
	s.sc.sep = s.Delimiter

	if s.BatchSize <= 0 {
		s.BatchSize = defaultBatchSize
	}

	record, err := s.sc.Next()
	if err != nil {
		return err
	}

	s.columns = make([]string, len(record))

	if s.Header {
		for i, n := range record {
			s.columns[i] = strings.ToLower(strings.TrimSpace(n))
		}
	} else {
		for i := range record {
			s.columns[i] = fmt.Sprintf("c%d", i)
		}
		// The first record is data, not a header.
		s.pending = record
	}

	s.started = true

	return nil
}

// Columns returns the column names, reading the header if needed.
func (s *Source) Columns() ([]string, error) {
	if !s.started {
		if err := s.start(); err != nil {
			return nil, err
		}
	}

	return s.columns, nil
}

// Next returns the next batch of rows, or io.EOF when the input is
// exhausted.
func (s *Source) Next() (profile.Batch, error) {
	if !s.started {
		if err := s.start(); err != nil {
			return profile.Batch{}, err
		}
	}

	batch := profile.Batch{
		Columns: make(map[string][]any, len(s.columns)),
	}
	for _, n := range s.columns {
		batch.Columns[n] = make([]any, 0, s.BatchSize)
	}

	appendRow := func(record []string) error {
		if len(record) != len(s.columns) {
			return fmt.Errorf("record has %d fields, want %d", len(record), len(s.columns))
		}

		for i, n := range s.columns {
			batch.Columns[n] = append(batch.Columns[n], cell(record[i]))
		}

		batch.NumRows++

		return nil
	}

	if s.pending != nil {
		record := s.pending
		s.pending = nil

		if err := appendRow(record); err != nil {
			return profile.Batch{}, err
		}
	}

	for batch.NumRows < s.BatchSize {
		record, err := s.sc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return profile.Batch{}, err
		}

		if err := appendRow(record); err != nil {
			return profile.Batch{}, err
		}
	}

	if batch.NumRows == 0 {
		return profile.Batch{}, io.EOF
	}

	return batch, nil
}

// cell maps an empty string to null, everything else stays a raw string
// for the sketch to classify.
func cell(v string) any {
	if v == "" {
		return nil
	}

	return v
}
