package tableprof

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/studioevoque/tableprof/profile"
)

// ProfileQuery runs a query and profiles its result set. The driver is
// whatever the caller opened the database with; the shipped CLI links
// the Postgres driver.
func ProfileQuery(ctx context.Context, db *sql.DB, query string, r *Request) (*profile.DatasetProfile, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	return ProfileRows(ctx, rows, r)
}

// ProfileRows profiles an open result set, streaming it in batches.
func ProfileRows(ctx context.Context, rows *sql.Rows, r *Request) (*profile.DatasetProfile, error) {
	r.normalize()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	batchSize := r.BatchSize
	if batchSize <= 0 {
		batchSize = 1024
	}

	src := &rowsSource{
		rows:      rows,
		columns:   columns,
		batchSize: batchSize,
	}

	p, err := profileSource(ctx, src, columns, r)
	if err != nil {
		return nil, err
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return p, nil
}

// rowsSource adapts database/sql rows into batches.
type rowsSource struct {
	rows      *sql.Rows
	columns   []string
	batchSize int
}

func (s *rowsSource) Next() (profile.Batch, error) {
	batch := profile.Batch{
		Columns: make(map[string][]any, len(s.columns)),
	}
	for _, n := range s.columns {
		batch.Columns[n] = make([]any, 0, s.batchSize)
	}

	values := make([]any, len(s.columns))
	ptrs := make([]any, len(s.columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for batch.NumRows < s.batchSize && s.rows.Next() {
		if err := s.rows.Scan(ptrs...); err != nil {
			return profile.Batch{}, err
		}

		for i, n := range s.columns {
			batch.Columns[n] = append(batch.Columns[n], cellValue(values[i]))
		}

		batch.NumRows++
	}

	if batch.NumRows == 0 {
		if err := s.rows.Err(); err != nil {
			return profile.Batch{}, err
		}

		return profile.Batch{}, io.EOF
	}

	return batch, nil
}

// cellValue maps driver values onto the profiling value model.
func cellValue(v any) any {
	switch x := v.(type) {
	case []byte:
		// Drivers hand text columns back as raw bytes.
		return string(x)
	case time.Time:
		return x
	default:
		return v
	}
}
