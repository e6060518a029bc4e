// Package tableprof profiles tabular datasets into compact, mergeable
// statistical summaries and recommends ML feature types from them.
package tableprof

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	uuid "github.com/satori/go.uuid"
	"golang.org/x/sync/errgroup"

	"github.com/studioevoque/tableprof/profile"
	"github.com/studioevoque/tableprof/profile/csv"
	"github.com/studioevoque/tableprof/profile/parquet"
	"github.com/studioevoque/tableprof/profile/sketch"
	"github.com/studioevoque/tableprof/reader"
)

// Source yields column-oriented row batches. Next returns io.EOF once
// the input is exhausted.
type Source interface {
	Next() (profile.Batch, error)
}

// Request describes one profiling run over a file.
type Request struct {
	// Input path. Stdin when empty (CSV only).
	Path string

	// Format is "csv" or "parquet". Detected from the path when empty.
	Format string

	// Compression applied to the input (CSV only).
	Compression string

	// CSV specifics.
	Delimiter string
	NoHeader  bool

	// Workers is the number of parallel builders. Defaults to
	// GOMAXPROCS. The input is read once and batches are distributed
	// across builders; their partial profiles are merged at the end.
	Workers int

	// BatchSize is the number of rows per batch.
	BatchSize int

	// Include and Exclude select the columns to profile.
	Include []string
	Exclude []string

	// Sketch configures the per-column sketches.
	Sketch sketch.Config

	// SessionID identifies the run. Generated when empty.
	SessionID string

	Logger *slog.Logger
}

func (r *Request) normalize() {
	if r.Workers <= 0 {
		r.Workers = runtime.GOMAXPROCS(0)
	}

	if r.SessionID == "" {
		r.SessionID = uuid.NewV4().String()
	}

	if r.Logger == nil {
		r.Logger = slog.Default()
	}
}

// Profile profiles the requested input and returns the merged dataset
// profile.
func Profile(ctx context.Context, r *Request) (*profile.DatasetProfile, error) {
	r.normalize()

	format, compression := reader.DetectType(r.Path)
	if r.Format != "" {
		format = r.Format
	}
	if r.Compression != "" {
		compression = r.Compression
	}

	switch format {
	case "parquet":
		src, err := parquet.Open(r.Path)
		if err != nil {
			return nil, err
		}
		defer src.Close()

		if r.BatchSize > 0 {
			src.BatchSize = r.BatchSize
		}

		return profileSource(ctx, src, src.Columns(), r)

	case "csv", "":
		in, err := reader.Open(r.Path, compression)
		if err != nil {
			return nil, fmt.Errorf("cannot open input: %w", err)
		}
		defer in.Close()

		src := csv.NewSource(in)
		src.Header = !r.NoHeader
		if r.Delimiter != "" {
			src.Delimiter = r.Delimiter[0]
		}
		if r.BatchSize > 0 {
			src.BatchSize = r.BatchSize
		}

		columns, err := src.Columns()
		if err != nil {
			return nil, fmt.Errorf("cannot read csv header: %w", err)
		}

		return profileSource(ctx, src, columns, r)
	}

	return nil, fmt.Errorf("file type not supported: %s", format)
}

// ProfileSource profiles an arbitrary batch source with the request's
// worker and sketch settings. The schema, when known, is pre-registered
// in every builder so idle workers still produce mergeable profiles.
func ProfileSource(ctx context.Context, src Source, schema []string, r *Request) (*profile.DatasetProfile, error) {
	r.normalize()
	return profileSource(ctx, src, schema, r)
}

func profileSource(ctx context.Context, src Source, schema []string, r *Request) (*profile.DatasetProfile, error) {
	builders := make([]*profile.Builder, r.Workers)

	for i := range builders {
		b, err := profile.NewBuilder(&profile.Config{
			Sketch:    r.Sketch,
			Schema:    schema,
			Include:   r.Include,
			Exclude:   r.Exclude,
			SessionID: r.SessionID,
		})
		if err != nil {
			return nil, err
		}

		builders[i] = b
	}

	g, ctx := errgroup.WithContext(ctx)
	batches := make(chan profile.Batch, r.Workers)

	// Single reader: sources are sequential. Workers own their
	// builders exclusively, so the hot path needs no locks.
	g.Go(func() error {
		defer close(batches)

		for {
			batch, err := src.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}

			select {
			case batches <- batch:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	for _, b := range builders {
		b := b

		g.Go(func() error {
			for batch := range batches {
				if err := b.IngestBatch(batch); err != nil {
					return err
				}
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := builders[0].Profile()

	for _, b := range builders[1:] {
		var err error

		merged, err = merged.Merge(b.Profile())
		if err != nil {
			return nil, err
		}
	}

	r.Logger.Info("profiling complete",
		"session", merged.SessionID,
		"examples", merged.NumExamples,
		"size_bytes", merged.SizeBytes,
		"features", len(merged.Features),
		"workers", r.Workers,
	)

	return merged, nil
}
