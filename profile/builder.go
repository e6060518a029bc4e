package profile

import (
	"strings"
	"time"

	uuid "github.com/satori/go.uuid"

	"github.com/studioevoque/tableprof/profile/sketch"
)

// Config controls how a builder profiles its input.
type Config struct {
	// Sketch is the configuration handed to every column sketch.
	// Zero value means sketch.DefaultConfig.
	Sketch sketch.Config

	// Schema pre-registers feature names so that builders over empty
	// shards still produce a profile with the full feature set.
	// Columns outside a non-empty schema are still discovered lazily.
	Schema []string

	// Include are the columns to explicitly profile.
	Include []string

	// Exclude are the columns to skip.
	Exclude []string

	// SessionID identifies the profiling run. Generated when empty.
	SessionID string
}

// Builder consumes a sequence of row batches and accumulates them into
// a dataset profile it exclusively owns. A builder is single-owner and
// not safe for concurrent use; parallelism is achieved by running
// independent builders and merging their profiles.
type Builder struct {
	cfg       sketch.Config
	include   map[string]struct{}
	exclude   map[string]struct{}
	profile   *DatasetProfile
	finalized bool
}

// NewBuilder returns a builder with an empty profile.
func NewBuilder(c *Config) (*Builder, error) {
	if c == nil {
		c = &Config{}
	}

	cfg := c.Sketch
	if cfg == (sketch.Config{}) {
		cfg = sketch.DefaultConfig()
	}

	sessionID := c.SessionID
	if sessionID == "" {
		sessionID = uuid.NewV4().String()
	}

	b := &Builder{
		cfg:     cfg,
		profile: New(sessionID, time.Now().UnixMilli()),
	}

	if len(c.Exclude) > 0 {
		b.exclude = make(map[string]struct{})

		for _, n := range c.Exclude {
			b.exclude[strings.ToLower(n)] = struct{}{}
		}
	}

	if len(c.Include) > 0 {
		b.include = make(map[string]struct{})

		for _, n := range c.Include {
			b.include[strings.ToLower(n)] = struct{}{}
		}
	}

	for _, n := range c.Schema {
		if _, err := b.feature(n); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// feature returns the feature profile for a column if it should be
// profiled, creating it on first sight.
func (b *Builder) feature(name string) (*FeatureProfile, error) {
	key := strings.ToLower(name)

	if _, ok := b.exclude[key]; ok {
		return nil, nil
	}

	if len(b.include) > 0 {
		if _, ok := b.include[key]; !ok {
			return nil, nil
		}
	}

	f, ok := b.profile.Features[name]
	if !ok {
		var err error

		f, err = NewFeature(name, b.cfg)
		if err != nil {
			return nil, err
		}

		b.profile.Features[name] = f
	}

	return f, nil
}

// IngestBatch routes each column of the batch to its feature profile,
// discovering new columns lazily, and advances the dataset counters.
func (b *Builder) IngestBatch(batch Batch) error {
	if b.finalized {
		return ErrFinalized
	}

	for name, values := range batch.Columns {
		f, err := b.feature(name)
		if err != nil {
			return err
		}

		if f == nil {
			continue
		}

		f.Ingest(values)
	}

	b.profile.NumExamples += int64(batch.NumRows)
	b.profile.SizeBytes += batch.EstimateSize()

	return nil
}

// Profile finalizes the builder and returns the accumulated profile.
// The profile must not be mutated afterwards; further IngestBatch calls
// fail with ErrFinalized. A builder abandoned mid-stream yields a valid,
// if incomplete, profile.
func (b *Builder) Profile() *DatasetProfile {
	b.finalized = true
	b.profile.Timestamp = time.Now().UnixMilli()

	return b.profile
}
