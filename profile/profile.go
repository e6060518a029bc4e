// Package profile maintains a compact, mergeable statistical summary of
// a tabular dataset, computed incrementally over batches of rows.
// Partial profiles computed independently (parallel workers, shards)
// merge into one equivalent to a single pass over all data, up to the
// approximation error of the underlying sketches.
package profile

import (
	"fmt"
	"sort"

	"github.com/studioevoque/tableprof/profile/sketch"
)

// FeatureProfile holds the accumulated statistics for one column.
type FeatureProfile struct {
	// Name of the feature, unique within the dataset profile.
	Name string

	// Sketch is the column accumulator. Opaque to the profile: any
	// implementation of the sketch contract can be substituted.
	Sketch sketch.Sketch
}

// NewFeature returns an empty feature profile using the standard sketch.
func NewFeature(name string, cfg sketch.Config) (*FeatureProfile, error) {
	s, err := sketch.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("feature %q: %w", name, err)
	}

	return &FeatureProfile{Name: name, Sketch: s}, nil
}

// Ingest delegates each value to the sketch.
func (f *FeatureProfile) Ingest(values []any) {
	for _, v := range values {
		f.Sketch.Update(v)
	}
}

// Merge folds other into f. The two profiles must describe the same
// feature and carry compatible sketches.
func (f *FeatureProfile) Merge(other *FeatureProfile) error {
	if f.Name != other.Name {
		return fmt.Errorf("%w: %q vs %q", ErrFeatureNameMismatch, f.Name, other.Name)
	}

	if err := f.Sketch.Merge(other.Sketch); err != nil {
		return fmt.Errorf("feature %q: %w", f.Name, err)
	}

	return nil
}

func (f *FeatureProfile) clone() (*FeatureProfile, error) {
	b, err := f.Sketch.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("feature %q: %w", f.Name, err)
	}

	s, err := sketch.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("feature %q: %w", f.Name, err)
	}

	return &FeatureProfile{Name: f.Name, Sketch: s}, nil
}

// DatasetProfile is the summary of everything a profiling run has seen:
// dataset-level counters plus one feature profile per column.
type DatasetProfile struct {
	// Timestamp is when the profile was taken, epoch milliseconds.
	// Informational only: merge takes the later of the two inputs.
	Timestamp int64

	// NumExamples is the number of rows ingested. Additive under merge.
	NumExamples int64

	// SizeBytes is the estimated byte footprint of the ingested
	// values. Additive under merge.
	SizeBytes int64

	// SessionID identifies the profiling run that produced this
	// profile. A merged profile keeps the session of the input whose
	// timestamp wins.
	SessionID string

	// Features maps feature name to its profile. Key order carries no
	// meaning.
	Features map[string]*FeatureProfile
}

// New returns an empty dataset profile.
func New(sessionID string, timestamp int64) *DatasetProfile {
	return &DatasetProfile{
		Timestamp: timestamp,
		SessionID: sessionID,
		Features:  make(map[string]*FeatureProfile),
	}
}

// FeatureNames returns the profiled feature names, sorted.
func (p *DatasetProfile) FeatureNames() []string {
	names := make([]string, 0, len(p.Features))
	for n := range p.Features {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// sameSchema reports whether the two profiles cover the same feature
// names.
func (p *DatasetProfile) sameSchema(o *DatasetProfile) bool {
	if len(p.Features) != len(o.Features) {
		return false
	}

	for n := range p.Features {
		if _, ok := o.Features[n]; !ok {
			return false
		}
	}

	return true
}

// Merge combines p and other into a new profile equivalent to having
// profiled the union of their inputs. Merge is associative and
// commutative on all counters; neither input is mutated. The feature
// name sets must be identical or the merge fails with ErrSchemaMismatch.
func (p *DatasetProfile) Merge(other *DatasetProfile) (*DatasetProfile, error) {
	if !p.sameSchema(other) {
		return nil, fmt.Errorf("%w: features %v vs %v",
			ErrSchemaMismatch, p.FeatureNames(), other.FeatureNames())
	}

	// Latest wins for timestamp and session; receiver wins ties so
	// the choice stays deterministic.
	merged := New(p.SessionID, p.Timestamp)
	if other.Timestamp > p.Timestamp {
		merged.Timestamp = other.Timestamp
		merged.SessionID = other.SessionID
	}

	merged.NumExamples = p.NumExamples + other.NumExamples
	merged.SizeBytes = p.SizeBytes + other.SizeBytes

	for name, f := range p.Features {
		mf, err := f.clone()
		if err != nil {
			return nil, err
		}

		if err := mf.Merge(other.Features[name]); err != nil {
			return nil, err
		}

		merged.Features[name] = mf
	}

	return merged, nil
}

// Summary returns a point-in-time snapshot per feature.
func (p *DatasetProfile) Summary() map[string]sketch.Snapshot {
	out := make(map[string]sketch.Snapshot, len(p.Features))

	for name, f := range p.Features {
		out[name] = f.Sketch.Snapshot()
	}

	return out
}
