// Package sketch implements the per-column accumulator behind a feature
// profile: a bounded-memory, mergeable summary of every value observed
// in one column.
package sketch

import (
	"errors"
	"fmt"
)

// ErrIncompatible is returned when two sketches with differing
// configurations are merged. Sketch state built under one configuration
// cannot be combined with another without losing its error bounds.
var ErrIncompatible = errors.New("incompatible sketch configuration")

// Config holds the precision parameters for a sketch. Two sketches are
// mergeable only if their configs are equal.
type Config struct {
	// HLLPrecision is the register precision of the distinct-count
	// estimator. Supported values are 14 and 16.
	HLLPrecision int `json:"hll_precision"`

	// QuantileAccuracy is the relative accuracy guarantee of the
	// quantile sketch, e.g. 0.01 for 1%.
	QuantileAccuracy float64 `json:"quantile_accuracy"`

	// FrequentItems is the capacity of the frequent-items tracker.
	FrequentItems int `json:"frequent_items"`
}

// DefaultConfig returns the configuration used when the caller does not
// supply one.
func DefaultConfig() Config {
	return Config{
		HLLPrecision:     14,
		QuantileAccuracy: 0.01,
		FrequentItems:    32,
	}
}

func (c Config) validate() error {
	if c.HLLPrecision != 14 && c.HLLPrecision != 16 {
		return fmt.Errorf("unsupported hll precision %d", c.HLLPrecision)
	}

	if c.QuantileAccuracy <= 0 || c.QuantileAccuracy >= 1 {
		return fmt.Errorf("quantile accuracy out of range: %v", c.QuantileAccuracy)
	}

	if c.FrequentItems < 1 {
		return fmt.Errorf("frequent items capacity out of range: %d", c.FrequentItems)
	}

	return nil
}

// NumericSummary holds summary statistics over the numeric values a
// column has seen. Only present when at least one numeric value was
// observed.
type NumericSummary struct {
	Count     int64              `json:"count"`
	Sum       float64            `json:"sum"`
	Min       float64            `json:"min"`
	Max       float64            `json:"max"`
	Mean      float64            `json:"mean"`
	StdDev    float64            `json:"stddev"`
	Quantiles map[string]float64 `json:"quantiles,omitempty"`
}

// Snapshot is an immutable point-in-time view of a sketch.
type Snapshot struct {
	Count             int64               `json:"count"`
	NullCount         int64               `json:"null_count"`
	TypeMismatchCount int64               `json:"type_mismatch_count"`
	DistinctCount     uint64              `json:"distinct_count"`
	InferredType      ValueType           `json:"inferred_type"`
	TypeCounts        map[ValueType]int64 `json:"type_counts,omitempty"`
	LeadingZeros      bool                `json:"leading_zeros"`
	Numeric           *NumericSummary     `json:"numeric,omitempty"`
	FrequentItems     []ItemCount         `json:"frequent_items,omitempty"`
}

// Sketch is the capability contract a column accumulator must satisfy.
// Implementations must make Merge associative and commutative, with
// merging an empty sketch a no-op, and MarshalBinary/Decode a stable
// round trip.
type Sketch interface {
	// Update ingests one cell value. A nil value counts as null; a
	// value of an unsupported type is counted as a type mismatch,
	// never an error.
	Update(v any)

	// Merge folds other into the receiver. Fails with ErrIncompatible
	// if the two sketches were built with different configurations.
	Merge(other Sketch) error

	// Snapshot returns point-in-time statistics without mutating
	// internal state.
	Snapshot() Snapshot

	// Config returns the configuration the sketch was built with.
	Config() Config

	MarshalBinary() ([]byte, error)
}
