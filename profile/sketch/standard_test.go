package sketch

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSketch(t *testing.T) *Standard {
	t.Helper()

	s, err := New(DefaultConfig())
	require.NoError(t, err)

	return s
}

func TestStandardUpdate(t *testing.T) {
	s := newSketch(t)

	s.Update(int64(5))
	s.Update(nil)
	s.Update(int64(7))

	snap := s.Snapshot()
	assert.Equal(t, int64(3), snap.Count)
	assert.Equal(t, int64(1), snap.NullCount)
	assert.Equal(t, IntType, snap.InferredType)
	require.NotNil(t, snap.Numeric)
	assert.Equal(t, int64(2), snap.Numeric.Count)
	assert.Equal(t, float64(5), snap.Numeric.Min)
	assert.Equal(t, float64(7), snap.Numeric.Max)
	assert.Equal(t, float64(6), snap.Numeric.Mean)
}

func TestSnapshotJSONEmitsTypeCounts(t *testing.T) {
	s := newSketch(t)

	s.Update(int64(5))
	s.Update(nil)

	b, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)

	assert.Contains(t, string(b), `"type_counts":{"integer":1,"null":1}`)
}

func TestStandardDistinctCount(t *testing.T) {
	s := newSketch(t)

	for _, v := range []string{"x", "y", "x"} {
		s.Update(v)
	}

	assert.Equal(t, uint64(2), s.Snapshot().DistinctCount)
}

func TestStandardStringClassification(t *testing.T) {
	tests := map[string]struct {
		raw  string
		want ValueType
	}{
		"int":      {"10", IntType},
		"float":    {"1.20", FloatType},
		"bool":     {"true", BoolType},
		"date":     {"2014-02-01", DateType},
		"datetime": {"2014-02-01 10:00:00", DateTimeType},
		"string":   {"bar", StringType},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			s := newSketch(t)
			s.Update(test.raw)

			snap := s.Snapshot()
			assert.Equal(t, test.want, snap.InferredType)
			assert.Equal(t, int64(1), snap.TypeCounts[test.want])
		})
	}
}

func TestStandardLeadingZerosForceString(t *testing.T) {
	s := newSketch(t)

	s.Update("0123")
	s.Update("456")

	assert.Equal(t, StringType, s.Snapshot().InferredType)
	assert.True(t, s.Snapshot().LeadingZeros)
}

func TestStandardTypeMismatchCounted(t *testing.T) {
	s := newSketch(t)

	s.Update(struct{ X int }{1})
	s.Update(int64(3))

	snap := s.Snapshot()
	assert.Equal(t, int64(2), snap.Count)
	assert.Equal(t, int64(1), snap.TypeMismatchCount)
}

func TestStandardTypeGeneralization(t *testing.T) {
	s := newSketch(t)

	s.Update(int64(1))
	s.Update(2.5)

	assert.Equal(t, FloatType, s.Snapshot().InferredType)
}

func TestStandardMerge(t *testing.T) {
	a := newSketch(t)
	b := newSketch(t)

	for i := 0; i < 50; i++ {
		a.Update(int64(i))
	}
	for i := 50; i < 100; i++ {
		b.Update(int64(i))
	}
	b.Update(nil)

	require.NoError(t, a.Merge(b))

	snap := a.Snapshot()
	assert.Equal(t, int64(101), snap.Count)
	assert.Equal(t, int64(1), snap.NullCount)
	assert.Equal(t, float64(0), snap.Numeric.Min)
	assert.Equal(t, float64(99), snap.Numeric.Max)
	assert.InDelta(t, 100, float64(snap.DistinctCount), 2)
}

func TestStandardMergeEmptyIsIdentity(t *testing.T) {
	a := newSketch(t)
	empty := newSketch(t)

	for _, v := range []any{"x", "y", nil, int64(3)} {
		a.Update(v)
	}

	before := a.Snapshot()
	require.NoError(t, a.Merge(empty))
	after := a.Snapshot()

	assert.Equal(t, before, after)
}

func TestStandardMergeCommutative(t *testing.T) {
	build := func(values []any) *Standard {
		s := newSketch(t)
		for _, v := range values {
			s.Update(v)
		}
		return s
	}

	va := []any{"a", "b", int64(1), nil}
	vb := []any{"c", 2.5, "a"}

	ab := build(va)
	require.NoError(t, ab.Merge(build(vb)))

	ba := build(vb)
	require.NoError(t, ba.Merge(build(va)))

	// FrequentItems is not compared: once the tracker evicts, which
	// items survive depends on merge order. Counts stay upper bounds
	// either way.
	sa, sb := ab.Snapshot(), ba.Snapshot()
	assert.Equal(t, sa.Count, sb.Count)
	assert.Equal(t, sa.NullCount, sb.NullCount)
	assert.Equal(t, sa.DistinctCount, sb.DistinctCount)
	assert.Equal(t, sa.TypeCounts, sb.TypeCounts)
	assert.Equal(t, sa.InferredType, sb.InferredType)
}

func TestStandardMergeIncompatibleConfig(t *testing.T) {
	a := newSketch(t)

	cfg := DefaultConfig()
	cfg.QuantileAccuracy = 0.05

	b, err := New(cfg)
	require.NoError(t, err)

	err = a.Merge(b)
	assert.ErrorIs(t, err, ErrIncompatible)
}

func TestStandardRoundTrip(t *testing.T) {
	s := newSketch(t)

	s.Update("x")
	s.Update("y")
	s.Update(nil)
	s.Update(int64(42))
	s.Update(1.5)
	s.Update(true)
	s.Update(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	s.Update(struct{}{})

	b, err := s.MarshalBinary()
	require.NoError(t, err)

	d, err := Decode(b)
	require.NoError(t, err)

	assert.Equal(t, s.Config(), d.Config())
	assert.Equal(t, s.Snapshot(), d.Snapshot())
}

func TestDecodeTruncated(t *testing.T) {
	s := newSketch(t)
	s.Update("value")

	b, err := s.MarshalBinary()
	require.NoError(t, err)

	_, err = Decode(b[:len(b)-3])
	assert.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	_, err := New(Config{HLLPrecision: 9, QuantileAccuracy: 0.01, FrequentItems: 8})
	assert.Error(t, err)

	_, err = New(Config{HLLPrecision: 14, QuantileAccuracy: 0, FrequentItems: 8})
	assert.Error(t, err)

	_, err = New(Config{HLLPrecision: 14, QuantileAccuracy: 0.01, FrequentItems: 0})
	assert.Error(t, err)
}
