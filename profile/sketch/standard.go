package sketch

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/DataDog/sketches-go/ddsketch/store"
	"github.com/axiomhq/hyperloglog"
)

var snapshotQuantiles = map[string]float64{
	"p25": 0.25,
	"p50": 0.50,
	"p75": 0.75,
	"p90": 0.90,
	"p99": 0.99,
}

// Standard is the default Sketch implementation. It combines a type
// tally, null and mismatch counters, a HyperLogLog distinct-count
// estimator, a DDSketch over numeric values, mergeable moments and a
// frequent-items tracker.
type Standard struct {
	cfg Config

	count        int64
	nulls        int64
	mismatches   int64
	leadingZeros bool

	types    map[ValueType]int64
	stats    moments
	distinct *hyperloglog.Sketch
	quants   *ddsketch.DDSketch
	items    *freqTracker
}

var _ Sketch = (*Standard)(nil)

// New returns an empty sketch for the given configuration.
func New(cfg Config) (*Standard, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var hll *hyperloglog.Sketch
	if cfg.HLLPrecision == 16 {
		hll = hyperloglog.New16()
	} else {
		hll = hyperloglog.New14()
	}

	dd, err := ddsketch.NewDefaultDDSketch(cfg.QuantileAccuracy)
	if err != nil {
		return nil, err
	}

	return &Standard{
		cfg:      cfg,
		types:    make(map[ValueType]int64),
		distinct: hll,
		quants:   dd,
		items:    newFreqTracker(cfg.FrequentItems),
	}, nil
}

func (s *Standard) Config() Config {
	return s.cfg
}

func (s *Standard) Update(v any) {
	s.count++

	switch x := v.(type) {
	case nil:
		s.nulls++
		s.types[NullType]++

	case bool:
		s.observe(BoolType, strconv.FormatBool(x))

	case int:
		s.observeInt(int64(x))
	case int32:
		s.observeInt(int64(x))
	case int64:
		s.observeInt(x)

	case float32:
		s.observeFloat(float64(x))
	case float64:
		s.observeFloat(x)

	case string:
		s.observeString(x)

	case []byte:
		s.observe(BinaryType, string(x))

	case time.Time:
		s.observe(DateTimeType, x.Format(time.RFC3339))

	default:
		s.mismatches++
	}
}

func (s *Standard) observeInt(i int64) {
	s.stats.Add(float64(i))
	s.quants.Add(float64(i))
	s.observe(IntType, strconv.FormatInt(i, 10))
}

func (s *Standard) observeFloat(f float64) {
	s.stats.Add(f)
	s.quants.Add(f)
	s.observe(FloatType, strconv.FormatFloat(f, 'g', -1, 64))
}

// observeString classifies a raw string the way tabular sources deliver
// values of unknown type, from most to least specific.
func (s *Standard) observeString(raw string) {
	if i, ok := ParseInt(raw); ok {
		if hasLeadingZeros(strings.TrimSpace(raw)) {
			s.leadingZeros = true
		}
		s.observeInt(i)
		return
	}

	if f, ok := ParseFloat(raw); ok {
		s.observeFloat(f)
		return
	}

	if _, ok := ParseBool(raw); ok {
		s.observe(BoolType, strings.TrimSpace(raw))
		return
	}

	if _, ok := ParseDate(raw); ok {
		s.observe(DateType, strings.TrimSpace(raw))
		return
	}

	if _, ok := ParseDateTime(raw); ok {
		s.observe(DateTimeType, strings.TrimSpace(raw))
		return
	}

	s.observe(StringType, raw)
}

func (s *Standard) observe(t ValueType, canonical string) {
	s.types[t]++
	s.distinct.Insert([]byte(canonical))
	s.items.Add(canonical, 1)
}

func (s *Standard) Merge(other Sketch) error {
	o, ok := other.(*Standard)
	if !ok {
		return fmt.Errorf("%w: merging %T into %T", ErrIncompatible, other, s)
	}

	if o.cfg != s.cfg {
		return fmt.Errorf("%w: %+v vs %+v", ErrIncompatible, s.cfg, o.cfg)
	}

	if err := s.distinct.Merge(o.distinct); err != nil {
		return fmt.Errorf("%w: %v", ErrIncompatible, err)
	}

	if err := s.quants.MergeWith(o.quants); err != nil {
		return fmt.Errorf("%w: %v", ErrIncompatible, err)
	}

	s.count += o.count
	s.nulls += o.nulls
	s.mismatches += o.mismatches
	s.leadingZeros = s.leadingZeros || o.leadingZeros

	for t, n := range o.types {
		s.types[t] += n
	}

	s.stats.Merge(o.stats)
	s.items.Merge(o.items)

	return nil
}

func (s *Standard) Snapshot() Snapshot {
	snap := Snapshot{
		Count:             s.count,
		NullCount:         s.nulls,
		TypeMismatchCount: s.mismatches,
		DistinctCount:     s.distinct.Estimate(),
		InferredType:      s.inferType(),
		TypeCounts:        make(map[ValueType]int64, len(s.types)),
		LeadingZeros:      s.leadingZeros,
		FrequentItems:     s.items.Items(),
	}

	for t, n := range s.types {
		snap.TypeCounts[t] = n
	}

	if s.stats.N > 0 {
		num := &NumericSummary{
			Count:     s.stats.N,
			Sum:       s.stats.Sum,
			Min:       s.stats.Min,
			Max:       s.stats.Max,
			Mean:      s.stats.Mean,
			StdDev:    s.stats.StdDev(),
			Quantiles: make(map[string]float64, len(snapshotQuantiles)),
		}

		for name, q := range snapshotQuantiles {
			if v, err := s.quants.GetValueAtQuantile(q); err == nil {
				num.Quantiles[name] = v
			}
		}

		snap.Numeric = num
	}

	return snap
}

// inferType returns the most specific type that covers every non-null
// value seen so far. Leading zeros force string: the values are almost
// certainly identifiers.
func (s *Standard) inferType() ValueType {
	if s.leadingZeros {
		return StringType
	}

	var g ValueType

	for t, n := range s.types {
		if n == 0 {
			continue
		}

		if g == UnknownType {
			g = t
		} else {
			g = GeneralizeType(g, t)
		}
	}

	return g
}

// decodeDD rebuilds the quantile sketch from its encoded form.
func decodeDD(b []byte) (*ddsketch.DDSketch, error) {
	return ddsketch.DecodeDDSketch(b, store.DefaultProvider, nil)
}
