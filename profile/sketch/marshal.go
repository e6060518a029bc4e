package sketch

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Wire field numbers for the sketch payload. Tags are fixed: new fields
// take unused numbers, none is ever reused.
const (
	fieldConfig       = 1
	fieldCount        = 2
	fieldNulls        = 3
	fieldMismatches   = 4
	fieldLeadingZeros = 5
	fieldTypeCount    = 6
	fieldMoments      = 7
	fieldHLL          = 8
	fieldQuantiles    = 9
	fieldFreqItem     = 10
)

const (
	cfgFieldHLLPrecision = 1
	cfgFieldAccuracy     = 2
	cfgFieldFreqItems    = 3
)

const (
	momFieldN    = 1
	momFieldSum  = 2
	momFieldMin  = 3
	momFieldMax  = 4
	momFieldMean = 5
	momFieldM2   = 6
)

const (
	pairFieldKey   = 1
	pairFieldValue = 2
)

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendDoubleField(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func (s *Standard) MarshalBinary() ([]byte, error) {
	var cfg []byte
	cfg = appendVarintField(cfg, cfgFieldHLLPrecision, uint64(s.cfg.HLLPrecision))
	cfg = appendDoubleField(cfg, cfgFieldAccuracy, s.cfg.QuantileAccuracy)
	cfg = appendVarintField(cfg, cfgFieldFreqItems, uint64(s.cfg.FrequentItems))

	var b []byte
	b = appendBytesField(b, fieldConfig, cfg)
	b = appendVarintField(b, fieldCount, uint64(s.count))
	b = appendVarintField(b, fieldNulls, uint64(s.nulls))
	b = appendVarintField(b, fieldMismatches, uint64(s.mismatches))

	if s.leadingZeros {
		b = appendVarintField(b, fieldLeadingZeros, 1)
	}

	for _, t := range []ValueType{NullType, StringType, BinaryType, IntType, FloatType, BoolType, DateType, DateTimeType} {
		n := s.types[t]
		if n == 0 {
			continue
		}

		var pair []byte
		pair = appendVarintField(pair, pairFieldKey, uint64(t))
		pair = appendVarintField(pair, pairFieldValue, uint64(n))
		b = appendBytesField(b, fieldTypeCount, pair)
	}

	if s.stats.N > 0 {
		var mom []byte
		mom = appendVarintField(mom, momFieldN, uint64(s.stats.N))
		mom = appendDoubleField(mom, momFieldSum, s.stats.Sum)
		mom = appendDoubleField(mom, momFieldMin, s.stats.Min)
		mom = appendDoubleField(mom, momFieldMax, s.stats.Max)
		mom = appendDoubleField(mom, momFieldMean, s.stats.Mean)
		mom = appendDoubleField(mom, momFieldM2, s.stats.M2)
		b = appendBytesField(b, fieldMoments, mom)
	}

	hll, err := s.distinct.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal distinct sketch: %w", err)
	}
	b = appendBytesField(b, fieldHLL, hll)

	var dd []byte
	s.quants.Encode(&dd, false)
	b = appendBytesField(b, fieldQuantiles, dd)

	for _, it := range s.items.Items() {
		var pair []byte
		pair = appendBytesField(pair, pairFieldKey, []byte(it.Value))
		pair = appendVarintField(pair, pairFieldValue, uint64(it.Count))
		b = appendBytesField(b, fieldFreqItem, pair)
	}

	return b, nil
}

// Decode reconstructs a sketch from the bytes MarshalBinary produced.
// Unknown fields are skipped so older readers tolerate newer payloads.
func Decode(b []byte) (*Standard, error) {
	var (
		cfg       = DefaultConfig()
		sawConfig bool

		count, nulls, mismatches int64
		leadingZeros             bool
		types                    = make(map[ValueType]int64)
		stats                    moments
		hllBytes, ddBytes        []byte
		items                    []ItemCount
	)

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == fieldConfig && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]

			c, err := decodeConfig(v)
			if err != nil {
				return nil, err
			}
			cfg = c
			sawConfig = true

		case num == fieldCount && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
			count = int64(v)

		case num == fieldNulls && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
			nulls = int64(v)

		case num == fieldMismatches && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
			mismatches = int64(v)

		case num == fieldLeadingZeros && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
			leadingZeros = v != 0

		case num == fieldTypeCount && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]

			k, c, err := decodeVarintPair(v)
			if err != nil {
				return nil, err
			}
			types[ValueType(k)] = int64(c)

		case num == fieldMoments && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]

			m, err := decodeMoments(v)
			if err != nil {
				return nil, err
			}
			stats = m

		case num == fieldHLL && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
			hllBytes = v

		case num == fieldQuantiles && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
			ddBytes = v

		case num == fieldFreqItem && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]

			it, err := decodeFreqItem(v)
			if err != nil {
				return nil, err
			}
			items = append(items, it)

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}

	if !sawConfig {
		return nil, fmt.Errorf("sketch payload missing configuration")
	}

	s, err := New(cfg)
	if err != nil {
		return nil, err
	}

	s.count = count
	s.nulls = nulls
	s.mismatches = mismatches
	s.leadingZeros = leadingZeros
	s.types = types
	s.stats = stats

	if len(hllBytes) > 0 {
		if err := s.distinct.UnmarshalBinary(hllBytes); err != nil {
			return nil, fmt.Errorf("decode distinct sketch: %w", err)
		}
	}

	if len(ddBytes) > 0 {
		dd, err := decodeDD(ddBytes)
		if err != nil {
			return nil, fmt.Errorf("decode quantile sketch: %w", err)
		}
		s.quants = dd
	}

	for _, it := range items {
		s.items.Add(it.Value, it.Count)
	}

	return s, nil
}

func decodeConfig(b []byte) (Config, error) {
	var c Config

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return c, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == cfgFieldHLLPrecision && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return c, protowire.ParseError(n)
			}
			b = b[n:]
			c.HLLPrecision = int(v)

		case num == cfgFieldAccuracy && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return c, protowire.ParseError(n)
			}
			b = b[n:]
			c.QuantileAccuracy = math.Float64frombits(v)

		case num == cfgFieldFreqItems && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return c, protowire.ParseError(n)
			}
			b = b[n:]
			c.FrequentItems = int(v)

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return c, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}

	return c, nil
}

func decodeMoments(b []byte) (moments, error) {
	var m moments

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return m, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == momFieldN && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			b = b[n:]
			m.N = int64(v)

		case typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			b = b[n:]

			f := math.Float64frombits(v)
			switch num {
			case momFieldSum:
				m.Sum = f
			case momFieldMin:
				m.Min = f
			case momFieldMax:
				m.Max = f
			case momFieldMean:
				m.Mean = f
			case momFieldM2:
				m.M2 = f
			}

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}

	return m, nil
}

func decodeVarintPair(b []byte) (uint64, uint64, error) {
	var k, v uint64

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return 0, 0, protowire.ParseError(n)
		}
		b = b[n:]

		if typ != protowire.VarintType {
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return 0, 0, protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}

		x, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return 0, 0, protowire.ParseError(n)
		}
		b = b[n:]

		switch num {
		case pairFieldKey:
			k = x
		case pairFieldValue:
			v = x
		}
	}

	return k, v, nil
}

func decodeFreqItem(b []byte) (ItemCount, error) {
	var it ItemCount

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return it, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == pairFieldKey && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return it, protowire.ParseError(n)
			}
			b = b[n:]
			it.Value = string(v)

		case num == pairFieldValue && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return it, protowire.ParseError(n)
			}
			b = b[n:]
			it.Count = int64(v)

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return it, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}

	return it, nil
}
