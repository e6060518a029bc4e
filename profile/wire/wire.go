// Package wire encodes dataset profiles into a stable, additive-only
// binary format for persistence and transmission between profiling
// workers and an aggregation coordinator.
//
// Field numbers are fixed forever: new fields take unused tags, no tag
// is ever reused or renumbered, and absent fields decode to their zero
// values. Unknown tags are skipped so an older reader tolerates a newer
// writer.
package wire

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/studioevoque/tableprof/profile"
	"github.com/studioevoque/tableprof/profile/sketch"
)

// ErrMalformedProfile is returned when profile bytes are truncated or
// tag-inconsistent. Decoding the same bytes again cannot succeed, so
// the error is surfaced and never retried here.
var ErrMalformedProfile = errors.New("malformed profile")

// DatasetProfile wire schema.
const (
	fieldTimestamp   = 1
	fieldNumExamples = 2
	fieldSizeBytes   = 3
	fieldSessionID   = 4
	fieldFeatures    = 20
)

// FeatureProfile wire schema.
const (
	fieldSketch = 1
)

// Map-entry tags, per the protobuf map encoding.
const (
	entryKey   = 1
	entryValue = 2
)

// Encode serializes a dataset profile. Features are written in sorted
// name order so equal profiles encode to equal bytes.
func Encode(p *profile.DatasetProfile) ([]byte, error) {
	var b []byte

	b = protowire.AppendTag(b, fieldTimestamp, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Timestamp))

	b = protowire.AppendTag(b, fieldNumExamples, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.NumExamples))

	b = protowire.AppendTag(b, fieldSizeBytes, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.SizeBytes))

	if p.SessionID != "" {
		b = protowire.AppendTag(b, fieldSessionID, protowire.BytesType)
		b = protowire.AppendString(b, p.SessionID)
	}

	for _, name := range p.FeatureNames() {
		payload, err := p.Features[name].Sketch.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("encode feature %q: %w", name, err)
		}

		var fp []byte
		fp = protowire.AppendTag(fp, fieldSketch, protowire.BytesType)
		fp = protowire.AppendBytes(fp, payload)

		var entry []byte
		entry = protowire.AppendTag(entry, entryKey, protowire.BytesType)
		entry = protowire.AppendString(entry, name)
		entry = protowire.AppendTag(entry, entryValue, protowire.BytesType)
		entry = protowire.AppendBytes(entry, fp)

		b = protowire.AppendTag(b, fieldFeatures, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}

	return b, nil
}

// Decode reconstructs a dataset profile from its wire form. Fails with
// ErrMalformedProfile on truncated or tag-inconsistent input; on
// failure no partially constructed profile is returned.
func Decode(b []byte) (*profile.DatasetProfile, error) {
	p := profile.New("", 0)

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, malformed("tag", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldTimestamp && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, malformed("timestamp", protowire.ParseError(n))
			}
			b = b[n:]
			p.Timestamp = int64(v)

		case num == fieldNumExamples && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, malformed("num examples", protowire.ParseError(n))
			}
			b = b[n:]
			p.NumExamples = int64(v)

		case num == fieldSizeBytes && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, malformed("size bytes", protowire.ParseError(n))
			}
			b = b[n:]
			p.SizeBytes = int64(v)

		case num == fieldSessionID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return nil, malformed("session id", protowire.ParseError(n))
			}
			b = b[n:]
			p.SessionID = v

		case num == fieldFeatures && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, malformed("feature entry", protowire.ParseError(n))
			}
			b = b[n:]

			f, err := decodeFeatureEntry(v)
			if err != nil {
				return nil, err
			}
			p.Features[f.Name] = f

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, malformed("field", protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	return p, nil
}

func decodeFeatureEntry(b []byte) (*profile.FeatureProfile, error) {
	var (
		name      string
		payload   []byte
		sawSketch bool
	)

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, malformed("feature tag", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == entryKey && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return nil, malformed("feature name", protowire.ParseError(n))
			}
			b = b[n:]
			name = v

		case num == entryValue && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, malformed("feature profile", protowire.ParseError(n))
			}
			b = b[n:]

			p, ok, err := decodeFeatureProfile(v)
			if err != nil {
				return nil, err
			}
			payload = p
			sawSketch = ok

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, malformed("feature field", protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	if name == "" || !sawSketch {
		return nil, malformed("feature entry", errors.New("missing name or sketch"))
	}

	s, err := sketch.Decode(payload)
	if err != nil {
		return nil, malformed(fmt.Sprintf("feature %q sketch", name), err)
	}

	return &profile.FeatureProfile{Name: name, Sketch: s}, nil
}

func decodeFeatureProfile(b []byte) ([]byte, bool, error) {
	var (
		payload []byte
		found   bool
	)

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, false, malformed("sketch tag", protowire.ParseError(n))
		}
		b = b[n:]

		if num == fieldSketch && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, false, malformed("sketch payload", protowire.ParseError(n))
			}
			b = b[n:]

			payload = v
			found = true
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return nil, false, malformed("sketch field", protowire.ParseError(n))
		}
		b = b[n:]
	}

	return payload, found, nil
}

func malformed(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformedProfile, what, err)
}
