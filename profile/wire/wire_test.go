package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/studioevoque/tableprof/profile"
)

func sampleProfile(t *testing.T) *profile.DatasetProfile {
	t.Helper()

	b, err := profile.NewBuilder(&profile.Config{SessionID: "session-1"})
	require.NoError(t, err)

	require.NoError(t, b.IngestBatch(profile.Batch{
		NumRows: 3,
		Columns: map[string][]any{
			"age":  {int64(5), nil, int64(7)},
			"city": {"x", "y", "x"},
		},
	}))

	return b.Profile()
}

func TestRoundTrip(t *testing.T) {
	p := sampleProfile(t)

	b, err := Encode(p)
	require.NoError(t, err)

	d, err := Decode(b)
	require.NoError(t, err)

	assert.Equal(t, p.Timestamp, d.Timestamp)
	assert.Equal(t, p.NumExamples, d.NumExamples)
	assert.Equal(t, p.SizeBytes, d.SizeBytes)
	assert.Equal(t, p.SessionID, d.SessionID)
	assert.Equal(t, p.FeatureNames(), d.FeatureNames())

	for name, f := range p.Features {
		assert.Equal(t, f.Sketch.Snapshot(), d.Features[name].Sketch.Snapshot(), name)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	p := sampleProfile(t)

	b1, err := Encode(p)
	require.NoError(t, err)
	b2, err := Encode(p)
	require.NoError(t, err)

	assert.Equal(t, b1, b2)
}

func TestDecodedProfileStillMerges(t *testing.T) {
	p := sampleProfile(t)

	b, err := Encode(p)
	require.NoError(t, err)
	d, err := Decode(b)
	require.NoError(t, err)

	m, err := p.Merge(d)
	require.NoError(t, err)
	assert.Equal(t, int64(6), m.NumExamples)
}

func TestDecodeTruncated(t *testing.T) {
	p := sampleProfile(t)

	b, err := Encode(p)
	require.NoError(t, err)

	// Cuts chosen to land mid-field: inside the timestamp varint and
	// inside the final feature entry.
	for _, cut := range []int{1, 5, len(b) - 1} {
		_, err := Decode(b[:cut])
		assert.ErrorIs(t, err, ErrMalformedProfile, "cut at %d", cut)
	}
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte{0xff, 0xff, 0xff, 0xff})
	assert.ErrorIs(t, err, ErrMalformedProfile)
}

func TestDecodeSkipsUnknownFields(t *testing.T) {
	p := sampleProfile(t)

	b, err := Encode(p)
	require.NoError(t, err)

	// A future writer adds field 7; an old reader must skip it.
	b = protowire.AppendTag(b, 7, protowire.VarintType)
	b = protowire.AppendVarint(b, 12345)

	d, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, p.NumExamples, d.NumExamples)
	assert.Equal(t, p.FeatureNames(), d.FeatureNames())
}

func TestDecodeEmptyInput(t *testing.T) {
	d, err := Decode(nil)
	require.NoError(t, err)

	assert.Equal(t, int64(0), d.NumExamples)
	assert.Empty(t, d.Features)
}
