package tableprof

import (
	"fmt"
	"os"

	"github.com/golang/snappy"

	"github.com/studioevoque/tableprof/profile"
	"github.com/studioevoque/tableprof/profile/wire"
)

// Save writes a profile to disk: the wire encoding framed with snappy
// so shipped profiles stay small.
func Save(path string, p *profile.DatasetProfile) error {
	b, err := wire.Encode(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	return os.WriteFile(path, snappy.Encode(nil, b), 0o644)
}

// Load reads a profile written by Save.
func Load(path string) (*profile.DatasetProfile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	b, err := snappy.Decode(nil, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", wire.ErrMalformedProfile, err)
	}

	return wire.Decode(b)
}
