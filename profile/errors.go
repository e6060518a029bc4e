package profile

import "errors"

var (
	// ErrSchemaMismatch is returned when two profiles with differing
	// feature-name sets are merged. No partial or union merge is
	// attempted: the result would misrepresent coverage.
	ErrSchemaMismatch = errors.New("profile schema mismatch")

	// ErrFeatureNameMismatch is returned when two feature profiles
	// with different names are merged.
	ErrFeatureNameMismatch = errors.New("feature name mismatch")

	// ErrFinalized is returned when a batch is ingested into a
	// builder whose profile has already been finalized.
	ErrFinalized = errors.New("profile already finalized")
)
