package sketch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFreqTrackerExactWithinCapacity(t *testing.T) {
	f := newFreqTracker(4)

	f.Add("a", 3)
	f.Add("b", 1)
	f.Add("a", 2)

	items := f.Items()
	assert.Equal(t, []ItemCount{{"a", 5}, {"b", 1}}, items)
}

func TestFreqTrackerEviction(t *testing.T) {
	f := newFreqTracker(2)

	f.Add("a", 10)
	f.Add("b", 1)
	// Full: c evicts the least frequent entry and inherits its count.
	f.Add("c", 1)

	items := f.Items()
	assert.Len(t, items, 2)
	assert.Equal(t, ItemCount{"a", 10}, items[0])
	assert.Equal(t, ItemCount{"c", 2}, items[1])
}

func TestFreqTrackerMerge(t *testing.T) {
	a := newFreqTracker(4)
	b := newFreqTracker(4)

	a.Add("x", 5)
	a.Add("y", 2)
	b.Add("x", 1)
	b.Add("z", 3)

	a.Merge(b)

	assert.Equal(t, []ItemCount{{"x", 6}, {"z", 3}, {"y", 2}}, a.Items())
}
