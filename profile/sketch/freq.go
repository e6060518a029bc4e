package sketch

import "sort"

// ItemCount is one entry of a frequent-items summary.
type ItemCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// freqTracker keeps approximate counts for the most frequent values using
// the space-saving scheme: when the tracker is full, the least frequent
// entry is evicted and the newcomer inherits its count. Counts are upper
// bounds, exact while the tracker has capacity to spare.
type freqTracker struct {
	cap    int
	counts map[string]int64
}

func newFreqTracker(capacity int) *freqTracker {
	return &freqTracker{
		cap:    capacity,
		counts: make(map[string]int64),
	}
}

func (t *freqTracker) Add(v string, n int64) {
	if c, ok := t.counts[v]; ok {
		t.counts[v] = c + n
		return
	}

	if len(t.counts) < t.cap {
		t.counts[v] = n
		return
	}

	var (
		minVal   string
		minCount int64
		first    = true
	)

	for k, c := range t.counts {
		if first || c < minCount || (c == minCount && k < minVal) {
			minVal = k
			minCount = c
			first = false
		}
	}

	delete(t.counts, minVal)
	t.counts[v] = minCount + n
}

func (t *freqTracker) Merge(o *freqTracker) {
	// Feed larger counts first so eviction order stays deterministic.
	for _, it := range o.Items() {
		t.Add(it.Value, it.Count)
	}
}

// Items returns the tracked values ordered by descending count, ties
// broken by value.
func (t *freqTracker) Items() []ItemCount {
	items := make([]ItemCount, 0, len(t.counts))

	for v, c := range t.counts {
		items = append(items, ItemCount{Value: v, Count: c})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Value < items[j].Value
	})

	return items
}
