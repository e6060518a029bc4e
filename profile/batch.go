package profile

import "time"

// Batch is one structured slice of a dataset: a column-oriented view of
// a group of rows.
type Batch struct {
	// NumRows is the number of rows the batch covers.
	NumRows int

	// Columns maps column name to the values of that column, one per
	// row. A nil value is a null cell.
	Columns map[string][]any
}

// EstimateSize returns the estimated in-memory byte footprint of the
// batch. The estimate depends only on the values themselves, so any
// partitioning of the same rows sums to the same total.
func (b Batch) EstimateSize() int64 {
	var size int64

	for _, values := range b.Columns {
		for _, v := range values {
			size += valueSize(v)
		}
	}

	return size
}

func valueSize(v any) int64 {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case string:
		return int64(len(x))
	case []byte:
		return int64(len(x))
	case time.Time:
		return 8
	default:
		// Numerics and anything else machine-word sized.
		return 8
	}
}
