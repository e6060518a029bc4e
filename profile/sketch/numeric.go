package sketch

import "math"

// moments tracks mergeable summary statistics over numeric values.
// Mean and variance combine with the parallel (Chan et al.) update so
// that merging partial trackers matches a single pass over the union.
type moments struct {
	N    int64
	Sum  float64
	Min  float64
	Max  float64
	Mean float64
	M2   float64
}

func (m *moments) Add(v float64) {
	if m.N == 0 {
		m.Min = v
		m.Max = v
	} else {
		if v < m.Min {
			m.Min = v
		}
		if v > m.Max {
			m.Max = v
		}
	}

	m.N++
	m.Sum += v

	delta := v - m.Mean
	m.Mean += delta / float64(m.N)
	m.M2 += delta * (v - m.Mean)
}

func (m *moments) Merge(o moments) {
	if o.N == 0 {
		return
	}

	if m.N == 0 {
		*m = o
		return
	}

	if o.Min < m.Min {
		m.Min = o.Min
	}
	if o.Max > m.Max {
		m.Max = o.Max
	}

	n := m.N + o.N
	delta := o.Mean - m.Mean

	m.M2 += o.M2 + delta*delta*float64(m.N)*float64(o.N)/float64(n)
	m.Mean += delta * float64(o.N) / float64(n)
	m.Sum += o.Sum
	m.N = n
}

// StdDev returns the sample standard deviation.
func (m *moments) StdDev() float64 {
	if m.N < 2 {
		return 0
	}

	return math.Sqrt(m.M2 / float64(m.N-1))
}
