package clean

import (
	"math"
	"sort"
)

// Median returns the middle of the sorted sample, averaging the two middle
// values for even counts. ok is false for an empty sample.
func Median(vals []float64) (median float64, ok bool) {
	if len(vals) == 0 {
		return 0, false
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return quantile(cp, 0.5), true
}

// quantile interpolates linearly between closest ranks of a sorted sample.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// CategoryCount is a value with its frequency.
type CategoryCount struct {
	Value string
	Count int
}

// Counts tallies values ordered by count desc, then value asc.
func Counts(vals []string) []CategoryCount {
	m := make(map[string]int)
	for _, v := range vals {
		m[v]++
	}
	out := make([]CategoryCount, 0, len(m))
	for k, v := range m {
		out = append(out, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Value < out[j].Value
		}
		return out[i].Count > out[j].Count
	})
	return out
}

// Mode returns the most frequent value. Ties go to the smallest value in byte
// order so repeated runs agree.
func Mode(vals []string) (string, bool) {
	c := Counts(vals)
	if len(c) == 0 {
		return "", false
	}
	return c[0].Value, true
}
