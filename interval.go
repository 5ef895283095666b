package varigen

import "sort"

// intervalSet holds the accepted half-open intervals for one chromosome,
// kept sorted by start in a pair of flat slices. Intervals never overlap,
// so the end slice is sorted too and overlap queries are a binary search.
type intervalSet struct {
	starts []int
	ends   []int
}

// Overlaps reports whether [start,end) intersects any accepted interval.
func (s *intervalSet) Overlaps(start, end int) bool {
	// First interval that ends after our start; it is the only candidate.
	i := sort.SearchInts(s.ends, start+1)
	return i < len(s.starts) && s.starts[i] < end
}

// Insert adds [start,end). The caller must have checked Overlaps first.
func (s *intervalSet) Insert(start, end int) {
	i := sort.SearchInts(s.starts, start)
	s.starts = append(s.starts, 0)
	copy(s.starts[i+1:], s.starts[i:])
	s.starts[i] = start
	s.ends = append(s.ends, 0)
	copy(s.ends[i+1:], s.ends[i:])
	s.ends[i] = end
}

func (s *intervalSet) Len() int { return len(s.starts) }
