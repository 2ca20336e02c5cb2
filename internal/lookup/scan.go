package lookup

import (
	"errors"
	"sort"
	"time"

	"spread-sniper-lab/internal/domain"
)

// Errors returned by lookup functions.
var (
	ErrNoBookData = errors.New("no synthetic book data available")
	ErrNoAnchor   = errors.New("no row at or before the requested sequence id")
)

// AnchorIndex returns the index of the row with the greatest sequence id not
// exceeding target. Rows must be sorted by sequence id ASC.
// Returns ErrNoBookData on an empty slice and ErrNoAnchor when every row's
// sequence id exceeds target.
func AnchorIndex(rows []domain.SyntheticBookRow, target int64) (int, error) {
	if len(rows) == 0 {
		return 0, ErrNoBookData
	}

	// First index with sequence id > target; the anchor sits just before it.
	idx := sort.Search(len(rows), func(i int) bool {
		return rows[i].SequenceID > target
	})
	if idx == 0 {
		return 0, ErrNoAnchor
	}
	return idx - 1, nil
}

// FirstThruAtOrAfter returns the first index i >= from whose elapsed-through
// duration (selected by dur) is at least target, clamped to the final row
// when no row qualifies. The selected durations must be non-decreasing from
// the given offset, which holds for every OppDurThru variant by construction.
func FirstThruAtOrAfter(rows []domain.OpportunityRow, from int, target time.Duration, dur func(domain.OpportunityRow) time.Duration) int {
	idx := from + sort.Search(len(rows)-from, func(i int) bool {
		return dur(rows[from+i]) >= target
	})
	if idx == len(rows) {
		idx--
	}
	return idx
}

// ClampIndex bounds idx into [lo, hi].
func ClampIndex(idx, lo, hi int) int {
	if idx < lo {
		return lo
	}
	if idx > hi {
		return hi
	}
	return idx
}

// BucketIndex returns the index of the largest boundary not exceeding value,
// clamped into [0, len(boundaries)-1]. Boundaries must be sorted ASC and
// non-empty.
func BucketIndex(boundaries []float64, value float64) int {
	// First boundary strictly greater than value.
	idx := sort.SearchFloat64s(boundaries, value)
	if idx < len(boundaries) && boundaries[idx] == value {
		return idx
	}
	return ClampIndex(idx-1, 0, len(boundaries)-1)
}
