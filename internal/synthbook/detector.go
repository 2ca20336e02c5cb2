package synthbook

import "spread-sniper-lab/internal/domain"

// DetectStarts scans a synthetic book series for opportunity openings: rows
// where the edge crosses from non-positive (or missing) to positive. A
// series that begins already positive opens at its first row: the boundary
// counts as a transition from not-positive.
//
// tol is an absolute tolerance replacing the strict zero comparator, to keep
// floating-point noise from opening spurious windows. Zero keeps the strict
// comparison.
//
// The scan is stateless; the same input always yields the same start set.
// Returned ids are ordered and deduplicated (sequence ids are unique within
// a series).
func DetectStarts(rows []domain.SyntheticBookRow, tol float64) []int64 {
	var starts []int64
	prevPositive := false
	for _, r := range rows {
		positive := r.EdgePositive(tol)
		if positive && !prevPositive {
			starts = append(starts, r.SequenceID)
		}
		prevPositive = positive
	}
	return starts
}
