package synthbook

import "errors"

// Errors surfaced while building synthetic book series.
var (
	// ErrMissingData is returned when a requested leg has zero observations
	// for the requested date. The orchestrator catches it per date and
	// records the date as skipped.
	ErrMissingData = errors.New("no book data for leg")

	// ErrInconsistentQuantity is returned when a book side's price and
	// quantity disagree about being missing. Computing a synthetic price
	// from such a row would silently be wrong, so it fails loudly instead.
	ErrInconsistentQuantity = errors.New("price and quantity disagree about missing side")

	// ErrLegCountMismatch is returned when an aligned row's leg count does
	// not match the spread definition it is priced against.
	ErrLegCountMismatch = errors.New("aligned row leg count does not match spread definition")
)
