package domain

import "time"

// OpportunityKey identifies one opportunity: the (date, symbol) partition it
// belongs to plus the sequence id where the edge first turned positive.
type OpportunityKey struct {
	MarketDate      string // "YYYY-MM-DD"
	Symbol          string // synthetic spread symbol
	StartSequenceID int64
}

// OpportunityRow is one synthetic book row inside an opportunity window,
// annotated with elapsed opportunity time in several clock bases.
type OpportunityRow struct {
	SyntheticBookRow

	// OppDur is elapsed time since the opportunity's anchor row. The FSN/LSN
	// variants measure from the anchor event's first/last sub-event time, so
	// latency assumptions can be anchored to when the triggering update
	// started or finished hitting the wire.
	OppDur    time.Duration
	OppDurFSN time.Duration
	OppDurLSN time.Duration

	// OppDurThru extends OppDur through the next book change: how far into
	// the opportunity this quote was still standing.
	OppDurThru    time.Duration
	OppDurThruFSN time.Duration
	OppDurThruLSN time.Duration

	Side Side
}

// Opportunity owns the contiguous window of annotated rows from its anchor
// up to the configured lookahead bound. Rows are sorted by sequence id and
// never mutated after the window is built.
type Opportunity struct {
	Key  OpportunityKey
	Rows []OpportunityRow
}

// Anchor returns the first row of the window. The anchor row is always
// present by construction.
func (o Opportunity) Anchor() OpportunityRow {
	return o.Rows[0]
}

// OpportunityEvent is one raw opportunity record from the capture run: the
// material from which opportunities and their P&L are reconstructed.
type OpportunityEvent struct {
	MarketDate string
	Symbol     string
	EventID    int64

	RunID      uint32
	OppID      uint32
	Side       string
	EntryPnL   float64
	EntryQty   uint32
	EntryTicks int
	IsDirect   bool
	HasFutures bool

	Timestamp int64         // Unix nanoseconds
	FSNWin    time.Duration // window measured from first sub-event
	LSNWin    time.Duration // window measured from last sub-event
}
