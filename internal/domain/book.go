package domain

import (
	"math"
	"time"
)

// MissingPrice is the sentinel for an empty book side. Zero-quantity sides
// are normalized to this sentinel before alignment; downstream synthetic
// price math must propagate it, never substitute zero.
func MissingPrice() float64 {
	return math.NaN()
}

// IsPriceMissing reports whether a price carries the missing sentinel.
func IsPriceMissing(p float64) bool {
	return math.IsNaN(p)
}

// BookObservation is one leg's top-of-book state at one raw sequence id.
// Sequence ids come from a single global counter shared by every security
// on the channel; each observation advances exactly one leg.
type BookObservation struct {
	SequenceID int64   // global event id on the channel
	Timestamp  int64   // exchange transact time, Unix nanoseconds
	SecurityID int64   // security the update belongs to
	BidPrice   float64 // MissingPrice() when the bid side is empty
	BidQty     int64   // 0 when the bid side is empty
	AskPrice   float64 // MissingPrice() when the ask side is empty
	AskQty     int64   // 0 when the ask side is empty
}

// EventInfo carries the feed event's sub-packet timing. A single event id can
// span several wire packets; FirstSubTime/LastSubTime bound when the update
// started and finished hitting the wire.
type EventInfo struct {
	SequenceID   int64
	FirstSubTime int64 // Unix nanoseconds
	LastSubTime  int64 // Unix nanoseconds
}

// LegBook is one leg's forward-filled state inside an aligned row.
// SequenceID is the id of the most recent true observation for the leg,
// or -1 before the leg's first observation.
type LegBook struct {
	SequenceID int64
	BidPrice   float64
	BidQty     int64
	AskPrice   float64
	AskQty     int64
}

// Missing reports whether the leg has no observation yet on either side.
func (l LegBook) Missing() bool {
	return l.SequenceID < 0
}

// AlignedBookRow is one row of the merged per-spread timeline: the state of
// every leg as of SequenceID. Timestamps are non-decreasing across rows.
type AlignedBookRow struct {
	SequenceID int64
	Timestamp  int64
	Legs       []LegBook
}

// SyntheticBookRow is an aligned row plus the derived synthetic top of book.
// BidQty/AskQty are the minimum over legs of the contributing side's
// quantity (worst-case simultaneous fill size).
type SyntheticBookRow struct {
	SequenceID   int64
	Timestamp    int64
	FirstSubTime int64 // from EventInfo; Timestamp when no event info exists
	LastSubTime  int64

	BidPrice float64 // MissingPrice() if any contributing leg side is missing
	BidQty   int64
	AskPrice float64
	AskQty   int64

	// Edge is max(BidPrice, -AskPrice): the profit per unit available at the
	// top of the synthetic book. Missing when either side is missing.
	Edge float64

	// BookDur is how long this book state persisted (next row's Timestamp
	// minus this row's). The FSN/LSN variants measure from this row's
	// first/last sub-event time instead. Zero on the final row, where no
	// subsequent update bounds the persistence.
	BookDur    time.Duration
	BookDurFSN time.Duration
	BookDurLSN time.Duration
}

// EdgePositive reports whether the row's edge exceeds tol. A missing edge is
// never positive.
func (r SyntheticBookRow) EdgePositive(tol float64) bool {
	return !IsPriceMissing(r.Edge) && r.Edge > tol
}
