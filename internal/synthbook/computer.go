package synthbook

import (
	"fmt"
	"math"
	"time"

	"spread-sniper-lab/internal/domain"
)

// Compute derives the synthetic top of book for every aligned row.
//
// To price the synthetic bid, view the spread as sold at the market: each
// buy leg is sold at its bid, each sell leg bought at its ask. The synthetic
// ask is the mirror image. A sell leg's negative ratio times the opposite
// side's price performs the side inversion. Quantities take the minimum over
// legs of the contributing side, since every leg must fill simultaneously.
//
// A missing contributing price makes that synthetic side missing; it is
// checked explicitly, never defaulted to zero.
//
// events supplies the feed's per-event sub-packet timing; rows with no entry
// fall back to their own timestamp. Book persistence durations (BookDur and
// its FSN/LSN variants) are filled from each row's successor; the final row
// gets zero, since nothing bounds how long its book stood.
func Compute(rows []domain.AlignedBookRow, def domain.SpreadDefinition, events map[int64]domain.EventInfo) ([]domain.SyntheticBookRow, error) {
	out := make([]domain.SyntheticBookRow, 0, len(rows))

	for _, row := range rows {
		if len(row.Legs) != len(def.Legs) {
			return nil, fmt.Errorf("seq %d: %w (%d legs vs %d)", row.SequenceID, ErrLegCountMismatch, len(row.Legs), len(def.Legs))
		}

		var (
			bid, ask               float64
			bidMissing, askMissing bool
			bidQty, askQty         int64 = math.MaxInt64, math.MaxInt64
		)

		for i, leg := range def.Legs {
			lb := row.Legs[i]
			ratio := float64(leg.QuantityRatio)

			bidPx, bidSz := lb.BidPrice, lb.BidQty
			askPx, askSz := lb.AskPrice, lb.AskQty
			if leg.QuantityRatio < 0 {
				// Sell leg: its ask backs the synthetic bid and vice versa.
				bidPx, bidSz, askPx, askSz = askPx, askSz, bidPx, bidSz
			}

			if domain.IsPriceMissing(bidPx) {
				bidMissing = true
			} else {
				bid += ratio * bidPx
				if bidSz < bidQty {
					bidQty = bidSz
				}
			}
			if domain.IsPriceMissing(askPx) {
				askMissing = true
			} else {
				ask += ratio * askPx
				if askSz < askQty {
					askQty = askSz
				}
			}
		}

		if bidMissing {
			bid, bidQty = domain.MissingPrice(), 0
		}
		if askMissing {
			ask, askQty = domain.MissingPrice(), 0
		}

		edge := domain.MissingPrice()
		if !bidMissing && !askMissing {
			edge = math.Max(bid, -ask)
		}

		fs, ls := row.Timestamp, row.Timestamp
		if info, ok := events[row.SequenceID]; ok {
			fs, ls = info.FirstSubTime, info.LastSubTime
		}

		out = append(out, domain.SyntheticBookRow{
			SequenceID:   row.SequenceID,
			Timestamp:    row.Timestamp,
			FirstSubTime: fs,
			LastSubTime:  ls,
			BidPrice:     bid,
			BidQty:       bidQty,
			AskPrice:     ask,
			AskQty:       askQty,
			Edge:         edge,
		})
	}

	fillBookDurations(out)
	return out, nil
}

func fillBookDurations(rows []domain.SyntheticBookRow) {
	for i := 0; i+1 < len(rows); i++ {
		next := rows[i+1].Timestamp
		rows[i].BookDur = time.Duration(next - rows[i].Timestamp)
		rows[i].BookDurFSN = time.Duration(next - rows[i].FirstSubTime)
		rows[i].BookDurLSN = time.Duration(next - rows[i].LastSubTime)
	}
}
