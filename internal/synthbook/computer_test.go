package synthbook

import (
	"errors"
	"testing"
	"time"

	"spread-sniper-lab/internal/domain"
)

func twoLegDef() domain.SpreadDefinition {
	return domain.SpreadDefinition{
		Symbol: "AA:BB",
		Legs: []domain.LegDefinition{
			{ContractSymbol: "AA", QuantityRatio: 1, IsOutright: true},
			{ContractSymbol: "BB", QuantityRatio: -1, IsOutright: true},
		},
	}
}

func makeLeg(seq int64, bid float64, bidQty int64, ask float64, askQty int64) domain.LegBook {
	return domain.LegBook{SequenceID: seq, BidPrice: bid, BidQty: bidQty, AskPrice: ask, AskQty: askQty}
}

func missingLeg() domain.LegBook {
	return domain.LegBook{SequenceID: -1, BidPrice: domain.MissingPrice(), AskPrice: domain.MissingPrice()}
}

func TestCompute_SignInversion(t *testing.T) {
	// Buy AA at 100/101, sell BB at 50/51:
	// synthetic bid = AA bid - BB ask = 100 - 51 = 49
	// synthetic ask = AA ask - BB bid = 101 - 50 = 51
	rows := []domain.AlignedBookRow{{
		SequenceID: 10,
		Timestamp:  1000,
		Legs: []domain.LegBook{
			makeLeg(10, 100.0, 5, 101.0, 7),
			makeLeg(10, 50.0, 3, 51.0, 2),
		},
	}}

	out, err := Compute(rows, twoLegDef(), nil)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	r := out[0]
	if r.BidPrice != 49.0 {
		t.Errorf("expected synthetic bid 49, got %f", r.BidPrice)
	}
	if r.AskPrice != 51.0 {
		t.Errorf("expected synthetic ask 51, got %f", r.AskPrice)
	}
	// Bid qty = min(AA bid qty 5, BB ask qty 2); ask qty = min(AA ask 7, BB bid 3)
	if r.BidQty != 2 {
		t.Errorf("expected bid qty 2, got %d", r.BidQty)
	}
	if r.AskQty != 3 {
		t.Errorf("expected ask qty 3, got %d", r.AskQty)
	}
	// edge = max(49, -51) = 49
	if r.Edge != 49.0 {
		t.Errorf("expected edge 49, got %f", r.Edge)
	}
}

func TestCompute_NegativeAskDrivesEdge(t *testing.T) {
	// Locked book where selling the synthetic earns: ask below zero
	rows := []domain.AlignedBookRow{{
		SequenceID: 10,
		Timestamp:  1000,
		Legs: []domain.LegBook{
			makeLeg(10, 49.0, 5, 49.5, 7),
			makeLeg(10, 50.0, 3, 50.5, 2),
		},
	}}
	// bid = 49 - 50.5 = -1.5, ask = 49.5 - 50 = -0.5
	// edge = max(-1.5, 0.5) = 0.5: the ask side is the opportunity
	out, err := Compute(rows, twoLegDef(), nil)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if out[0].Edge != 0.5 {
		t.Errorf("expected edge 0.5, got %f", out[0].Edge)
	}
}

func TestCompute_MissingLegPropagates(t *testing.T) {
	rows := []domain.AlignedBookRow{{
		SequenceID: 10,
		Timestamp:  1000,
		Legs: []domain.LegBook{
			makeLeg(10, 100.0, 5, 101.0, 7),
			missingLeg(),
		},
	}}

	out, err := Compute(rows, twoLegDef(), nil)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	r := out[0]
	if !domain.IsPriceMissing(r.BidPrice) || !domain.IsPriceMissing(r.AskPrice) {
		t.Errorf("expected missing synthetic prices, got %f/%f", r.BidPrice, r.AskPrice)
	}
	if r.BidQty != 0 || r.AskQty != 0 {
		t.Errorf("missing side must carry zero qty, got %d/%d", r.BidQty, r.AskQty)
	}
	if !domain.IsPriceMissing(r.Edge) {
		t.Errorf("expected missing edge, got %f", r.Edge)
	}
}

func TestCompute_OneSideMissing(t *testing.T) {
	// BB has no ask: only the synthetic bid is affected
	rows := []domain.AlignedBookRow{{
		SequenceID: 10,
		Timestamp:  1000,
		Legs: []domain.LegBook{
			makeLeg(10, 100.0, 5, 101.0, 7),
			{SequenceID: 10, BidPrice: 50.0, BidQty: 3, AskPrice: domain.MissingPrice(), AskQty: 0},
		},
	}}

	out, err := Compute(rows, twoLegDef(), nil)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	r := out[0]
	if !domain.IsPriceMissing(r.BidPrice) {
		t.Errorf("expected missing synthetic bid, got %f", r.BidPrice)
	}
	if r.AskPrice != 51.0 || r.AskQty != 3 {
		t.Errorf("expected ask 51 qty 3, got %f/%d", r.AskPrice, r.AskQty)
	}
	if !domain.IsPriceMissing(r.Edge) {
		t.Errorf("edge needs both sides, got %f", r.Edge)
	}
}

func TestCompute_LegCountMismatch(t *testing.T) {
	rows := []domain.AlignedBookRow{{
		SequenceID: 10,
		Legs:       []domain.LegBook{makeLeg(10, 100.0, 5, 101.0, 7)},
	}}
	_, err := Compute(rows, twoLegDef(), nil)
	if !errors.Is(err, ErrLegCountMismatch) {
		t.Errorf("expected ErrLegCountMismatch, got %v", err)
	}
}

func TestCompute_BookDurations(t *testing.T) {
	legs := func(seq int64) []domain.LegBook {
		return []domain.LegBook{
			makeLeg(seq, 100.0, 5, 101.0, 7),
			makeLeg(seq, 50.0, 3, 51.0, 2),
		}
	}
	rows := []domain.AlignedBookRow{
		{SequenceID: 10, Timestamp: 1000, Legs: legs(10)},
		{SequenceID: 20, Timestamp: 4000, Legs: legs(20)},
		{SequenceID: 30, Timestamp: 9000, Legs: legs(30)},
	}
	events := map[int64]domain.EventInfo{
		10: {SequenceID: 10, FirstSubTime: 800, LastSubTime: 950},
	}

	out, err := Compute(rows, twoLegDef(), events)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// Seq 10 stood until seq 20's arrival at t=4000
	if out[0].BookDur != 3000*time.Nanosecond {
		t.Errorf("expected BookDur 3000ns, got %s", out[0].BookDur)
	}
	if out[0].BookDurFSN != 3200*time.Nanosecond {
		t.Errorf("expected BookDurFSN 3200ns, got %s", out[0].BookDurFSN)
	}
	if out[0].BookDurLSN != 3050*time.Nanosecond {
		t.Errorf("expected BookDurLSN 3050ns, got %s", out[0].BookDurLSN)
	}

	// No event info: sub-times fall back to the row timestamp
	if out[1].FirstSubTime != 4000 || out[1].LastSubTime != 4000 {
		t.Errorf("expected fallback sub-times 4000, got %d/%d", out[1].FirstSubTime, out[1].LastSubTime)
	}
	if out[1].BookDur != 5000*time.Nanosecond {
		t.Errorf("expected BookDur 5000ns, got %s", out[1].BookDur)
	}

	// Nothing bounds the final row
	if out[2].BookDur != 0 || out[2].BookDurFSN != 0 || out[2].BookDurLSN != 0 {
		t.Errorf("expected zero durations on the final row, got %s/%s/%s", out[2].BookDur, out[2].BookDurFSN, out[2].BookDurLSN)
	}
}
