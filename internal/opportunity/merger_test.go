package opportunity

import (
	"errors"
	"testing"
	"time"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/lookup"
)

// Helper to build a book row with explicit timing. Sub-packet times default
// to the transact time unless overridden.
func makeBookRow(seq, ts int64, edge float64, bookDur time.Duration) domain.SyntheticBookRow {
	return domain.SyntheticBookRow{
		SequenceID:   seq,
		Timestamp:    ts,
		FirstSubTime: ts,
		LastSubTime:  ts,
		BidPrice:     edge, // positive bid drives a sell-side classification
		BidQty:       1,
		AskPrice:     edge + 1,
		AskQty:       1,
		Edge:         edge,
		BookDur:      bookDur,
		BookDurFSN:   bookDur,
		BookDurLSN:   bookDur,
	}
}

func TestMergeWindow_SlicesByDelay(t *testing.T) {
	m := NewMerger(MergeConfig{Delay: 3 * time.Microsecond})
	rows := []domain.SyntheticBookRow{
		makeBookRow(10, 1000, 0.5, 2000*time.Nanosecond),
		makeBookRow(20, 3000, 0.4, 1000*time.Nanosecond),
		makeBookRow(30, 4000, 0.3, 2000*time.Nanosecond),
		makeBookRow(40, 6000, 0.2, 0), // past anchorTime+3000ns
	}

	opp, err := m.MergeWindow(rows, domain.OpportunityKey{MarketDate: "2024-03-15", Symbol: "AB:BC", StartSequenceID: 10})
	if err != nil {
		t.Fatalf("MergeWindow: %v", err)
	}
	if len(opp.Rows) != 3 {
		t.Fatalf("expected 3 rows within the lookahead, got %d", len(opp.Rows))
	}
	if opp.Anchor().SequenceID != 10 {
		t.Errorf("expected anchor seq 10, got %d", opp.Anchor().SequenceID)
	}

	// OppDur measured from the anchor transact time
	wantDur := []time.Duration{0, 2000, 3000}
	for i, w := range wantDur {
		if opp.Rows[i].OppDur != w*time.Nanosecond {
			t.Errorf("row %d: expected OppDur %dns, got %s", i, w, opp.Rows[i].OppDur)
		}
	}
	// Thru extends through each row's book persistence
	if opp.Rows[0].OppDurThru != 2000*time.Nanosecond {
		t.Errorf("expected OppDurThru 2000ns, got %s", opp.Rows[0].OppDurThru)
	}
	if opp.Rows[2].OppDurThru != 5000*time.Nanosecond {
		t.Errorf("expected OppDurThru 5000ns, got %s", opp.Rows[2].OppDurThru)
	}
}

func TestMergeWindow_AnchorsMidBurst(t *testing.T) {
	m := NewMerger(MergeConfig{})
	rows := []domain.SyntheticBookRow{
		makeBookRow(10, 1000, 0.5, time.Microsecond),
		makeBookRow(30, 2000, 0.4, 0),
	}

	// Start id 25 has no exact row: anchor on the last row at or before it
	opp, err := m.MergeWindow(rows, domain.OpportunityKey{StartSequenceID: 25})
	if err != nil {
		t.Fatalf("MergeWindow: %v", err)
	}
	if opp.Anchor().SequenceID != 10 {
		t.Errorf("expected anchor seq 10, got %d", opp.Anchor().SequenceID)
	}
}

func TestMergeWindow_SubPacketClocks(t *testing.T) {
	m := NewMerger(MergeConfig{})
	anchor := makeBookRow(10, 1000, 0.5, time.Microsecond)
	anchor.FirstSubTime = 700 // event started hitting the wire earlier
	anchor.LastSubTime = 900
	rows := []domain.SyntheticBookRow{
		anchor,
		makeBookRow(20, 3000, 0.4, 0),
	}

	opp, err := m.MergeWindow(rows, domain.OpportunityKey{StartSequenceID: 10})
	if err != nil {
		t.Fatalf("MergeWindow: %v", err)
	}
	second := opp.Rows[1]
	if second.OppDur != 2000*time.Nanosecond {
		t.Errorf("expected OppDur 2000ns, got %s", second.OppDur)
	}
	// Measured from the anchor's sub-packet times instead
	if second.OppDurFSN != 2300*time.Nanosecond {
		t.Errorf("expected OppDurFSN 2300ns, got %s", second.OppDurFSN)
	}
	if second.OppDurLSN != 2100*time.Nanosecond {
		t.Errorf("expected OppDurLSN 2100ns, got %s", second.OppDurLSN)
	}
}

func TestMergeWindow_ThruMonotoneWithinWindow(t *testing.T) {
	m := NewMerger(MergeConfig{})
	rows := []domain.SyntheticBookRow{
		makeBookRow(10, 1000, 0.5, 3000*time.Nanosecond),
		makeBookRow(20, 4000, 0.4, 1000*time.Nanosecond),
		makeBookRow(30, 5000, 0.3, 2000*time.Nanosecond),
		makeBookRow(40, 7000, 0.3, 0),
	}
	opp, err := m.MergeWindow(rows, domain.OpportunityKey{StartSequenceID: 10})
	if err != nil {
		t.Fatalf("MergeWindow: %v", err)
	}
	for i := 1; i < len(opp.Rows); i++ {
		if opp.Rows[i].OppDurThru < opp.Rows[i-1].OppDurThru {
			t.Errorf("OppDurThru regressed at row %d: %s < %s", i, opp.Rows[i].OppDurThru, opp.Rows[i-1].OppDurThru)
		}
	}
}

func TestMergeWindow_NoAnchor(t *testing.T) {
	m := NewMerger(MergeConfig{})
	rows := []domain.SyntheticBookRow{makeBookRow(50, 1000, 0.5, 0)}
	_, err := m.MergeWindow(rows, domain.OpportunityKey{StartSequenceID: 10})
	if !errors.Is(err, lookup.ErrNoAnchor) {
		t.Errorf("expected ErrNoAnchor, got %v", err)
	}
}

func TestMergeWindow_SideClassification(t *testing.T) {
	m := NewMerger(MergeConfig{})
	rows := []domain.SyntheticBookRow{makeBookRow(10, 1000, 0.5, 0)}
	opp, err := m.MergeWindow(rows, domain.OpportunityKey{StartSequenceID: 10})
	if err != nil {
		t.Fatalf("MergeWindow: %v", err)
	}
	// Positive bid: selling the synthetic at market earns
	if opp.Anchor().Side != domain.SideSell {
		t.Errorf("expected sell side, got %s", opp.Anchor().Side)
	}
}

func TestMergeEvents_RebuildsStoredWindows(t *testing.T) {
	m := NewMerger(MergeConfig{Delay: 2 * time.Microsecond})
	rows := []domain.SyntheticBookRow{
		makeBookRow(10, 1000, 0.5, time.Microsecond),
		makeBookRow(20, 2000, 0.4, 2*time.Microsecond),
		makeBookRow(30, 4000, 0.2, 0),
	}
	events := []*domain.OpportunityEvent{
		{MarketDate: "2024-03-15", Symbol: "AB:BC", EventID: 10},
		{MarketDate: "2024-03-15", Symbol: "AB:BC", EventID: 25}, // recorded mid-burst
	}

	opps, err := m.MergeEvents(rows, events)
	if err != nil {
		t.Fatalf("MergeEvents: %v", err)
	}
	if len(opps) != 2 {
		t.Fatalf("expected one window per event, got %d", len(opps))
	}

	// Windows are keyed by the recorded event ids, in event order
	if opps[0].Key.StartSequenceID != 10 || opps[1].Key.StartSequenceID != 25 {
		t.Errorf("unexpected start ids %d/%d", opps[0].Key.StartSequenceID, opps[1].Key.StartSequenceID)
	}
	if opps[0].Key.MarketDate != "2024-03-15" || opps[0].Key.Symbol != "AB:BC" {
		t.Errorf("unexpected key %+v", opps[0].Key)
	}

	// First event anchors exactly; its window is bounded by the delay
	if opps[0].Anchor().SequenceID != 10 || len(opps[0].Rows) != 2 {
		t.Errorf("expected anchor 10 with 2 rows, got anchor %d with %d rows", opps[0].Anchor().SequenceID, len(opps[0].Rows))
	}
	// The mid-burst event id anchors on the last row at or before it
	if opps[1].Anchor().SequenceID != 20 {
		t.Errorf("expected anchor seq 20, got %d", opps[1].Anchor().SequenceID)
	}
	if len(opps[1].Rows) != 2 || opps[1].Rows[1].SequenceID != 30 {
		t.Errorf("unexpected window %+v", opps[1].Rows)
	}
}

func TestMergeEvents_BadEventID(t *testing.T) {
	m := NewMerger(MergeConfig{})
	rows := []domain.SyntheticBookRow{makeBookRow(50, 1000, 0.5, 0)}
	events := []*domain.OpportunityEvent{{MarketDate: "2024-03-15", Symbol: "AB:BC", EventID: 10}}
	if _, err := m.MergeEvents(rows, events); !errors.Is(err, lookup.ErrNoAnchor) {
		t.Errorf("expected ErrNoAnchor, got %v", err)
	}
}

func TestMergeDate_OneWindowPerStart(t *testing.T) {
	m := NewMerger(MergeConfig{Delay: time.Microsecond})
	rows := []domain.SyntheticBookRow{
		makeBookRow(10, 1000, -0.5, time.Microsecond),
		makeBookRow(20, 2000, 0.4, time.Microsecond), // start
		makeBookRow(30, 3000, -0.1, time.Microsecond),
		makeBookRow(40, 4000, 0.2, 0), // start
	}
	// Neutralize the bid-derived side fields so edge alone drives detection
	for i := range rows {
		rows[i].BidPrice = 1
		rows[i].AskPrice = 2
	}

	opps, err := m.MergeDate("2024-03-15", "AB:BC", rows)
	if err != nil {
		t.Fatalf("MergeDate: %v", err)
	}
	if len(opps) != 2 {
		t.Fatalf("expected 2 opportunities, got %d", len(opps))
	}
	if opps[0].Key.StartSequenceID != 20 || opps[1].Key.StartSequenceID != 40 {
		t.Errorf("unexpected start ids %d/%d", opps[0].Key.StartSequenceID, opps[1].Key.StartSequenceID)
	}
	if opps[0].Key.MarketDate != "2024-03-15" || opps[0].Key.Symbol != "AB:BC" {
		t.Errorf("unexpected key %+v", opps[0].Key)
	}
}
