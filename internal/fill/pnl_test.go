package fill

import (
	"errors"
	"testing"
	"time"

	"spread-sniper-lab/internal/domain"
)

func TestPnLModel_FillAfterLatency(t *testing.T) {
	model := NewPnLModel(PnLConfig{
		RequiredEdge: 0.10,
		Delays:       []time.Duration{100 * time.Microsecond},
		Latency:      50 * time.Microsecond,
		CashPerPoint: 50,
	}, testFees())

	// Shot at the first row persisting through 100us (seq 101), fill at the
	// first row at or after it persisting through 150us (seq 102).
	opp := makeOpp(
		makeRow(100, 0.40, 80*time.Microsecond),
		makeRow(101, 0.30, 120*time.Microsecond),
		makeRow(102, 0.20, 500*time.Microsecond),
	)

	results, err := model.Evaluate(opp)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	pnl := results[0]
	if !pnl.Taken {
		t.Fatal("expected trade to be taken")
	}
	if pnl.FillSequenceID != 102 {
		t.Errorf("expected fill at seq 102, got %d", pnl.FillSequenceID)
	}
	if pnl.CashEdge != 0.20*50 {
		t.Errorf("expected cash edge 10.0, got %f", pnl.CashEdge)
	}
	if got := pnl.NetCash[domain.MemberTypeNonMember]; got != 10.0-3.10 {
		t.Errorf("expected non-member net %f, got %f", 10.0-3.10, got)
	}
	if got := pnl.NetCash[domain.MemberTypeMember]; got != 10.0-1.34 {
		t.Errorf("expected member net %f, got %f", 10.0-1.34, got)
	}
}

func TestPnLModel_ShotRowCanBeFillRow(t *testing.T) {
	model := NewPnLModel(PnLConfig{
		Delays:  []time.Duration{50 * time.Microsecond},
		Latency: 50 * time.Microsecond,
	}, testFees())

	// Seq 101 persists through both the delay and the latency horizon.
	opp := makeOpp(
		makeRow(100, 0.40, 10*time.Microsecond),
		makeRow(101, 0.30, 200*time.Microsecond),
	)

	results, err := model.Evaluate(opp)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if results[0].FillSequenceID != 101 {
		t.Errorf("expected fill at seq 101, got %d", results[0].FillSequenceID)
	}
	if results[0].CashEdge != 0.30 {
		t.Errorf("expected raw cash edge 0.30, got %f", results[0].CashEdge)
	}
}

func TestPnLModel_BelowRequiredEdgeNotTaken(t *testing.T) {
	model := NewPnLModel(PnLConfig{
		RequiredEdge: 0.50,
		Delays:       []time.Duration{0},
	}, testFees())

	opp := makeOpp(makeRow(100, 0.30, 200*time.Microsecond))

	results, err := model.Evaluate(opp)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	pnl := results[0]
	if pnl.Taken {
		t.Error("expected trade not taken below required edge")
	}
	if pnl.FillSequenceID != 0 {
		t.Errorf("expected zero fill sequence id, got %d", pnl.FillSequenceID)
	}
	// Passed on, not lost: zero cash at every tier
	for tier, cash := range pnl.NetCash {
		if cash != 0 {
			t.Errorf("expected zero net cash for %s, got %f", tier, cash)
		}
	}
}

func TestPnLModel_MissingEdgeNotTaken(t *testing.T) {
	model := NewPnLModel(PnLConfig{Delays: []time.Duration{0}}, testFees())
	opp := makeOpp(makeRow(100, domain.MissingPrice(), 200*time.Microsecond))

	results, err := model.Evaluate(opp)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if results[0].Taken {
		t.Error("expected trade not taken on a missing edge")
	}
}

func TestPnLModel_WindowShorterThanDelay(t *testing.T) {
	model := NewPnLModel(PnLConfig{
		Delays: []time.Duration{time.Millisecond},
	}, testFees())

	// No row persists through 1ms: the window was over before decision time.
	opp := makeOpp(
		makeRow(100, 0.40, 100*time.Microsecond),
		makeRow(101, 0.30, 400*time.Microsecond),
	)

	results, err := model.Evaluate(opp)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if results != nil {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestPnLModel_UnreachableFill(t *testing.T) {
	model := NewPnLModel(PnLConfig{
		Delays:  []time.Duration{100 * time.Microsecond},
		Latency: time.Millisecond,
	}, testFees())

	// A shot row exists at 100us but nothing reaches 1.1ms.
	opp := makeOpp(
		makeRow(100, 0.40, 150*time.Microsecond),
		makeRow(101, 0.30, 300*time.Microsecond),
	)

	_, err := model.Evaluate(opp)
	if !errors.Is(err, ErrUnreachableFill) {
		t.Errorf("expected ErrUnreachableFill, got %v", err)
	}
}

func TestPnLModel_DelayGrid(t *testing.T) {
	model := NewPnLModel(PnLConfig{
		Delays:  []time.Duration{0, 100 * time.Microsecond, 300 * time.Microsecond},
		Latency: 10 * time.Microsecond,
	}, testFees())

	opp := makeOpp(
		makeRow(100, 0.60, 150*time.Microsecond),
		makeRow(101, 0.20, 500*time.Microsecond),
	)

	results, err := model.Evaluate(opp)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	// Delay 0: shot and fill at seq 100 (persists through 10us)
	if results[0].FillSequenceID != 100 || results[0].CashEdge != 0.60 {
		t.Errorf("delay 0: expected seq 100 edge 0.60, got seq %d edge %f", results[0].FillSequenceID, results[0].CashEdge)
	}
	// Delay 100us: shot at seq 100, which still covers the 110us horizon
	if results[1].FillSequenceID != 100 {
		t.Errorf("delay 100us: expected fill at seq 100, got %d", results[1].FillSequenceID)
	}
	// Delay 300us: shot moves to seq 101, which also covers the horizon
	if results[2].FillSequenceID != 101 || results[2].CashEdge != 0.20 {
		t.Errorf("delay 300us: expected seq 101 edge 0.20, got seq %d edge %f", results[2].FillSequenceID, results[2].CashEdge)
	}
}

func TestPnLModel_EmptyWindow(t *testing.T) {
	model := NewPnLModel(PnLConfig{}, testFees())
	_, err := model.Evaluate(domain.Opportunity{Key: domain.OpportunityKey{Symbol: "AB:BC"}})
	if !errors.Is(err, ErrEmptyWindow) {
		t.Errorf("expected ErrEmptyWindow, got %v", err)
	}
}
