package verification

import (
	"context"
	"errors"
	"fmt"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/fill"
	"spread-sniper-lab/internal/opportunity"
	"spread-sniper-lab/internal/storage"
)

// ErrNoSynthBook is returned when a fill's partition has no persisted
// synthetic book series to replay against.
var ErrNoSynthBook = errors.New("no synthetic book series for partition")

// ReplayVerifier implements Verifier.
type ReplayVerifier struct {
	synthBooks storage.SynthBookStore
	fills      storage.FillStore
	merger     *opportunity.Merger
	sim        *fill.Simulator
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
// The merger and simulator must carry the same parameters the stored fills
// were produced with, otherwise every fill diverges.
type ReplayVerifierOptions struct {
	SynthBooks storage.SynthBookStore
	Fills      storage.FillStore
	Merger     *opportunity.Merger
	Simulator  *fill.Simulator
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	return &ReplayVerifier{
		synthBooks: opts.SynthBooks,
		fills:      opts.Fills,
		merger:     opts.Merger,
		sim:        opts.Simulator,
	}
}

// VerifyPartition re-simulates every stored fill of one (date, symbol)
// partition against the persisted synthetic book series.
func (v *ReplayVerifier) VerifyPartition(ctx context.Context, date, symbol string) (*VerificationReport, error) {
	stored, err := v.fills.GetByDateSymbol(ctx, date, symbol)
	if err != nil {
		return nil, fmt.Errorf("load fills %s/%s: %w", date, symbol, err)
	}

	report := &VerificationReport{
		TotalFills: len(stored),
		Results:    make([]VerificationResult, 0, len(stored)),
	}
	if len(stored) == 0 {
		return report, nil
	}

	rows, err := v.synthBooks.GetByDateSymbol(ctx, date, symbol)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s/%s: %w", date, symbol, ErrNoSynthBook)
		}
		return nil, fmt.Errorf("load synth book %s/%s: %w", date, symbol, err)
	}

	for _, f := range stored {
		report.append(v.verifyFill(rows, f))
	}
	return report, nil
}

// VerifyAll verifies all stored fills across partitions. Each partition's
// synthetic book series is loaded once.
func (v *ReplayVerifier) VerifyAll(ctx context.Context) (*VerificationReport, error) {
	stored, err := v.fills.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load fills: %w", err)
	}

	report := &VerificationReport{
		TotalFills: len(stored),
		Results:    make([]VerificationResult, 0, len(stored)),
	}

	type partition struct{ date, symbol string }
	series := make(map[partition][]domain.SyntheticBookRow)

	for _, f := range stored {
		p := partition{f.Key.MarketDate, f.Key.Symbol}
		rows, ok := series[p]
		if !ok {
			rows, err = v.synthBooks.GetByDateSymbol(ctx, p.date, p.symbol)
			if err != nil {
				report.append(errorResult(f, err))
				continue
			}
			series[p] = rows
		}
		report.append(v.verifyFill(rows, f))
	}
	return report, nil
}

// verifyFill rebuilds one fill's opportunity window and re-runs the
// simulation. Replay errors are reported as a divergence rather than
// aborting the batch.
func (v *ReplayVerifier) verifyFill(rows []domain.SyntheticBookRow, stored *domain.Fill) VerificationResult {
	opp, err := v.merger.MergeWindow(rows, stored.Key)
	if err != nil {
		return errorResult(stored, err)
	}
	replayed, err := v.sim.Simulate(opp)
	if err != nil {
		return errorResult(stored, err)
	}

	divergences := CompareFills(stored, &replayed)
	return VerificationResult{
		Key:             stored.Key,
		Match:           len(divergences) == 0,
		Divergences:     divergences,
		StoredNetCash:   stored.NetFillCash,
		ReplayedNetCash: replayed.NetFillCash,
	}
}

func errorResult(stored *domain.Fill, err error) VerificationResult {
	return VerificationResult{
		Key:           stored.Key,
		Match:         false,
		StoredNetCash: stored.NetFillCash,
		Divergences: []FieldDivergence{
			{Field: "Error", Expected: nil, Actual: err.Error()},
		},
	}
}

func (r *VerificationReport) append(result VerificationResult) {
	r.Results = append(r.Results, result)
	if result.Match {
		r.MatchedFills++
	} else {
		r.DivergentFills++
	}
}
