package domain

// LegDefinition is one leg of a synthetic spread polygon.
type LegDefinition struct {
	ContractSymbol string // outright symbol ("GCJ1") or calendar pair ("GCJ1-GCZ1")
	QuantityRatio  int    // signed, nonzero; positive = net-buy leg
	IsOutright     bool   // plain future vs nested calendar spread
}

// ContractCount is the number of exchange contracts the leg touches per unit:
// 1 for an outright future, 2 for a calendar spread, scaled by the ratio
// magnitude. Affects fee accounting only, not price math.
func (l LegDefinition) ContractCount() int {
	base := 1
	if !l.IsOutright {
		base = 2
	}
	ratio := l.QuantityRatio
	if ratio < 0 {
		ratio = -ratio
	}
	return base * ratio
}

// SpreadDefinition is an ordered set of legs defining one tradable synthetic
// instrument. Always has at least one leg.
type SpreadDefinition struct {
	Symbol string
	Legs   []LegDefinition
}

// LegSymbols returns the legs' contract symbols in definition order.
func (s SpreadDefinition) LegSymbols() []string {
	symbols := make([]string, len(s.Legs))
	for i, l := range s.Legs {
		symbols[i] = l.ContractSymbol
	}
	return symbols
}

// LegRatios returns the legs' signed quantity ratios in definition order.
func (s SpreadDefinition) LegRatios() []int {
	ratios := make([]int, len(s.Legs))
	for i, l := range s.Legs {
		ratios[i] = l.QuantityRatio
	}
	return ratios
}

// HasOutright reports whether any leg is a plain future.
func (s SpreadDefinition) HasOutright() bool {
	for _, l := range s.Legs {
		if l.IsOutright {
			return true
		}
	}
	return false
}

// NumLegs returns the leg count.
func (s SpreadDefinition) NumLegs() int {
	return len(s.Legs)
}

// NumContracts returns the total contract count across legs.
func (s SpreadDefinition) NumContracts() int {
	n := 0
	for _, l := range s.Legs {
		n += l.ContractCount()
	}
	return n
}
