package domain

// Security maps a feed security id to its reference attributes.
type Security struct {
	SecurityID    int64
	Symbol        string
	AssetClass    string
	SecurityGroup string
}

// Book status values as captured by the feed. Observations are filtered to
// StatusReadyToTrade before alignment.
const (
	StatusReadyToTrade = "READY_TO_TRADE"
	StatusHalted       = "HALTED"
	StatusClosed       = "CLOSED"
)

// SyntheticSecurity is one reference row mapping a synthetic symbol to its
// leg specification string (e.g. "+GCJ1 -(GCJ1-GCZ1) -GCZ1").
type SyntheticSecurity struct {
	ID        int64
	Symbol    string
	LegSpec   string
	IsPolygon bool
}
