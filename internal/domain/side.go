package domain

// Side is the direction an opportunity trades the synthetic spread.
type Side int

const (
	SideNone Side = iota // neither side of the synthetic book crosses zero
	SideBuy              // synthetic ask < 0: the spread can be bought for a credit
	SideSell             // synthetic bid > 0: the spread can be sold for a credit
	SideInvalid          // both conditions hold; indicates corrupt input
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "Buy"
	case SideSell:
		return "Sell"
	case SideInvalid:
		return "Invalid"
	default:
		return "None"
	}
}

// SideFromString is the inverse of String. Unknown values map to SideNone.
func SideFromString(s string) Side {
	switch s {
	case "Buy":
		return SideBuy
	case "Sell":
		return SideSell
	case "Invalid":
		return SideInvalid
	default:
		return SideNone
	}
}

// MarketName returns the book side a given trade direction hits.
func (s Side) MarketName() string {
	switch s {
	case SideBuy:
		return "ask"
	case SideSell:
		return "bid"
	default:
		return "unknown"
	}
}

// SideOf classifies a synthetic book row. Missing prices never cross zero.
func SideOf(bid, ask float64) Side {
	buy := !IsPriceMissing(ask) && ask < 0
	sell := !IsPriceMissing(bid) && bid > 0
	switch {
	case buy && sell:
		return SideInvalid
	case buy:
		return SideBuy
	case sell:
		return SideSell
	default:
		return SideNone
	}
}
