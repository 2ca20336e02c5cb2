package domain

// MemberType is an exchange membership tier with its own fee schedule.
type MemberType string

const (
	MemberTypeNonMember MemberType = "NON_MEMBER"
	MemberTypeMember    MemberType = "MEMBER"
	MemberType106J      MemberType = "MEMBER_106J"
)

// FeeRate is one row of the exchange fee reference table.
type FeeRate struct {
	ProductType    string
	Exchange       string
	Venue          string
	SecurityType   string
	MemberType     MemberType
	FeePerContract float64
}

// FeeSchedule holds the net per-unit fee for one spread, by membership tier.
// Net fee = fee per contract times the spread's leg count, summed over the
// rates that apply to the spread's product.
type FeeSchedule struct {
	Symbol string
	Net    map[MemberType]float64
}

// NetFee returns the net fee for a tier. The second result is false when the
// tier is absent from the reference data.
func (s FeeSchedule) NetFee(mt MemberType) (float64, bool) {
	fee, ok := s.Net[mt]
	return fee, ok
}

// BuildFeeSchedule computes a spread's net fee per tier from raw rates that
// have already been filtered to the spread's product.
func BuildFeeSchedule(spread SpreadDefinition, rates []FeeRate) FeeSchedule {
	net := make(map[MemberType]float64)
	for _, r := range rates {
		net[r.MemberType] += r.FeePerContract * float64(spread.NumLegs())
	}
	return FeeSchedule{Symbol: spread.Symbol, Net: net}
}
