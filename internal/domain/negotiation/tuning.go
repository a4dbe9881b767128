package negotiation

const (
	DefaultMaxRounds = 10

	// ForcedRound is the agent-local round at which the buyer collapses to
	// its boundary offer and the seller stops conceding.
	ForcedRound = 10

	BuyerBandLowFactor  = 0.60
	BuyerBandHighFactor = 0.70

	SellerBandLowFactor  = 1.30
	SellerBandHighFactor = 1.40

	MinBuyerOffer = 1.0
)

// Band is a closed price interval. Low may exceed High for an empty band.
type Band struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

func (b Band) Feasible() bool {
	return b.Low <= b.High
}

func (b Band) Contains(v float64) bool {
	return b.Feasible() && b.Low <= v && v <= b.High
}

func (b Band) Mid() float64 {
	return (b.Low + b.High) / 2
}

// Intersect returns the overlap of two bands; the result is infeasible when
// they do not overlap.
func (b Band) Intersect(o Band) Band {
	return Band{Low: max(b.Low, o.Low), High: min(b.High, o.High)}
}

// BuyerBand is the range a buyer needs to keep its resale margin.
func BuyerBand(anchor float64) Band {
	return Band{Low: anchor * BuyerBandLowFactor, High: anchor * BuyerBandHighFactor}
}

// SellerBand is the range a seller needs over a reference price (its cost, or
// the market price when a buyer infers it).
func SellerBand(reference float64) Band {
	return Band{Low: reference * SellerBandLowFactor, High: reference * SellerBandHighFactor}
}
