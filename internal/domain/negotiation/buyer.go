package negotiation

// Buyer bids up from a fraction of its resale ceiling toward the overlap of
// its own margin band and the band it infers the seller needs.
type Buyer struct {
	agentState
}

func NewBuyer(name, personality string, anchor float64) (*Buyer, error) {
	st, err := newAgentState(RoleBuyer, name, personality, anchor)
	if err != nil {
		return nil, err
	}
	return &Buyer{agentState: st}, nil
}

// Bands returns the buyer's own band, the inferred seller band and their
// intersection for a given market price.
func (b *Buyer) Bands(marketPrice float64) (own, inferred, feasible Band) {
	own = BuyerBand(b.anchor)
	inferred = SellerBand(marketPrice)
	return own, inferred, own.Intersect(inferred)
}

func (b *Buyer) Decide(marketPrice float64) Decision {
	b.round++

	own, inferred, feasible := b.Bands(marketPrice)

	var offer float64
	if b.round == 1 {
		offer = b.anchor * b.profile.OpeningFactor()
	} else {
		offer = concede(b.previousOffer(), buyerTarget(own, inferred, feasible), b.profile.ConcessionRate)
	}

	if b.round >= ForcedRound {
		if feasible.Feasible() {
			offer = feasible.Low
		} else {
			offer = min(inferred.Low, own.Low)
		}
	}

	offer = max(MinBuyerOffer, min(offer, b.anchor))

	if b.lastObserved != nil && feasible.Contains(*b.lastObserved) {
		return b.accept(*b.lastObserved)
	}
	return b.counter(offer)
}

// buyerTarget is the feasible midpoint, or the midpoint of the gap between
// the two bands when they do not overlap.
func buyerTarget(own, inferred, feasible Band) float64 {
	if feasible.Feasible() {
		return feasible.Mid()
	}
	if inferred.Low > own.High {
		return (own.High + inferred.Low) / 2
	}
	return (inferred.High + own.Low) / 2
}
