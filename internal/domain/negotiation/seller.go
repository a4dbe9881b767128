package negotiation

// Seller opens above its cost and concedes downward toward the low edge of
// its required margin band, never below it.
type Seller struct {
	agentState
	termination Termination
}

func NewSeller(name, personality string, cost float64, termination Termination) (*Seller, error) {
	st, err := newAgentState(RoleSeller, name, personality, cost)
	if err != nil {
		return nil, err
	}
	t, err := ParseTermination(string(termination))
	if err != nil {
		return nil, err
	}
	return &Seller{agentState: st, termination: t}, nil
}

func (s *Seller) Band() Band {
	return SellerBand(s.anchor)
}

func (s *Seller) Termination() Termination {
	return s.termination
}

// Decide ignores the market price; the seller works only from its cost.
func (s *Seller) Decide(_ float64) Decision {
	s.round++

	band := s.Band()

	var offer float64
	if s.round == 1 {
		offer = s.anchor * s.profile.OpeningFactor()
	} else {
		offer = concede(s.previousOffer(), band.Low, s.profile.ConcessionRate)
	}

	forced := s.round >= ForcedRound
	if forced && s.termination == TerminationFloor {
		offer = band.Low
	}

	offer = max(offer, band.Low)

	if s.lastObserved != nil && band.Contains(*s.lastObserved) {
		return s.accept(*s.lastObserved)
	}
	if forced && s.termination == TerminationWalkAway {
		return Decision{Action: ActionWalkAway, Rationale: "I cannot go lower. Goodbye."}
	}
	return s.counter(offer)
}
