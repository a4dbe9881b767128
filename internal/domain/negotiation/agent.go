package negotiation

import "fmt"

// agentState is the mutable part shared by both roles. It lives for one
// negotiation session and is never persisted.
type agentState struct {
	identity     Identity
	profile      Profile
	anchor       float64
	round        int
	lastObserved *float64
	lastOwn      *float64
}

func newAgentState(role Role, name, personality string, anchor float64) (agentState, error) {
	if err := requirePositive(string(role)+".anchor_price", anchor); err != nil {
		return agentState{}, err
	}
	p := ParsePersonality(personality)
	return agentState{
		identity: Identity{Name: name, Role: role, Personality: p},
		profile:  ProfileFor(role, p),
		anchor:   anchor,
	}, nil
}

// Observe records the counterparty's latest offer. A message without a
// structured offer falls back to text extraction; a message with neither
// leaves the previous observation in place.
func (s *agentState) Observe(msg Message) {
	if msg.Offer != nil {
		s.lastObserved = price(*msg.Offer)
		return
	}
	if v, ok := ExtractPrice(msg.Text); ok {
		s.lastObserved = price(v)
	}
}

func (s *agentState) Round() int { return s.round }

func (s *agentState) Identity() Identity { return s.identity }

func (s *agentState) AnchorPrice() float64 { return s.anchor }

func (s *agentState) Profile() Profile { return s.profile }

func (s *agentState) LastObservedOffer() (float64, bool) {
	if s.lastObserved == nil {
		return 0, false
	}
	return *s.lastObserved, true
}

func (s *agentState) LastOwnOffer() (float64, bool) {
	if s.lastOwn == nil {
		return 0, false
	}
	return *s.lastOwn, true
}

// previousOffer is the base for the next concession step.
func (s *agentState) previousOffer() float64 {
	if s.lastOwn != nil {
		return *s.lastOwn
	}
	return s.anchor * s.profile.StartLow
}

func (s *agentState) accept(v float64) Decision {
	return Decision{
		Action:    ActionAccept,
		Offer:     price(v),
		Rationale: fmt.Sprintf("I accept your offer of ₹%.2f.", v),
	}
}

func (s *agentState) counter(v float64) Decision {
	s.lastOwn = price(v)
	return Decision{
		Action:    ActionCounter,
		Offer:     price(v),
		Rationale: fmt.Sprintf("My offer is ₹%.2f.", v),
	}
}

func concede(prev, target, rate float64) float64 {
	return prev + rate*(target-prev)
}
