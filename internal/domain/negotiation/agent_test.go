package negotiation

import (
	"errors"
	"math"
	"testing"
)

const eps = 1e-6

func almost(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func mustBuyer(t *testing.T, personality string, anchor float64) *Buyer {
	t.Helper()
	b, err := NewBuyer("Alice", personality, anchor)
	if err != nil {
		t.Fatalf("NewBuyer error: %v", err)
	}
	return b
}

func mustSeller(t *testing.T, personality string, cost float64, term Termination) *Seller {
	t.Helper()
	s, err := NewSeller("Bob", personality, cost, term)
	if err != nil {
		t.Fatalf("NewSeller error: %v", err)
	}
	return s
}

func TestBuyer_OpeningOfferAggressive(t *testing.T) {
	b := mustBuyer(t, "Aggressive Negotiator", 50000)
	d := b.Decide(42000)
	if d.Action != ActionCounter {
		t.Fatalf("expected counter, got %s", d.Action)
	}
	if d.Offer == nil || !almost(*d.Offer, 26250) {
		t.Fatalf("expected opening 26250, got %v", d.Offer)
	}
	if got, ok := b.LastOwnOffer(); !ok || !almost(got, 26250) {
		t.Fatalf("expected last own offer 26250, got %v ok=%v", got, ok)
	}
}

func TestBuyer_InfeasibleBandsUseGapMidpoint(t *testing.T) {
	b := mustBuyer(t, "Diplomatic Buyer", 16000)

	own, inferred, feasible := b.Bands(15000)
	if feasible.Feasible() {
		t.Fatalf("expected infeasible band, got %+v", feasible)
	}
	if !almost(feasible.Low, 19500) || !almost(feasible.High, 11200) {
		t.Fatalf("expected [19500, 11200], got %+v", feasible)
	}
	if got := buyerTarget(own, inferred, feasible); !almost(got, 15350) {
		t.Fatalf("expected gap midpoint 15350, got %f", got)
	}

	first := b.Decide(15000)
	if !almost(*first.Offer, 9600) {
		t.Fatalf("expected opening 9600, got %f", *first.Offer)
	}
	second := b.Decide(15000)
	if !almost(*second.Offer, 10175) {
		t.Fatalf("expected 9600 + 0.10*(15350-9600) = 10175, got %f", *second.Offer)
	}
}

func TestBuyer_GapMidpointWhenSellerBandBelowBuyerBand(t *testing.T) {
	own := BuyerBand(100000)
	inferred := SellerBand(10000)
	feasible := own.Intersect(inferred)
	if feasible.Feasible() {
		t.Fatalf("expected infeasible band")
	}
	if got, want := buyerTarget(own, inferred, feasible), (14000.0+60000.0)/2; !almost(got, want) {
		t.Fatalf("target mismatch: got=%f want=%f", got, want)
	}
}

func TestBuyer_AcceptsObservedOfferInsideFeasibleBand(t *testing.T) {
	b := mustBuyer(t, "Custom", 100000)
	b.Decide(50000)

	b.Observe(Message{Text: "How about ₹66,000?"})
	d := b.Decide(50000)
	if d.Action != ActionAccept {
		t.Fatalf("expected accept, got %s", d.Action)
	}
	if d.Offer == nil || *d.Offer != 66000 {
		t.Fatalf("expected accept at exactly 66000, got %v", d.Offer)
	}
	if got, _ := b.LastOwnOffer(); !almost(got, 57500) {
		t.Fatalf("accept must not overwrite last own offer, got %f", got)
	}
}

func TestBuyer_CountersObservedOfferOutsideBand(t *testing.T) {
	b := mustBuyer(t, "Custom", 100000)
	b.Observe(Message{Text: "₹80,000 is my price"})
	d := b.Decide(50000)
	if d.Action != ActionCounter {
		t.Fatalf("expected counter, got %s", d.Action)
	}
	if !almost(*d.Offer, 57500) {
		t.Fatalf("expected opening 57500, got %f", *d.Offer)
	}
}

func TestBuyer_ForcedConvergenceAtRoundTen(t *testing.T) {
	b := mustBuyer(t, "Diplomatic Buyer", 100000)
	var d Decision
	for i := 0; i < ForcedRound; i++ {
		d = b.Decide(50000)
	}
	if !almost(*d.Offer, 65000) {
		t.Fatalf("expected forced offer at feasible low 65000, got %f", *d.Offer)
	}

	inf := mustBuyer(t, "Diplomatic Buyer", 16000)
	for i := 0; i < ForcedRound; i++ {
		d = inf.Decide(15000)
	}
	if !almost(*d.Offer, 9600) {
		t.Fatalf("expected forced offer min(19500, 9600)=9600, got %f", *d.Offer)
	}
}

func TestBuyer_OffersStayInsideClamp(t *testing.T) {
	b := mustBuyer(t, "Aggressive Negotiator", 1000)
	for i := 0; i < 12; i++ {
		d := b.Decide(10000)
		if *d.Offer < MinBuyerOffer || *d.Offer > 1000 {
			t.Fatalf("round %d offer %f outside [1, 1000]", b.Round(), *d.Offer)
		}
	}
}

func TestSeller_OpeningOffers(t *testing.T) {
	s := mustSeller(t, "", 10000, TerminationWalkAway)
	d := s.Decide(0)
	if !almost(*d.Offer, 13500) {
		t.Fatalf("expected default opening 10000*1.35=13500, got %f", *d.Offer)
	}

	dip := mustSeller(t, "Diplomatic Seller", 10000, TerminationWalkAway)
	if d := dip.Decide(0); !almost(*d.Offer, 13250) {
		t.Fatalf("expected diplomatic opening 13250, got %f", *d.Offer)
	}
}

func TestSeller_ConcessionIsMonotonicAndAboveFloor(t *testing.T) {
	for _, label := range []string{"Aggressive Trader", "Diplomatic Seller", "Data-Driven Seller", "Creative Wildcard"} {
		s := mustSeller(t, label, 12000, TerminationWalkAway)
		floor := s.Band().Low
		prev := math.Inf(1)
		for i := 0; i < ForcedRound-1; i++ {
			d := s.Decide(0)
			if d.Action != ActionCounter {
				t.Fatalf("%s: expected counter at round %d, got %s", label, s.Round(), d.Action)
			}
			if *d.Offer < floor {
				t.Fatalf("%s: offer %f below floor %f", label, *d.Offer, floor)
			}
			if *d.Offer > prev {
				t.Fatalf("%s: offer increased from %f to %f", label, prev, *d.Offer)
			}
			prev = *d.Offer
		}
	}
}

func TestSeller_WalksAwayAtRoundTen(t *testing.T) {
	s := mustSeller(t, "", 10000, TerminationWalkAway)
	var d Decision
	for i := 0; i < ForcedRound; i++ {
		d = s.Decide(0)
	}
	if d.Action != ActionWalkAway {
		t.Fatalf("expected walk_away, got %s", d.Action)
	}
	if d.Offer != nil {
		t.Fatalf("expected nil offer on walk_away, got %f", *d.Offer)
	}
	if got, _ := s.LastOwnOffer(); got < s.Band().Low {
		t.Fatalf("walk_away must not overwrite last own offer, got %f", got)
	}
}

func TestSeller_FloorTerminationKeepsCountering(t *testing.T) {
	s := mustSeller(t, "", 10000, TerminationFloor)
	var d Decision
	for i := 0; i < ForcedRound+2; i++ {
		d = s.Decide(0)
	}
	if d.Action != ActionCounter {
		t.Fatalf("expected counter, got %s", d.Action)
	}
	if !almost(*d.Offer, 13000) {
		t.Fatalf("expected floor offer 13000, got %f", *d.Offer)
	}
}

func TestSeller_AcceptsBeforeWalkingAway(t *testing.T) {
	s := mustSeller(t, "", 10000, TerminationWalkAway)
	for i := 0; i < ForcedRound-1; i++ {
		s.Decide(0)
	}
	s.Observe(Message{Offer: price(13200)})
	d := s.Decide(0)
	if d.Action != ActionAccept || *d.Offer != 13200 {
		t.Fatalf("expected accept at 13200, got %s %v", d.Action, d.Offer)
	}
}

func TestAgent_RoundCounterFidelity(t *testing.T) {
	b := mustBuyer(t, "Data Analyst", 20000)
	s := mustSeller(t, "Data-Driven Seller", 9000, TerminationWalkAway)
	for k := 1; k <= 7; k++ {
		b.Decide(10000)
		s.Decide(10000)
		if b.Round() != k || s.Round() != k {
			t.Fatalf("after %d decides: buyer=%d seller=%d", k, b.Round(), s.Round())
		}
	}
}

func TestAgent_ObservationIsStickyAndStructuredOfferWins(t *testing.T) {
	b := mustBuyer(t, "Custom", 20000)
	if _, ok := b.LastObservedOffer(); ok {
		t.Fatalf("expected no observation before first observe")
	}

	b.Observe(Message{Text: "I can do ₹12,500 today"})
	b.Observe(Message{Text: "hello there"})
	if got, ok := b.LastObservedOffer(); !ok || got != 12500 {
		t.Fatalf("expected sticky 12500, got %f ok=%v", got, ok)
	}

	b.Observe(Message{Text: "the market says 15000", Offer: price(13000)})
	if got, _ := b.LastObservedOffer(); got != 13000 {
		t.Fatalf("expected structured offer 13000, got %f", got)
	}
}

func TestNewAgent_RejectsNonPositiveAnchor(t *testing.T) {
	if _, err := NewBuyer("a", "Custom", 0); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for buyer, got %v", err)
	}
	if _, err := NewSeller("b", "Custom", -5, TerminationWalkAway); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for seller, got %v", err)
	}
	if _, err := NewSeller("b", "Custom", 100, Termination("sulk")); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for termination, got %v", err)
	}
}

var (
	_ Agent = (*Buyer)(nil)
	_ Agent = (*Seller)(nil)
)
