package negotiation

import "errors"

var ErrSessionFinished = errors.New("negotiation session already finished")

// Turn is what a renderer sees: a decision that is already final.
type Turn struct {
	Round    int
	Speaker  Identity
	Decision Decision
	// Opening marks the buyer's first turn.
	Opening bool
}

// TurnRenderer produces display text for a finalized turn. Its output is
// handed to the counterparty as message text but never changes the decision.
type TurnRenderer func(t Turn) string

// Session alternates a buyer and a seller, buyer first, for at most
// MaxRounds rounds.
type Session struct {
	cfg         SessionConfig
	buyer       *Buyer
	seller      *Seller
	state       State
	round       int
	lastMessage Message
	history     []TurnRecord
	finalPrice  *float64
}

func NewSession(cfg SessionConfig) (*Session, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	buyer, err := NewBuyer(cfg.Buyer.Name, cfg.Buyer.Personality, cfg.Buyer.AnchorPrice)
	if err != nil {
		return nil, err
	}
	seller, err := NewSeller(cfg.Seller.Name, cfg.Seller.Personality, cfg.Seller.AnchorPrice, cfg.SellerTermination)
	if err != nil {
		return nil, err
	}
	return &Session{
		cfg:     cfg,
		buyer:   buyer,
		seller:  seller,
		state:   StateAwaitingBuyer,
		round:   1,
		history: make([]TurnRecord, 0, cfg.MaxRounds*2),
	}, nil
}

func (s *Session) Config() SessionConfig { return s.cfg }

func (s *Session) Buyer() *Buyer { return s.buyer }

func (s *Session) Seller() *Seller { return s.seller }

func (s *Session) State() State { return s.state }

func (s *Session) Done() bool {
	_, done := s.state.Status()
	return done
}

// Step plays the next turn: the acting agent observes the counterparty's
// last message, decides, the decision is rendered and recorded, and the
// state machine advances.
func (s *Session) Step(render TurnRenderer) (TurnRecord, error) {
	if s.Done() {
		return TurnRecord{}, ErrSessionFinished
	}

	var actor Agent = s.buyer
	if s.state == StateAwaitingSeller {
		actor = s.seller
	}

	actor.Observe(s.lastMessage)
	decision := actor.Decide(s.cfg.MarketPrice)
	turn := Turn{
		Round:    s.round,
		Speaker:  actor.Identity(),
		Decision: decision,
		Opening:  s.state == StateAwaitingBuyer && s.round == 1,
	}

	text := decision.Rationale
	if render != nil {
		text = render(turn)
	}

	rec := TurnRecord{
		Round:       s.round,
		Speaker:     turn.Speaker.Name,
		Role:        turn.Speaker.Role,
		Personality: turn.Speaker.Personality,
		Message:     text,
		Action:      decision.Action,
		Offer:       decision.Offer,
	}
	s.history = append(s.history, rec)
	s.lastMessage = Message{Text: text, Offer: decision.Offer}
	s.advance(decision)
	return rec, nil
}

// Run steps until a terminal state and returns the outcome.
func (s *Session) Run(render TurnRenderer) Outcome {
	for !s.Done() {
		if _, err := s.Step(render); err != nil {
			break
		}
	}
	return s.Outcome()
}

func (s *Session) advance(d Decision) {
	switch d.Action {
	case ActionAccept:
		s.state = StateDealReached
		s.finalPrice = d.Offer
		return
	case ActionWalkAway:
		s.state = StateNoDeal
		return
	}

	if s.state == StateAwaitingBuyer {
		s.state = StateAwaitingSeller
		return
	}
	if s.round >= s.cfg.MaxRounds {
		s.state = StateMaxRoundsExhausted
		return
	}
	s.round++
	s.state = StateAwaitingBuyer
}

// Round is the current orchestrator round (1-based).
func (s *Session) Round() int { return s.round }

func (s *Session) Outcome() Outcome {
	status, _ := s.state.Status()
	history := make([]TurnRecord, len(s.history))
	copy(history, s.history)
	return Outcome{
		Status:     status,
		FinalPrice: s.finalPrice,
		History:    history,
	}
}
