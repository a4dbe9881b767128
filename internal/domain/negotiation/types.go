package negotiation

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

type Action string

const (
	ActionAccept   Action = "accept"
	ActionCounter  Action = "counter"
	ActionWalkAway Action = "walk_away"
)

// IsTerminal reports whether the action ends the negotiation.
func (a Action) IsTerminal() bool {
	return a == ActionAccept || a == ActionWalkAway
}

type Identity struct {
	Name        string      `json:"name"`
	Role        Role        `json:"role"`
	Personality Personality `json:"personality"`
}

// Decision is the output of one Decide call. Offer is nil only for walk_away.
type Decision struct {
	Action    Action   `json:"action"`
	Offer     *float64 `json:"offer"`
	Rationale string   `json:"rationale"`
}

// Message is what an agent observes from its counterparty. When Offer is set
// it is authoritative and Text is not parsed.
type Message struct {
	Text  string
	Offer *float64
}

type Agent interface {
	Observe(msg Message)
	Decide(marketPrice float64) Decision
	Round() int
	Identity() Identity
	AnchorPrice() float64
	LastObservedOffer() (float64, bool)
}

type Status string

const (
	StatusDealReached          Status = "deal_reached"
	StatusNoDeal               Status = "no_deal"
	StatusNoDealAfterMaxRounds Status = "no_deal_after_max_rounds"
)

type State string

const (
	StateAwaitingBuyer      State = "AWAITING_BUYER"
	StateAwaitingSeller     State = "AWAITING_SELLER"
	StateDealReached        State = "DEAL_REACHED"
	StateNoDeal             State = "NO_DEAL"
	StateMaxRoundsExhausted State = "MAX_ROUNDS_EXHAUSTED"
)

// Status maps a terminal state to the reported outcome status.
func (s State) Status() (Status, bool) {
	switch s {
	case StateDealReached:
		return StatusDealReached, true
	case StateNoDeal:
		return StatusNoDeal, true
	case StateMaxRoundsExhausted:
		return StatusNoDealAfterMaxRounds, true
	default:
		return "", false
	}
}

type TurnRecord struct {
	Round       int         `json:"round"`
	Speaker     string      `json:"speaker"`
	Role        Role        `json:"role"`
	Personality Personality `json:"personality"`
	Message     string      `json:"message"`
	Action      Action      `json:"action"`
	Offer       *float64    `json:"offer"`
}

type Outcome struct {
	Status     Status       `json:"status"`
	FinalPrice *float64     `json:"final_price"`
	History    []TurnRecord `json:"history"`
}

func price(v float64) *float64 {
	return &v
}
