package live

import (
	"time"

	"haggle/internal/domain/negotiation"
)

type StartRequest struct {
	Role             negotiation.Role        `json:"role"`
	Name             string                  `json:"name"`
	Personality      string                  `json:"personality"`
	AnchorPrice      float64                 `json:"anchor_price"`
	MarketPrice      float64                 `json:"market_price"`
	Product          string                  `json:"product"`
	Termination      negotiation.Termination `json:"termination"`
	CounterpartyName string                  `json:"counterparty_name"`
	MaxRounds        int                     `json:"max_rounds"`
}

type StepRequest struct {
	SessionID        string
	CounterpartyText string `json:"message"`
}

type Request struct {
	SessionID string
}

// Step is one exchange: the human's message and the agent's reply.
type Step struct {
	Round                     int                `json:"round"`
	CounterpartyText          string             `json:"counterparty_text"`
	CounterpartyOffer         *float64           `json:"counterparty_offer"`
	Action                    negotiation.Action `json:"action"`
	Offer                     *float64           `json:"offer"`
	Message                   string             `json:"message"`
	CounterpartyMarketPercent *float64           `json:"counterparty_vs_market_percent"`
	OwnMarginPercent          *float64           `json:"own_margin_percent"`
	Warning                   string             `json:"warning,omitempty"`
}

type Response struct {
	ID         string                   `json:"id"`
	Role       negotiation.Role         `json:"role"`
	State      negotiation.State        `json:"state"`
	Status     negotiation.Status       `json:"status,omitempty"`
	FinalPrice *float64                 `json:"final_price"`
	Round      int                      `json:"round"`
	MaxRounds  int                      `json:"max_rounds"`
	Last       *Step                    `json:"last,omitempty"`
	History    []negotiation.TurnRecord `json:"history"`
	CreatedAt  time.Time                `json:"created_at"`
}
