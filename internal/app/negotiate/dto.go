package negotiate

import "haggle/internal/domain/negotiation"

type Request struct {
	IdempotencyKey string
	Config         negotiation.SessionConfig
}

type Response struct {
	ID         string                    `json:"id"`
	Status     negotiation.Status        `json:"status"`
	State      negotiation.State         `json:"state"`
	FinalPrice *float64                  `json:"final_price"`
	Rounds     int                       `json:"rounds"`
	History    []negotiation.TurnRecord  `json:"history"`
	Warnings   []string                  `json:"warnings,omitempty"`
	Config     negotiation.SessionConfig `json:"config"`
	Replayed   bool                      `json:"replayed"`
}
