package replay

import (
	"time"

	"haggle/internal/domain/negotiation"
)

type Request struct {
	ID string
}

type ListRequest struct {
	Limit int
}

type Negotiation struct {
	ID         string                    `json:"id"`
	Source     string                    `json:"source"`
	Status     negotiation.Status        `json:"status"`
	State      negotiation.State         `json:"state"`
	FinalPrice *float64                  `json:"final_price"`
	Rounds     int                       `json:"rounds"`
	Config     negotiation.SessionConfig `json:"config"`
	History    []negotiation.TurnRecord  `json:"history,omitempty"`
	Warnings   []string                  `json:"warnings,omitempty"`
	CreatedAt  time.Time                 `json:"created_at"`
}

type ListResponse struct {
	Negotiations []Negotiation `json:"negotiations"`
}

// Divergence is a turn whose recomputed decision differs from the archive.
type Divergence struct {
	Index    int                     `json:"index"`
	Stored   *negotiation.TurnRecord `json:"stored,omitempty"`
	Replayed *negotiation.TurnRecord `json:"replayed,omitempty"`
}

type VerifyResponse struct {
	ID          string       `json:"id"`
	Consistent  bool         `json:"consistent"`
	Divergences []Divergence `json:"divergences,omitempty"`
}
