package ports

import (
	"context"

	"haggle/internal/domain/negotiation"
)

// RenderRequest carries a finalized decision. Renderers phrase it; they never
// change it.
type RenderRequest struct {
	Round       int
	SpeakerName string
	Role        negotiation.Role
	Personality negotiation.Personality
	Action      negotiation.Action
	Offer       *float64
	Opening     bool
	Product     string
	MarketPrice float64
}

type MessageRenderer interface {
	Render(ctx context.Context, req RenderRequest) (string, error)
}

// PhrasebookProvider returns raw phrase-bank overrides for a personality.
// It returns ErrNotFound when no override exists.
type PhrasebookProvider interface {
	Phrasebook(ctx context.Context, personality negotiation.Personality) ([]byte, error)
}
