package ports

import (
	"context"
	"time"

	"haggle/internal/domain/negotiation"
)

// Sources of an archived negotiation.
const (
	SourceEngine = "engine"
	SourceLive   = "live"
)

// NegotiationRecord is a finished negotiation. Agent state is never part of
// it; only the configuration and the outcome are kept.
type NegotiationRecord struct {
	ID             string
	IdempotencyKey string
	Source         string
	Config         negotiation.SessionConfig
	FinalState     negotiation.State
	Outcome        negotiation.Outcome
	Warnings       []string
	CreatedAt      time.Time
}

type NegotiationRepository interface {
	// Save fails with ErrConflict when the id or idempotency key is taken.
	Save(ctx context.Context, rec NegotiationRecord) error
	GetByID(ctx context.Context, id string) (NegotiationRecord, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*NegotiationRecord, error)
	// List returns the newest records first.
	List(ctx context.Context, limit int) ([]NegotiationRecord, error)
}

// LiveSession is one agent answering a human counterparty turn by turn.
type LiveSession struct {
	ID         string
	Config     negotiation.SessionConfig
	Agent      negotiation.Agent
	State      negotiation.State
	History    []negotiation.TurnRecord
	FinalPrice *float64
	CreatedAt  time.Time
}

type LiveSessionStore interface {
	Create(ctx context.Context, s *LiveSession) error
	// Update runs fn while holding the session exclusively.
	Update(ctx context.Context, id string, fn func(s *LiveSession) error) error
	Delete(ctx context.Context, id string) error
}
