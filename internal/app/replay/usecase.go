package replay

import (
	"context"
	"errors"
	"strings"

	"haggle/internal/app/ports"
	"haggle/internal/domain/negotiation"
)

var ErrInvalidRequest = errors.New("invalid replay request")

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

type UseCase struct {
	Repo ports.NegotiationRepository
}

func (u UseCase) Get(ctx context.Context, req Request) (Negotiation, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return Negotiation{}, ErrInvalidRequest
	}
	rec, err := u.Repo.GetByID(ctx, id)
	if err != nil {
		return Negotiation{}, err
	}
	return toNegotiation(rec, true), nil
}

// List returns summaries, newest first, without turn history.
func (u UseCase) List(ctx context.Context, req ListRequest) (ListResponse, error) {
	limit := req.Limit
	if limit < 0 {
		return ListResponse{}, ErrInvalidRequest
	}
	if limit == 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	recs, err := u.Repo.List(ctx, limit)
	if err != nil {
		return ListResponse{}, err
	}
	out := ListResponse{Negotiations: make([]Negotiation, 0, len(recs))}
	for _, rec := range recs {
		out.Negotiations = append(out.Negotiations, toNegotiation(rec, false))
	}
	return out, nil
}

// Verify re-runs an archived engine negotiation from its stored config and
// compares every decision. Message text is not compared since renderers may
// phrase turns differently.
func (u UseCase) Verify(ctx context.Context, req Request) (VerifyResponse, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return VerifyResponse{}, ErrInvalidRequest
	}
	rec, err := u.Repo.GetByID(ctx, id)
	if err != nil {
		return VerifyResponse{}, err
	}
	if rec.Source != ports.SourceEngine {
		return VerifyResponse{}, ErrInvalidRequest
	}

	session, err := negotiation.NewSession(rec.Config)
	if err != nil {
		return VerifyResponse{}, err
	}
	replayed := session.Run(nil).History
	stored := rec.Outcome.History

	out := VerifyResponse{ID: rec.ID}
	for i := 0; i < max(len(stored), len(replayed)); i++ {
		var a, b *negotiation.TurnRecord
		if i < len(stored) {
			a = &stored[i]
		}
		if i < len(replayed) {
			b = &replayed[i]
		}
		if !sameDecision(a, b) {
			out.Divergences = append(out.Divergences, Divergence{Index: i, Stored: a, Replayed: b})
		}
	}
	out.Consistent = len(out.Divergences) == 0
	return out, nil
}

func sameDecision(a, b *negotiation.TurnRecord) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Round != b.Round || a.Role != b.Role || a.Action != b.Action {
		return false
	}
	if a.Offer == nil || b.Offer == nil {
		return a.Offer == nil && b.Offer == nil
	}
	return *a.Offer == *b.Offer
}

func toNegotiation(rec ports.NegotiationRecord, withHistory bool) Negotiation {
	n := Negotiation{
		ID:         rec.ID,
		Source:     rec.Source,
		Status:     rec.Outcome.Status,
		State:      rec.FinalState,
		FinalPrice: rec.Outcome.FinalPrice,
		Config:     rec.Config,
		CreatedAt:  rec.CreatedAt,
	}
	if h := rec.Outcome.History; len(h) > 0 {
		n.Rounds = h[len(h)-1].Round
	}
	if withHistory {
		n.History = rec.Outcome.History
		n.Warnings = rec.Warnings
	}
	return n
}
