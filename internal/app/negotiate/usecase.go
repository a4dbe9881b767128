package negotiate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"haggle/internal/app/ids"
	"haggle/internal/app/ports"
	"haggle/internal/domain/negotiation"
)

var ErrInvalidRequest = errors.New("invalid negotiate request")

// UseCase runs one buyer/seller negotiation to completion and archives the
// result. Repo and TxManager may be nil, in which case nothing is stored
// and idempotency keys are ignored.
type UseCase struct {
	TxManager ports.TxManager
	Repo      ports.NegotiationRepository
	Renderer  ports.MessageRenderer
	Metrics   ports.NegotiationMetrics
	NewID     func() string
	Now       func() time.Time

	// DefaultMaxRounds applies to requests that leave max_rounds unset.
	DefaultMaxRounds int
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	if len(req.IdempotencyKey) > 128 {
		return Response{}, fmt.Errorf("%w: idempotency key too long", ErrInvalidRequest)
	}
	if req.Config.MaxRounds == 0 && u.DefaultMaxRounds > 0 {
		req.Config.MaxRounds = u.DefaultMaxRounds
	}
	cfg := req.Config.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Response{}, err
	}

	nowFn := u.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	newID := u.NewID
	if newID == nil {
		newID = ids.New
	}

	replayed, ok, err := u.lookupKey(ctx, req.IdempotencyKey)
	if err != nil {
		return Response{}, u.fail(err)
	}
	if ok {
		return replayed, nil
	}

	// The session and its renderer calls run outside the transaction; only
	// the key re-check and the save hold it.
	session, err := negotiation.NewSession(cfg)
	if err != nil {
		return Response{}, err
	}
	id := newID()
	var warnings []string
	outcome := session.Run(u.renderFunc(ctx, id, cfg, &warnings))

	rec := ports.NegotiationRecord{
		ID:             id,
		IdempotencyKey: req.IdempotencyKey,
		Source:         ports.SourceEngine,
		Config:         cfg,
		FinalState:     session.State(),
		Outcome:        outcome,
		Warnings:       warnings,
		CreatedAt:      nowFn(),
	}
	out := fromRecord(rec)

	save := func(txCtx context.Context) error {
		prior, found, err := u.lookupKey(txCtx, req.IdempotencyKey)
		if err != nil {
			return err
		}
		if found {
			out = prior
			return nil
		}
		return u.Repo.Save(txCtx, rec)
	}
	if u.Repo != nil {
		if u.TxManager != nil {
			err = u.TxManager.RunInTx(ctx, save)
		} else {
			err = save(ctx)
		}
	}
	if errors.Is(err, ports.ErrConflict) {
		// A concurrent request with the same key won the insert.
		if prior, found, lerr := u.lookupKey(ctx, req.IdempotencyKey); lerr == nil && found {
			return prior, nil
		}
	}
	if err != nil {
		return Response{}, u.fail(err)
	}
	if u.Metrics != nil && !out.Replayed {
		u.Metrics.RecordOutcome(out.Status, out.Rounds)
	}
	return out, nil
}

// lookupKey returns the archived result stored under key, if any.
func (u UseCase) lookupKey(ctx context.Context, key string) (Response, bool, error) {
	if u.Repo == nil || key == "" {
		return Response{}, false, nil
	}
	existing, err := u.Repo.GetByIdempotencyKey(ctx, key)
	if errors.Is(err, ports.ErrNotFound) || (err == nil && existing == nil) {
		return Response{}, false, nil
	}
	if err != nil {
		return Response{}, false, err
	}
	out := fromRecord(*existing)
	out.Replayed = true
	return out, true, nil
}

func (u UseCase) fail(err error) error {
	if u.Metrics != nil {
		if errors.Is(err, ports.ErrConflict) {
			u.Metrics.RecordConflict()
		} else {
			u.Metrics.RecordFailure()
		}
	}
	return err
}

// renderFunc adapts the renderer port to the session. A renderer failure
// falls back to the decision rationale and is reported as a warning.
func (u UseCase) renderFunc(ctx context.Context, id string, cfg negotiation.SessionConfig, warnings *[]string) negotiation.TurnRenderer {
	if u.Renderer == nil {
		return nil
	}
	return func(t negotiation.Turn) string {
		text, err := u.Renderer.Render(ctx, RenderRequestFor(t, cfg))
		if err != nil || strings.TrimSpace(text) == "" {
			if err == nil {
				err = errors.New("empty message")
			}
			log.Printf("negotiate: render negotiation=%s round=%d speaker=%s failed: %v", id, t.Round, t.Speaker.Name, err)
			*warnings = append(*warnings, fmt.Sprintf("round %d %s: renderer fallback: %v", t.Round, t.Speaker.Role, err))
			if u.Metrics != nil {
				u.Metrics.RecordRenderFallback()
			}
			return t.Decision.Rationale
		}
		return text
	}
}

func RenderRequestFor(t negotiation.Turn, cfg negotiation.SessionConfig) ports.RenderRequest {
	return ports.RenderRequest{
		Round:       t.Round,
		SpeakerName: t.Speaker.Name,
		Role:        t.Speaker.Role,
		Personality: t.Speaker.Personality,
		Action:      t.Decision.Action,
		Offer:       t.Decision.Offer,
		Opening:     t.Opening,
		Product:     cfg.Product,
		MarketPrice: cfg.MarketPrice,
	}
}

func fromRecord(rec ports.NegotiationRecord) Response {
	return Response{
		ID:         rec.ID,
		Status:     rec.Outcome.Status,
		State:      rec.FinalState,
		FinalPrice: rec.Outcome.FinalPrice,
		Rounds:     roundsPlayed(rec.Outcome.History),
		History:    rec.Outcome.History,
		Warnings:   rec.Warnings,
		Config:     rec.Config,
	}
}

func roundsPlayed(history []negotiation.TurnRecord) int {
	if len(history) == 0 {
		return 0
	}
	return history[len(history)-1].Round
}
