package live

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"haggle/internal/app/ids"
	"haggle/internal/app/ports"
	"haggle/internal/domain/negotiation"
)

var (
	ErrInvalidRequest = errors.New("invalid live request")
	ErrSessionClosed  = errors.New("live session closed")
)

// UseCase lets a human play one side against a single agent. Sessions live
// only in Sessions; once finished they are archived to Repo (if set) and
// dropped.
type UseCase struct {
	Sessions ports.LiveSessionStore
	Repo     ports.NegotiationRepository
	Renderer ports.MessageRenderer
	Metrics  ports.NegotiationMetrics
	NewID    func() string
	Now      func() time.Time

	// DefaultMaxRounds applies to sessions started without max_rounds.
	DefaultMaxRounds int
}

func (u UseCase) Start(ctx context.Context, req StartRequest) (Response, error) {
	if math.IsNaN(req.MarketPrice) || math.IsInf(req.MarketPrice, 0) || req.MarketPrice <= 0 {
		return Response{}, &negotiation.ConfigError{Field: "market_price", Reason: "must be > 0"}
	}
	if req.MaxRounds < 0 {
		return Response{}, &negotiation.ConfigError{Field: "max_rounds", Reason: "must be > 0"}
	}
	if req.MaxRounds == 0 && u.DefaultMaxRounds > 0 {
		req.MaxRounds = u.DefaultMaxRounds
	}
	if req.Role == "" {
		req.Role = negotiation.RoleBuyer
	}
	termination, err := negotiation.ParseTermination(string(req.Termination))
	if err != nil {
		return Response{}, err
	}

	name := strings.TrimSpace(req.Name)
	own := negotiation.PartyConfig{Name: name, Personality: req.Personality, AnchorPrice: req.AnchorPrice}
	other := negotiation.PartyConfig{Name: strings.TrimSpace(req.CounterpartyName), Personality: string(negotiation.PersonalityCustom)}

	cfg := negotiation.SessionConfig{
		Product:           req.Product,
		MarketPrice:       req.MarketPrice,
		MaxRounds:         req.MaxRounds,
		SellerTermination: termination,
	}

	var agent negotiation.Agent
	switch req.Role {
	case negotiation.RoleBuyer:
		if other.Name == "" {
			other.Name = "Seller"
		}
		cfg.Buyer, cfg.Seller = own, other
		agent, err = negotiation.NewBuyer(name, req.Personality, req.AnchorPrice)
	case negotiation.RoleSeller:
		if other.Name == "" {
			other.Name = "Buyer"
		}
		cfg.Buyer, cfg.Seller = other, own
		agent, err = negotiation.NewSeller(name, req.Personality, req.AnchorPrice, termination)
	default:
		return Response{}, &negotiation.ConfigError{Field: "role", Reason: fmt.Sprintf("unsupported value %q", req.Role)}
	}
	if err != nil {
		return Response{}, err
	}
	cfg = cfg.WithDefaults()

	s := &ports.LiveSession{
		ID:        u.newID(),
		Config:    cfg,
		Agent:     agent,
		State:     awaitingHuman(req.Role),
		CreatedAt: u.now(),
	}
	if err := u.Sessions.Create(ctx, s); err != nil {
		return Response{}, err
	}
	return toResponse(s, nil), nil
}

func (u UseCase) Get(ctx context.Context, req Request) (Response, error) {
	id := strings.TrimSpace(req.SessionID)
	if id == "" {
		return Response{}, ErrInvalidRequest
	}
	var out Response
	err := u.Sessions.Update(ctx, id, func(s *ports.LiveSession) error {
		out = toResponse(s, nil)
		return nil
	})
	return out, err
}

// Step feeds one counterparty message to the agent and returns its reply.
// A finished session is archived and removed from the store.
func (u UseCase) Step(ctx context.Context, req StepRequest) (Response, error) {
	id := strings.TrimSpace(req.SessionID)
	text := strings.TrimSpace(req.CounterpartyText)
	if id == "" || text == "" {
		return Response{}, ErrInvalidRequest
	}

	var out Response
	var finished *ports.LiveSession
	err := u.Sessions.Update(ctx, id, func(s *ports.LiveSession) error {
		if s.State != awaitingHuman(s.Agent.Identity().Role) {
			return ErrSessionClosed
		}
		step := u.exchange(ctx, s, text)
		if _, done := s.State.Status(); done {
			finished = s
		}
		out = toResponse(s, &step)
		return nil
	})
	if err != nil {
		return Response{}, err
	}
	if finished != nil {
		if err := u.finish(ctx, finished); err != nil {
			return Response{}, err
		}
	}
	return out, nil
}

// End is the human walking away. Ending a session that is already finished
// fails with ErrSessionClosed.
func (u UseCase) End(ctx context.Context, req Request) (Response, error) {
	id := strings.TrimSpace(req.SessionID)
	if id == "" {
		return Response{}, ErrInvalidRequest
	}
	var out Response
	var ended *ports.LiveSession
	err := u.Sessions.Update(ctx, id, func(s *ports.LiveSession) error {
		if s.State != awaitingHuman(s.Agent.Identity().Role) {
			return ErrSessionClosed
		}
		human := humanParty(s)
		s.History = append(s.History, negotiation.TurnRecord{
			Round:       s.Agent.Round() + 1,
			Speaker:     human.Name,
			Role:        counterRole(s.Agent.Identity().Role),
			Personality: negotiation.PersonalityCustom,
			Message:     "I'm walking away.",
			Action:      negotiation.ActionWalkAway,
		})
		s.State = negotiation.StateNoDeal
		ended = s
		out = toResponse(s, nil)
		return nil
	})
	if err != nil {
		return Response{}, err
	}
	if err := u.finish(ctx, ended); err != nil {
		return Response{}, err
	}
	return out, nil
}

func (u UseCase) exchange(ctx context.Context, s *ports.LiveSession, text string) Step {
	me := s.Agent.Identity()
	round := s.Agent.Round() + 1

	var offered *float64
	if v, ok := negotiation.ExtractPrice(text); ok {
		offered = &v
	}
	s.History = append(s.History, negotiation.TurnRecord{
		Round:       round,
		Speaker:     humanParty(s).Name,
		Role:        counterRole(me.Role),
		Personality: negotiation.PersonalityCustom,
		Message:     text,
		Action:      negotiation.ActionCounter,
		Offer:       offered,
	})

	s.Agent.Observe(negotiation.Message{Text: text})
	decision := s.Agent.Decide(s.Config.MarketPrice)

	reply, warning := u.render(ctx, s, round, decision)
	s.History = append(s.History, negotiation.TurnRecord{
		Round:       round,
		Speaker:     me.Name,
		Role:        me.Role,
		Personality: me.Personality,
		Message:     reply,
		Action:      decision.Action,
		Offer:       decision.Offer,
	})

	switch {
	case decision.Action == negotiation.ActionAccept:
		s.State = negotiation.StateDealReached
		s.FinalPrice = decision.Offer
	case decision.Action == negotiation.ActionWalkAway:
		s.State = negotiation.StateNoDeal
	case round >= s.Config.MaxRounds:
		s.State = negotiation.StateMaxRoundsExhausted
	}

	step := Step{
		Round:             round,
		CounterpartyText:  text,
		CounterpartyOffer: offered,
		Action:            decision.Action,
		Offer:             decision.Offer,
		Message:           reply,
		Warning:           warning,
	}
	if observed, ok := s.Agent.LastObservedOffer(); ok {
		step.CounterpartyMarketPercent = MarketPercent(observed, s.Config.MarketPrice)
	}
	if decision.Offer != nil {
		step.OwnMarginPercent = OwnMarginPercent(me.Role, s.Agent.AnchorPrice(), *decision.Offer)
	}
	return step
}

func (u UseCase) render(ctx context.Context, s *ports.LiveSession, round int, d negotiation.Decision) (string, string) {
	if u.Renderer == nil {
		return d.Rationale, ""
	}
	me := s.Agent.Identity()
	text, err := u.Renderer.Render(ctx, ports.RenderRequest{
		Round:       round,
		SpeakerName: me.Name,
		Role:        me.Role,
		Personality: me.Personality,
		Action:      d.Action,
		Offer:       d.Offer,
		Product:     s.Config.Product,
		MarketPrice: s.Config.MarketPrice,
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty message")
	}
	if err != nil {
		log.Printf("live: render session=%s round=%d failed: %v", s.ID, round, err)
		if u.Metrics != nil {
			u.Metrics.RecordRenderFallback()
		}
		return d.Rationale, fmt.Sprintf("renderer fallback: %v", err)
	}
	return text, ""
}

func (u UseCase) finish(ctx context.Context, s *ports.LiveSession) error {
	status, _ := s.State.Status()
	if u.Repo != nil {
		history := make([]negotiation.TurnRecord, len(s.History))
		copy(history, s.History)
		rec := ports.NegotiationRecord{
			ID:         s.ID,
			Source:     ports.SourceLive,
			Config:     s.Config,
			FinalState: s.State,
			Outcome: negotiation.Outcome{
				Status:     status,
				FinalPrice: s.FinalPrice,
				History:    history,
			},
			CreatedAt: u.now(),
		}
		if err := u.Repo.Save(ctx, rec); err != nil {
			if u.Metrics != nil {
				u.Metrics.RecordFailure()
			}
			return err
		}
	}
	if u.Metrics != nil {
		u.Metrics.RecordOutcome(status, s.Agent.Round())
	}
	return u.Sessions.Delete(ctx, s.ID)
}

// MarketPercent is how far a price sits above (or below) market.
func MarketPercent(offer, market float64) *float64 {
	if market <= 0 {
		return nil
	}
	v := (offer - market) / market * 100
	return &v
}

// OwnMarginPercent is the agent's margin at offer: resale over price for a
// buyer, price over cost for a seller.
func OwnMarginPercent(role negotiation.Role, anchor, offer float64) *float64 {
	if role == negotiation.RoleSeller {
		if anchor <= 0 {
			return nil
		}
		v := (offer - anchor) / anchor * 100
		return &v
	}
	if offer <= 0 {
		return nil
	}
	v := (anchor - offer) / offer * 100
	return &v
}

func awaitingHuman(agentRole negotiation.Role) negotiation.State {
	if agentRole == negotiation.RoleSeller {
		return negotiation.StateAwaitingBuyer
	}
	return negotiation.StateAwaitingSeller
}

func counterRole(r negotiation.Role) negotiation.Role {
	if r == negotiation.RoleSeller {
		return negotiation.RoleBuyer
	}
	return negotiation.RoleSeller
}

func humanParty(s *ports.LiveSession) negotiation.PartyConfig {
	if s.Agent.Identity().Role == negotiation.RoleSeller {
		return s.Config.Buyer
	}
	return s.Config.Seller
}

func (u UseCase) newID() string {
	if u.NewID != nil {
		return u.NewID()
	}
	return ids.New()
}

func (u UseCase) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}

func toResponse(s *ports.LiveSession, last *Step) Response {
	status, _ := s.State.Status()
	history := make([]negotiation.TurnRecord, len(s.History))
	copy(history, s.History)
	return Response{
		ID:         s.ID,
		Role:       s.Agent.Identity().Role,
		State:      s.State,
		Status:     status,
		FinalPrice: s.FinalPrice,
		Round:      s.Agent.Round(),
		MaxRounds:  s.Config.MaxRounds,
		Last:       last,
		History:    history,
		CreatedAt:  s.CreatedAt,
	}
}
