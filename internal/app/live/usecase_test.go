package live

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"haggle/internal/app/ports"
	"haggle/internal/domain/negotiation"
)

func startSession(t *testing.T, uc UseCase) Response {
	t.Helper()
	out, err := uc.Start(context.Background(), StartRequest{
		Role:        negotiation.RoleBuyer,
		Name:        "Alice",
		Personality: "Diplomatic Buyer",
		AnchorPrice: 100000,
		Product:     "Camera",
		MarketPrice: 50000,
	})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	return out
}

func TestUseCase_StepCountersAndReportsMargins(t *testing.T) {
	store := newFakeStore()
	uc := UseCase{Sessions: store, NewID: func() string { return "live-1" }}
	started := startSession(t, uc)
	if started.State != negotiation.StateAwaitingSeller || started.MaxRounds != 10 {
		t.Fatalf("unexpected start: %+v", started)
	}

	out, err := uc.Step(context.Background(), StepRequest{SessionID: "live-1", CounterpartyText: "I want ₹80,000 for it"})
	if err != nil {
		t.Fatalf("Step error: %v", err)
	}
	if out.Last == nil || out.Last.Action != negotiation.ActionCounter {
		t.Fatalf("expected buyer counter, got %+v", out.Last)
	}
	if *out.Last.CounterpartyOffer != 80000 || *out.Last.Offer != 60000 {
		t.Fatalf("unexpected offers: seller=%v buyer=%v", *out.Last.CounterpartyOffer, *out.Last.Offer)
	}
	if got := *out.Last.CounterpartyMarketPercent; math.Abs(got-60) > 1e-9 {
		t.Fatalf("seller vs market: got=%f want=60", got)
	}
	if got := *out.Last.OwnMarginPercent; math.Abs(got-(40000.0/60000.0*100)) > 1e-9 {
		t.Fatalf("buyer margin: got=%f", got)
	}
	if len(out.History) != 2 || out.History[0].Role != negotiation.RoleSeller {
		t.Fatalf("expected seller then buyer records, got %+v", out.History)
	}
	if out.State != negotiation.StateAwaitingSeller {
		t.Fatalf("expected AWAITING_SELLER, got %s", out.State)
	}
}

func TestUseCase_AcceptArchivesAndCloses(t *testing.T) {
	store := newFakeStore()
	repo := &fakeRepo{}
	uc := UseCase{Sessions: store, Repo: repo, NewID: func() string { return "live-1" }}
	startSession(t, uc)

	out, err := uc.Step(context.Background(), StepRequest{SessionID: "live-1", CounterpartyText: "Fine, ₹66,000 and it's yours."})
	if err != nil {
		t.Fatalf("Step error: %v", err)
	}
	if out.State != negotiation.StateDealReached || out.Status != negotiation.StatusDealReached {
		t.Fatalf("expected deal, got %s", out.State)
	}
	if out.FinalPrice == nil || *out.FinalPrice != 66000 {
		t.Fatalf("expected final price 66000, got %v", out.FinalPrice)
	}
	if len(repo.saved) != 1 || repo.saved[0].Source != ports.SourceLive {
		t.Fatalf("expected one live archive, got %+v", repo.saved)
	}
	if _, err := uc.Step(context.Background(), StepRequest{SessionID: "live-1", CounterpartyText: "hello"}); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected finished session to be gone, got %v", err)
	}
}

func TestUseCase_ExhaustsAfterMaxRounds(t *testing.T) {
	store := newFakeStore()
	uc := UseCase{Sessions: store, NewID: func() string { return "live-1" }}
	if _, err := uc.Start(context.Background(), StartRequest{
		Name:        "Alice",
		AnchorPrice: 100000,
		MarketPrice: 50000,
		MaxRounds:   2,
	}); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	for i := 0; i < 2; i++ {
		out, err := uc.Step(context.Background(), StepRequest{SessionID: "live-1", CounterpartyText: "₹99,000 firm"})
		if err != nil {
			t.Fatalf("Step %d error: %v", i, err)
		}
		if i == 1 && out.State != negotiation.StateMaxRoundsExhausted {
			t.Fatalf("expected MAX_ROUNDS_EXHAUSTED, got %s", out.State)
		}
	}
}

func TestUseCase_EndIsSellerWalkAway(t *testing.T) {
	store := newFakeStore()
	repo := &fakeRepo{}
	uc := UseCase{Sessions: store, Repo: repo, NewID: func() string { return "live-1" }}
	startSession(t, uc)

	out, err := uc.End(context.Background(), Request{SessionID: "live-1"})
	if err != nil {
		t.Fatalf("End error: %v", err)
	}
	if out.Status != negotiation.StatusNoDeal {
		t.Fatalf("expected no_deal, got %s", out.Status)
	}
	last := repo.saved[0].Outcome.History[len(repo.saved[0].Outcome.History)-1]
	if last.Action != negotiation.ActionWalkAway || last.Role != negotiation.RoleSeller {
		t.Fatalf("expected seller walk_away, got %+v", last)
	}
}

func TestUseCase_ClosedSessionRejectsSteps(t *testing.T) {
	store := newFakeStore()
	repo := &fakeRepo{err: errors.New("db down")}
	uc := UseCase{Sessions: store, Repo: repo, NewID: func() string { return "live-1" }}
	startSession(t, uc)

	if _, err := uc.End(context.Background(), Request{SessionID: "live-1"}); err == nil {
		t.Fatalf("expected archive failure")
	}
	if _, err := uc.Step(context.Background(), StepRequest{SessionID: "live-1", CounterpartyText: "₹1"}); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestUseCase_ValidatesInput(t *testing.T) {
	uc := UseCase{Sessions: newFakeStore()}
	_, err := uc.Start(context.Background(), StartRequest{MarketPrice: 0, AnchorPrice: 1})
	if !errors.Is(err, negotiation.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	_, err = uc.Start(context.Background(), StartRequest{Role: "broker", MarketPrice: 10, AnchorPrice: 1})
	var cerr *negotiation.ConfigError
	if !errors.As(err, &cerr) || cerr.Field != "role" {
		t.Fatalf("expected ConfigError on role, got %v", err)
	}
	if _, err := uc.Step(context.Background(), StepRequest{SessionID: "x", CounterpartyText: "   "}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestUseCase_TerminationValidatedForEitherRole(t *testing.T) {
	store := newFakeStore()
	uc := UseCase{Sessions: store, NewID: func() string { return "live-t" }}
	for _, role := range []negotiation.Role{negotiation.RoleBuyer, negotiation.RoleSeller} {
		_, err := uc.Start(context.Background(), StartRequest{Role: role, MarketPrice: 100, AnchorPrice: 50, Termination: "sulk"})
		var cerr *negotiation.ConfigError
		if !errors.As(err, &cerr) || cerr.Field != "seller_termination" {
			t.Fatalf("%s: expected ConfigError on seller_termination, got %v", role, err)
		}
	}

	if _, err := uc.Start(context.Background(), StartRequest{Role: negotiation.RoleBuyer, MarketPrice: 100, AnchorPrice: 50, Termination: " FLOOR "}); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if got, want := store.sessions["live-t"].Config.SellerTermination, negotiation.TerminationFloor; got != want {
		t.Fatalf("stored termination mismatch: got=%q want=%q", got, want)
	}
}

func TestUseCase_SellerAgentWalksAwayAtForcedRound(t *testing.T) {
	store := newFakeStore()
	repo := &fakeRepo{}
	uc := UseCase{Sessions: store, Repo: repo, NewID: func() string { return "live-s" }}
	started, err := uc.Start(context.Background(), StartRequest{
		Role:        negotiation.RoleSeller,
		Name:        "Bob",
		AnchorPrice: 10000,
		MarketPrice: 11000,
	})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if started.State != negotiation.StateAwaitingBuyer {
		t.Fatalf("expected AWAITING_BUYER, got %s", started.State)
	}

	var out Response
	for i := 0; i < negotiation.ForcedRound; i++ {
		out, err = uc.Step(context.Background(), StepRequest{SessionID: "live-s", CounterpartyText: "I'll give you 9000"})
		if err != nil {
			t.Fatalf("Step %d error: %v", i, err)
		}
		if i == 0 {
			if got := *out.Last.OwnMarginPercent; math.Abs(got-35) > 1e-9 {
				t.Fatalf("seller margin at opening 13500: got=%f want=35", got)
			}
		}
	}
	if out.State != negotiation.StateNoDeal || out.Last.Action != negotiation.ActionWalkAway {
		t.Fatalf("expected seller walk_away, got %s / %+v", out.State, out.Last)
	}
	if out.Last.OwnMarginPercent != nil {
		t.Fatalf("walk_away has no offer to compute a margin for")
	}
	if len(repo.saved) != 1 || repo.saved[0].Config.Seller.Name != "Bob" || repo.saved[0].Config.Buyer.Name != "Buyer" {
		t.Fatalf("unexpected archive: %+v", repo.saved)
	}
}

func TestMarginPercents(t *testing.T) {
	if got := *MarketPercent(13000, 10000); math.Abs(got-30) > 1e-9 {
		t.Fatalf("market percent: got=%f want=30", got)
	}
	if got := *OwnMarginPercent(negotiation.RoleBuyer, 15000, 10000); math.Abs(got-50) > 1e-9 {
		t.Fatalf("buyer margin: got=%f want=50", got)
	}
	if got := *OwnMarginPercent(negotiation.RoleSeller, 10000, 12000); math.Abs(got-20) > 1e-9 {
		t.Fatalf("seller margin: got=%f want=20", got)
	}
	if OwnMarginPercent(negotiation.RoleBuyer, 15000, 0) != nil || MarketPercent(1, 0) != nil {
		t.Fatalf("expected nil for zero denominators")
	}
}

type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]*ports.LiveSession
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[string]*ports.LiveSession{}}
}

func (s *fakeStore) Create(_ context.Context, sess *ports.LiveSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return ports.ErrConflict
	}
	s.sessions[sess.ID] = sess
	return nil
}

func (s *fakeStore) Update(_ context.Context, id string, fn func(*ports.LiveSession) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ports.ErrNotFound
	}
	return fn(sess)
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

type fakeRepo struct {
	saved []ports.NegotiationRecord
	err   error
}

func (r *fakeRepo) Save(_ context.Context, rec ports.NegotiationRecord) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, rec)
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, _ string) (ports.NegotiationRecord, error) {
	return ports.NegotiationRecord{}, ports.ErrNotFound
}

func (r *fakeRepo) GetByIdempotencyKey(_ context.Context, _ string) (*ports.NegotiationRecord, error) {
	return nil, ports.ErrNotFound
}

func (r *fakeRepo) List(_ context.Context, _ int) ([]ports.NegotiationRecord, error) {
	return r.saved, nil
}

var (
	_ ports.LiveSessionStore      = (*fakeStore)(nil)
	_ ports.NegotiationRepository = (*fakeRepo)(nil)
)
