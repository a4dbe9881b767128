package templaterender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"haggle/internal/adapter/render"
	"haggle/internal/app/ports"
	"haggle/internal/domain/negotiation"
)

type bankKey struct {
	role        negotiation.Role
	personality negotiation.Personality
}

// Renderer phrases decisions from per-persona phrase banks. Phrase choice
// comes from a seeded source, so the same seed and the same sequence of
// requests produce the same text.
type Renderer struct {
	mu        sync.Mutex
	rng       *rand.Rand
	overrides map[bankKey]Bank
}

func New(seed int64) *Renderer {
	return &Renderer{
		rng:       rand.New(rand.NewSource(seed)),
		overrides: map[bankKey]Bank{},
	}
}

// LoadOverrides reads an override file for every known personality. Missing
// files are skipped.
func (r *Renderer) LoadOverrides(ctx context.Context, provider ports.PhrasebookProvider) error {
	for _, entry := range negotiation.Catalog() {
		raw, err := provider.Phrasebook(ctx, entry.Personality)
		if errors.Is(err, ports.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load phrasebook %s: %w", entry.Personality, err)
		}
		var o Override
		if err := json.Unmarshal(raw, &o); err != nil {
			return fmt.Errorf("decode phrasebook %s: %w", entry.Personality, err)
		}
		r.mu.Lock()
		r.overrides[bankKey{negotiation.RoleBuyer, entry.Personality}] = o.Buyer
		r.overrides[bankKey{negotiation.RoleSeller, entry.Personality}] = o.Seller
		r.mu.Unlock()
	}
	return nil
}

func (r *Renderer) Render(_ context.Context, req ports.RenderRequest) (string, error) {
	r.mu.Lock()
	bank := builtinBank(req.Role, req.Personality).merge(r.overrides[bankKey{req.Role, req.Personality}])
	phrases := pick(bank, req)
	if len(phrases) == 0 {
		r.mu.Unlock()
		return "", fmt.Errorf("no phrases for %s %s %s", req.Role, req.Personality, req.Action)
	}
	phrase := phrases[r.rng.Intn(len(phrases))]
	r.mu.Unlock()

	offer := ""
	if req.Offer != nil {
		offer = render.Rupees(*req.Offer)
	}
	text := strings.NewReplacer(
		"{name}", req.SpeakerName,
		"{product}", productName(req.Product),
		"{market_price}", render.Rupees(req.MarketPrice),
		"{offer}", offer,
	).Replace(phrase)

	// Every priced turn must carry its number for a reader, even when an
	// override phrase leaves it out.
	if offer != "" && !strings.Contains(text, offer) {
		text = fmt.Sprintf("%s (%s)", text, offer)
	}
	return text, nil
}

func pick(b Bank, req ports.RenderRequest) []string {
	switch req.Action {
	case negotiation.ActionAccept:
		return b.Accepts
	case negotiation.ActionWalkAway:
		return b.Walks
	}
	if req.Opening && len(b.Openers) > 0 {
		return b.Openers
	}
	return b.Counters
}

func productName(p string) string {
	if p = strings.TrimSpace(p); p != "" {
		return p
	}
	return "item"
}
