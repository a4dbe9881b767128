package inmemory

import (
	"sync"

	"haggle/internal/domain/negotiation"
)

type Snapshot struct {
	NegotiationTotal    uint64            `json:"negotiation_total"`
	NegotiationFinished uint64            `json:"negotiation_finished"`
	NegotiationConflict uint64            `json:"negotiation_conflict"`
	NegotiationFailure  uint64            `json:"negotiation_failure"`
	RenderFallback      uint64            `json:"render_fallback"`
	ByStatus            map[string]uint64 `json:"by_status"`
	RoundsTotal         uint64            `json:"rounds_total"`
	AvgRounds           float64           `json:"avg_rounds"`
	DealRate            float64           `json:"deal_rate"`
}

type Recorder struct {
	mu       sync.Mutex
	finished uint64
	conflict uint64
	failure  uint64
	fallback uint64
	rounds   uint64
	byStatus map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		byStatus: map[string]uint64{},
	}
}

func (r *Recorder) RecordOutcome(status negotiation.Status, rounds int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished++
	r.byStatus[string(status)]++
	if rounds > 0 {
		r.rounds += uint64(rounds)
	}
}

func (r *Recorder) RecordConflict() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflict++
}

func (r *Recorder) RecordFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure++
}

// RecordRenderFallback counts turns whose text fell back to the rationale.
func (r *Recorder) RecordRenderFallback() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		NegotiationFinished: r.finished,
		NegotiationConflict: r.conflict,
		NegotiationFailure:  r.failure,
		RenderFallback:      r.fallback,
		NegotiationTotal:    r.finished + r.conflict + r.failure,
		RoundsTotal:         r.rounds,
		ByStatus:            make(map[string]uint64, len(r.byStatus)),
	}
	for k, v := range r.byStatus {
		out.ByStatus[k] = v
	}
	if r.finished > 0 {
		out.AvgRounds = float64(r.rounds) / float64(r.finished)
		out.DealRate = float64(r.byStatus[string(negotiation.StatusDealReached)]) / float64(r.finished)
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}
