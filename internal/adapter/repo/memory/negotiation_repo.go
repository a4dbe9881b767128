package memory

import (
	"context"

	"haggle/internal/app/ports"
	"haggle/internal/domain/negotiation"
)

type NegotiationRepo struct {
	store *Store
}

func NewNegotiationRepo(store *Store) NegotiationRepo {
	return NegotiationRepo{store: store}
}

func (r NegotiationRepo) Save(ctx context.Context, rec ports.NegotiationRecord) error {
	return r.store.write(ctx, func() error {
		if _, exists := r.store.negotiations[rec.ID]; exists {
			return ports.ErrConflict
		}
		if rec.IdempotencyKey != "" {
			if _, exists := r.store.byKey[rec.IdempotencyKey]; exists {
				return ports.ErrConflict
			}
			r.store.byKey[rec.IdempotencyKey] = rec.ID
		}
		r.store.negotiations[rec.ID] = cloneRecord(rec)
		r.store.order = append(r.store.order, rec.ID)
		return nil
	})
}

func (r NegotiationRepo) GetByID(ctx context.Context, id string) (ports.NegotiationRecord, error) {
	var (
		rec ports.NegotiationRecord
		ok  bool
	)
	r.store.read(ctx, func() {
		rec, ok = r.store.negotiations[id]
	})
	if !ok {
		return ports.NegotiationRecord{}, ports.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (r NegotiationRepo) GetByIdempotencyKey(ctx context.Context, key string) (*ports.NegotiationRecord, error) {
	var (
		rec ports.NegotiationRecord
		ok  bool
	)
	r.store.read(ctx, func() {
		var id string
		if id, ok = r.store.byKey[key]; ok {
			rec = r.store.negotiations[id]
		}
	})
	if !ok {
		return nil, ports.ErrNotFound
	}
	out := cloneRecord(rec)
	return &out, nil
}

func (r NegotiationRepo) List(ctx context.Context, limit int) ([]ports.NegotiationRecord, error) {
	var out []ports.NegotiationRecord
	r.store.read(ctx, func() {
		for i := len(r.store.order) - 1; i >= 0; i-- {
			if limit > 0 && len(out) >= limit {
				break
			}
			out = append(out, cloneRecord(r.store.negotiations[r.store.order[i]]))
		}
	})
	return out, nil
}

func cloneRecord(rec ports.NegotiationRecord) ports.NegotiationRecord {
	rec.Outcome.History = append([]negotiation.TurnRecord(nil), rec.Outcome.History...)
	rec.Warnings = append([]string(nil), rec.Warnings...)
	return rec
}
