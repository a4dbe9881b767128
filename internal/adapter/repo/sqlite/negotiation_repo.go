package sqliterepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"haggle/internal/app/ports"
	"haggle/internal/domain/negotiation"
)

type NegotiationRepo struct {
	db *sql.DB
}

func NewNegotiationRepo(db *sql.DB) NegotiationRepo {
	return NegotiationRepo{db: db}
}

const negotiationColumns = `id, idempotency_key, source, product, market_price,
    buyer_name, buyer_personality, buyer_anchor,
    seller_name, seller_personality, seller_anchor,
    max_rounds, seller_termination, status, final_state, final_price, rounds, warnings, created_at_ms`

func (r NegotiationRepo) Save(ctx context.Context, rec ports.NegotiationRecord) error {
	warnings := rec.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}
	var key any
	if rec.IdempotencyKey != "" {
		key = rec.IdempotencyKey
	}
	rounds := 0
	if h := rec.Outcome.History; len(h) > 0 {
		rounds = h[len(h)-1].Round
	}

	return NewTxManager(r.db).RunInTx(ctx, func(txCtx context.Context) error {
		q := connFromCtx(txCtx, r.db)
		_, err := q.ExecContext(txCtx, `
INSERT INTO negotiations (`+negotiationColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, key, rec.Source, rec.Config.Product, rec.Config.MarketPrice,
			rec.Config.Buyer.Name, rec.Config.Buyer.Personality, rec.Config.Buyer.AnchorPrice,
			rec.Config.Seller.Name, rec.Config.Seller.Personality, rec.Config.Seller.AnchorPrice,
			rec.Config.MaxRounds, string(rec.Config.SellerTermination), string(rec.Outcome.Status),
			string(rec.FinalState), rec.Outcome.FinalPrice, rounds, string(warningsJSON),
			rec.CreatedAt.UTC().UnixMilli(),
		)
		if err != nil {
			if isConstraintViolation(err) {
				return ports.ErrConflict
			}
			return fmt.Errorf("insert negotiation %s: %w", rec.ID, err)
		}
		for i, t := range rec.Outcome.History {
			if _, err := q.ExecContext(txCtx, `
INSERT INTO negotiation_turns (negotiation_id, seq, round, speaker, role, personality, message, action, offer)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				rec.ID, i, t.Round, t.Speaker, string(t.Role), string(t.Personality), t.Message, string(t.Action), t.Offer,
			); err != nil {
				return fmt.Errorf("insert turn %d of %s: %w", i, rec.ID, err)
			}
		}
		return nil
	})
}

func (r NegotiationRepo) GetByID(ctx context.Context, id string) (ports.NegotiationRecord, error) {
	q := connFromCtx(ctx, r.db)
	rec, err := scanNegotiation(q.QueryRowContext(ctx, `SELECT `+negotiationColumns+` FROM negotiations WHERE id = ?`, id))
	if err != nil {
		return ports.NegotiationRecord{}, err
	}
	if err := r.loadTurns(ctx, &rec); err != nil {
		return ports.NegotiationRecord{}, err
	}
	return rec, nil
}

func (r NegotiationRepo) GetByIdempotencyKey(ctx context.Context, key string) (*ports.NegotiationRecord, error) {
	q := connFromCtx(ctx, r.db)
	rec, err := scanNegotiation(q.QueryRowContext(ctx, `SELECT `+negotiationColumns+` FROM negotiations WHERE idempotency_key = ?`, key))
	if err != nil {
		return nil, err
	}
	if err := r.loadTurns(ctx, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns headers only; History is left empty.
func (r NegotiationRepo) List(ctx context.Context, limit int) ([]ports.NegotiationRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := connFromCtx(ctx, r.db).QueryContext(ctx,
		`SELECT `+negotiationColumns+` FROM negotiations ORDER BY created_at_ms DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.NegotiationRecord
	for rows.Next() {
		rec, err := scanNegotiation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r NegotiationRepo) loadTurns(ctx context.Context, rec *ports.NegotiationRecord) error {
	rows, err := connFromCtx(ctx, r.db).QueryContext(ctx, `
SELECT round, speaker, role, personality, message, action, offer
FROM negotiation_turns WHERE negotiation_id = ? ORDER BY seq ASC`, rec.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	rec.Outcome.History = []negotiation.TurnRecord{}
	for rows.Next() {
		var (
			t                         negotiation.TurnRecord
			role, personality, action string
			offer                     sql.NullFloat64
		)
		if err := rows.Scan(&t.Round, &t.Speaker, &role, &personality, &t.Message, &action, &offer); err != nil {
			return err
		}
		t.Role = negotiation.Role(role)
		t.Personality = negotiation.Personality(personality)
		t.Action = negotiation.Action(action)
		if offer.Valid {
			v := offer.Float64
			t.Offer = &v
		}
		rec.Outcome.History = append(rec.Outcome.History, t)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNegotiation(row rowScanner) (ports.NegotiationRecord, error) {
	var (
		rec                        ports.NegotiationRecord
		key                        sql.NullString
		termination, status, state string
		finalPrice                 sql.NullFloat64
		rounds                     int
		warnings                   string
		createdAtMs                int64
	)
	err := row.Scan(
		&rec.ID, &key, &rec.Source, &rec.Config.Product, &rec.Config.MarketPrice,
		&rec.Config.Buyer.Name, &rec.Config.Buyer.Personality, &rec.Config.Buyer.AnchorPrice,
		&rec.Config.Seller.Name, &rec.Config.Seller.Personality, &rec.Config.Seller.AnchorPrice,
		&rec.Config.MaxRounds, &termination, &status, &state, &finalPrice, &rounds, &warnings, &createdAtMs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.NegotiationRecord{}, ports.ErrNotFound
		}
		return ports.NegotiationRecord{}, err
	}
	rec.IdempotencyKey = key.String
	rec.Config.SellerTermination = negotiation.Termination(termination)
	rec.Outcome.Status = negotiation.Status(status)
	rec.FinalState = negotiation.State(state)
	if finalPrice.Valid {
		v := finalPrice.Float64
		rec.Outcome.FinalPrice = &v
	}
	if err := json.Unmarshal([]byte(warnings), &rec.Warnings); err != nil {
		return ports.NegotiationRecord{}, fmt.Errorf("decode warnings of %s: %w", rec.ID, err)
	}
	rec.CreatedAt = time.UnixMilli(createdAtMs).UTC()
	return rec, nil
}

func isConstraintViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
