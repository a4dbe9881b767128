package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"haggle/internal/adapter/repo/gorm/model"
	"haggle/internal/app/ports"
	"haggle/internal/domain/negotiation"

	"gorm.io/gorm"
)

type NegotiationRepo struct {
	db *gorm.DB
}

func NewNegotiationRepo(db *gorm.DB) NegotiationRepo {
	return NegotiationRepo{db: db}
}

func (r NegotiationRepo) Save(ctx context.Context, rec ports.NegotiationRecord) error {
	row, turns, err := toModel(rec)
	if err != nil {
		return err
	}
	// Header and turns must land together; join the caller's tx or open one.
	return NewTxManager(r.db).RunInTx(ctx, func(txCtx context.Context) error {
		db := dbFromCtx(txCtx, r.db)
		if err := db.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ports.ErrConflict
			}
			return err
		}
		if len(turns) == 0 {
			return nil
		}
		return db.CreateInBatches(turns, 100).Error
	})
}

func (r NegotiationRepo) GetByID(ctx context.Context, id string) (ports.NegotiationRecord, error) {
	var row model.Negotiation
	err := dbFromCtx(ctx, r.db).Where(&model.Negotiation{ID: id}).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.NegotiationRecord{}, ports.ErrNotFound
		}
		return ports.NegotiationRecord{}, err
	}
	return r.withTurns(ctx, row)
}

func (r NegotiationRepo) GetByIdempotencyKey(ctx context.Context, key string) (*ports.NegotiationRecord, error) {
	var row model.Negotiation
	err := dbFromCtx(ctx, r.db).Where("idempotency_key = ?", key).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	rec, err := r.withTurns(ctx, row)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns headers only; History is left empty.
func (r NegotiationRepo) List(ctx context.Context, limit int) ([]ports.NegotiationRecord, error) {
	var rows []model.Negotiation
	q := dbFromCtx(ctx, r.db).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ports.NegotiationRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := fromModel(row, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r NegotiationRepo) withTurns(ctx context.Context, row model.Negotiation) (ports.NegotiationRecord, error) {
	var turns []model.NegotiationTurn
	if err := dbFromCtx(ctx, r.db).Where("negotiation_id = ?", row.ID).Order("seq ASC").Find(&turns).Error; err != nil {
		return ports.NegotiationRecord{}, err
	}
	return fromModel(row, turns)
}

func toModel(rec ports.NegotiationRecord) (model.Negotiation, []model.NegotiationTurn, error) {
	warnings := rec.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return model.Negotiation{}, nil, fmt.Errorf("encode warnings: %w", err)
	}
	row := model.Negotiation{
		ID:                rec.ID,
		Source:            rec.Source,
		Product:           rec.Config.Product,
		MarketPrice:       rec.Config.MarketPrice,
		BuyerName:         rec.Config.Buyer.Name,
		BuyerPersonality:  rec.Config.Buyer.Personality,
		BuyerAnchor:       rec.Config.Buyer.AnchorPrice,
		SellerName:        rec.Config.Seller.Name,
		SellerPersonality: rec.Config.Seller.Personality,
		SellerAnchor:      rec.Config.Seller.AnchorPrice,
		MaxRounds:         int32(rec.Config.MaxRounds),
		SellerTermination: string(rec.Config.SellerTermination),
		Status:            string(rec.Outcome.Status),
		FinalState:        string(rec.FinalState),
		FinalPrice:        rec.Outcome.FinalPrice,
		Warnings:          warningsJSON,
		CreatedAt:         rec.CreatedAt,
	}
	if rec.IdempotencyKey != "" {
		key := rec.IdempotencyKey
		row.IdempotencyKey = &key
	}
	turns := make([]model.NegotiationTurn, 0, len(rec.Outcome.History))
	for i, t := range rec.Outcome.History {
		turns = append(turns, model.NegotiationTurn{
			NegotiationID: rec.ID,
			Seq:           int32(i),
			Round:         int32(t.Round),
			Speaker:       t.Speaker,
			Role:          string(t.Role),
			Personality:   string(t.Personality),
			Message:       t.Message,
			Action:        string(t.Action),
			Offer:         t.Offer,
		})
		row.Rounds = int32(t.Round)
	}
	return row, turns, nil
}

func fromModel(row model.Negotiation, turns []model.NegotiationTurn) (ports.NegotiationRecord, error) {
	var warnings []string
	if len(row.Warnings) > 0 {
		if err := json.Unmarshal(row.Warnings, &warnings); err != nil {
			return ports.NegotiationRecord{}, fmt.Errorf("decode warnings of %s: %w", row.ID, err)
		}
	}
	rec := ports.NegotiationRecord{
		ID:     row.ID,
		Source: row.Source,
		Config: negotiation.SessionConfig{
			Product:           row.Product,
			MarketPrice:       row.MarketPrice,
			Buyer:             negotiation.PartyConfig{Name: row.BuyerName, Personality: row.BuyerPersonality, AnchorPrice: row.BuyerAnchor},
			Seller:            negotiation.PartyConfig{Name: row.SellerName, Personality: row.SellerPersonality, AnchorPrice: row.SellerAnchor},
			MaxRounds:         int(row.MaxRounds),
			SellerTermination: negotiation.Termination(row.SellerTermination),
		},
		FinalState: negotiation.State(row.FinalState),
		Outcome: negotiation.Outcome{
			Status:     negotiation.Status(row.Status),
			FinalPrice: row.FinalPrice,
		},
		Warnings:  warnings,
		CreatedAt: row.CreatedAt,
	}
	if row.IdempotencyKey != nil {
		rec.IdempotencyKey = *row.IdempotencyKey
	}
	if turns != nil {
		rec.Outcome.History = make([]negotiation.TurnRecord, 0, len(turns))
		for _, t := range turns {
			rec.Outcome.History = append(rec.Outcome.History, negotiation.TurnRecord{
				Round:       int(t.Round),
				Speaker:     t.Speaker,
				Role:        negotiation.Role(t.Role),
				Personality: negotiation.Personality(t.Personality),
				Message:     t.Message,
				Action:      negotiation.Action(t.Action),
				Offer:       t.Offer,
			})
		}
	}
	return rec, nil
}
