package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/blackjack/internal/game"
	"github.com/jason-s-yu/blackjack/internal/models"
)

// RoundRecorder stores every settled round for later review.
type RoundRecorder struct {
	pool *pgxpool.Pool
}

func NewRoundRecorder(pool *pgxpool.Pool) *RoundRecorder {
	return &RoundRecorder{pool: pool}
}

// RecordRound persists a completed round. Recording the same round twice is a no-op.
func (rr *RoundRecorder) RecordRound(ctx context.Context, playerID uuid.UUID, r *game.Round) error {
	if r.Status != game.StatusComplete || r.Result == nil {
		return fmt.Errorf("round %s is not complete", r.ID)
	}

	hands, err := json.Marshal(r.PlayerHands)
	if err != nil {
		return err
	}
	dealer, err := json.Marshal(r.DealerHand)
	if err != nil {
		return err
	}
	result, err := json.Marshal(r.Result)
	if err != nil {
		return err
	}

	q := `
		INSERT INTO rounds (
			id, player_id, total_wagered, total_delta, payout, outcome,
			player_hands, dealer_hand, result
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	return pgx.BeginTxFunc(ctx, rr.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, e := tx.Exec(ctx, q,
			r.ID, playerID, r.TotalWagered, r.Result.TotalDelta, r.Result.Payout(r.TotalWagered),
			string(r.Result.Outcome), hands, dealer, result,
		)
		return e
	})
}

// InsertRoundActions writes a batch of logged actions in one transaction. Actions that
// were already stored are skipped.
func InsertRoundActions(ctx context.Context, pool *pgxpool.Pool, batch []models.RoundAction) error {
	q := `
		INSERT INTO round_actions (
			round_id, action_index, player_id, action_type, action_payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (round_id, action_index) DO NOTHING
	`
	return pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range batch {
			payload, err := json.Marshal(rec.ActionPayload)
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, q,
				rec.RoundID, rec.ActionIndex, rec.PlayerID, rec.ActionType, payload,
				time.UnixMilli(rec.Timestamp),
			)
			if err != nil {
				return fmt.Errorf("insert action %d of round %s: %w", rec.ActionIndex, rec.RoundID, err)
			}
		}
		return nil
	})
}
