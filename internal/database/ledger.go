package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/blackjack/internal/game"
	"github.com/jason-s-yu/blackjack/internal/models"
)

// Ledger keeps EXP balances and win/loss counts in the users table.
type Ledger struct {
	pool *pgxpool.Pool
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

func (l *Ledger) GetBalance(ctx context.Context, playerID uuid.UUID) (int64, error) {
	var exp int64
	err := l.pool.QueryRow(ctx, `SELECT exp FROM users WHERE id = $1`, playerID).Scan(&exp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return exp, nil
}

// AdjustBalance adds delta to the balance in one statement, so concurrent adjustments
// can never drive it below zero. It returns the new balance.
func (l *Ledger) AdjustBalance(ctx context.Context, playerID uuid.UUID, delta int64) (int64, error) {
	q := `
	UPDATE users
	SET exp = exp + $1
	WHERE id = $2 AND exp + $1 >= 0
	RETURNING exp
	`
	var exp int64
	err := l.pool.QueryRow(ctx, q, delta, playerID).Scan(&exp)
	if err == nil {
		return exp, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("adjust balance: %w", err)
	}

	// no row updated: either the user is missing or the balance is too low
	if _, getErr := l.GetBalance(ctx, playerID); getErr != nil {
		return 0, getErr
	}
	return 0, fmt.Errorf("%w: cannot apply %d", game.ErrInsufficientFunds, delta)
}

func (l *Ledger) IncrementWins(ctx context.Context, playerID uuid.UUID) error {
	return l.increment(ctx, `UPDATE users SET wins = wins + 1 WHERE id = $1`, playerID)
}

func (l *Ledger) IncrementLosses(ctx context.Context, playerID uuid.UUID) error {
	return l.increment(ctx, `UPDATE users SET losses = losses + 1 WHERE id = $1`, playerID)
}

// SettleRound credits a round's payout and bumps the matching counter at most once
// per round. It reports false when the round was already settled.
func (l *Ledger) SettleRound(ctx context.Context, playerID, roundID uuid.UUID, payout int64, outcome game.Outcome) (bool, error) {
	applied := false
	err := pgx.BeginTxFunc(ctx, l.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO round_settlements (round_id, player_id, payout, outcome)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (round_id) DO NOTHING
		`, roundID, playerID, payout, string(outcome))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		wins, losses := 0, 0
		switch outcome {
		case game.OutcomeWin:
			wins = 1
		case game.OutcomeLoss:
			losses = 1
		}
		tag, err = tx.Exec(ctx, `
			UPDATE users
			SET exp = exp + $1, wins = wins + $2, losses = losses + $3
			WHERE id = $4
		`, payout, wins, losses, playerID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("settle round %s: %w", roundID, err)
	}
	return applied, nil
}

func (l *Ledger) GetStats(ctx context.Context, playerID uuid.UUID) (models.PlayerStats, error) {
	var st models.PlayerStats
	err := l.pool.QueryRow(ctx, `SELECT exp, wins, losses FROM users WHERE id = $1`, playerID).
		Scan(&st.Exp, &st.Wins, &st.Losses)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return st, ErrUserNotFound
		}
		return st, fmt.Errorf("get stats: %w", err)
	}
	return st, nil
}

func (l *Ledger) increment(ctx context.Context, q string, playerID uuid.UUID) error {
	tag, err := l.pool.Exec(ctx, q, playerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
