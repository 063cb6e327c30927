package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/blackjack/internal/auth"
	"github.com/jason-s-yu/blackjack/internal/models"
)

// ClaimUser turns an ephemeral user into a permanent one, keeping its id and EXP.
func ClaimUser(ctx context.Context, u *models.User) error {
	hashed, err := auth.CreateHash(u.Password, auth.Params)
	if err != nil {
		return err
	}

	q := `UPDATE users
	      SET email = $1, password = $2, username = COALESCE(NULLIF($3, ''), username), is_ephemeral = FALSE
	      WHERE id = $4 AND is_ephemeral`
	err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, e := tx.Exec(ctx, q, u.Email, hashed, u.Username, u.ID)
		if e != nil {
			return e
		}
		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		if errors.Is(err, ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to claim user: %w", err)
	}
	u.Password = hashed
	u.IsEphemeral = false
	return nil
}
