package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jason-s-yu/blackjack/internal/auth"
	"github.com/jason-s-yu/blackjack/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserExists        = errors.New("user already exists")
	ErrInvalidCredential = errors.New("invalid credentials")
)

// StartingExp is the EXP granted to every new user.
var StartingExp int64 = 1000

const uniqueViolation = "23505"

// CreateUser inserts the user with the starting EXP grant. Ephemeral users have no
// email or password.
func CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		user.ID = id
	}

	if user.Password != "" {
		hash, err := auth.CreateHash(user.Password, auth.Params)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = hash
	}
	user.Exp = StartingExp

	q := `INSERT INTO users (id, email, password, username, is_ephemeral, is_admin, exp)
	      VALUES ($1, $2, $3, $4, $5, $6, $7)`

	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q,
			user.ID, nullableEmail(user.Email), user.Password, user.Username,
			user.IsEphemeral, user.IsAdmin, user.Exp,
		)
		return execErr
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	q := `
	SELECT id, COALESCE(email, ''), password, username, is_ephemeral, is_admin,
	       exp, wins, losses
	FROM users
	WHERE email=$1
	`
	return scanUser(DB.QueryRow(ctx, q, email))
}

func GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	q := `
	SELECT id, COALESCE(email, ''), password, username, is_ephemeral, is_admin,
	       exp, wins, losses
	FROM users
	WHERE id=$1
	`
	return scanUser(DB.QueryRow(ctx, q, id))
}

// AuthenticateUser checks the credentials and returns a signed session token.
func AuthenticateUser(ctx context.Context, email, password string) (string, error) {
	user, err := GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrInvalidCredential
		}
		return "", err
	}
	if user.IsEphemeral || user.Password == "" {
		return "", ErrInvalidCredential
	}

	match, err := auth.ComparePasswordAndHash(password, user.Password)
	if err != nil || !match {
		return "", ErrInvalidCredential
	}

	token, err := auth.CreateJWT(user.ID.String())
	if err != nil {
		return "", fmt.Errorf("failed to create jwt: %w", err)
	}
	return token, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Password, &u.Username,
		&u.IsEphemeral, &u.IsAdmin,
		&u.Exp, &u.Wins, &u.Losses,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func nullableEmail(email string) *string {
	if email == "" {
		return nil
	}
	return &email
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Users exposes the user queries on DB as a value the HTTP layer can hold.
type Users struct{}

func (Users) CreateUser(ctx context.Context, u *models.User) error { return CreateUser(ctx, u) }

func (Users) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return GetUserByID(ctx, id)
}

func (Users) AuthenticateUser(ctx context.Context, email, password string) (string, error) {
	return AuthenticateUser(ctx, email, password)
}

func (Users) ClaimUser(ctx context.Context, u *models.User) error { return ClaimUser(ctx, u) }
