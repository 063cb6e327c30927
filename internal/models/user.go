package models

import "github.com/google/uuid"

// User is a row of the users table. Exp is the player's EXP balance.
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"password,omitempty"`
	Username string    `json:"username"`

	IsEphemeral bool `json:"is_ephemeral"`
	IsAdmin     bool `json:"is_admin"`

	Exp    int64 `json:"exp"`
	Wins   int   `json:"wins"`
	Losses int   `json:"losses"`
}

// PlayerStats is the balance and record shown to a player.
type PlayerStats struct {
	Exp    int64 `json:"exp"`
	Wins   int   `json:"wins"`
	Losses int   `json:"losses"`
}
