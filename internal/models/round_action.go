package models

import "github.com/google/uuid"

// RoundAction captures one player action at the table for the historian.
type RoundAction struct {
	RoundID       uuid.UUID              `json:"round_id"`
	ActionIndex   int                    `json:"action_index"`
	PlayerID      uuid.UUID              `json:"player_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}
