// internal/game/rules.go
package game

import "fmt"

// DealerStandsOn is the total at which the dealer stops drawing. The dealer stands on
// soft and hard 17 alike.
const DealerStandsOn = 17

// Rules holds the table limits a round is played under.
type Rules struct {
	NumDecks int   `json:"numDecks"` // decks per shoe; default 6
	MinBet   int64 `json:"minBet"`   // smallest accepted opening wager
	MaxBet   int64 `json:"maxBet"`   // largest accepted opening wager (0 => no limit)
}

// DefaultRules returns a six-deck table with a minimum bet of 1 and no maximum.
func DefaultRules() Rules {
	return Rules{
		NumDecks: DefaultNumDecks,
		MinBet:   1,
		MaxBet:   0,
	}
}

// Validate checks that the limits are coherent.
func (r Rules) Validate() error {
	if r.NumDecks <= 0 {
		return fmt.Errorf("numDecks must be positive, got %d", r.NumDecks)
	}
	if r.MinBet <= 0 {
		return fmt.Errorf("minBet must be positive, got %d", r.MinBet)
	}
	if r.MaxBet != 0 && r.MaxBet < r.MinBet {
		return fmt.Errorf("maxBet %d is below minBet %d", r.MaxBet, r.MinBet)
	}
	return nil
}

// CheckBet rejects an opening wager outside the table limits.
func (r Rules) CheckBet(bet int64) error {
	minBet := r.MinBet
	if minBet <= 0 {
		minBet = 1
	}
	if bet < minBet {
		return fmt.Errorf("%w: bet %d is below the table minimum of %d", ErrIllegalAction, bet, minBet)
	}
	if r.MaxBet > 0 && bet > r.MaxBet {
		return fmt.Errorf("%w: bet %d is above the table maximum of %d", ErrIllegalAction, bet, r.MaxBet)
	}
	return nil
}
