// internal/game/shoe.go
package game

import (
	"math/rand"
	"time"
)

// DefaultNumDecks is the number of 52-card decks in a standard shoe.
const DefaultNumDecks = 6

// Shoe is the drawable stack of cards for one round. Cards[0] is the top of the shoe.
type Shoe struct {
	Cards []Card `json:"cards"`
}

// NewShoe builds numDecks standard decks and shuffles them uniformly with rng.
// A nil rng uses a time-seeded source.
func NewShoe(numDecks int, rng *rand.Rand) *Shoe {
	if numDecks <= 0 {
		numDecks = DefaultNumDecks
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	cards := make([]Card, 0, numDecks*52)
	for d := 0; d < numDecks; d++ {
		for _, suit := range suits {
			for _, rank := range ranks {
				cards = append(cards, Card{Suit: suit, Rank: rank})
			}
		}
	}

	// rand.Shuffle is a Fisher-Yates shuffle
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Shoe{Cards: cards}
}

// NewStackedShoe returns an unshuffled shoe that deals cards in the given order.
func NewStackedShoe(cards ...Card) *Shoe {
	stacked := make([]Card, len(cards))
	copy(stacked, cards)
	return &Shoe{Cards: stacked}
}

// Draw removes and returns the top card.
func (s *Shoe) Draw() (Card, error) {
	if len(s.Cards) == 0 {
		return Card{}, ErrShoeExhausted
	}
	card := s.Cards[0]
	s.Cards = s.Cards[1:]
	return card, nil
}

// Remaining returns the number of undrawn cards.
func (s *Shoe) Remaining() int {
	return len(s.Cards)
}
