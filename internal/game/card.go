// internal/game/card.go
package game

import (
	"fmt"
	"strings"
)

// Suit is one of the four French suits.
type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
)

// Rank identifies a card within its suit.
type Rank string

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

var (
	suits = []Suit{Spades, Hearts, Diamonds, Clubs}
	ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}
)

// rankValues holds the blackjack point value of each rank, counting an Ace as 11.
var rankValues = map[Rank]int{
	Ace: 11, Two: 2, Three: 3, Four: 4, Five: 5, Six: 6, Seven: 7,
	Eight: 8, Nine: 9, Ten: 10, Jack: 10, Queen: 10, King: 10,
}

// Card is a single playing card. Cards are values and never change once drawn.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// Value returns the card's baseline point value (Ace=11).
func (c Card) Value() int {
	return rankValues[c.Rank]
}

// IsAce reports whether the card is an Ace.
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// IsRed reports whether the card is a heart or a diamond.
func (c Card) IsRed() bool {
	return c.Suit == Hearts || c.Suit == Diamonds
}

func (c Card) String() string {
	return string(c.Rank) + string(c.Suit)
}

// ParseCard reads shorthand such as "10♠", "Ks" or "AH" into a Card.
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	for _, suit := range suits {
		if strings.HasSuffix(s, string(suit)) {
			return parseRank(strings.TrimSuffix(s, string(suit)), suit)
		}
	}
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card shorthand: %q", s)
	}

	var suit Suit
	switch s[len(s)-1:] {
	case "s", "S":
		suit = Spades
	case "h", "H":
		suit = Hearts
	case "d", "D":
		suit = Diamonds
	case "c", "C":
		suit = Clubs
	default:
		return Card{}, fmt.Errorf("invalid card suit in %q", s)
	}
	return parseRank(s[:len(s)-1], suit)
}

func parseRank(r string, suit Suit) (Card, error) {
	rank := Rank(strings.ToUpper(r))
	if rank == "T" {
		rank = Ten
	}
	if _, ok := rankValues[rank]; !ok {
		return Card{}, fmt.Errorf("invalid card rank: %q", r)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

// MustParseCard is ParseCard for fixtures; it panics on malformed input.
func MustParseCard(s string) Card {
	c, err := ParseCard(s)
	if err != nil {
		panic(err)
	}
	return c
}
