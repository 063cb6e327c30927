// internal/game/hand.go
package game

// HandStatus tracks where a hand is in its lifecycle. Everything except
// HandActive is terminal for the rest of the round.
type HandStatus string

const (
	HandActive    HandStatus = "active"
	HandStand     HandStatus = "stand"
	HandBust      HandStatus = "bust"
	HandBlackjack HandStatus = "blackjack"
)

// Hand is one player or dealer hand.
type Hand struct {
	Cards     []Card     `json:"cards"`
	Bet       int64      `json:"bet"`
	Status    HandStatus `json:"status"`
	Insurance int64      `json:"insurance"`
}

// NewHand returns an empty active hand carrying the given wager.
func NewHand(bet int64) *Hand {
	return &Hand{Cards: []Card{}, Bet: bet, Status: HandActive}
}

// AddCard appends a card and recomputes the status.
func (h *Hand) AddCard(c Card) {
	h.Cards = append(h.Cards, c)
	h.updateStatus()
}

func (h *Hand) updateStatus() {
	if h.Status != HandActive {
		return
	}
	switch {
	case h.IsBust():
		h.Status = HandBust
	case h.IsBlackjack():
		h.Status = HandBlackjack
	}
}

// Value returns the best total: every Ace counts 11 until the hand would bust,
// then Aces drop to 1 one at a time.
func (h *Hand) Value() int {
	value, _ := h.evaluate()
	return value
}

// IsSoft reports whether Value still counts an Ace as 11.
func (h *Hand) IsSoft() bool {
	_, soft := h.evaluate()
	return soft
}

// evaluate reduces soft Aces until the total fits or none are left.
func (h *Hand) evaluate() (value int, soft bool) {
	aces := 0
	for _, c := range h.Cards {
		value += c.Value()
		if c.IsAce() {
			aces++
		}
	}
	for value > 21 && aces > 0 {
		value -= 10
		aces--
	}
	return value, aces > 0
}

func (h *Hand) IsBust() bool {
	return h.Value() > 21
}

// IsBlackjack reports a two-card 21.
func (h *Hand) IsBlackjack() bool {
	return len(h.Cards) == 2 && h.Value() == 21
}

// CanSplit requires two cards of the same rank. A King and a Ten are both worth
// 10 but do not form a pair.
func (h *Hand) CanSplit() bool {
	return len(h.Cards) == 2 && h.Cards[0].Rank == h.Cards[1].Rank
}

// CanDouble allows doubling on the first two cards only.
func (h *Hand) CanDouble() bool {
	return len(h.Cards) == 2
}

// IsActive reports whether the player can still act on the hand.
func (h *Hand) IsActive() bool {
	return h.Status == HandActive
}
