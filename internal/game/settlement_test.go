package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func betHand(t *testing.T, bet, insurance int64, shorthand ...string) *Hand {
	t.Helper()
	h := NewHand(bet)
	h.Insurance = insurance
	for _, c := range cards(t, shorthand...) {
		h.AddCard(c)
	}
	return h
}

func TestSettleRules(t *testing.T) {
	tests := []struct {
		name    string
		player  *Hand
		dealer  *Hand
		delta   int64
		outcome Outcome
	}{
		{"player bust", betHand(t, 100, 0, "10♠", "6♦", "K♣"), betHand(t, 0, 0, "10♥", "K♥", "5♦"), -100, OutcomeLoss},
		{"dealer blackjack beats 20", betHand(t, 100, 0, "K♠", "Q♦"), betHand(t, 0, 0, "A♥", "K♥"), -100, OutcomeLoss},
		{"blackjack push", betHand(t, 100, 0, "A♠", "Q♦"), betHand(t, 0, 0, "A♥", "K♥"), 0, OutcomePush},
		{"blackjack pays 3:2", betHand(t, 100, 0, "A♠", "Q♦"), betHand(t, 0, 0, "10♥", "K♥"), 150, OutcomeWin},
		{"blackjack bonus floors", betHand(t, 5, 0, "A♠", "Q♦"), betHand(t, 0, 0, "10♥", "K♥"), 7, OutcomeWin},
		{"dealer bust", betHand(t, 100, 0, "10♠", "2♦"), betHand(t, 0, 0, "10♥", "6♥", "9♦"), 100, OutcomeWin},
		{"higher total", betHand(t, 100, 0, "10♠", "9♦"), betHand(t, 0, 0, "10♥", "8♥"), 100, OutcomeWin},
		{"equal total", betHand(t, 100, 0, "10♠", "8♦"), betHand(t, 0, 0, "10♥", "8♥"), 0, OutcomePush},
		{"lower total", betHand(t, 100, 0, "10♠", "7♦"), betHand(t, 0, 0, "10♥", "8♥"), -100, OutcomeLoss},
		{"three card 21 is not blackjack", betHand(t, 100, 0, "7♠", "7♦", "7♣"), betHand(t, 0, 0, "A♥", "K♥"), -100, OutcomeLoss},
		{"insurance wins", betHand(t, 100, 50, "10♠", "9♦"), betHand(t, 0, 0, "A♥", "K♥"), 0, OutcomePush},
		{"insurance loses", betHand(t, 100, 50, "10♠", "9♦"), betHand(t, 0, 0, "A♥", "7♥"), 50, OutcomeWin},
		{"insurance with bust", betHand(t, 100, 50, "10♠", "6♦", "K♣"), betHand(t, 0, 0, "A♥", "K♥"), 0, OutcomePush},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Settle([]*Hand{tt.player}, tt.dealer)
			assert.Equal(t, tt.delta, res.TotalDelta)
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Len(t, res.Hands, 1)
			assert.Equal(t, res.Hands[0].Insurance+res.Hands[0].Main, res.Hands[0].Delta)
		})
	}
}

func TestSettleSumsHands(t *testing.T) {
	hands := []*Hand{
		betHand(t, 100, 0, "10♠", "9♦"),
		betHand(t, 100, 0, "10♣", "6♦", "K♣"),
		betHand(t, 200, 0, "5♠", "6♥", "10♦"),
	}
	dealer := betHand(t, 0, 0, "10♥", "8♥")

	res := Settle(hands, dealer)
	assert.Equal(t, []int64{100, -100, 200}, []int64{res.Hands[0].Delta, res.Hands[1].Delta, res.Hands[2].Delta})
	assert.Equal(t, int64(200), res.TotalDelta)
	assert.Equal(t, OutcomeWin, res.Outcome)
	assert.Equal(t, int64(600), res.Payout(400))
}

func TestSettleIsPure(t *testing.T) {
	hands := []*Hand{betHand(t, 100, 50, "A♠", "Q♦"), betHand(t, 100, 50, "9♣", "9♦")}
	dealer := betHand(t, 0, 0, "A♥", "6♥")

	handsBefore := []Hand{*hands[0], *hands[1]}
	dealerBefore := *dealer

	first := Settle(hands, dealer)
	second := Settle(hands, dealer)
	assert.Equal(t, first, second)

	assert.Equal(t, handsBefore[0], *hands[0])
	assert.Equal(t, handsBefore[1], *hands[1])
	assert.Equal(t, dealerBefore, *dealer)
}
