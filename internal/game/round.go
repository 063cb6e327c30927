// internal/game/round.go
package game

import (
	"fmt"

	"github.com/google/uuid"
)

// RoundStatus is the state of the round state machine: betting -> playing -> complete.
type RoundStatus string

const (
	StatusBetting  RoundStatus = "betting"
	StatusPlaying  RoundStatus = "playing"
	StatusComplete RoundStatus = "complete"
)

// ActiveHand selects the hand the player is currently acting on.
const ActiveHand = -1

// Round holds the entire state of one betting round: the shoe, the player's hands
// (more than one after a split), the dealer hand and the wagers.
//
// A Round is owned by a single player session and is not safe for concurrent use.
// Every exported mutation validates before touching state, so a rejected action
// leaves the round unchanged.
type Round struct {
	ID    uuid.UUID `json:"id"`
	Rules Rules     `json:"rules"`

	Shoe        *Shoe   `json:"shoe"`
	PlayerHands []*Hand `json:"playerHands"`
	CurrentHand int     `json:"currentHand"`
	DealerHand  *Hand   `json:"dealerHand"`

	Status         RoundStatus `json:"status"`
	TotalWagered   int64       `json:"totalWagered"`
	InsuranceTaken bool        `json:"insuranceTaken"`

	// Result is filled in when the round completes.
	Result *Result `json:"result,omitempty"`

	// Settled records that the payout for Result has been credited.
	Settled bool `json:"settled"`

	// ActionIndex orders the actions logged for this round.
	ActionIndex int `json:"actionIndex"`
}

// NewRound returns a round in the betting state that deals from shoe.
func NewRound(shoe *Shoe, rules Rules) *Round {
	id, _ := uuid.NewRandom()
	return &Round{
		ID:          id,
		Rules:       rules,
		Shoe:        shoe,
		PlayerHands: []*Hand{},
		DealerHand:  NewHand(0),
		Status:      StatusBetting,
	}
}

// Start places the opening wager and deals player, dealer, player, dealer.
// The dealer's second card is the hole card.
func (r *Round) Start(bet int64) error {
	if r.Status != StatusBetting {
		return fmt.Errorf("%w: cannot start a round that is %s", ErrInvalidState, r.Status)
	}
	if err := r.Rules.CheckBet(bet); err != nil {
		return err
	}
	if r.Shoe.Remaining() < 4 {
		return ErrShoeExhausted
	}

	player := NewHand(bet)
	dealer := NewHand(0)
	for i := 0; i < 2; i++ {
		if err := r.dealTo(player); err != nil {
			return err
		}
		if err := r.dealTo(dealer); err != nil {
			return err
		}
	}

	r.PlayerHands = []*Hand{player}
	r.DealerHand = dealer
	r.CurrentHand = 0
	r.TotalWagered = bet
	r.Status = StatusPlaying
	return nil
}

// Hit draws one card into the hand. A bust moves play to the next hand.
func (r *Round) Hit(handIndex int) error {
	h, err := r.actingHand(handIndex)
	if err != nil {
		return err
	}
	if !h.IsActive() {
		return fmt.Errorf("%w: hand %d is %s", ErrIllegalAction, r.CurrentHand, h.Status)
	}
	if err := r.dealTo(h); err != nil {
		return err
	}
	if h.Status == HandBust {
		return r.nextHand()
	}
	return nil
}

// Stand ends play on the hand. A blackjack keeps its status.
func (r *Round) Stand(handIndex int) error {
	h, err := r.actingHand(handIndex)
	if err != nil {
		return err
	}
	if h.Status == HandActive {
		h.Status = HandStand
	}
	return r.nextHand()
}

// SplitCost validates a split without changing the round and returns the extra
// wager it requires.
func (r *Round) SplitCost(handIndex int) (int64, error) {
	h, err := r.actingHand(handIndex)
	if err != nil {
		return 0, err
	}
	if !h.IsActive() || !h.CanSplit() {
		return 0, fmt.Errorf("%w: hand %d cannot be split", ErrIllegalAction, r.CurrentHand)
	}
	return h.Bet, nil
}

// Split moves the second card of a pair into a new hand with the same wager, placed
// right after the original, and deals one card to each. Play stays on the original hand.
func (r *Round) Split(handIndex int) error {
	cost, err := r.SplitCost(handIndex)
	if err != nil {
		return err
	}
	if r.Shoe.Remaining() < 2 {
		return ErrShoeExhausted
	}

	idx := r.CurrentHand
	h := r.PlayerHands[idx]
	second := h.Cards[1]
	h.Cards = h.Cards[:1]

	split := NewHand(cost)
	split.AddCard(second)

	if err := r.dealTo(h); err != nil {
		return err
	}
	if err := r.dealTo(split); err != nil {
		return err
	}

	hands := make([]*Hand, 0, len(r.PlayerHands)+1)
	hands = append(hands, r.PlayerHands[:idx+1]...)
	hands = append(hands, split)
	hands = append(hands, r.PlayerHands[idx+1:]...)
	r.PlayerHands = hands
	r.TotalWagered += cost
	return nil
}

// DoubleCost validates a double down without changing the round and returns the
// extra wager it requires.
func (r *Round) DoubleCost(handIndex int) (int64, error) {
	h, err := r.actingHand(handIndex)
	if err != nil {
		return 0, err
	}
	if !h.IsActive() || !h.CanDouble() {
		return 0, fmt.Errorf("%w: hand %d cannot be doubled", ErrIllegalAction, r.CurrentHand)
	}
	return h.Bet, nil
}

// Double doubles the hand's wager, deals exactly one card and stands.
func (r *Round) Double(handIndex int) error {
	cost, err := r.DoubleCost(handIndex)
	if err != nil {
		return err
	}
	if r.Shoe.Remaining() < 1 {
		return ErrShoeExhausted
	}

	h := r.PlayerHands[r.CurrentHand]
	h.Bet += cost
	r.TotalWagered += cost
	if err := r.dealTo(h); err != nil {
		return err
	}
	if h.Status == HandActive {
		h.Status = HandStand
	}
	return r.nextHand()
}

// InsuranceCost validates an insurance request without changing the round and
// returns the total side bet: half of every hand's wager.
func (r *Round) InsuranceCost() (int64, error) {
	if r.Status != StatusPlaying {
		return 0, fmt.Errorf("%w: insurance requires a round in play, round is %s", ErrInvalidState, r.Status)
	}
	if r.InsuranceTaken {
		return 0, fmt.Errorf("%w: insurance already taken this round", ErrIllegalAction)
	}
	if len(r.DealerHand.Cards) == 0 || !r.DealerHand.Cards[0].IsAce() {
		return 0, fmt.Errorf("%w: insurance is only offered against a dealer Ace", ErrIllegalAction)
	}

	var cost int64
	for _, h := range r.PlayerHands {
		cost += h.Bet / 2
	}
	if cost == 0 {
		return 0, fmt.Errorf("%w: wager too small to insure", ErrIllegalAction)
	}
	return cost, nil
}

// Insurance places a side bet of half the wager on every player hand. It can be
// taken once per round.
func (r *Round) Insurance() error {
	cost, err := r.InsuranceCost()
	if err != nil {
		return err
	}
	for _, h := range r.PlayerHands {
		h.Insurance = h.Bet / 2
	}
	r.TotalWagered += cost
	r.InsuranceTaken = true
	return nil
}

// Active returns the hand play is currently on, or nil outside of play.
func (r *Round) Active() *Hand {
	if r.Status != StatusPlaying || r.CurrentHand < 0 || r.CurrentHand >= len(r.PlayerHands) {
		return nil
	}
	return r.PlayerHands[r.CurrentHand]
}

// actingHand resolves handIndex for a player action. Only the current hand may be played.
func (r *Round) actingHand(handIndex int) (*Hand, error) {
	if r.Status != StatusPlaying {
		return nil, fmt.Errorf("%w: no hand in play, round is %s", ErrInvalidState, r.Status)
	}
	if handIndex == ActiveHand {
		handIndex = r.CurrentHand
	}
	if handIndex < 0 || handIndex >= len(r.PlayerHands) {
		return nil, fmt.Errorf("%w: hand %d does not exist", ErrIllegalAction, handIndex)
	}
	if handIndex != r.CurrentHand {
		return nil, fmt.Errorf("%w: hand %d is not in play, current hand is %d", ErrIllegalAction, handIndex, r.CurrentHand)
	}
	return r.PlayerHands[handIndex], nil
}

func (r *Round) dealTo(h *Hand) error {
	card, err := r.Shoe.Draw()
	if err != nil {
		return err
	}
	h.AddCard(card)
	return nil
}

// nextHand moves play forward; running past the last hand hands over to the dealer.
func (r *Round) nextHand() error {
	r.CurrentHand++
	if r.CurrentHand >= len(r.PlayerHands) {
		return r.playDealer()
	}
	return nil
}

// playDealer reveals the hole card, draws to 17 and settles. It runs once per round.
func (r *Round) playDealer() error {
	if r.Status != StatusPlaying {
		return fmt.Errorf("%w: dealer already played", ErrInvalidState)
	}
	for r.DealerHand.Value() < DealerStandsOn {
		if err := r.dealTo(r.DealerHand); err != nil {
			return err
		}
	}
	if r.DealerHand.Status == HandActive {
		r.DealerHand.Status = HandStand
	}

	r.Status = StatusComplete
	res := Settle(r.PlayerHands, r.DealerHand)
	r.Result = &res
	return nil
}
