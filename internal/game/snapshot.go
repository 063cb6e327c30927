// internal/game/snapshot.go
package game

import "github.com/google/uuid"

// CardView is a card as presented to clients.
type CardView struct {
	Suit  Suit `json:"suit"`
	Rank  Rank `json:"rank"`
	Value int  `json:"value"`
	IsRed bool `json:"isRed"`
}

// HandView is a hand as presented to clients, with its derived fields resolved.
type HandView struct {
	Cards       []CardView `json:"cards"`
	Value       int        `json:"value"`
	Soft        bool       `json:"soft"`
	Bet         int64      `json:"bet"`
	Status      HandStatus `json:"status"`
	Insurance   int64      `json:"insurance"`
	IsBlackjack bool       `json:"isBlackjack"`
	CanSplit    bool       `json:"canSplit"`
	CanDouble   bool       `json:"canDouble"`
}

// Snapshot is the serializable view of a round sent back to the caller.
type Snapshot struct {
	RoundID        uuid.UUID   `json:"roundId"`
	Status         RoundStatus `json:"status"`
	CurrentHand    int         `json:"currentHand"`
	TotalWagered   int64       `json:"totalWagered"`
	InsuranceTaken bool        `json:"insuranceTaken"`
	PlayerHands    []HandView  `json:"playerHands"`
	DealerHand     HandView    `json:"dealerHand"`
	HiddenCards    int         `json:"hiddenCards"`
	Result         *Result     `json:"result,omitempty"`

	// Balance is filled in by the table session, not by the round.
	Balance *int64 `json:"balance,omitempty"`
}

// Snapshot captures the round. Unless revealDealer is set or the round is complete,
// only the dealer's up-card is included.
func (r *Round) Snapshot(revealDealer bool) Snapshot {
	s := Snapshot{
		RoundID:        r.ID,
		Status:         r.Status,
		CurrentHand:    r.CurrentHand,
		TotalWagered:   r.TotalWagered,
		InsuranceTaken: r.InsuranceTaken,
		PlayerHands:    make([]HandView, 0, len(r.PlayerHands)),
	}
	for _, h := range r.PlayerHands {
		s.PlayerHands = append(s.PlayerHands, viewHand(h))
	}

	dealer := r.DealerHand
	if dealer == nil {
		dealer = NewHand(0)
	}
	if revealDealer || r.Status == StatusComplete || len(dealer.Cards) <= 1 {
		s.DealerHand = viewHand(dealer)
	} else {
		upCard := &Hand{Cards: dealer.Cards[:1], Status: HandActive}
		s.DealerHand = viewHand(upCard)
		s.HiddenCards = len(dealer.Cards) - 1
	}
	s.DealerHand.CanSplit, s.DealerHand.CanDouble = false, false

	if r.Result != nil {
		res := *r.Result
		res.Hands = append([]HandResult(nil), r.Result.Hands...)
		s.Result = &res
	}
	return s
}

func viewHand(h *Hand) HandView {
	v := HandView{
		Cards:       make([]CardView, 0, len(h.Cards)),
		Value:       h.Value(),
		Soft:        h.IsSoft(),
		Bet:         h.Bet,
		Status:      h.Status,
		Insurance:   h.Insurance,
		IsBlackjack: h.IsBlackjack(),
		CanSplit:    h.IsActive() && h.CanSplit(),
		CanDouble:   h.IsActive() && h.CanDouble(),
	}
	for _, c := range h.Cards {
		v.Cards = append(v.Cards, CardView{Suit: c.Suit, Rank: c.Rank, Value: c.Value(), IsRed: c.IsRed()})
	}
	return v
}
