// internal/game/settlement.go
package game

// Outcome classifies a settled round for the win/loss counters.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomePush Outcome = "push"
)

// HandResult is the settlement of one player hand. All amounts are net of the
// wager, which was escrowed when it was placed.
type HandResult struct {
	Insurance int64   `json:"insurance"` // insurance side-bet term
	Main      int64   `json:"main"`      // main wager term
	Delta     int64   `json:"delta"`     // Insurance + Main
	Outcome   Outcome `json:"outcome"`
}

// Result is the settlement of a whole round.
type Result struct {
	Hands      []HandResult `json:"hands"`
	TotalDelta int64        `json:"totalDelta"`
	Outcome    Outcome      `json:"outcome"`
}

// Payout is the amount credited back to the player: the escrowed stake plus the net delta.
func (r Result) Payout(totalWagered int64) int64 {
	return totalWagered + r.TotalDelta
}

// Settle maps finished player hands against the dealer hand. It reads its inputs only.
func Settle(playerHands []*Hand, dealer *Hand) Result {
	dealerBlackjack := dealer.IsBlackjack()
	dealerBust := dealer.IsBust()
	dealerValue := dealer.Value()

	res := Result{Hands: make([]HandResult, 0, len(playerHands))}
	for _, h := range playerHands {
		var hr HandResult

		// insurance is settled independently of the main wager
		if h.Insurance > 0 {
			if dealerBlackjack {
				hr.Insurance = 2 * h.Insurance
			} else {
				hr.Insurance = -h.Insurance
			}
		}

		switch {
		case h.IsBust():
			hr.Main = -h.Bet
		case dealerBlackjack:
			if h.IsBlackjack() {
				hr.Main = 0
			} else {
				hr.Main = -h.Bet
			}
		case h.IsBlackjack():
			// pays 3:2
			hr.Main = h.Bet * 3 / 2
		case dealerBust || h.Value() > dealerValue:
			hr.Main = h.Bet
		case h.Value() == dealerValue:
			hr.Main = 0
		default:
			hr.Main = -h.Bet
		}

		hr.Delta = hr.Insurance + hr.Main
		hr.Outcome = classify(hr.Delta)
		res.Hands = append(res.Hands, hr)
		res.TotalDelta += hr.Delta
	}
	res.Outcome = classify(res.TotalDelta)
	return res
}

func classify(delta int64) Outcome {
	switch {
	case delta > 0:
		return OutcomeWin
	case delta < 0:
		return OutcomeLoss
	default:
		return OutcomePush
	}
}
