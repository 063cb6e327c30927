package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stackedRound returns a betting round whose shoe deals the given cards in order.
// Remember the deal order on Start is player, dealer, player, dealer.
func stackedRound(t *testing.T, shorthand ...string) *Round {
	t.Helper()
	return NewRound(NewStackedShoe(cards(t, shorthand...)...), DefaultRules())
}

func TestStartDealsTwoCardsEach(t *testing.T) {
	r := stackedRound(t, "10♠", "6♣", "7♦", "K♥", "9♠")
	require.NoError(t, r.Start(100))

	assert.Equal(t, StatusPlaying, r.Status)
	require.Len(t, r.PlayerHands, 1)
	assert.Equal(t, cards(t, "10♠", "7♦"), r.PlayerHands[0].Cards)
	assert.Equal(t, cards(t, "6♣", "K♥"), r.DealerHand.Cards)
	assert.Equal(t, 0, r.CurrentHand)
	assert.Equal(t, int64(100), r.TotalWagered)
	assert.Equal(t, int64(100), r.PlayerHands[0].Bet)
	assert.Equal(t, 1, r.Shoe.Remaining())
}

func TestStartRejections(t *testing.T) {
	r := stackedRound(t, "10♠", "6♣", "7♦", "K♥")
	assert.ErrorIs(t, r.Start(0), ErrIllegalAction)
	assert.ErrorIs(t, r.Start(-5), ErrIllegalAction)
	assert.Equal(t, StatusBetting, r.Status)
	assert.Equal(t, 4, r.Shoe.Remaining(), "rejected start must not deal")

	r.Rules.MaxBet = 50
	assert.ErrorIs(t, r.Start(51), ErrIllegalAction)

	require.NoError(t, r.Start(50))
	assert.ErrorIs(t, r.Start(50), ErrInvalidState)
}

func TestActionsBeforeStart(t *testing.T) {
	r := stackedRound(t, "8♠", "A♥", "8♣", "K♥")
	assert.ErrorIs(t, r.Hit(ActiveHand), ErrInvalidState)
	assert.ErrorIs(t, r.Stand(ActiveHand), ErrInvalidState)
	assert.ErrorIs(t, r.Split(ActiveHand), ErrInvalidState)
	assert.ErrorIs(t, r.Double(ActiveHand), ErrInvalidState)
	assert.ErrorIs(t, r.Insurance(), ErrInvalidState)
	assert.Nil(t, r.Active())
}

// Scenario A: player stands on 17, dealer 16 draws and busts.
func TestScenarioDealerBusts(t *testing.T) {
	r := stackedRound(t, "10♠", "6♣", "7♦", "K♥", "9♠")
	require.NoError(t, r.Start(100))
	require.NoError(t, r.Stand(ActiveHand))

	assert.Equal(t, StatusComplete, r.Status)
	assert.True(t, r.DealerHand.IsBust())
	require.NotNil(t, r.Result)
	assert.Equal(t, int64(100), r.Result.TotalDelta)
	assert.Equal(t, OutcomeWin, r.Result.Outcome)
	assert.Equal(t, int64(200), r.Result.Payout(r.TotalWagered))
}

// Scenario B: player blackjack against a dealer 17.
func TestScenarioPlayerBlackjack(t *testing.T) {
	r := stackedRound(t, "A♠", "9♣", "K♦", "8♥")
	require.NoError(t, r.Start(100))
	assert.Equal(t, HandBlackjack, r.PlayerHands[0].Status)

	assert.ErrorIs(t, r.Hit(ActiveHand), ErrIllegalAction, "a blackjack cannot take more cards")
	require.NoError(t, r.Stand(ActiveHand))

	assert.Equal(t, StatusComplete, r.Status)
	assert.Equal(t, HandBlackjack, r.PlayerHands[0].Status, "standing keeps the blackjack status")
	assert.Equal(t, int64(150), r.Result.TotalDelta)
}

// Scenario C: both sides have blackjack.
func TestScenarioBothBlackjack(t *testing.T) {
	r := stackedRound(t, "A♠", "A♥", "K♦", "Q♣")
	require.NoError(t, r.Start(100))
	require.NoError(t, r.Stand(ActiveHand))

	assert.Equal(t, int64(0), r.Result.TotalDelta)
	assert.Equal(t, OutcomePush, r.Result.Outcome)
	assert.Equal(t, int64(100), r.Result.Payout(r.TotalWagered))
}

// Scenario D: splitting a pair of eights.
func TestScenarioSplitEights(t *testing.T) {
	r := stackedRound(t, "8♠", "10♥", "8♣", "7♦", "3♠", "2♥")
	require.NoError(t, r.Start(100))

	cost, err := r.SplitCost(ActiveHand)
	require.NoError(t, err)
	assert.Equal(t, int64(100), cost)

	require.NoError(t, r.Split(ActiveHand))
	require.Len(t, r.PlayerHands, 2)
	assert.Equal(t, cards(t, "8♠", "3♠"), r.PlayerHands[0].Cards)
	assert.Equal(t, cards(t, "8♣", "2♥"), r.PlayerHands[1].Cards)
	assert.Equal(t, int64(100), r.PlayerHands[0].Bet)
	assert.Equal(t, int64(100), r.PlayerHands[1].Bet)
	assert.Equal(t, int64(200), r.TotalWagered, "split adds exactly one more bet")
	assert.Equal(t, 0, r.CurrentHand, "split does not advance play")

	require.NoError(t, r.Stand(ActiveHand))
	assert.Equal(t, 1, r.CurrentHand)
	assert.Equal(t, StatusPlaying, r.Status)

	require.NoError(t, r.Stand(ActiveHand))
	assert.Equal(t, StatusComplete, r.Status)
	assert.Equal(t, int64(-200), r.Result.TotalDelta, "11 and 10 both lose to 17")
	assert.Equal(t, int64(0), r.Result.Payout(r.TotalWagered))
}

func TestSplitInsertsAfterOriginal(t *testing.T) {
	// 8 8 split, first hand draws another 8 and splits again
	r := stackedRound(t, "8♠", "10♥", "8♣", "7♦", "8♥", "2♥", "5♣", "6♣")
	require.NoError(t, r.Start(10))
	require.NoError(t, r.Split(ActiveHand))
	require.NoError(t, r.Split(ActiveHand))

	require.Len(t, r.PlayerHands, 3)
	assert.Equal(t, cards(t, "8♠", "5♣"), r.PlayerHands[0].Cards)
	assert.Equal(t, cards(t, "8♥", "6♣"), r.PlayerHands[1].Cards)
	assert.Equal(t, cards(t, "8♣", "2♥"), r.PlayerHands[2].Cards)
	assert.Equal(t, int64(30), r.TotalWagered)
}

func TestSplitRejections(t *testing.T) {
	r := stackedRound(t, "K♠", "9♣", "10♦", "8♥")
	require.NoError(t, r.Start(100))

	_, err := r.SplitCost(ActiveHand)
	assert.ErrorIs(t, err, ErrIllegalAction)
	assert.ErrorIs(t, r.Split(ActiveHand), ErrIllegalAction, "King and Ten are not a pair")
	assert.Len(t, r.PlayerHands, 1)
	assert.Equal(t, int64(100), r.TotalWagered)
	assert.Len(t, r.PlayerHands[0].Cards, 2)
}

// Scenario E: insurance against a dealer blackjack.
func TestScenarioInsuranceDealerBlackjack(t *testing.T) {
	r := stackedRound(t, "A♠", "A♥", "9♦", "K♣")
	require.NoError(t, r.Start(100))

	cost, err := r.InsuranceCost()
	require.NoError(t, err)
	assert.Equal(t, int64(50), cost)

	require.NoError(t, r.Insurance())
	assert.Equal(t, int64(50), r.PlayerHands[0].Insurance)
	assert.Equal(t, int64(150), r.TotalWagered)
	assert.ErrorIs(t, r.Insurance(), ErrIllegalAction, "insurance is single use")
	assert.Equal(t, int64(150), r.TotalWagered)

	require.NoError(t, r.Stand(ActiveHand))
	require.Len(t, r.Result.Hands, 1)
	assert.Equal(t, int64(100), r.Result.Hands[0].Insurance)
	assert.Equal(t, int64(-100), r.Result.Hands[0].Main)
	assert.Equal(t, int64(0), r.Result.TotalDelta)
	assert.Equal(t, int64(150), r.Result.Payout(r.TotalWagered))
}

func TestScenarioInsuranceBothBlackjack(t *testing.T) {
	r := stackedRound(t, "K♠", "A♥", "A♦", "Q♣")
	require.NoError(t, r.Start(100))
	require.NoError(t, r.Insurance())
	require.NoError(t, r.Stand(ActiveHand))

	assert.Equal(t, int64(100), r.Result.Hands[0].Insurance)
	assert.Equal(t, int64(0), r.Result.Hands[0].Main)
	assert.Equal(t, int64(100), r.Result.TotalDelta)
}

func TestInsuranceRequiresDealerAce(t *testing.T) {
	r := stackedRound(t, "10♠", "K♥", "7♦", "7♣")
	require.NoError(t, r.Start(100))
	assert.ErrorIs(t, r.Insurance(), ErrIllegalAction)
	assert.False(t, r.InsuranceTaken)
	assert.Equal(t, int64(0), r.PlayerHands[0].Insurance)
}

func TestDoubleDealsOneCardAndStands(t *testing.T) {
	r := stackedRound(t, "5♠", "9♣", "6♦", "8♥", "10♣")
	require.NoError(t, r.Start(100))

	cost, err := r.DoubleCost(ActiveHand)
	require.NoError(t, err)
	assert.Equal(t, int64(100), cost)

	require.NoError(t, r.Double(ActiveHand))
	h := r.PlayerHands[0]
	assert.Len(t, h.Cards, 3)
	assert.Equal(t, int64(200), h.Bet)
	assert.Equal(t, int64(200), r.TotalWagered)
	assert.Equal(t, HandStand, h.Status)
	assert.Equal(t, StatusComplete, r.Status, "double forces a stand on the only hand")
	assert.Equal(t, int64(200), r.Result.TotalDelta)
}

func TestDoubleAfterHitIsIllegal(t *testing.T) {
	r := stackedRound(t, "2♠", "9♣", "3♦", "8♥", "4♣", "K♠")
	require.NoError(t, r.Start(100))
	require.NoError(t, r.Hit(ActiveHand))

	before, err := json.Marshal(r)
	require.NoError(t, err)

	assert.ErrorIs(t, r.Double(ActiveHand), ErrIllegalAction)

	after, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after), "rejected action must leave the round unchanged")
}

func TestHitBustAdvancesToDealer(t *testing.T) {
	r := stackedRound(t, "10♠", "9♣", "6♦", "8♥", "K♣")
	require.NoError(t, r.Start(100))
	require.NoError(t, r.Hit(ActiveHand))

	assert.Equal(t, HandBust, r.PlayerHands[0].Status)
	assert.Equal(t, StatusComplete, r.Status)
	assert.Equal(t, int64(-100), r.Result.TotalDelta)
	assert.ErrorIs(t, r.Hit(ActiveHand), ErrInvalidState, "complete round is immutable")
}

func TestHitAfterSplitMovesToNextHand(t *testing.T) {
	r := stackedRound(t, "9♠", "10♥", "9♣", "8♦", "5♠", "K♥", "Q♣")
	require.NoError(t, r.Start(20))
	require.NoError(t, r.Split(ActiveHand))

	require.NoError(t, r.Hit(ActiveHand)) // 9 5 Q busts
	assert.Equal(t, HandBust, r.PlayerHands[0].Status)
	assert.Equal(t, 1, r.CurrentHand)
	assert.Equal(t, StatusPlaying, r.Status)

	require.NoError(t, r.Stand(ActiveHand)) // 9 K = 19 beats 18
	assert.Equal(t, StatusComplete, r.Status)
	assert.Equal(t, int64(-20), r.Result.Hands[0].Delta)
	assert.Equal(t, int64(20), r.Result.Hands[1].Delta)
	assert.Equal(t, int64(0), r.Result.TotalDelta)
}

func TestOnlyCurrentHandCanAct(t *testing.T) {
	r := stackedRound(t, "8♠", "10♥", "8♣", "7♦", "3♠", "2♥")
	require.NoError(t, r.Start(100))
	require.NoError(t, r.Split(ActiveHand))

	assert.ErrorIs(t, r.Hit(1), ErrIllegalAction)
	assert.ErrorIs(t, r.Stand(5), ErrIllegalAction)
	require.NoError(t, r.Stand(0))
	assert.ErrorIs(t, r.Hit(0), ErrIllegalAction)
}

func TestDealerStopsAtSeventeen(t *testing.T) {
	r := stackedRound(t, "10♠", "2♣", "8♦", "3♥", "4♠", "5♦", "3♣", "K♠")
	require.NoError(t, r.Start(100))
	require.NoError(t, r.Stand(ActiveHand))

	assert.Equal(t, 17, r.DealerHand.Value())
	assert.Len(t, r.DealerHand.Cards, 5)
	assert.Equal(t, 1, r.Shoe.Remaining(), "dealer must not draw past 17")
	assert.Equal(t, int64(100), r.Result.TotalDelta)
}

func TestDealerStandsOnSoftSeventeen(t *testing.T) {
	r := stackedRound(t, "10♠", "A♣", "9♦", "6♥", "5♠")
	require.NoError(t, r.Start(100))
	require.NoError(t, r.Stand(ActiveHand))

	assert.Len(t, r.DealerHand.Cards, 2)
	assert.Equal(t, 17, r.DealerHand.Value())
	assert.Equal(t, int64(100), r.Result.TotalDelta, "19 beats soft 17")
}

func TestShoeExhaustedIsReported(t *testing.T) {
	r := stackedRound(t, "10♠", "2♣", "8♦")
	assert.ErrorIs(t, r.Start(100), ErrShoeExhausted)
	assert.Equal(t, StatusBetting, r.Status)

	r = stackedRound(t, "10♠", "2♣", "8♦", "3♥")
	require.NoError(t, r.Start(100))
	assert.ErrorIs(t, r.Stand(ActiveHand), ErrShoeExhausted)
}

func TestFullShoeCoversLongRounds(t *testing.T) {
	// hitting low hands on a shuffled shoe never runs the shoe dry
	for i := 0; i < 200; i++ {
		r := NewRound(NewShoe(DefaultNumDecks, nil), DefaultRules())
		require.NoError(t, r.Start(10))
		for r.Status == StatusPlaying {
			h := r.Active()
			require.NotNil(t, h)
			var err error
			switch {
			case h.IsActive() && h.CanSplit():
				err = r.Split(ActiveHand)
			case h.IsActive() && h.Value() < 17:
				err = r.Hit(ActiveHand)
			default:
				err = r.Stand(ActiveHand)
			}
			require.NoError(t, err)
		}
		assert.GreaterOrEqual(t, r.DealerHand.Value(), DealerStandsOn)
		assert.NotNil(t, r.Result)
	}
}

func TestSnapshotMasksHoleCard(t *testing.T) {
	r := stackedRound(t, "10♠", "A♣", "7♦", "K♥", "9♠")
	require.NoError(t, r.Start(100))

	s := r.Snapshot(false)
	require.Len(t, s.DealerHand.Cards, 1)
	assert.Equal(t, Ace, s.DealerHand.Cards[0].Rank)
	assert.Equal(t, 1, s.HiddenCards)
	assert.Equal(t, 11, s.DealerHand.Value)
	assert.False(t, s.DealerHand.IsBlackjack, "masked view must not leak a dealer blackjack")
	assert.Nil(t, s.Result)

	s = r.Snapshot(true)
	assert.Len(t, s.DealerHand.Cards, 2)
	assert.Equal(t, 0, s.HiddenCards)
	assert.True(t, s.DealerHand.IsBlackjack)

	require.NoError(t, r.Stand(ActiveHand))
	s = r.Snapshot(false)
	assert.Len(t, s.DealerHand.Cards, 2, "complete rounds are always revealed")
	require.NotNil(t, s.Result)
	assert.Equal(t, int64(-100), s.Result.TotalDelta)
}

func TestSnapshotPlayerView(t *testing.T) {
	r := stackedRound(t, "8♠", "10♥", "8♣", "7♦")
	require.NoError(t, r.Start(25))

	s := r.Snapshot(false)
	require.Len(t, s.PlayerHands, 1)
	hv := s.PlayerHands[0]
	assert.Equal(t, 16, hv.Value)
	assert.True(t, hv.CanSplit)
	assert.True(t, hv.CanDouble)
	assert.Equal(t, int64(25), hv.Bet)
	assert.Equal(t, HandActive, hv.Status)
	assert.Equal(t, r.ID, s.RoundID)
}

func TestRoundJSONRoundTrip(t *testing.T) {
	r := stackedRound(t, "8♠", "A♥", "8♣", "K♥", "3♠", "2♥", "9♣")
	require.NoError(t, r.Start(100))
	require.NoError(t, r.Split(ActiveHand))

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var restored Round
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, r.Snapshot(true), restored.Snapshot(true))
	assert.Equal(t, r.Shoe.Cards, restored.Shoe.Cards)

	// the restored round keeps playing from the same shoe position
	require.NoError(t, restored.Hit(ActiveHand))
	assert.Equal(t, cards(t, "8♠", "3♠", "9♣"), restored.PlayerHands[0].Cards)
}
