// internal/table/table.go
package table

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/blackjack/internal/game"
	"github.com/jason-s-yu/blackjack/internal/models"
	"github.com/sanity-io/litter"
	"github.com/sirupsen/logrus"
)

// Ledger holds player balances and win/loss counters. AdjustBalance must be atomic
// and fail with game.ErrInsufficientFunds rather than go negative. SettleRound
// applies a round's payout and counter at most once per round ID and reports
// whether it did.
type Ledger interface {
	GetBalance(ctx context.Context, playerID uuid.UUID) (int64, error)
	AdjustBalance(ctx context.Context, playerID uuid.UUID, delta int64) (int64, error)
	IncrementWins(ctx context.Context, playerID uuid.UUID) error
	IncrementLosses(ctx context.Context, playerID uuid.UUID) error
	SettleRound(ctx context.Context, playerID, roundID uuid.UUID, payout int64, outcome game.Outcome) (bool, error)
	GetStats(ctx context.Context, playerID uuid.UUID) (models.PlayerStats, error)
}

// SessionStore persists one round per player. LoadRound returns nil, nil when the
// player has no round.
type SessionStore interface {
	LoadRound(ctx context.Context, playerID uuid.UUID) (*game.Round, error)
	SaveRound(ctx context.Context, playerID uuid.UUID, r *game.Round) error
	ClearRound(ctx context.Context, playerID uuid.UUID) error
}

// Locker is implemented by stores that serialize requests from the same player.
type Locker interface {
	Lock(ctx context.Context, playerID uuid.UUID) (unlock func(), err error)
}

// Recorder keeps a history of settled rounds.
type Recorder interface {
	RecordRound(ctx context.Context, playerID uuid.UUID, r *game.Round) error
}

// PublishFunc ships a round action to the historian queue.
type PublishFunc func(ctx context.Context, rec models.RoundAction) error

// ErrFailure is returned in place of internal faults the caller cannot act on.
var ErrFailure = errors.New("internal table failure")

// Table binds rounds to player identities and moves EXP through the Ledger as the
// rounds are played.
type Table struct {
	Ledger   Ledger
	Store    SessionStore
	Recorder Recorder    // optional
	Publish  PublishFunc // optional
	Rules    game.Rules
	Logger   *logrus.Logger

	// NewShoe builds the shoe for each new round; tests replace it with stacked shoes.
	NewShoe func() *game.Shoe
}

// New returns a table with a fresh shuffled shoe per round.
func New(ledger Ledger, store SessionStore, rules game.Rules, logger *logrus.Logger) *Table {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Table{
		Ledger: ledger,
		Store:  store,
		Rules:  rules,
		Logger: logger,
		NewShoe: func() *game.Shoe {
			return game.NewShoe(rules.NumDecks, nil)
		},
	}
}

// action is one mutation of a loaded round. It reports EXP it debited so the
// table can refund it if a later step fails.
type action func(ctx context.Context, r *game.Round) (debited int64, err error)

// Start places a new bet and deals a fresh round.
func (t *Table) Start(ctx context.Context, playerID uuid.UUID, bet int64) (*game.Snapshot, error) {
	unlock, err := t.lock(ctx, playerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	prev, err := t.Store.LoadRound(ctx, playerID)
	if err != nil {
		return nil, t.fail(playerID, "start", fmt.Errorf("load round: %w", err))
	}
	if prev != nil {
		if prev.Status != game.StatusComplete {
			return nil, fmt.Errorf("%w: a round is already in progress", game.ErrInvalidState)
		}
		if !prev.Settled {
			// a previous request completed the round but never credited it
			if err := t.settle(ctx, playerID, prev); err != nil {
				return nil, t.fail(playerID, "start", err)
			}
		}
	}

	if err := t.Rules.CheckBet(bet); err != nil {
		return nil, err
	}

	r := game.NewRound(t.NewShoe(), t.Rules)
	return t.apply(ctx, playerID, r, "start", map[string]interface{}{"bet": bet},
		func(ctx context.Context, r *game.Round) (int64, error) {
			if err := t.debit(ctx, playerID, bet); err != nil {
				return 0, err
			}
			return bet, r.Start(bet)
		})
}

// Hit draws a card into the given hand (game.ActiveHand for the current one).
func (t *Table) Hit(ctx context.Context, playerID uuid.UUID, handIndex int) (*game.Snapshot, error) {
	return t.withRound(ctx, playerID, "hit", map[string]interface{}{"hand": handIndex},
		func(_ context.Context, r *game.Round) (int64, error) {
			return 0, r.Hit(handIndex)
		})
}

// Stand ends play on the given hand.
func (t *Table) Stand(ctx context.Context, playerID uuid.UUID, handIndex int) (*game.Snapshot, error) {
	return t.withRound(ctx, playerID, "stand", map[string]interface{}{"hand": handIndex},
		func(_ context.Context, r *game.Round) (int64, error) {
			return 0, r.Stand(handIndex)
		})
}

// Split splits a pair, charging a second wager.
func (t *Table) Split(ctx context.Context, playerID uuid.UUID, handIndex int) (*game.Snapshot, error) {
	return t.withRound(ctx, playerID, "split", map[string]interface{}{"hand": handIndex},
		func(ctx context.Context, r *game.Round) (int64, error) {
			cost, err := r.SplitCost(handIndex)
			if err != nil {
				return 0, err
			}
			if err := t.debit(ctx, playerID, cost); err != nil {
				return 0, err
			}
			return cost, r.Split(handIndex)
		})
}

// Double doubles the wager on a two-card hand.
func (t *Table) Double(ctx context.Context, playerID uuid.UUID, handIndex int) (*game.Snapshot, error) {
	return t.withRound(ctx, playerID, "double", map[string]interface{}{"hand": handIndex},
		func(ctx context.Context, r *game.Round) (int64, error) {
			cost, err := r.DoubleCost(handIndex)
			if err != nil {
				return 0, err
			}
			if err := t.debit(ctx, playerID, cost); err != nil {
				return 0, err
			}
			return cost, r.Double(handIndex)
		})
}

// Insurance takes the insurance side bet against a dealer Ace.
func (t *Table) Insurance(ctx context.Context, playerID uuid.UUID) (*game.Snapshot, error) {
	return t.withRound(ctx, playerID, "insurance", nil,
		func(ctx context.Context, r *game.Round) (int64, error) {
			cost, err := r.InsuranceCost()
			if err != nil {
				return 0, err
			}
			if err := t.debit(ctx, playerID, cost); err != nil {
				return 0, err
			}
			return cost, r.Insurance()
		})
}

// State returns the player's current round, or an empty betting view when there is none.
func (t *Table) State(ctx context.Context, playerID uuid.UUID) (*game.Snapshot, error) {
	r, err := t.Store.LoadRound(ctx, playerID)
	if err != nil {
		return nil, t.fail(playerID, "state", fmt.Errorf("load round: %w", err))
	}
	var snap game.Snapshot
	if r == nil {
		snap = game.Snapshot{Status: game.StatusBetting, PlayerHands: []game.HandView{}}
	} else {
		snap = r.Snapshot(false)
	}
	if err := t.attachBalance(ctx, playerID, &snap); err != nil {
		return nil, t.fail(playerID, "state", err)
	}
	return &snap, nil
}

// Stats returns the player's balance and win/loss record.
func (t *Table) Stats(ctx context.Context, playerID uuid.UUID) (models.PlayerStats, error) {
	st, err := t.Ledger.GetStats(ctx, playerID)
	if err != nil {
		return models.PlayerStats{}, t.fail(playerID, "stats", err)
	}
	return st, nil
}

// Leave clears the player's finished round. A round in play cannot be abandoned.
func (t *Table) Leave(ctx context.Context, playerID uuid.UUID) error {
	unlock, err := t.lock(ctx, playerID)
	if err != nil {
		return err
	}
	defer unlock()

	r, err := t.Store.LoadRound(ctx, playerID)
	if err != nil {
		return t.fail(playerID, "leave", fmt.Errorf("load round: %w", err))
	}
	if r != nil && r.Status == game.StatusPlaying {
		return fmt.Errorf("%w: finish the round in play first", game.ErrInvalidState)
	}
	if r != nil && r.Status == game.StatusComplete && !r.Settled {
		if err := t.settle(ctx, playerID, r); err != nil {
			return t.fail(playerID, "leave", err)
		}
	}
	if err := t.Store.ClearRound(ctx, playerID); err != nil {
		return t.fail(playerID, "leave", fmt.Errorf("clear round: %w", err))
	}
	return nil
}

// withRound locks the player's session, loads the round in play and applies fn.
func (t *Table) withRound(ctx context.Context, playerID uuid.UUID, name string, payload map[string]interface{}, fn action) (*game.Snapshot, error) {
	unlock, err := t.lock(ctx, playerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	r, err := t.Store.LoadRound(ctx, playerID)
	if err != nil {
		return nil, t.fail(playerID, name, fmt.Errorf("load round: %w", err))
	}
	if r == nil {
		return nil, fmt.Errorf("%w: no active round", game.ErrInvalidState)
	}
	return t.apply(ctx, playerID, r, name, payload, fn)
}

// apply runs fn against r, settles a round that just completed and persists it.
// Rule violations come back to the caller as is; anything else is logged, any debit
// for this action is refunded and ErrFailure is returned.
func (t *Table) apply(ctx context.Context, playerID uuid.UUID, r *game.Round, name string, payload map[string]interface{}, fn action) (*game.Snapshot, error) {
	debited, err := fn(ctx, r)
	if err != nil {
		if debited > 0 {
			t.refund(ctx, playerID, debited)
		}
		if isRuleError(err) {
			return nil, err
		}
		return nil, t.fail(playerID, name, err)
	}

	r.ActionIndex++
	if err := t.Store.SaveRound(ctx, playerID, r); err != nil {
		if debited > 0 {
			t.refund(ctx, playerID, debited)
		}
		return nil, t.fail(playerID, name, fmt.Errorf("save round: %w", err))
	}
	t.logAction(playerID, r, name, payload)

	if r.Status == game.StatusComplete && !r.Settled {
		if err := t.settle(ctx, playerID, r); err != nil {
			return nil, t.fail(playerID, name, err)
		}
	}

	snap := r.Snapshot(false)
	if err := t.attachBalance(ctx, playerID, &snap); err != nil {
		return nil, t.fail(playerID, name, err)
	}
	if t.Logger.IsLevelEnabled(logrus.DebugLevel) {
		t.Logger.Debugf("round %s after %s: %s", r.ID, name, litter.Sdump(snap))
	}
	return &snap, nil
}

// settle credits the payout of a completed round and records it. The Ledger
// applies the credit once per round ID, so settling again after a failed save is
// safe; Settled only spares the repeat call.
func (t *Table) settle(ctx context.Context, playerID uuid.UUID, r *game.Round) error {
	if r.Result == nil {
		return fmt.Errorf("round %s is complete without a result", r.ID)
	}
	log := t.Logger.WithFields(logrus.Fields{"player": playerID, "round": r.ID})

	payout := r.Result.Payout(r.TotalWagered)
	applied, err := t.Ledger.SettleRound(ctx, playerID, r.ID, payout, r.Result.Outcome)
	if err != nil {
		return fmt.Errorf("credit payout %d: %w", payout, err)
	}
	if !applied {
		log.Warn("round was already credited, marking it settled")
	}

	r.Settled = true
	r.ActionIndex++
	if err := t.Store.SaveRound(ctx, playerID, r); err != nil {
		log.Errorf("round credited with %d but settled flag not saved: %v", payout, err)
		return fmt.Errorf("save settled round: %w", err)
	}

	if t.Recorder != nil {
		if err := t.Recorder.RecordRound(ctx, playerID, r); err != nil {
			log.Warnf("failed to record round history: %v", err)
		}
	}
	t.logAction(playerID, r, "settle", map[string]interface{}{
		"delta":   r.Result.TotalDelta,
		"payout":  payout,
		"outcome": string(r.Result.Outcome),
	})
	log.Infof("round settled: wagered %d, delta %d, outcome %s", r.TotalWagered, r.Result.TotalDelta, r.Result.Outcome)
	return nil
}

// debit checks the balance before withdrawing so a short player never touches the Ledger.
func (t *Table) debit(ctx context.Context, playerID uuid.UUID, amount int64) error {
	balance, err := t.Ledger.GetBalance(ctx, playerID)
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}
	if balance < amount {
		return fmt.Errorf("%w: wager %d exceeds balance %d", game.ErrInsufficientFunds, amount, balance)
	}
	if _, err := t.Ledger.AdjustBalance(ctx, playerID, -amount); err != nil {
		return err
	}
	return nil
}

func (t *Table) refund(ctx context.Context, playerID uuid.UUID, amount int64) {
	if _, err := t.Ledger.AdjustBalance(ctx, playerID, amount); err != nil {
		t.Logger.WithField("player", playerID).Errorf("failed to refund %d: %v", amount, err)
	}
}

func (t *Table) attachBalance(ctx context.Context, playerID uuid.UUID, snap *game.Snapshot) error {
	balance, err := t.Ledger.GetBalance(ctx, playerID)
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}
	snap.Balance = &balance
	return nil
}

func (t *Table) lock(ctx context.Context, playerID uuid.UUID) (func(), error) {
	locker, ok := t.Store.(Locker)
	if !ok {
		return func() {}, nil
	}
	unlock, err := locker.Lock(ctx, playerID)
	if err != nil {
		return nil, t.fail(playerID, "lock", err)
	}
	return unlock, nil
}

// fail logs an internal fault and hides it behind ErrFailure.
func (t *Table) fail(playerID uuid.UUID, name string, err error) error {
	fields := logrus.Fields{"player": playerID, "action": name}
	if errors.Is(err, game.ErrShoeExhausted) {
		t.Logger.WithFields(fields).Errorf("shoe exhausted mid-round: %v", err)
	} else {
		t.Logger.WithFields(fields).Errorf("table action failed: %v", err)
	}
	return fmt.Errorf("%w: %s", ErrFailure, name)
}

// logAction publishes the action to the historian queue without blocking the request.
// The caller has already advanced r.ActionIndex and saved the round.
func (t *Table) logAction(playerID uuid.UUID, r *game.Round, name string, payload map[string]interface{}) {
	if t.Publish == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	rec := models.RoundAction{
		RoundID:       r.ID,
		ActionIndex:   r.ActionIndex,
		PlayerID:      playerID,
		ActionType:    name,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(rec models.RoundAction) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := t.Publish(ctx, rec); err != nil {
			t.Logger.Warnf("failed to publish action %d for round %s: %v", rec.ActionIndex, rec.RoundID, err)
		}
	}(rec)
}

// isRuleError reports errors the player caused and can recover from.
func isRuleError(err error) bool {
	return errors.Is(err, game.ErrInvalidState) ||
		errors.Is(err, game.ErrIllegalAction) ||
		errors.Is(err, game.ErrInsufficientFunds)
}
