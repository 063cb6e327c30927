package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/blackjack/internal/game"
	"github.com/redis/go-redis/v9"
)

const (
	roundKeyPrefix = "blackjack:round:"
	lockKeyPrefix  = "blackjack:lock:"

	defaultLockTTL = 5 * time.Second
	lockRetry      = 25 * time.Millisecond
)

// releaseLock deletes the lock only if it still holds our token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewLock extends the lock only if it still holds our token.
var renewLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RoundStore keeps each player's round as JSON under its own key.
type RoundStore struct {
	client *redis.Client
	ttl    time.Duration

	// LockTTL bounds how long a crashed request can hold a player's lock. A live
	// holder renews it every LockTTL/2 until it unlocks.
	LockTTL time.Duration
}

// NewRoundStore returns a store whose rounds expire ttl after their last save.
// A zero ttl keeps rounds forever.
func NewRoundStore(client *redis.Client, ttl time.Duration) *RoundStore {
	return &RoundStore{client: client, ttl: ttl, LockTTL: defaultLockTTL}
}

func (s *RoundStore) LoadRound(ctx context.Context, playerID uuid.UUID) (*game.Round, error) {
	data, err := s.client.Get(ctx, roundKeyPrefix+playerID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get round: %w", err)
	}
	var r game.Round
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode round: %w", err)
	}
	return &r, nil
}

func (s *RoundStore) SaveRound(ctx context.Context, playerID uuid.UUID, r *game.Round) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode round: %w", err)
	}
	if err := s.client.Set(ctx, roundKeyPrefix+playerID.String(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set round: %w", err)
	}
	return nil
}

func (s *RoundStore) ClearRound(ctx context.Context, playerID uuid.UUID) error {
	return s.client.Del(ctx, roundKeyPrefix+playerID.String()).Err()
}

// Lock takes the player's lock with SET NX PX, polling until it is free or ctx ends.
// The lock is kept alive in the background until the returned func is called.
func (s *RoundStore) Lock(ctx context.Context, playerID uuid.UUID) (func(), error) {
	key := lockKeyPrefix + playerID.String()
	token := uuid.NewString()
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}

	for {
		ok, err := s.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetry):
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go s.keepAlive(key, token, ttl, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			// the request context may already be cancelled
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			releaseLock.Run(releaseCtx, s.client, []string{key}, token)
		})
	}, nil
}

// keepAlive pushes the lock's expiry forward until stop closes or the lock is lost.
func (s *RoundStore) keepAlive(key, token string, ttl time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), ttl/2)
			held, err := renewLock.Run(ctx, s.client, []string{key}, token, ttl.Milliseconds()).Int()
			cancel()
			if err == nil && held == 0 {
				return
			}
		}
	}
}
