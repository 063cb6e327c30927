package table

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/blackjack/internal/game"
)

// MemoryStore keeps rounds in process memory. Rounds are stored encoded so callers
// never share a *game.Round with the store.
type MemoryStore struct {
	mu     sync.Mutex
	rounds map[uuid.UUID][]byte
	locks  map[uuid.UUID]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rounds: make(map[uuid.UUID][]byte),
		locks:  make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *MemoryStore) LoadRound(_ context.Context, playerID uuid.UUID) (*game.Round, error) {
	s.mu.Lock()
	data, exists := s.rounds[playerID]
	s.mu.Unlock()
	if !exists {
		return nil, nil
	}
	var r game.Round
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *MemoryStore) SaveRound(_ context.Context, playerID uuid.UUID, r *game.Round) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[playerID] = data
	return nil
}

func (s *MemoryStore) ClearRound(_ context.Context, playerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rounds, playerID)
	return nil
}

// Lock serializes table actions for one player.
func (s *MemoryStore) Lock(ctx context.Context, playerID uuid.UUID) (func(), error) {
	s.mu.Lock()
	l, ok := s.locks[playerID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[playerID] = l
	}
	s.mu.Unlock()

	acquired := make(chan struct{})
	go func() {
		l.Lock()
		close(acquired)
	}()
	select {
	case <-acquired:
		return l.Unlock, nil
	case <-ctx.Done():
		// release the mutex once the pending Lock goes through
		go func() {
			<-acquired
			l.Unlock()
		}()
		return nil, ctx.Err()
	}
}
