// internal/historian/historian.go is an asynchronous historian that pops round actions
// from a Redis queue and persists them in batches.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jason-s-yu/blackjack/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// maxPending caps how many unflushed actions are held while the sink is failing.
const maxPending = 10000

// Sink persists one batch of actions.
type Sink func(ctx context.Context, batch []models.RoundAction) error

// Service drains the action queue into a Sink, flushing when the batch is full or
// when flushDelay passes.
type Service struct {
	client     *redis.Client
	queue      string
	sink       Sink
	batchSize  int
	flushDelay time.Duration
	logger     *logrus.Logger

	// flushMu keeps one flush in flight so a failed batch is put back ahead of
	// anything added after it.
	flushMu sync.Mutex

	batchMu sync.Mutex
	batch   []models.RoundAction
}

func NewService(client *redis.Client, queue string, sink Sink, batchSize int, flushDelay time.Duration, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		client:     client,
		queue:      queue,
		sink:       sink,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		logger:     logger,
		batch:      make([]models.RoundAction, 0, batchSize),
	}
}

// Run consumes the queue until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) {
	s.logger.Infof("historian started, draining %q", s.queue)

	go s.flushLoop(ctx)
	s.readLoop(ctx)

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Flush(flushCtx)
	s.logger.Info("historian stopped")
}

func (s *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.flushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

// readLoop BLPops with a short timeout so cancellation is noticed.
func (s *Service) readLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		res, err := s.client.BLPop(ctx, 3*time.Second, s.queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			s.logger.Errorf("BLPop: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if len(res) < 2 {
			continue
		}

		// res[0] is the queue name and res[1] the payload.
		var record models.RoundAction
		if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
			s.logger.Warnf("invalid action record: %v", err)
			continue
		}
		s.Add(ctx, record)
	}
}

// Add queues a record and flushes once the batch is full.
func (s *Service) Add(ctx context.Context, record models.RoundAction) {
	s.batchMu.Lock()
	s.batch = append(s.batch, record)
	full := len(s.batch) >= s.batchSize
	s.batchMu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

// Flush writes the pending batch. On failure the records stay pending for the next
// flush. Concurrent calls run one at a time.
func (s *Service) Flush(ctx context.Context) {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	pending := s.batch
	s.batch = make([]models.RoundAction, 0, s.batchSize)
	s.batchMu.Unlock()

	if err := s.sink(ctx, pending); err != nil {
		s.logger.Errorf("flush of %d actions failed: %v", len(pending), err)

		s.batchMu.Lock()
		s.batch = append(pending, s.batch...)
		if over := len(s.batch) - maxPending; over > 0 {
			s.logger.Errorf("dropping %d oldest actions", over)
			s.batch = s.batch[over:]
		}
		s.batchMu.Unlock()
		return
	}
	s.logger.Debugf("flushed %d actions", len(pending))
}

// Pending returns the number of actions not yet flushed.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}
