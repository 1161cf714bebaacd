package queue

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edgesoc/sentinel/pkg/state"
)

// depthClient is the slice of the redis client the sampler needs;
// injectable for tests.
type depthClient interface {
	LLen(ctx context.Context, key string) *redis.IntCmd
}

// Sampler publishes the depth of the vector fallback queue so dashboards
// can see backlog building up when the search engine is unreachable.
// The reachability probe for redis stays a bare TCP connect in the
// connectivity set; this sampler is the only component speaking the redis
// protocol.
type Sampler struct {
	client   depthClient
	key      string
	store    *state.Store
	interval time.Duration
	logger   zerolog.Logger

	closer func() error
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSampler creates a queue depth sampler for the list at key.
func NewSampler(addr, key string, store *state.Store, interval time.Duration, logger zerolog.Logger) *Sampler {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
		ReadTimeout: 5 * time.Second,
	})
	return &Sampler{
		client:   client,
		key:      key,
		store:    store,
		interval: interval,
		logger:   logger,
		closer:   client.Close,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the sampling loop.
func (s *Sampler) Start() {
	go s.loop()
}

// Stop terminates the loop and closes the client connection.
func (s *Sampler) Stop() {
	close(s.stopCh)
	<-s.doneCh
	if s.closer != nil {
		_ = s.closer()
	}
}

func (s *Sampler) loop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-s.stopCh
		cancel()
	}()

	s.Sample(ctx)
	for {
		select {
		case <-ticker.C:
			s.Sample(ctx)
		case <-s.stopCh:
			return
		}
	}
}

// Sample reads the queue length once. On error the depth key is left
// untouched: the last known depth is more useful than a zero that would
// hide a backlog behind a flaky connection.
func (s *Sampler) Sample(ctx context.Context) {
	depth, err := s.client.LLen(ctx, s.key).Result()
	if err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("queue depth sample failed")
		return
	}
	s.store.Set(state.KeyRedisQueueDepth, float64(depth))
}
