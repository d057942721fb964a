package application

import (
	"context"
	"sync"
	"time"

	"github.com/bnema/slotbot/internal/ports"
)

// RunService ties one session pool to the registry and counters of a run.
type RunService struct {
	pool     *SessionPool
	registry *Registry
	stats    *Stats
	clock    ports.Clock

	mu        sync.Mutex
	startedAt time.Time
	stoppedAt time.Time
}

func NewRunService(pool *SessionPool, registry *Registry, stats *Stats, clock ports.Clock) *RunService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &RunService{pool: pool, registry: registry, stats: stats, clock: clock}
}

func (s *RunService) Start(ctx context.Context, sessions int) error {
	if err := s.pool.Start(ctx, sessions); err != nil {
		return err
	}

	s.mu.Lock()
	s.startedAt = s.clock.Now()
	s.stoppedAt = time.Time{}
	s.mu.Unlock()

	return nil
}

// Stop drains the pool. The summary keeps the time the drain finished.
func (s *RunService) Stop(ctx context.Context) error {
	if err := s.pool.Stop(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.stoppedAt = s.clock.Now()
	s.mu.Unlock()

	return nil
}

// Done is closed when every session has terminated, including when the
// context given to Start ends.
func (s *RunService) Done() <-chan struct{} {
	return s.pool.Done()
}

func (s *RunService) Summary() RunSummary {
	s.mu.Lock()
	startedAt, stoppedAt := s.startedAt, s.stoppedAt
	s.mu.Unlock()

	end := stoppedAt
	if end.IsZero() {
		end = s.clock.Now()
	}

	var elapsed time.Duration
	if !startedAt.IsZero() {
		elapsed = end.Sub(startedAt)
	}

	plan := s.pool.Plan()
	return RunSummary{
		RunID:     s.registry.RunID(),
		Best:      s.registry.Best(),
		Sessions:  plan.Sessions,
		Workers:   plan.Workers,
		StartedAt: startedAt,
		Elapsed:   elapsed,
		Stats:     s.stats.Snapshot(),
	}
}
