package application

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/slotbot/internal/domain"
	"github.com/bnema/slotbot/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func shortGameLauncher() *fakeLauncher {
	return &fakeLauncher{next: func(n int) (*scriptedProcess, error) {
		return newScriptedProcess(n,
			playPrompt(),
			wagerPrompt(100),
			roundWon(int64(200+n)),
			wagerPrompt(int64(200+n)),
			roundLost(0),
			domain.Match{Kind: domain.MatchBrokeOut},
		), nil
	}}
}

func newTestPool(t *testing.T, workers int, launcher *fakeLauncher, reporter Reporter, stats *Stats) *SessionPool {
	t.Helper()

	pool, err := NewSessionPool(PoolConfig{Workers: workers, DrainTimeout: 5 * time.Second}, func(id domain.SessionID) *SessionController {
		return NewSessionController(id, launcher, reporter, testControllerConfig(), zap.NewNop(), stats)
	}, zap.NewNop())
	require.NoError(t, err)
	return pool
}

func TestNewSessionPoolValidatesConfig(t *testing.T) {
	factory := func(id domain.SessionID) *SessionController { return nil }

	_, err := NewSessionPool(PoolConfig{Workers: 0}, factory, nil)
	require.EqualError(t, err, "workers must be at least 1")

	_, err = NewSessionPool(PoolConfig{Workers: 1, DrainTimeout: -time.Second}, factory, nil)
	require.EqualError(t, err, "drain timeout must not be negative")

	_, err = NewSessionPool(PoolConfig{Workers: 1}, nil, nil)
	require.EqualError(t, err, "controller factory is nil")
}

func TestSessionPoolRunsMoreSessionsThanWorkers(t *testing.T) {
	launcher := shortGameLauncher()
	stats := NewStats()
	registry := NewRegistry("run-1", nil, nil, nil)
	pool := newTestPool(t, 2, launcher, registry, stats)

	require.NoError(t, pool.Start(context.Background(), 5))
	assert.Equal(t, domain.PoolPlan{Sessions: 5, Workers: 2}, pool.Plan())
	require.Len(t, pool.Controllers(), 5)

	require.Eventually(t, func() bool {
		for _, controller := range pool.Controllers() {
			if controller.Session().Games == 0 {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, pool.Stop(context.Background()))

	for _, controller := range pool.Controllers() {
		assert.Equal(t, StateTerminated, controller.State())
	}
	for _, proc := range launcher.Launched() {
		assert.True(t, proc.Killed(), "process %d left running", proc.Pid())
	}
	assert.Equal(t, int64(0), stats.Snapshot().LiveProcesses)
	assert.GreaterOrEqual(t, registry.Best(), int64(200))
	assert.Nil(t, pool.Done())
}

func TestSessionPoolBoundsLiveProcesses(t *testing.T) {
	var live, peak atomic.Int64
	launcher := &fakeLauncher{next: func(n int) (*scriptedProcess, error) {
		current := live.Add(1)
		for {
			old := peak.Load()
			if current <= old || peak.CompareAndSwap(old, current) {
				break
			}
		}
		proc := newScriptedProcess(n, playPrompt())
		proc.hold = true
		go func() {
			<-proc.killed
			live.Add(-1)
		}()
		return proc, nil
	}}
	pool := newTestPool(t, 3, launcher, nil, nil)

	require.NoError(t, pool.Start(context.Background(), 8))
	require.Eventually(t, func() bool {
		return len(launcher.Launched()) == 3
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, pool.Stop(context.Background()))
	assert.Equal(t, int64(3), peak.Load())
	require.Eventually(t, func() bool {
		return live.Load() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestSessionPoolIsolatesPanickingSession(t *testing.T) {
	games := shortGameLauncher()
	broken := &fakeLauncher{next: func(n int) (*scriptedProcess, error) {
		proc := newScriptedProcess(n)
		proc.panicMsg = "corrupted state"
		return proc, nil
	}}
	stats := NewStats()

	pool, err := NewSessionPool(PoolConfig{Workers: 2}, func(id domain.SessionID) *SessionController {
		if id == 0 {
			return NewSessionController(id, broken, nil, testControllerConfig(), zap.NewNop(), stats)
		}
		return NewSessionController(id, games, nil, testControllerConfig(), zap.NewNop(), stats)
	}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, pool.Start(context.Background(), 2))
	require.Eventually(t, func() bool {
		snapshot := stats.Snapshot()
		return snapshot.Failures >= 3 && snapshot.GameOvers >= 3
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, pool.Stop(context.Background()))

	for _, proc := range broken.Launched() {
		assert.True(t, proc.Killed())
	}
}

func TestSessionPoolLifecycleErrors(t *testing.T) {
	pool := newTestPool(t, 1, shortGameLauncher(), nil, nil)

	require.ErrorIs(t, pool.Stop(context.Background()), ErrPoolNotRunning)
	require.ErrorContains(t, pool.Start(context.Background(), 0), "sessions must be at least 1")

	require.NoError(t, pool.Start(context.Background(), 1))
	require.ErrorIs(t, pool.Start(context.Background(), 1), ErrPoolRunning)
	require.NoError(t, pool.Stop(context.Background()))
	require.ErrorIs(t, pool.Stop(context.Background()), ErrPoolNotRunning)

	require.NoError(t, pool.Start(context.Background(), 2))
	require.NoError(t, pool.Stop(context.Background()))
}

func TestSessionPoolStopsWhenParentContextEnds(t *testing.T) {
	launcher := shortGameLauncher()
	pool := newTestPool(t, 2, launcher, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, pool.Start(ctx, 3))
	done := pool.Done()
	require.NotNil(t, done)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not drain after parent context ended")
	}
	require.NoError(t, pool.Stop(context.Background()))
}

func TestSessionPoolStopReportsDrainTimeout(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	t.Cleanup(unblock)

	stuck := &stuckLauncher{release: release}

	pool, err := NewSessionPool(PoolConfig{Workers: 1, DrainTimeout: 20 * time.Millisecond}, func(id domain.SessionID) *SessionController {
		return NewSessionController(id, stuck, nil, testControllerConfig(), zap.NewNop(), nil)
	}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, pool.Start(context.Background(), 1))
	require.Eventually(t, func() bool {
		return stuck.started.Load()
	}, time.Second, 5*time.Millisecond)

	require.ErrorIs(t, pool.Stop(context.Background()), ErrDrainTimeout)

	unblock()
	<-pool.Done()
	require.NoError(t, pool.Stop(context.Background()))
}

// stuckLauncher ignores cancellation until released.
type stuckLauncher struct {
	release <-chan struct{}
	started atomic.Bool
}

func (l *stuckLauncher) Launch(ctx context.Context) (ports.GameProcess, error) {
	l.started.Store(true)
	<-l.release
	return nil, ctx.Err()
}
