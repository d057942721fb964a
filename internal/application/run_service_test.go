package application

import (
	"context"
	"testing"
	"time"

	"github.com/bnema/slotbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type steppingClock struct {
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

func TestRunServiceSummary(t *testing.T) {
	launcher := shortGameLauncher()
	stats := NewStats()
	registry := NewRegistry("run-42", nil, nil, nil)
	pool := newTestPool(t, 2, launcher, registry, stats)
	clock := &steppingClock{now: time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC), step: time.Minute}
	service := NewRunService(pool, registry, stats, clock)

	require.NoError(t, service.Start(context.Background(), 3))
	require.Eventually(t, func() bool {
		return registry.Best() > 0
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, service.Stop(context.Background()))

	summary := service.Summary()
	assert.Equal(t, domain.RunID("run-42"), summary.RunID)
	assert.Equal(t, 3, summary.Sessions)
	assert.Equal(t, 2, summary.Workers)
	assert.Equal(t, registry.Best(), summary.Best)
	assert.Equal(t, time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC), summary.StartedAt)
	assert.Equal(t, time.Minute, summary.Elapsed)
	assert.Positive(t, summary.Stats.GamesStarted)
	assert.Equal(t, int64(0), summary.Stats.LiveProcesses)

	// A drained run keeps reporting the same elapsed time.
	assert.Equal(t, time.Minute, service.Summary().Elapsed)
}

func TestRunServiceStartPropagatesPoolErrors(t *testing.T) {
	pool := newTestPool(t, 1, shortGameLauncher(), nil, nil)
	service := NewRunService(pool, NewRegistry("run-1", nil, nil, nil), nil, nil)

	require.Error(t, service.Start(context.Background(), 0))
	require.ErrorIs(t, service.Stop(context.Background()), ErrPoolNotRunning)

	summary := service.Summary()
	assert.Zero(t, summary.Elapsed)
	assert.True(t, summary.StartedAt.IsZero())
}
