package cmd

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainSpinnerModelTracksLiveProcesses(t *testing.T) {
	var live atomic.Int64
	live.Store(4)

	model := newDrainSpinnerModel(nil, live.Load)
	assert.Contains(t, model.View(), "Stopping sessions... 4 of 4 game processes left")

	live.Store(1)
	next, _ := model.Update(spinner.TickMsg{})
	model = next.(drainSpinnerModel)
	assert.Contains(t, model.View(), "1 of 4 game processes left")

	live.Store(0)
	next, _ = model.Update(spinner.TickMsg{})
	model = next.(drainSpinnerModel)
	assert.Contains(t, model.View(), "Stopping sessions...")
	assert.NotContains(t, model.View(), "left")

	next, cmd := model.Update(drainDoneMsg{})
	model = next.(drainSpinnerModel)
	require.NotNil(t, cmd)
	assert.True(t, model.done)
	assert.Empty(t, model.View())
}

func TestRunDrainSpinnerReturnsDrainError(t *testing.T) {
	var out lockedBuffer
	drainErr := errors.New("drain timed out")

	err := runDrainSpinner(context.Background(), &out, nil, func(context.Context) error {
		return drainErr
	})
	require.ErrorIs(t, err, drainErr)

	err = runDrainSpinner(context.Background(), &out, func() int64 { return 2 }, func(context.Context) error {
		return nil
	})
	require.NoError(t, err)
}
