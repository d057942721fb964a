package process

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bnema/slotbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newPipeExpecter(t *testing.T) (*expecter, *io.PipeWriter) {
	t.Helper()

	r, w := io.Pipe()
	e := newExpecter(r)
	t.Cleanup(func() {
		_ = r.Close()
		e.Close()
	})
	return e, w
}

func write(t *testing.T, w io.Writer, s string) {
	t.Helper()

	go func() {
		_, _ = io.WriteString(w, s)
	}()
}

func TestExpecterMatchesAcrossChunks(t *testing.T) {
	e, w := newPipeExpecter(t)

	go func() {
		_, _ = io.WriteString(w, "Welcome!\nYou have $1")
		_, _ = io.WriteString(w, "50. How much would you like to wager? ")
	}()

	m, err := e.Expect(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchWagerRequest, m.Kind)
	assert.Equal(t, int64(150), m.Money)
	assert.Equal(t, "Welcome!\n", m.Before)
}

func TestExpecterKeepsLeftoverForNextCall(t *testing.T) {
	e, w := newPipeExpecter(t)

	write(t, w, "You won! cherry cherry cherry\r\nYou now have $400.\r\nYou have $400. How much would you like to wager? ")

	first, err := e.Expect(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchRoundResult, first.Kind)
	assert.Equal(t, int64(400), first.Money)
	assert.True(t, first.Won())

	second, err := e.Expect(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchWagerRequest, second.Kind)
	assert.Equal(t, int64(400), second.Money)
	assert.Equal(t, "\r\n", second.Before)
}

func TestExpecterTimesOut(t *testing.T) {
	e, w := newPipeExpecter(t)

	write(t, w, "You have $10")

	start := time.Now()
	m, err := e.Expect(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchTimedOut, m.Kind)
	assert.Equal(t, "You have $10", m.Before)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestExpecterReportsStreamEnd(t *testing.T) {
	e, w := newPipeExpecter(t)

	go func() {
		_, _ = io.WriteString(w, "Exception in thread \"main\"")
		_ = w.Close()
	}()

	m, err := e.Expect(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStreamEnded, m.Kind)
	assert.Equal(t, "Exception in thread \"main\"", m.Before)

	m, err = e.Expect(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStreamEnded, m.Kind)
	assert.Empty(t, m.Before)
}

func TestExpecterMatchesBeforeStreamEnd(t *testing.T) {
	e, w := newPipeExpecter(t)

	go func() {
		_, _ = io.WriteString(w, "You've run out of money! Thanks for coming! Come back soon!\n")
		_ = w.Close()
	}()

	m, err := e.Expect(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchBrokeOut, m.Kind)

	m, err = e.Expect(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStreamEnded, m.Kind)
}

func TestExpecterHonoursContext(t *testing.T) {
	e, _ := newPipeExpecter(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := e.Expect(ctx, 0)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExpecterBoundsPendingOutput(t *testing.T) {
	e, w := newPipeExpecter(t)

	go func() {
		_, _ = io.WriteString(w, strings.Repeat("x", maxPending+1000))
		_ = w.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	m, err := e.Expect(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStreamEnded, m.Kind)
	assert.Len(t, m.Before, maxPending)
}

func TestExpecterScansOnlyNewOutput(t *testing.T) {
	e, _ := newPipeExpecter(t)

	noise := strings.Repeat("x", 10000)
	e.buffer([]byte(noise))
	_, ok, err := e.next()
	require.NoError(t, err)
	require.False(t, ok)
	assert.Equal(t, len(noise), e.scanned)

	e.buffer([]byte("You have $1"))
	_, ok, err = e.next()
	require.NoError(t, err)
	require.False(t, ok)

	e.buffer([]byte("50. How much would you like to wager? left"))
	m, ok, err := e.next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.MatchWagerRequest, m.Kind)
	assert.Equal(t, int64(150), m.Money)
	assert.Equal(t, noise, m.Before)
	assert.Equal(t, "left", string(e.pending))
	assert.Zero(t, e.scanned)
}

func TestExpecterKeepsScanOffsetWhenTrimming(t *testing.T) {
	e, _ := newPipeExpecter(t)

	e.buffer([]byte(strings.Repeat("x", maxPending)))
	_, ok, _ := e.next()
	require.False(t, ok)

	e.buffer([]byte("Would you like to play the slots? (Yes/yes/Y/y) : "))
	assert.LessOrEqual(t, e.scanned, len(e.pending))

	m, ok, err := e.next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.MatchPlayPrompt, m.Kind)
	assert.Len(t, m.Before, maxPending-len(m.Text))
}

func TestExpecterSurfacesUndecodableMoney(t *testing.T) {
	e, w := newPipeExpecter(t)

	write(t, w, "You have $99999999999999999999. How much would you like to wager? Would you like to play the slots? (Yes/yes/Y/y) : ")

	_, err := e.Expect(context.Background(), time.Second)
	require.ErrorIs(t, err, domain.ErrUnexpectedPattern)

	m, err := e.Expect(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchPlayPrompt, m.Kind)
}
