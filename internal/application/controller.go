package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/bnema/slotbot/internal/domain"
	"github.com/bnema/slotbot/internal/ports"
	"go.uber.org/zap"
)

const (
	DefaultInitialStake   int64 = 100
	DefaultExpectTimeout        = 30 * time.Second
	DefaultRestartBackoff       = 100 * time.Millisecond

	affirmativeAnswer = "y"
)

type State int32

const (
	StateIdle State = iota
	StateAwaitingPlayPrompt
	StateAwaitingWagerPrompt
	StateAwaitingRoundResult
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateAwaitingPlayPrompt:
		return "awaiting_play_prompt"
	case StateAwaitingWagerPrompt:
		return "awaiting_wager_prompt"
	case StateAwaitingRoundResult:
		return "awaiting_round_result"
	case StateTerminated:
		return "terminated"
	default:
		return "idle"
	}
}

type ControllerConfig struct {
	InitialStake   int64
	ExpectTimeout  time.Duration
	RestartBackoff time.Duration
	Policy         domain.BettingPolicy
}

func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		InitialStake:   DefaultInitialStake,
		ExpectTimeout:  DefaultExpectTimeout,
		RestartBackoff: DefaultRestartBackoff,
		Policy:         domain.DefaultBettingPolicy(),
	}
}

func (c ControllerConfig) Validate() error {
	if c.InitialStake < 1 {
		return fmt.Errorf("initial stake must be positive")
	}
	if c.ExpectTimeout <= 0 {
		return fmt.Errorf("expect timeout must be positive")
	}
	if c.RestartBackoff < 0 {
		return fmt.Errorf("restart backoff must not be negative")
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("betting policy: %w", err)
	}

	return nil
}

// SessionController drives one session against a sequence of game
// processes. Only one goroutine may play a controller at a time; State and
// Session are safe to call concurrently with a running game.
type SessionController struct {
	id       domain.SessionID
	session  *domain.Session
	snapshot atomic.Pointer[domain.Session]
	launcher ports.GameLauncher
	reporter Reporter
	cfg      ControllerConfig
	logger   *zap.Logger
	stats    *Stats
	state    atomic.Int32
}

func NewSessionController(id domain.SessionID, launcher ports.GameLauncher, reporter Reporter, cfg ControllerConfig, logger *zap.Logger, stats *Stats) *SessionController {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &SessionController{
		id:       id,
		session:  domain.NewSession(id, cfg.InitialStake),
		launcher: launcher,
		reporter: reporter,
		cfg:      cfg,
		logger:   logger.With(zap.Int("session", int(id))),
		stats:    stats,
	}
	c.publish()
	return c
}

func (c *SessionController) ID() domain.SessionID {
	return c.id
}

func (c *SessionController) State() State {
	return State(c.state.Load())
}

// Session returns the session as of the last completed transition.
func (c *SessionController) Session() domain.Session {
	snapshot := *c.snapshot.Load()
	snapshot.Transcript = append([]string(nil), snapshot.Transcript...)
	return snapshot
}

// publish copies the session for concurrent readers. Only the goroutine
// playing the controller may call it.
func (c *SessionController) publish() {
	snapshot := c.session.Snapshot()
	c.snapshot.Store(&snapshot)
}

// Run plays games back to back until ctx is done.
func (c *SessionController) Run(ctx context.Context) {
	for c.Turn(ctx) {
	}
}

// Turn plays one game, absorbs its failure, and waits out the restart
// backoff. It returns false once ctx is done.
func (c *SessionController) Turn(ctx context.Context) bool {
	err := c.playSafely(ctx)
	switch {
	case ctx.Err() != nil:
		c.setState(StateTerminated)
		return false
	case errors.Is(err, domain.ErrProcessSpawn):
		c.logger.Warn("launch game, retrying", zap.Error(err))
	case err != nil:
		c.stats.failure()
		c.logger.Warn("game failed, restarting", zap.Error(err))
	}

	if !sleepContext(ctx, c.cfg.RestartBackoff) {
		c.setState(StateTerminated)
		return false
	}

	return true
}

func (c *SessionController) playSafely(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("session %d panicked: %v", c.id, r)
		}
	}()

	return c.PlayGame(ctx)
}

// PlayGame starts a fresh game process and plays it until the game ends,
// the stream breaks, or ctx is done. The process is always killed and the
// session reset before PlayGame returns. A nil error means the game ended
// normally and a new one may be started.
func (c *SessionController) PlayGame(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		c.setState(StateTerminated)
		return err
	}

	c.session.Reset(c.cfg.InitialStake)
	c.publish()
	c.setState(StateIdle)

	proc, err := c.launcher.Launch(ctx)
	if err != nil {
		c.stats.spawnFailure()
		return fmt.Errorf("%w: %w", domain.ErrProcessSpawn, err)
	}

	c.session.Games++
	c.publish()
	c.stats.gameStarted()
	logger := c.logger.With(zap.Int("pid", proc.Pid()))
	defer c.finishGame(ctx, proc, logger)

	c.setState(StateAwaitingPlayPrompt)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m, err := proc.Expect(ctx, c.cfg.ExpectTimeout)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("read game output: %w", err)
		}

		done, err := c.handle(ctx, proc, m, logger)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (c *SessionController) handle(ctx context.Context, proc ports.GameProcess, m domain.Match, logger *zap.Logger) (bool, error) {
	s := c.session
	defer c.publish()

	switch m.Kind {
	case domain.MatchPlayPrompt:
		if err := proc.SendLine(affirmativeAnswer); err != nil {
			return false, fmt.Errorf("answer play prompt: %w", err)
		}
		c.setState(StateAwaitingWagerPrompt)

	case domain.MatchWagerRequest:
		s.Bankroll = m.Money
		s.BeginRound()
		s.Record(m.Before, m.Text)

		wager, streak := c.cfg.Policy.Decide(s.Bankroll, s.LastOutcome, s.WinStreak)
		if wager < 1 {
			return false, fmt.Errorf("%w: wager requested with bankroll %d", domain.ErrUnexpectedPattern, s.Bankroll)
		}
		s.WinStreak = streak

		line := strconv.FormatInt(wager, 10)
		if err := proc.SendLine(line); err != nil {
			return false, fmt.Errorf("send wager: %w", err)
		}
		s.Record(line)
		c.setState(StateAwaitingRoundResult)

	case domain.MatchRoundResult:
		s.Bankroll = m.Money
		s.Record(m.Before, m.Text)
		if m.Won() {
			s.LastOutcome = domain.OutcomeWin
		} else {
			s.LastOutcome = domain.OutcomeLoss
		}
		s.Rounds++
		c.stats.round()

		if c.reporter != nil {
			c.reporter.Report(ctx, domain.Candidate{
				Value:      m.Money,
				SessionID:  s.ID,
				Transcript: s.TranscriptText(),
			})
		}
		c.setState(StateAwaitingWagerPrompt)

	case domain.MatchInvalidAnswer:
		if err := proc.SendLine(affirmativeAnswer); err != nil {
			return false, fmt.Errorf("retry answer: %w", err)
		}

	case domain.MatchBrokeOut, domain.MatchQuitWithMoney:
		c.stats.gameOver()
		logger.Info("game over, restarting", zap.Stringer("reason", m.Kind), zap.Int64("bankroll", s.Bankroll))
		return true, nil

	case domain.MatchStreamEnded:
		c.stats.restart()
		logger.Warn("connection issue, restarting", zap.Error(domain.ErrStreamClosed))
		return true, nil

	case domain.MatchTimedOut:
		c.stats.restart()
		logger.Warn("connection issue, restarting", zap.Error(domain.ErrProtocolTimeout))
		return true, nil

	default:
		return false, fmt.Errorf("%w: %s", domain.ErrUnexpectedPattern, m.Kind)
	}

	return false, nil
}

func (c *SessionController) finishGame(ctx context.Context, proc ports.GameProcess, logger *zap.Logger) {
	if err := proc.Kill(); err != nil {
		logger.Warn("kill game process", zap.Error(err))
	}
	c.stats.processGone()

	c.session.Reset(c.cfg.InitialStake)
	c.publish()
	if ctx.Err() != nil {
		c.setState(StateTerminated)
		return
	}
	c.setState(StateIdle)
}

func (c *SessionController) setState(state State) {
	c.state.Store(int32(state))
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
