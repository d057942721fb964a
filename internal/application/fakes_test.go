package application

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bnema/slotbot/internal/domain"
	"github.com/bnema/slotbot/internal/ports"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

// scriptedProcess replays a fixed list of matches. Once the script is
// exhausted it either reports the end of the stream or, when hold is set,
// blocks until the context is cancelled or the process is killed.
type scriptedProcess struct {
	pid  int
	hold bool

	mu        sync.Mutex
	script    []domain.Match
	sent      []string
	killCount int
	killed    chan struct{}
	expectErr error
	panicMsg  string
}

func newScriptedProcess(pid int, script ...domain.Match) *scriptedProcess {
	return &scriptedProcess{pid: pid, script: script, killed: make(chan struct{})}
}

func (p *scriptedProcess) Expect(ctx context.Context, _ time.Duration) (domain.Match, error) {
	p.mu.Lock()
	if p.panicMsg != "" {
		msg := p.panicMsg
		p.mu.Unlock()
		panic(msg)
	}
	if p.expectErr != nil {
		err := p.expectErr
		p.mu.Unlock()
		return domain.Match{}, err
	}
	if len(p.script) > 0 {
		next := p.script[0]
		p.script = p.script[1:]
		p.mu.Unlock()
		return next, nil
	}
	hold := p.hold
	p.mu.Unlock()

	if !hold {
		return domain.Match{Kind: domain.MatchStreamEnded}, nil
	}

	select {
	case <-ctx.Done():
		return domain.Match{}, ctx.Err()
	case <-p.killed:
		return domain.Match{Kind: domain.MatchStreamEnded}, nil
	}
}

func (p *scriptedProcess) SendLine(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.killCount > 0 {
		return errors.New("process is dead")
	}
	p.sent = append(p.sent, line)
	return nil
}

func (p *scriptedProcess) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.killCount == 0 {
		close(p.killed)
	}
	p.killCount++
	return nil
}

func (p *scriptedProcess) Pid() int {
	return p.pid
}

func (p *scriptedProcess) Sent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.sent...)
}

func (p *scriptedProcess) Killed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.killCount > 0
}

// fakeLauncher hands out processes built by next and remembers them.
type fakeLauncher struct {
	next func(n int) (*scriptedProcess, error)

	mu       sync.Mutex
	launched []*scriptedProcess
}

var _ ports.GameLauncher = (*fakeLauncher)(nil)

func (l *fakeLauncher) Launch(_ context.Context) (ports.GameProcess, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	proc, err := l.next(len(l.launched))
	if err != nil {
		return nil, err
	}
	l.launched = append(l.launched, proc)
	return proc, nil
}

func (l *fakeLauncher) Launched() []*scriptedProcess {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]*scriptedProcess(nil), l.launched...)
}

type recordingReporter struct {
	mu         sync.Mutex
	candidates []domain.Candidate
}

func (r *recordingReporter) Report(_ context.Context, candidate domain.Candidate) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.candidates = append(r.candidates, candidate)
	return true
}

func (r *recordingReporter) Candidates() []domain.Candidate {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]domain.Candidate(nil), r.candidates...)
}

type countingSink struct {
	mu      sync.Mutex
	records []domain.Record
	err     error
}

func (s *countingSink) Persist(_ context.Context, record domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
	return s.err
}

func (s *countingSink) Records() []domain.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.Record(nil), s.records...)
}

func playPrompt() domain.Match {
	return domain.Match{Kind: domain.MatchPlayPrompt, Text: "Would you like to play the slots? (Yes/yes/Y/y) : "}
}

func wagerPrompt(money int64) domain.Match {
	return domain.Match{Kind: domain.MatchWagerRequest, Money: money, Text: "You have $" + itoa(money) + ". How much would you like to wager? "}
}

func roundWon(money int64) domain.Match {
	return domain.Match{Kind: domain.MatchRoundResult, Money: money, Result: "You won! bar bar bar", Text: "You won! bar bar bar\nYou now have $" + itoa(money) + "."}
}

func roundLost(money int64) domain.Match {
	return domain.Match{Kind: domain.MatchRoundResult, Money: money, Result: "Didn't win this time.", Text: "Didn't win this time.\nYou now have $" + itoa(money) + "."}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
