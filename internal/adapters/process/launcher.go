package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/bnema/slotbot/internal/domain"
	"github.com/bnema/slotbot/internal/ports"
	"go.uber.org/zap"
)

// Launcher starts game processes with stdout and stderr merged into one
// stream and stdin open for answers.
type Launcher struct {
	cfg    Config
	logger *zap.Logger
}

var _ ports.GameLauncher = (*Launcher)(nil)

func NewLauncher(cfg Config, logger *zap.Logger) (*Launcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Launcher{cfg: cfg, logger: logger}, nil
}

func (l *Launcher) Launch(ctx context.Context) (ports.GameProcess, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(l.cfg.Command, l.cfg.Args...)
	cmd.Dir = l.cfg.Dir
	if len(l.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), l.cfg.Env...)
	}
	setupProcessGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("open stdin: %w", err)
	}

	output, sink, err := os.Pipe()
	if err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("open output pipe: %w", err)
	}
	cmd.Stdout = sink
	cmd.Stderr = sink

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		_ = output.Close()
		_ = sink.Close()
		return nil, fmt.Errorf("start %s: %w", l.cfg.Command, err)
	}
	// The child holds its own copy of the write end; EOF arrives once the
	// whole process group is gone.
	_ = sink.Close()

	proc := &gameProcess{
		cmd:      cmd,
		stdin:    stdin,
		output:   output,
		expecter: newExpecter(output),
		waitDone: make(chan struct{}),
	}
	go proc.wait()

	l.logger.Debug("game process started", zap.Int("pid", cmd.Process.Pid), zap.String("command", l.cfg.Command))
	return proc, nil
}

type gameProcess struct {
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	output   io.Closer
	expecter *expecter

	waitDone chan struct{}

	killOnce sync.Once
	killErr  error
}

var _ ports.GameProcess = (*gameProcess)(nil)

func (p *gameProcess) wait() {
	defer close(p.waitDone)
	// Exit status is irrelevant; the protocol stream already said why.
	_ = p.cmd.Wait()
}

func (p *gameProcess) Expect(ctx context.Context, timeout time.Duration) (domain.Match, error) {
	return p.expecter.Expect(ctx, timeout)
}

func (p *gameProcess) SendLine(line string) error {
	if _, err := io.WriteString(p.stdin, line+"\n"); err != nil {
		return fmt.Errorf("write to game: %w", err)
	}

	return nil
}

// Kill terminates the whole process group, reaps the child and releases
// both pipes. Later calls return the first call's result.
func (p *gameProcess) Kill() error {
	p.killOnce.Do(func() {
		err := killProcessGroup(p.cmd)
		<-p.waitDone

		_ = p.stdin.Close()
		_ = p.output.Close()
		p.expecter.Close()

		if err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.killErr = fmt.Errorf("kill game process %d: %w", p.Pid(), err)
		}
	})

	return p.killErr
}

func (p *gameProcess) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}

	return p.cmd.Process.Pid
}
