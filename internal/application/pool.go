package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/slotbot/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrPoolRunning    = errors.New("session pool already running")
	ErrPoolNotRunning = errors.New("session pool is not running")
	ErrDrainTimeout   = errors.New("session pool drain timed out")
)

// ControllerFactory builds the controller owning one session identity.
type ControllerFactory func(id domain.SessionID) *SessionController

type PoolConfig struct {
	// Workers bounds how many sessions drive a live game process at once.
	Workers int
	// DrainTimeout bounds Stop. Zero waits for as long as it takes.
	DrainTimeout time.Duration
}

// SessionPool schedules session controllers onto a bounded set of workers.
// Each worker plays one game of a queued controller and puts it back, so a
// run may hold more sessions than it has workers.
type SessionPool struct {
	cfg     PoolConfig
	factory ControllerFactory
	logger  *zap.Logger

	mu          sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}
	plan        domain.PoolPlan
	controllers []*SessionController
}

func NewSessionPool(cfg PoolConfig, factory ControllerFactory, logger *zap.Logger) (*SessionPool, error) {
	if factory == nil {
		return nil, errors.New("controller factory is nil")
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1")
	}
	if cfg.DrainTimeout < 0 {
		return nil, fmt.Errorf("drain timeout must not be negative")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SessionPool{cfg: cfg, factory: factory, logger: logger}, nil
}

// Start launches n sessions with ids 0..n-1. The run lives until Stop is
// called or ctx is done.
func (p *SessionPool) Start(ctx context.Context, n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		return ErrPoolRunning
	}

	plan := domain.PoolPlan{Sessions: n, Workers: p.cfg.Workers}
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("invalid pool plan: %w", err)
	}
	plan.Normalize()

	controllers := make([]*SessionController, 0, n)
	queue := make(chan *SessionController, n)
	for i := 0; i < n; i++ {
		controller := p.factory(domain.SessionID(i))
		controllers = append(controllers, controller)
		queue <- controller
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.cancel = cancel
	p.done = done
	p.plan = plan
	p.controllers = controllers

	go p.dispatch(runCtx, queue, controllers, plan.Workers, done)

	p.logger.Info("session pool started", zap.Int("sessions", plan.Sessions), zap.Int("workers", plan.Workers))
	return nil
}

func (p *SessionPool) dispatch(ctx context.Context, queue chan *SessionController, controllers []*SessionController, workers int, done chan struct{}) {
	defer close(done)

	var g errgroup.Group
	g.SetLimit(workers)

	for {
		select {
		case <-ctx.Done():
			_ = g.Wait()
			for _, controller := range controllers {
				controller.setState(StateTerminated)
			}
			return
		case controller := <-queue:
			g.Go(func() error {
				if controller.Turn(ctx) {
					queue <- controller
				}
				return nil
			})
		}
	}
}

// Stop cancels every session and waits until all of them have terminated
// and killed their game process.
func (p *SessionPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel, done, plan := p.cancel, p.done, p.plan
	p.mu.Unlock()

	if done == nil {
		return ErrPoolNotRunning
	}

	cancel()

	var timeout <-chan time.Time
	if p.cfg.DrainTimeout > 0 {
		timer := time.NewTimer(p.cfg.DrainTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-done:
	case <-timeout:
		return ErrDrainTimeout
	case <-ctx.Done():
		return ctx.Err()
	}

	p.mu.Lock()
	if p.done == done {
		p.done = nil
		p.cancel = nil
	}
	p.mu.Unlock()

	p.logger.Info("session pool drained", zap.Int("sessions", plan.Sessions))
	return nil
}

// Done is closed once every session of the current run has terminated.
// It returns nil when the pool is not running.
func (p *SessionPool) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.done
}

func (p *SessionPool) Plan() domain.PoolPlan {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.plan
}

func (p *SessionPool) Controllers() []*SessionController {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]*SessionController(nil), p.controllers...)
}
