package application

import (
	"context"
	"sync"
	"time"

	"github.com/bnema/slotbot/internal/domain"
	"github.com/bnema/slotbot/internal/ports"
	"go.uber.org/zap"
)

// Reporter receives the bankroll observed at the end of every round.
type Reporter interface {
	Report(ctx context.Context, candidate domain.Candidate) bool
}

// DefaultPersistTimeout bounds how long a new record may hold the registry
// while its evidence is written.
const DefaultPersistTimeout = 30 * time.Second

// Registry holds the best bankroll observed by any session of a run.
type Registry struct {
	mu             sync.Mutex
	best           int64
	runID          domain.RunID
	sink           ports.EvidenceSink
	clock          ports.Clock
	logger         *zap.Logger
	persistTimeout time.Duration
}

var _ Reporter = (*Registry)(nil)

func NewRegistry(runID domain.RunID, sink ports.EvidenceSink, clock ports.Clock, logger *zap.Logger) *Registry {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Registry{
		runID:          runID,
		sink:           sink,
		clock:          clock,
		logger:         logger,
		persistTimeout: DefaultPersistTimeout,
	}
}

// WithPersistTimeout sets the evidence deadline. Zero or less keeps the
// default.
func (r *Registry) WithPersistTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.persistTimeout = d
	}
	return r
}

// Report stores candidate.Value if it beats the current record and hands
// the new record to the evidence sink. Evidence is persisted while the lock
// is held so artifacts are written in record order. It returns true when the
// record moved.
func (r *Registry) Report(ctx context.Context, candidate domain.Candidate) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if candidate.Value <= r.best {
		return false
	}
	r.best = candidate.Value

	record := domain.Record{
		Value:      candidate.Value,
		SessionID:  candidate.SessionID,
		RunID:      r.runID,
		Transcript: candidate.Transcript,
		SetAt:      r.clock.Now(),
	}

	r.logger.Info("new overall high score",
		zap.Int64("value", record.Value),
		zap.Int("session", int(record.SessionID)),
		zap.String("run_id", string(record.RunID)),
	)

	if r.sink == nil {
		return true
	}

	// A record set while the run is draining still gets its evidence, but
	// never holds the lock past the deadline.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.persistTimeout)
	defer cancel()

	if err := r.sink.Persist(persistCtx, record); err != nil {
		r.logger.Warn("persist record evidence",
			zap.Int64("value", record.Value),
			zap.Int("session", int(record.SessionID)),
			zap.Error(err),
		)
	}

	return true
}

func (r *Registry) Best() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.best
}

func (r *Registry) RunID() domain.RunID {
	return r.runID
}
