package application

import (
	"time"

	"github.com/bnema/slotbot/internal/domain"
)

// RunSummary is the read model of a run, served by the status endpoint and
// printed once the run has drained.
type RunSummary struct {
	RunID     domain.RunID  `json:"run_id"`
	Best      int64         `json:"best"`
	Sessions  int           `json:"sessions"`
	Workers   int           `json:"workers"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"-"`
	Stats     StatsSnapshot `json:"stats"`
}
