package domain

import (
	"fmt"
	"time"
)

type RunID string

// Candidate is a bankroll observed by a session at the end of a round.
type Candidate struct {
	Value      int64
	SessionID  SessionID
	Transcript string
}

// Record is a new overall high score together with its evidence.
type Record struct {
	Value      int64
	SessionID  SessionID
	RunID      RunID
	Transcript string
	Artifacts  []string
	SetAt      time.Time
}

func (r Record) Validate() error {
	if r.Value <= 0 {
		return fmt.Errorf("value must be positive")
	}
	if r.SessionID < 0 {
		return fmt.Errorf("session id must not be negative")
	}
	if r.SetAt.IsZero() {
		return fmt.Errorf("set_at is required")
	}

	return nil
}
