package domain

import "fmt"

// PoolPlan sizes a run: how many session identities exist and how many of
// them may drive a live game process at the same time.
type PoolPlan struct {
	Sessions int
	Workers  int
}

func (p PoolPlan) Validate() error {
	if p.Sessions < 1 {
		return fmt.Errorf("sessions must be at least 1")
	}
	if p.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}

	return nil
}

// Normalize caps the worker count at the number of sessions.
func (p *PoolPlan) Normalize() {
	if p == nil {
		return
	}
	if p.Workers > p.Sessions {
		p.Workers = p.Sessions
	}
}
