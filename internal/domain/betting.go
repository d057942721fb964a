package domain

import (
	"fmt"
	"math"
)

type BettingPolicy struct {
	// AggressiveThreshold is the bankroll under which every wager is all-in.
	AggressiveThreshold int64
	BaseFraction        float64
	GrowthRate          float64
	MaxFraction         float64
	MaxBetCap           int64
}

func DefaultBettingPolicy() BettingPolicy {
	return BettingPolicy{
		AggressiveThreshold: 500,
		BaseFraction:        0.3,
		GrowthRate:          2.0,
		MaxFraction:         0.8,
		MaxBetCap:           20000,
	}
}

func (p BettingPolicy) Validate() error {
	if p.AggressiveThreshold < 0 {
		return fmt.Errorf("aggressive threshold must not be negative")
	}
	if p.BaseFraction <= 0 || p.BaseFraction > 1 {
		return fmt.Errorf("base fraction must be in (0, 1]")
	}
	if p.GrowthRate < 1 {
		return fmt.Errorf("growth rate must be at least 1")
	}
	if p.MaxFraction < p.BaseFraction || p.MaxFraction > 1 {
		return fmt.Errorf("max fraction must be in [base fraction, 1]")
	}
	if p.MaxBetCap < 1 {
		return fmt.Errorf("max bet cap must be positive")
	}

	return nil
}

// Wager returns the amount to bet. streak is the number of consecutive wins
// that ended with the last round; it only matters when last is a win.
func (p BettingPolicy) Wager(bankroll int64, last Outcome, streak int) int64 {
	if bankroll <= 0 {
		return 0
	}
	if bankroll < p.AggressiveThreshold {
		return bankroll
	}

	fraction := p.BaseFraction
	if last == OutcomeWin {
		fraction = math.Min(p.BaseFraction*math.Pow(p.GrowthRate, float64(streak)), p.MaxFraction)
	}

	wager := int64(math.Floor(float64(bankroll) * fraction))
	if wager < 1 {
		wager = 1
	}

	return min(wager, p.MaxBetCap, bankroll)
}

// Decide advances the win streak for the round about to be played and
// returns the wager together with the new streak. The streak only moves
// while the bankroll is at or above the aggressive threshold.
func (p BettingPolicy) Decide(bankroll int64, last Outcome, prevStreak int) (int64, int) {
	streak := prevStreak
	if bankroll >= p.AggressiveThreshold {
		if last == OutcomeWin {
			streak++
		} else {
			streak = 0
		}
	}

	return p.Wager(bankroll, last, streak), streak
}
