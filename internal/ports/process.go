package ports

import (
	"context"
	"time"

	"github.com/bnema/slotbot/internal/domain"
)

// GameProcess is one running instance of the external slot game.
type GameProcess interface {
	// Expect blocks until the next protocol pattern is seen, the timeout
	// elapses (MatchTimedOut) or the output stream closes (MatchStreamEnded).
	Expect(ctx context.Context, timeout time.Duration) (domain.Match, error)
	SendLine(line string) error
	// Kill forcibly terminates the process. It is idempotent.
	Kill() error
	Pid() int
}

type GameLauncher interface {
	Launch(ctx context.Context) (GameProcess, error)
}
