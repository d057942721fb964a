package domain

import "strings"

type SessionID int

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWin
	OutcomeLoss
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	default:
		return "none"
	}
}

type Session struct {
	ID          SessionID
	Bankroll    int64
	LastOutcome Outcome
	WinStreak   int
	Transcript  []string
	Games       int
	Rounds      int
}

func NewSession(id SessionID, stake int64) *Session {
	s := &Session{ID: id}
	s.Reset(stake)
	return s
}

// Reset returns the session to the state of a freshly started game.
func (s *Session) Reset(stake int64) {
	if stake < 0 {
		stake = 0
	}
	s.Bankroll = stake
	s.LastOutcome = OutcomeNone
	s.WinStreak = 0
	s.Transcript = nil
}

func (s *Session) BeginRound() {
	s.Transcript = nil
}

// Record appends trimmed, non-empty lines to the round transcript.
func (s *Session) Record(lines ...string) {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		s.Transcript = append(s.Transcript, trimmed)
	}
}

func (s *Session) TranscriptText() string {
	return strings.Join(s.Transcript, "\n")
}

// Snapshot returns a copy that shares no memory with s.
func (s *Session) Snapshot() Session {
	snapshot := *s
	snapshot.Transcript = append([]string(nil), s.Transcript...)
	return snapshot
}
