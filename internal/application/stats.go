package application

import "sync/atomic"

// Stats counts what the sessions of one run have done. All methods are safe
// for concurrent use; a nil *Stats ignores every update.
type Stats struct {
	gamesStarted  atomic.Int64
	gameOvers     atomic.Int64
	restarts      atomic.Int64
	rounds        atomic.Int64
	failures      atomic.Int64
	spawnFailures atomic.Int64
	liveProcesses atomic.Int64
}

type StatsSnapshot struct {
	GamesStarted  int64 `json:"games_started"`
	GameOvers     int64 `json:"game_overs"`
	Restarts      int64 `json:"restarts"`
	Rounds        int64 `json:"rounds"`
	Failures      int64 `json:"failures"`
	SpawnFailures int64 `json:"spawn_failures"`
	LiveProcesses int64 `json:"live_processes"`
}

func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) Snapshot() StatsSnapshot {
	if s == nil {
		return StatsSnapshot{}
	}

	return StatsSnapshot{
		GamesStarted:  s.gamesStarted.Load(),
		GameOvers:     s.gameOvers.Load(),
		Restarts:      s.restarts.Load(),
		Rounds:        s.rounds.Load(),
		Failures:      s.failures.Load(),
		SpawnFailures: s.spawnFailures.Load(),
		LiveProcesses: s.liveProcesses.Load(),
	}
}

func (s *Stats) gameStarted() {
	if s == nil {
		return
	}
	s.gamesStarted.Add(1)
	s.liveProcesses.Add(1)
}

func (s *Stats) processGone() {
	if s == nil {
		return
	}
	s.liveProcesses.Add(-1)
}

func (s *Stats) gameOver() {
	if s == nil {
		return
	}
	s.gameOvers.Add(1)
}

func (s *Stats) restart() {
	if s == nil {
		return
	}
	s.restarts.Add(1)
}

func (s *Stats) round() {
	if s == nil {
		return
	}
	s.rounds.Add(1)
}

func (s *Stats) failure() {
	if s == nil {
		return
	}
	s.failures.Add(1)
}

func (s *Stats) spawnFailure() {
	if s == nil {
		return
	}
	s.spawnFailures.Add(1)
}
