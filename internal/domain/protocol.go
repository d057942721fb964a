package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchPlayPrompt
	MatchWagerRequest
	MatchRoundResult
	MatchBrokeOut
	MatchQuitWithMoney
	MatchInvalidAnswer
	MatchStreamEnded
	MatchTimedOut
)

func (k MatchKind) String() string {
	switch k {
	case MatchPlayPrompt:
		return "play_prompt"
	case MatchWagerRequest:
		return "wager_request"
	case MatchRoundResult:
		return "round_result"
	case MatchBrokeOut:
		return "broke_out"
	case MatchQuitWithMoney:
		return "quit_with_money"
	case MatchInvalidAnswer:
		return "invalid_answer"
	case MatchStreamEnded:
		return "stream_ended"
	case MatchTimedOut:
		return "timed_out"
	default:
		return "none"
	}
}

// Terminal reports whether the outcome ends the current game process.
func (k MatchKind) Terminal() bool {
	switch k {
	case MatchBrokeOut, MatchQuitWithMoney, MatchStreamEnded, MatchTimedOut:
		return true
	default:
		return false
	}
}

// Pattern binds one line of the game protocol to the outcome it produces.
type Pattern struct {
	Kind MatchKind
	Expr *regexp.Regexp
}

// ProtocolPatterns is the fixed grammar spoken by the slot game, in
// detection order. The phrases are disjoint, so at most one pattern can
// start at a given offset.
var ProtocolPatterns = []Pattern{
	{Kind: MatchPlayPrompt, Expr: regexp.MustCompile(`Would you like to play the slots\? \(Yes/yes/Y/y\) : `)},
	{Kind: MatchWagerRequest, Expr: regexp.MustCompile(`You have \$(\d+)\. How much would you like to wager\? `)},
	{Kind: MatchRoundResult, Expr: regexp.MustCompile(`(JACKPOT!.*|You won!.*|Didn't win this time.*)\r?\nYou now have \$(\d+)\.`)},
	{Kind: MatchBrokeOut, Expr: regexp.MustCompile(`You've run out of money! Thanks for coming! Come back soon!`)},
	{Kind: MatchQuitWithMoney, Expr: regexp.MustCompile(`Sad to see you go! You still have \$\d+ left\. Come again soon! Thanks!`)},
	{Kind: MatchInvalidAnswer, Expr: regexp.MustCompile(`That wasn't quite the correct answer\. Try again\.`)},
}

// Match is one classified chunk of game output.
type Match struct {
	Kind MatchKind
	// Money is the bankroll announced by a wager prompt or a round result.
	Money  int64
	Result string
	// Before holds the unmatched output that preceded Text.
	Before string
	Text   string
}

// Won reports whether a round result describes a win.
func (m Match) Won() bool {
	return strings.Contains(m.Result, "won") || strings.Contains(m.Result, "JACKPOT")
}

// Classify finds the earliest protocol pattern in window. It returns the
// match and the number of bytes of window it consumed.
func Classify(window string) (Match, int, error) {
	best := -1
	var loc []int
	for i, pattern := range ProtocolPatterns {
		candidate := pattern.Expr.FindStringSubmatchIndex(window)
		if candidate == nil {
			continue
		}
		if loc == nil || candidate[0] < loc[0] {
			best = i
			loc = candidate
		}
	}

	if best < 0 {
		return Match{}, 0, ErrNoMatch
	}

	m := Match{
		Kind:   ProtocolPatterns[best].Kind,
		Before: window[:loc[0]],
		Text:   window[loc[0]:loc[1]],
	}

	var err error
	switch m.Kind {
	case MatchWagerRequest:
		m.Money, err = parseMoney(window[loc[2]:loc[3]])
	case MatchRoundResult:
		m.Result = strings.TrimRight(window[loc[2]:loc[3]], "\r")
		m.Money, err = parseMoney(window[loc[4]:loc[5]])
	}
	if err != nil {
		return Match{}, loc[1], err
	}

	return m, loc[1], nil
}

func parseMoney(raw string) (int64, error) {
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: money %q: %v", ErrUnexpectedPattern, raw, err)
	}

	return value, nil
}
