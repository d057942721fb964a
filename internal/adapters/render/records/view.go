package records

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/slotbot/internal/application"
	"github.com/bnema/slotbot/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 24

type RenderOptions struct {
	Now time.Time
}

func renderRecords(records []domain.Record, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("High Score Records"),
		s.header.Render(fmt.Sprintf("records: %d", len(records))),
	}

	if len(records) == 0 {
		lines = append(lines, s.empty.Render("No records yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	var best int64
	for _, record := range records {
		best = max(best, record.Value)
	}

	for _, record := range records {
		lines = append(lines, s.section.Render(renderRecord(record, best, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderRecord(record domain.Record, best int64, opts RenderOptions, s styles) string {
	valueStyle := s.value
	if record.Value == best {
		valueStyle = s.best
	}

	title := lipgloss.JoinHorizontal(
		lipgloss.Top,
		valueStyle.Render(formatMoney(record.Value)),
		" ",
		s.meta.Render(fmt.Sprintf("(session %d, run %s)", record.SessionID, shortRunID(record.RunID))),
	)

	parts := []string{
		title,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.key.Render("of best:"),
			" ",
			renderProgressBar(percentOf(record.Value, best), barWidth, s),
			" ",
			s.meta.Render(formatSetRelative(record.SetAt, opts.Now)),
		),
	}

	if len(record.Artifacts) == 0 {
		parts = append(parts, s.detail.Render("evidence: none"))
	} else {
		names := make([]string, 0, len(record.Artifacts))
		for _, artifact := range record.Artifacts {
			names = append(names, filepath.Base(artifact))
		}
		parts = append(parts, s.detail.Render("evidence: "+strings.Join(names, ", ")))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderSummary(summary application.RunSummary, s styles) string {
	stats := summary.Stats
	lines := []string{
		s.title.Render("Run Summary"),
		s.header.Render(fmt.Sprintf("run %s: %d sessions on %d workers, %s", summary.RunID, summary.Sessions, summary.Workers, formatElapsed(summary.Elapsed))),
	}

	if summary.Best > 0 {
		lines = append(lines, s.section.Render(lipgloss.JoinHorizontal(lipgloss.Top, s.key.Render("best bankroll:"), " ", s.best.Render(formatMoney(summary.Best)))))
	} else {
		lines = append(lines, s.section.Render(s.empty.Render("No round finished.")))
	}

	lines = append(lines,
		s.detail.Render(fmt.Sprintf("games: %d started, %d over, %d restarted", stats.GamesStarted, stats.GameOvers, stats.Restarts)),
		s.detail.Render(fmt.Sprintf("rounds: %d", stats.Rounds)),
	)

	if stats.Failures > 0 || stats.SpawnFailures > 0 {
		lines = append(lines, s.warning.Render(fmt.Sprintf("failures: %d, spawn failures: %d", stats.Failures, stats.SpawnFailures)))
	}
	if stats.LiveProcesses > 0 {
		lines = append(lines, s.warning.Render(fmt.Sprintf("live processes: %d", stats.LiveProcesses)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100))
	filled = min(max(filled, 0), width)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func percentOf(value, best int64) float64 {
	if best <= 0 {
		return 0
	}

	return float64(value) / float64(best) * 100
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func formatMoney(value int64) string {
	digits := fmt.Sprintf("%d", value)
	if value < 0 {
		digits = digits[1:]
	}

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if value < 0 {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

func shortRunID(id domain.RunID) string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

func formatSetRelative(setAt, now time.Time) string {
	if setAt.IsZero() {
		return "set at unknown time"
	}
	if now.IsZero() || setAt.After(now) {
		return "set " + setAt.Format("15:04 on 02 Jan 2006")
	}

	ago := now.Sub(setAt)
	switch {
	case ago < time.Minute:
		return "set just now"
	case ago < time.Hour:
		return "set " + plural(int(ago.Minutes()), "minute") + " ago"
	case ago < 24*time.Hour:
		return "set " + plural(int(ago.Hours()), "hour") + " ago"
	default:
		return "set " + plural(int(ago.Hours()/24), "day") + " ago"
	}
}

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "not started"
	}

	return d.Round(time.Second).String()
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
