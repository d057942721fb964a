package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type drainDoneMsg struct {
	err error
}

// drainSpinnerModel shows how many game processes are still alive while a
// run drains.
type drainSpinnerModel struct {
	spinner spinner.Model
	drain   tea.Cmd
	live    func() int64
	started int64
	left    int64
	err     error
	done    bool
}

func newDrainSpinnerModel(drain tea.Cmd, live func() int64) drainSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	started := live()
	return drainSpinnerModel{
		spinner: s,
		drain:   drain,
		live:    live,
		started: started,
		left:    started,
	}
}

func (m drainSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.drain)
}

func (m drainSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		m.left = m.live()
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case drainDoneMsg:
		m.done = true
		m.err = msg.err
		m.left = m.live()
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m drainSpinnerModel) View() string {
	if m.done {
		return ""
	}
	if m.left <= 0 {
		return fmt.Sprintf("%s Stopping sessions...", m.spinner.View())
	}

	return fmt.Sprintf("%s Stopping sessions... %d of %d game processes left", m.spinner.View(), m.left, m.started)
}

// runDrainSpinner shows a spinner on output until drain returns. Signals
// are left to the caller so a second interrupt cannot abandon the drain.
func runDrainSpinner(ctx context.Context, output io.Writer, live func() int64, drain func(context.Context) error) error {
	if live == nil {
		live = func() int64 { return 0 }
	}
	drainCmd := func() tea.Msg {
		return drainDoneMsg{err: drain(ctx)}
	}

	p := tea.NewProgram(
		newDrainSpinnerModel(drainCmd, live),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
		tea.WithoutSignalHandler(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(drainSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
