package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"roomload/internal/runner"
	"roomload/internal/tui/live"
)

type statsMsg runner.StatsSnapshot

// quitDelay keeps the final numbers on screen after the run ends.
var quitDelay = 1500 * time.Millisecond

type Model struct {
	Runner  *runner.Runner
	Updates runner.StatsUpdateChan
	Live    live.Model

	cancel   context.CancelFunc
	Quitting bool
}

func NewModel(r *runner.Runner, cancel context.CancelFunc) Model {
	return Model{
		Runner:  r,
		Updates: r.Updates,
		Live:    live.NewModel(r.Cfg),
		cancel:  cancel,
	}
}

func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.Updates)
}

func waitForUpdate(sub runner.StatsUpdateChan) tea.Cmd {
	return func() tea.Msg {
		return statsMsg(<-sub)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancel()
			m.Quitting = true
			return m, tea.Quit
		}

	case statsMsg:
		var cmd tea.Cmd
		m.Live, cmd = m.Live.Update(runner.StatsSnapshot(msg))
		return m, tea.Batch(cmd, waitForUpdate(m.Updates))

	case live.DoneMsg:
		var cmd tea.Cmd
		m.Live, cmd = m.Live.Update(msg)
		return m, tea.Batch(cmd, tea.Tick(quitDelay, func(time.Time) tea.Msg { return tea.Quit() }))
	}

	var cmd tea.Cmd
	m.Live, cmd = m.Live.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	return m.Live.View()
}

// Run drives the runner behind the live dashboard. It returns once the
// run has finished and the dashboard has closed.
func Run(ctx context.Context, r *runner.Runner) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(r, cancel), tea.WithAltScreen(), tea.WithContext(ctx))

	runErr := make(chan error, 1)
	go func() {
		err := r.Run(ctx)
		runErr <- err
		p.Send(live.DoneMsg{Err: err})
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	cancel()
	return <-runErr
}
