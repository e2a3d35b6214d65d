package live

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"roomload/internal/runner"
	"roomload/internal/tui/components"
	"roomload/internal/tui/styles"
)

// DoneMsg tells the dashboard the run is over.
type DoneMsg struct{ Err error }

type Model struct {
	Cfg      runner.Config
	Stats    runner.StatsSnapshot
	Progress progress.Model
	Rooms    table.Model

	RpsLine     components.Sparkline
	LatencyLine components.Sparkline

	LastUpdate time.Time
	LastReqs   uint64

	Done bool
	Err  error

	Width  int
	Height int
}

func NewModel(cfg runner.Config) Model {
	columns := []table.Column{
		{Title: "Room", Width: 10},
		{Title: "Reqs", Width: 8},
		{Title: "Fail", Width: 6},
		{Title: "P50 ms", Width: 9},
		{Title: "P90 ms", Width: 9},
		{Title: "Max ms", Width: 9},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(len(cfg.Planner().Rooms)+1),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.ColorBorder).
		BorderBottom(true).
		Bold(true)
	s.Selected = lipgloss.NewStyle()
	t.SetStyles(s)

	return Model{
		Cfg:         cfg,
		Progress:    progress.New(progress.WithGradient("#7D56F4", "#04B575")),
		Rooms:       t,
		RpsLine:     components.NewSparkline(40, "Moves/s", styles.Active),
		LatencyLine: components.NewSparkline(40, "Latency P90 (ms)", styles.Warn),
		LastUpdate:  time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runner.StatsSnapshot:
		now := time.Now()
		dt := now.Sub(m.LastUpdate).Seconds()
		if dt < 0.01 {
			dt = 0.01
		}

		rps := 0.0
		if msg.Requests >= m.LastReqs {
			rps = float64(msg.Requests-m.LastReqs) / dt
		}
		m.RpsLine.Add(rps)
		m.LatencyLine.Add(msg.P90Ms)

		m.Stats = msg
		m.LastReqs = msg.Requests
		m.LastUpdate = now

		rows := make([]table.Row, 0, len(msg.Rooms))
		for _, r := range msg.Rooms {
			rows = append(rows, table.Row{
				r.Room,
				fmt.Sprintf("%d", r.Requests),
				fmt.Sprintf("%d", r.Fail),
				fmt.Sprintf("%.1f", r.P50Ms),
				fmt.Sprintf("%.1f", r.P90Ms),
				fmt.Sprintf("%.1f", r.MaxMs),
			})
		}
		m.Rooms.SetRows(rows)

		return m, m.Progress.SetPercent(m.percent())

	case DoneMsg:
		m.Done = true
		m.Err = msg.Err
		return m, m.Progress.SetPercent(1)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.Width = max(msg.Width-4, 10)

		half := max(msg.Width/2-6, 10)
		m.RpsLine.Width = half
		m.LatencyLine.Width = half
		return m, nil

	case progress.FrameMsg:
		prog, cmd := m.Progress.Update(msg)
		m.Progress = prog.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m Model) percent() float64 {
	if m.Cfg.Duration <= 0 {
		return 0
	}
	return min(float64(m.Stats.Elapsed)/float64(m.Cfg.Duration), 1.0)
}

func (m Model) View() string {
	s := strings.Builder{}

	status := "running"
	if m.Done {
		status = "finished"
	}
	s.WriteString(styles.Title.Render(fmt.Sprintf("roomload: %d players across %d rooms (%s)",
		m.Cfg.Users, len(m.Cfg.Planner().Rooms), status)))
	s.WriteString("\n")
	s.WriteString(styles.Subtle.Render(fmt.Sprintf("%s  every %s  for %s",
		m.Cfg.BaseURL, m.Cfg.Sleep, m.Cfg.Duration)))
	s.WriteString("\n\n")

	reqs := m.Stats.Requests
	errRate := 0.0
	if reqs > 0 {
		errRate = float64(m.Stats.Fail) / float64(reqs) * 100
	}

	col1 := fmt.Sprintf("REQ: %d\nINF: %d", reqs, m.Stats.Inflight)
	col2 := styles.ErrorRateStyle(errRate).Render(fmt.Sprintf("ERR: %.2f%%\nFAIL: %d", errRate, m.Stats.Fail))
	col3 := fmt.Sprintf("P50: %.1f ms\nP99: %.1f ms", m.Stats.P50Ms, m.Stats.P99Ms)

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(col1),
		styles.Box.Render(col2),
		styles.Box.Render(col3),
	))
	s.WriteString("\n")

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(m.RpsLine.View()),
		styles.Box.Render(m.LatencyLine.View()),
	))
	s.WriteString("\n")

	s.WriteString(styles.Box.Render(m.Rooms.View()))
	s.WriteString("\n\n")

	s.WriteString(m.Progress.View())
	s.WriteString("\n")
	if m.Err != nil {
		s.WriteString(styles.Error.Render(m.Err.Error()))
		s.WriteString("\n")
	}
	s.WriteString(styles.RenderKey("q", "stop"))

	return s.String()
}
