package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var levels = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline is a one-row scrolling chart of the last Width samples, scaled
// to the largest visible sample.
type Sparkline struct {
	Label string
	Width int
	Style lipgloss.Style

	data []float64
}

func NewSparkline(width int, label string, style lipgloss.Style) Sparkline {
	return Sparkline{
		Width: width,
		Label: label,
		Style: style,
		data:  make([]float64, 0, width),
	}
}

func (s *Sparkline) Add(v float64) {
	if v < 0 {
		v = 0
	}
	s.data = append(s.data, v)
	if s.Width > 0 && len(s.data) > s.Width {
		s.data = s.data[len(s.data)-s.Width:]
	}
}

func (s Sparkline) max() float64 {
	m := 0.0
	for _, v := range s.data {
		if v > m {
			m = v
		}
	}
	return m
}

// Graph renders just the bars, padded to Width.
func (s Sparkline) Graph() string {
	if s.Width <= 0 {
		return ""
	}
	data := s.data
	if len(data) > s.Width {
		data = data[len(data)-s.Width:]
	}

	top := s.max()
	var b strings.Builder
	for _, v := range data {
		idx := 0
		if top > 0 {
			idx = int(v / top * float64(len(levels)-1))
		}
		b.WriteRune(levels[min(max(idx, 0), len(levels)-1)])
	}
	if pad := s.Width - len(data); pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	return b.String()
}

func (s Sparkline) View() string {
	if s.Width <= 0 {
		return ""
	}
	return s.Style.Render(s.Label) + "\n" + s.Style.Render(s.Graph())
}
