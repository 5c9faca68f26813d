package report

import "github.com/charmbracelet/lipgloss"

// ANSI 256 palette.
const (
	blue   = lipgloss.Color("39")
	gray   = lipgloss.Color("245")
	green  = lipgloss.Color("34")
	orange = lipgloss.Color("214")
	red    = lipgloss.Color("196")
	dim    = lipgloss.Color("240")
)

const (
	SymbolCheck      = "✓"
	SymbolCross      = "✗"
	SymbolArrowRight = "→"
	SymbolBullet     = "•"
)

type styles struct {
	title, label, box            lipgloss.Style
	success, warning, err, muted lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	fg := func(c lipgloss.Color) lipgloss.Style { return r.NewStyle().Foreground(c) }
	return styles{
		title:   fg(blue).Bold(true),
		label:   fg(gray).Width(10),
		box:     r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(gray).Padding(0, 1),
		success: fg(green),
		warning: fg(orange),
		err:     fg(red),
		muted:   fg(dim),
	}
}
