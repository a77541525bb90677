package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go.withmatt.com/crmmail/internal/config"
)

const powerlineArrow = "\ue0b0"

type statusSide int

const (
	leftSide statusSide = iota
	rightSide
)

// statusStyles are the theme colors of the bottom bar and the folder tabs.
type statusStyles struct {
	base lipgloss.Style
	text lipgloss.Style
	dim  lipgloss.Style
	mode lipgloss.Style
	tab  lipgloss.Style
}

func newStatusStyles(theme config.Theme) statusStyles {
	base := lipgloss.NewStyle().
		Background(lipgloss.Color(theme.Status.Bg)).
		Foreground(lipgloss.Color(theme.Status.Fg))
	return statusStyles{
		base: base,
		text: base.Padding(0, 1),
		dim:  base.Foreground(lipgloss.Color(theme.Status.Dim)).Padding(0, 1),
		mode: lipgloss.NewStyle().
			Background(lipgloss.Color(theme.Status.ModeBg)).
			Foreground(lipgloss.Color(theme.Status.ModeFg)).
			Bold(true).
			Padding(0, 1),
		tab: lipgloss.NewStyle().
			Background(lipgloss.Color(theme.Status.TabBg)).
			Foreground(lipgloss.Color(theme.Status.TabFg)).
			Bold(true).
			Padding(0, 1),
	}
}

// statusBar collects rendered pieces for either end of the bar. Left pieces
// chain with powerline arrows while the bar is in its colored prefix.
type statusBar struct {
	theme  config.Theme
	styles statusStyles
	left   []string
	right  []string
	edgeBg string
}

func (m *Model) newStatusBar() *statusBar {
	return &statusBar{theme: m.theme, styles: newStatusStyles(m.theme)}
}

func (s *statusBar) push(side statusSide, piece string) *statusBar {
	if piece == "" {
		return s
	}
	if side == leftSide {
		s.left = append(s.left, piece)
	} else {
		s.right = append(s.right, piece)
	}
	return s
}

func (s *statusBar) arrowTo(bg string) {
	if s.edgeBg == "" {
		return
	}
	arrow := lipgloss.NewStyle().
		Background(lipgloss.Color(bg)).
		Foreground(lipgloss.Color(s.edgeBg)).
		Render(powerlineArrow)
	s.left = append(s.left, arrow)
	s.edgeBg = bg
}

func (s *statusBar) mode(label string) *statusBar {
	s.arrowTo(s.theme.Status.ModeBg)
	s.edgeBg = s.theme.Status.ModeBg
	return s.push(leftSide, s.styles.mode.Render(label))
}

func (s *statusBar) tab(label string) *statusBar {
	s.arrowTo(s.theme.Status.TabBg)
	s.edgeBg = s.theme.Status.TabBg
	return s.push(leftSide, s.styles.tab.Render(label))
}

// seal ends the colored prefix with an arrow into the bar background.
func (s *statusBar) seal() *statusBar {
	s.arrowTo(s.theme.Status.Bg)
	s.edgeBg = ""
	return s
}

func (s *statusBar) text(side statusSide, text string) *statusBar {
	if text == "" {
		return s
	}
	return s.push(side, s.styles.text.Render(text))
}

func (s *statusBar) dim(side statusSide, text string) *statusBar {
	if text == "" {
		return s
	}
	return s.push(side, s.styles.dim.Render(text))
}

// input embeds an already styled widget, such as the search field.
func (s *statusBar) input(view string) *statusBar {
	pad := s.styles.base.Render(" ")
	return s.push(leftSide, pad+view+pad)
}

func (s *statusBar) width(side statusSide) int {
	if side == leftSide {
		return lipgloss.Width(strings.Join(s.left, ""))
	}
	return lipgloss.Width(strings.Join(s.right, ""))
}

func (s *statusBar) render(width int) string {
	left := strings.Join(s.left, "")
	right := strings.Join(s.right, "")
	switch {
	case width > 0:
		gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)
		return left + s.styles.base.Render(strings.Repeat(" ", gap)) + right
	case left == "" || right == "":
		return left + right
	default:
		return left + s.styles.base.Render(" ") + right
	}
}
