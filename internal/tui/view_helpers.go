package tui

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

func itoa(n int) string {
	return strconv.Itoa(n)
}

// renderMarkdown renders a message body with glamour, falling back to the
// raw text.
func (m *Model) renderMarkdown(text string) string {
	if m.renderers.glamourRenderer == nil {
		return text
	}
	rendered, err := m.renderers.glamourRenderer.Render(text)
	if err != nil {
		m.logf("markdown render err=%v", err)
		return text
	}
	return strings.TrimSpace(rendered)
}

// ensureRenderer rebuilds the glamour renderer when the wrap width changes.
func (m *Model) ensureRenderer(width int) {
	width = max(width, 20)
	if m.renderers.glamourRenderer != nil && m.renderers.glamourWidth == width {
		return
	}
	r, err := newGlamourRenderer(m.theme, width)
	if err != nil {
		m.logf("glamour renderer width=%d err=%v", width, err)
		m.renderers.glamourRenderer = nil
		return
	}
	m.renderers.glamourRenderer = r
	m.renderers.glamourWidth = width
}

func stripZeroWidth(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch r {
		case 0x034F, 0x200B, 0x200C, 0x200D, 0x200E, 0x200F, 0x2060, 0xFEFF:
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripLeadingZeroWidth(text string) string {
	for len(text) > 0 {
		r, size := utf8.DecodeRuneInString(text)
		if r == utf8.RuneError && size == 1 {
			break
		}
		if runewidth.RuneWidth(r) == 0 || unicode.In(r, unicode.Mn, unicode.Mc, unicode.Me) {
			text = text[size:]
			continue
		}
		break
	}
	return text
}

func padToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	textWidth := lipgloss.Width(text)
	if textWidth >= width {
		return text
	}
	return text + strings.Repeat(" ", width-textWidth)
}

func renderFixedLayout(height int, body, footer string) string {
	footerHeight := lipgloss.Height(footer)
	bodyHeight := max(0, height-footerHeight)
	bodyStyle := lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight)
	return lipgloss.JoinVertical(lipgloss.Left, bodyStyle.Render(body), footer)
}

func detailViewportHeight(height int) int {
	return max(1, height-1)
}

// wrapTextLines word-wraps text into exactly maxLines lines, truncating the
// last one.
func wrapTextLines(text string, width int, maxLines int) []string {
	if maxLines <= 0 {
		return nil
	}
	words := strings.Fields(text)
	if width <= 0 || len(words) == 0 {
		return make([]string, maxLines)
	}

	lines := make([]string, 0, maxLines)
	current := ""
	for i, word := range words {
		if current == "" {
			current = truncateToWidth(word, width)
			continue
		}

		candidate := current + " " + word
		if lipgloss.Width(candidate) <= width {
			current = candidate
			continue
		}

		lines = append(lines, current)
		if len(lines) == maxLines-1 {
			rest := strings.Join(words[i:], " ")
			lines = append(lines, truncateToWidth(rest, width))
			current = ""
			break
		}
		current = truncateToWidth(word, width)
	}

	if current != "" && len(lines) < maxLines {
		lines = append(lines, current)
	}
	for len(lines) < maxLines {
		lines = append(lines, "")
	}
	return lines
}

// truncateToWidth cuts text to maxWidth cells, ending in "..." when cut.
func truncateToWidth(text string, maxWidth int) string {
	switch {
	case maxWidth <= 0 || text == "":
		return ""
	case runewidth.StringWidth(text) <= maxWidth:
		return text
	case maxWidth <= 3:
		return strings.Repeat(".", maxWidth)
	}
	return runewidth.Truncate(text, maxWidth, "...")
}
