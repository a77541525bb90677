package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"go.withmatt.com/crmmail/internal/mail"
	"go.withmatt.com/crmmail/internal/render"
)

type rightPart struct {
	text  string
	style lipgloss.Style
}

func renderRightParts(parts []rightPart, space string) string {
	var b strings.Builder
	for _, part := range parts {
		if part.text == "" {
			continue
		}
		b.WriteString(space)
		b.WriteString(part.style.Render(part.text))
	}
	return b.String()
}

// renderFolderTabs is the header row: one tab per folder with its count.
func (m *Model) renderFolderTabs() string {
	styles := newStatusStyles(m.theme)
	active, inactive := styles.tab, styles.dim

	var b strings.Builder
	for _, folder := range mail.Folders() {
		label := folder.Label()
		if n, ok := m.list.counts[folder]; ok {
			label = fmt.Sprintf("%s %d", label, n)
		}
		if folder == m.list.folder {
			b.WriteString(active.Render(label))
		} else {
			b.WriteString(inactive.Render(label))
		}
	}

	if acct, ok := m.manager.Account(); ok {
		name := stripZeroWidth(acct.DisplayName())
		room := m.ui.width - lipgloss.Width(b.String()) - 2
		if room > 3 {
			b.WriteString(inactive.Render(truncateToWidth(name, room)))
		}
	}

	line := b.String()
	if m.ui.width > 0 {
		gap := m.ui.width - lipgloss.Width(line)
		if gap > 0 {
			line += styles.base.Render(strings.Repeat(" ", gap))
		}
	}
	return line
}

func (m *Model) renderListView() string {
	header := m.renderFolderTabs()

	switch {
	case m.list.loadErr != nil && len(m.list.messages) == 0:
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Modal.ErrorFg))
		body := errStyle.Render("Could not load "+m.list.folder.Label()+": "+m.list.loadErr.Error()) +
			"\n\nPress r to retry"
		return m.renderListLayout(header, body)
	case m.list.loading:
		return m.renderListLayout(header, m.ui.spinner.View()+" Loading "+m.list.folder.Label()+"...")
	}

	if emptyMessage := m.emptyListMessage(); emptyMessage != "" {
		return m.renderListLayout(header, emptyMessage)
	}

	var body strings.Builder
	start, end := m.getVisibleRange()
	now := time.Now()
	for i := start; i < end; i++ {
		body.WriteString(m.renderCard(m.list.messages[i], i == m.list.cursor, now))
		body.WriteString("\n\n")
	}
	return m.renderListLayout(header, body.String())
}

func (m *Model) emptyListMessage() string {
	if m.displayCount() > 0 {
		return ""
	}
	if m.list.total == 0 {
		return "No messages in " + m.list.folder.Label()
	}
	if m.search.query != "" {
		return fmt.Sprintf("No results for %q", m.search.query)
	}
	return "No messages match the active filters"
}

func (m *Model) renderCard(msg mail.Message, isCursor bool, now time.Time) string {
	unreadStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.List.UnreadFg)).
		Bold(true)
	readStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.List.ReadFg))
	dimStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Status.Dim))
	snippetStyle := dimStyle.Faint(true)
	starStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.List.StarredFg))
	barStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.List.SelectedFg))
	unreadBarStyle := unreadStyle

	isSelected := m.isSelected(msg)
	selectedBg := strings.TrimSpace(m.theme.List.SelectedBg)
	space := " "
	if isSelected && selectedBg != "" {
		bg := lipgloss.Color(selectedBg)
		unreadStyle = unreadStyle.Background(bg)
		readStyle = readStyle.Background(bg)
		dimStyle = dimStyle.Background(bg)
		snippetStyle = snippetStyle.Background(bg)
		starStyle = starStyle.Background(bg)
		barStyle = barStyle.Background(bg)
		unreadBarStyle = unreadBarStyle.Background(bg)
		space = lipgloss.NewStyle().Background(bg).Render(" ")
	}

	prefix := space
	switch {
	case isCursor:
		prefix = barStyle.Render("┃")
	case isSelected:
		prefix = barStyle.Render("▌")
	case msg.Unread:
		prefix = unreadBarStyle.Render("│")
	}
	suffix := space
	if isSelected {
		suffix = barStyle.Render("▐")
	}
	lineWidth := max(m.ui.width-lipgloss.Width(prefix)-lipgloss.Width(suffix), 0)

	textStyle := readStyle
	if msg.Unread {
		textStyle = unreadStyle
		snippetStyle = dimStyle
	}

	var parts []rightPart
	if msg.Starred {
		parts = append(parts, rightPart{text: "★", style: starStyle})
	}
	if msg.HasAttachments {
		parts = append(parts, rightPart{text: "@", style: dimStyle})
	}
	parts = append(parts, rightPart{text: render.Date(msg.Date, now), style: dimStyle})
	right := renderRightParts(parts, space)
	if lipgloss.Width(right) > lineWidth {
		right = ""
	}

	from := strings.TrimSpace(stripZeroWidth(msg.Sender()))
	if from == "" {
		from = "(unknown sender)"
	}
	from = truncateToWidth(from, min(max(lineWidth-lipgloss.Width(right), 0), 40))
	line1 := prefix + textStyle.Render(from)
	if padding := lineWidth - lipgloss.Width(from) - lipgloss.Width(right); padding > 0 {
		line1 += strings.Repeat(space, padding)
	}
	line1 += right + suffix

	subject := strings.TrimSpace(stripZeroWidth(msg.Subject))
	if subject == "" {
		subject = "(no subject)"
	}
	subject = padToWidth(truncateToWidth(subject, lineWidth), lineWidth)
	line2 := prefix + textStyle.Render(subject) + suffix

	snippet := wrapTextLines(stripZeroWidth(msg.Snippet), lineWidth, 1)[0]
	snippet = padToWidth(stripLeadingZeroWidth(snippet), lineWidth)
	line3 := prefix + snippetStyle.Render(snippet) + suffix

	return lipgloss.JoinVertical(lipgloss.Left, line1, line2, line3)
}

func (m *Model) renderListLayout(header string, body string) string {
	footer := m.renderListStatusline()
	bodyHeight := max(0, m.ui.height-lipgloss.Height(header)-lipgloss.Height(footer))
	bodyStyle := lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight)
	return lipgloss.JoinVertical(lipgloss.Left, header, bodyStyle.Render(body), footer)
}

func (m *Model) renderListStatusline() string {
	count := m.displayCount()
	pos := 0
	if count > 0 {
		pos = min(m.list.cursor+1, count)
	}

	bar := m.newStatusBar()
	if m.search.active {
		bar.mode("SEARCH").seal().input(m.search.input.View())
	} else {
		bar.mode(strings.ToUpper(m.list.folder.Label())).seal()
		if m.search.query != "" {
			bar.dim(leftSide, "search: "+m.search.query)
		}
	}
	if labels := filterLabels(m.manager.Filters()); len(labels) > 0 {
		bar.dim(leftSide, "only "+strings.Join(labels, "+"))
	}
	if count != m.list.total {
		bar.text(leftSide, fmt.Sprintf("%d of %d", count, m.list.total))
	}
	if selected := m.selectedCount(); selected > 0 {
		bar.text(leftSide, fmt.Sprintf("selected %d", selected))
	}

	if m.list.refreshing {
		bar.dim(rightSide, m.ui.spinner.View()+" refreshing")
	}
	bar.text(rightSide, fmt.Sprintf("%d/%d", pos, count))

	switch {
	case m.list.delete.pending:
		noun := "message"
		if m.list.delete.count != 1 {
			noun = "messages"
		}
		bar.text(leftSide, fmt.Sprintf("delete %d %s?", m.list.delete.count, noun))
		bar.dim(rightSide, "y confirm").dim(rightSide, "n cancel")
	case m.search.active:
		bar.dim(rightSide, "enter apply").dim(rightSide, "esc cancel")
	default:
		bar.dim(rightSide, "? help").dim(rightSide, "q quit")
	}

	return bar.render(m.ui.width)
}
