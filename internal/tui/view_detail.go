package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go.withmatt.com/crmmail/internal/render"
)

const detailDateLayout = "Mon, Jan 2 2006 15:04"

// refreshDetailContent renders the open message into the viewport.
func (m *Model) refreshDetailContent(resetScroll bool) {
	m.detail.viewport.Width = m.ui.width
	m.detail.viewport.Height = detailViewportHeight(m.ui.height)
	m.detail.viewport.SetContent(m.renderDetailBody())
	if resetScroll {
		m.detail.viewport.GotoTop()
	}
}

func (m *Model) renderDetailBody() string {
	msg := m.detail.message
	if msg == nil {
		return ""
	}
	width := max(m.ui.width-2, 20)

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Detail.HeaderLabelFg))
	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Detail.HeaderValueFg))
	subjectStyle := valueStyle.Bold(true)
	starStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.List.StarredFg))
	dividerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Detail.BorderNormal))

	var b strings.Builder
	subject := strings.TrimSpace(stripZeroWidth(msg.Subject))
	if subject == "" {
		subject = "(no subject)"
	}
	if msg.Starred {
		b.WriteString(starStyle.Render("★ "))
	}
	b.WriteString(subjectStyle.Render(truncateToWidth(subject, width)))
	b.WriteString("\n\n")

	field := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-6s", label)))
		b.WriteString(" ")
		b.WriteString(valueStyle.Render(truncateToWidth(stripZeroWidth(value), max(width-7, 1))))
		b.WriteString("\n")
	}

	from := msg.From
	if msg.FromName != "" && msg.From != "" {
		from = msg.FromName + " <" + msg.From + ">"
	} else if msg.FromName != "" {
		from = msg.FromName
	}
	field("From", from)
	field("To", msg.To)
	if !msg.Date.IsZero() {
		field("Date", msg.Date.Local().Format(detailDateLayout))
	}

	if len(msg.Attachments) > 0 {
		names := make([]string, 0, len(msg.Attachments))
		for _, att := range msg.Attachments {
			name := att.Filename
			if name == "" {
				name = "(unnamed)"
			}
			if size := render.Size(att.Size); size != "" {
				name += " (" + size + ")"
			}
			names = append(names, name)
		}
		field("Files", strings.Join(names, ", "))
	}

	b.WriteString(dividerStyle.Render(strings.Repeat("─", width)))
	b.WriteString("\n\n")

	if m.detail.loading {
		b.WriteString(m.ui.spinner.View() + " Loading message...")
		return b.String()
	}

	m.ensureRenderer(width)
	if m.renderers.glamourRenderer != nil {
		b.WriteString(m.renderMarkdown(render.Body(*msg, 0)))
	} else {
		b.WriteString(render.Body(*msg, width))
	}
	return b.String()
}

func (m *Model) renderDetailView() string {
	footer := m.renderDetailStatusline()
	if m.detail.message == nil {
		return renderFixedLayout(m.ui.height, "No message loaded", footer)
	}
	return renderFixedLayout(m.ui.height, m.detail.viewport.View(), footer)
}

func (m *Model) renderDetailStatusline() string {
	bar := m.newStatusBar().
		mode(strings.ToUpper(m.list.folder.Label())).
		tab("MESSAGE").
		seal()

	if m.detail.loading {
		bar.dim(rightSide, m.ui.spinner.View()+" loading")
	} else {
		if m.detail.message != nil && m.detail.message.Unread {
			bar.dim(rightSide, "unread")
		}
		percent := int(m.detail.viewport.ScrollPercent() * 100)
		bar.text(rightSide, fmt.Sprintf("%d%%", percent))
	}
	bar.dim(rightSide, "esc back").dim(rightSide, "? help")

	if m.detail.message != nil {
		subject := strings.TrimSpace(stripZeroWidth(m.detail.message.Subject))
		room := m.ui.width - bar.width(leftSide) - bar.width(rightSide) - 3
		if room > 0 {
			bar.dim(leftSide, truncateToWidth(subject, room))
		}
	}
	return bar.render(m.ui.width)
}
