package tui

import (
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"

	"go.withmatt.com/crmmail/internal/config"
)

// markdownStyle tints glamour's dark style with the active theme. Message
// bodies come from converted HTML, so only the elements that conversion
// produces get colors of their own.
func markdownStyle(theme config.Theme) ansi.StyleConfig {
	style := styles.DarkStyleConfig
	style.Document.Margin = ptr(uint(0))

	for _, p := range []*ansi.StylePrimitive{
		&style.Document.StylePrimitive,
		&style.Paragraph.StylePrimitive,
		&style.Text,
		&style.Code.StylePrimitive,
		&style.CodeBlock.StylePrimitive,
	} {
		p.Color = ptr(theme.Status.Fg)
	}
	for _, p := range []*ansi.StylePrimitive{
		&style.Heading.StylePrimitive,
		&style.H1.StylePrimitive,
		&style.H2.StylePrimitive,
		&style.H3.StylePrimitive,
	} {
		p.Color = ptr(theme.Status.ModeBg)
	}
	style.H1.BackgroundColor = nil

	style.BlockQuote.Color = ptr(theme.Status.Dim)
	style.BlockQuote.IndentToken = ptr("│ ")
	style.HorizontalRule.Color = ptr(theme.Status.Dim)

	style.Link.Color = ptr(theme.Detail.LinkFg)
	style.LinkText.Color = ptr(theme.Detail.LinkFg)
	style.LinkText.Bold = ptr(true)

	style.Code.BackgroundColor = ptr(theme.Detail.BorderNormal)
	style.CodeBlock.BackgroundColor = ptr(theme.Detail.BorderNormal)
	return style
}

func ptr[T any](value T) *T {
	return &value
}
