// Package render turns message bodies into terminal text.
package render

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/wordwrap"

	"go.withmatt.com/crmmail/internal/mail"
)

var (
	styleRe    = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	scriptRe   = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	tableRe    = regexp.MustCompile(`(?is)<table[^>]*>.*?</table>`)
	tableTagRe = regexp.MustCompile(`(?i)</?(table|tbody|thead)[^>]*>`)
	rowRe      = regexp.MustCompile(`(?i)</?tr[^>]*>`)
	cellOpenRe = regexp.MustCompile(`(?i)<t[dh][^>]*>`)
	cellEndRe  = regexp.MustCompile(`(?i)</t[dh]>`)
	blankRunRe = regexp.MustCompile(`\n{3,}`)
)

// Converter renders HTML bodies. The zero value is not usable; use
// NewConverter.
type Converter struct {
	html *md.Converter
}

func NewConverter() *Converter {
	return &Converter{
		html: md.NewConverter(
			md.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(
					commonmark.WithStrongDelimiter("**"),
					commonmark.WithEmDelimiter("_"),
					commonmark.WithCodeBlockFence("```"),
				),
			),
			md.WithEscapeMode(md.EscapeModeDisabled),
		),
	}
}

var defaultConverter = NewConverter()

// Body renders msg with the shared converter.
func Body(msg mail.Message, width int) string {
	return defaultConverter.Body(msg, width)
}

// Body prefers the plain text part and falls back to the HTML part converted
// to Markdown. The result is wrapped at width when width is positive.
func (c *Converter) Body(msg mail.Message, width int) string {
	text := msg.Text
	if strings.TrimSpace(text) == "" && strings.TrimSpace(msg.HTML) != "" {
		markdown, err := c.html.ConvertString(cleanHTML(msg.HTML))
		if err == nil {
			text = markdown
		} else {
			text = msg.HTML
		}
	}
	if strings.TrimSpace(text) == "" {
		text = msg.Snippet
	}

	text = stripZeroWidth(normalizeNewlines(text))
	text = blankRunRe.ReplaceAllString(strings.TrimSpace(text), "\n\n")
	if width > 0 {
		text = wordwrap.String(text, width)
	}
	return text
}

// cleanHTML drops style and script blocks and flattens layout tables.
func cleanHTML(html string) string {
	html = styleRe.ReplaceAllString(html, "")
	html = scriptRe.ReplaceAllString(html, "")
	return tableRe.ReplaceAllStringFunc(html, func(table string) string {
		table = rowRe.ReplaceAllString(table, "\n")
		table = cellOpenRe.ReplaceAllString(table, "")
		table = cellEndRe.ReplaceAllString(table, " ")
		return tableTagRe.ReplaceAllString(table, "")
	})
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func stripZeroWidth(text string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case 0x034F, 0x200B, 0x200C, 0x200D, 0x200E, 0x200F, 0x2060, 0xFEFF:
			return -1
		}
		return r
	}, text)
}

// Size formats a byte count, or "" for unknown sizes.
func Size(n int64) string {
	if n < 0 {
		return ""
	}
	return humanize.Bytes(uint64(n))
}

// Date is a short relative timestamp for lists.
func Date(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	case t.Year() == now.Year():
		return t.Format("Jan 2")
	default:
		return t.Format("Jan 2, 2006")
	}
}
