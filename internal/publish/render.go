package publish

import (
	"fmt"
	"strings"

	"github.com/m3rciful/estatebot/core/telegram/format"
	"github.com/m3rciful/estatebot/internal/domain"
)

// Render builds the Markdown card broadcast to the channel. User-supplied
// text is escaped so stray markup cannot break the message.
func Render(l *domain.Listing) string {
	var b strings.Builder
	b.WriteString("*")
	b.WriteString(md(l.Title))
	b.WriteString("*\n\n")

	line := func(icon, value string) {
		if value == "" {
			return
		}
		b.WriteString(icon)
		b.WriteString(" ")
		b.WriteString(md(value))
		b.WriteString("\n")
	}
	line("📍", l.Location)
	line("🛏", l.Description)
	line("🧱", l.Condition)
	line("🚗", l.Parking)
	if l.Bathrooms > 0 {
		line("🚽", fmt.Sprintf("%d bathroom(s)", l.Bathrooms))
	}
	line("✏️", l.Additions)

	b.WriteString(fmt.Sprintf("\n💰 *%.2f*\n", l.Price))
	b.WriteString("📌 ")
	b.WriteString(domain.StatusLabel[l.Status])
	return b.String()
}

func md(text string) string {
	escaped, err := format.EscapeMarkdown(text, format.MarkdownV1, "")
	if err != nil {
		return text
	}
	return escaped
}
