// Package post renders the daily message in Telegram's legacy Markdown.
package post

import (
	"fmt"
	"strings"
	"time"

	"github.com/tawjihi/mathbot/internal/store"
)

// ParseMode is the Telegram parse mode the output of Format is written for.
const ParseMode = "Markdown"

// TimestampLayout renders the post time.
const TimestampLayout = "2006-01-02 15:04:05"

const separator = "---"

// markdownEscaper backslash-escapes the characters legacy Markdown treats as
// entity delimiters. Unbalanced ones make Telegram reject the message.
var markdownEscaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

// escape makes text safe to embed in a ParseMode message as plain text.
func escape(text string) string {
	return markdownEscaper.Replace(text)
}

// Format builds the post for q. It is pure: the same inputs always give the
// same text. ts is rendered in UTC. Question fields, solution and tip are
// escaped so they render literally.
func Format(q store.Question, solution, tip string, ts time.Time) string {
	var b strings.Builder

	b.WriteString("📚 *السؤال*\n\n")
	b.WriteString(escape(strings.TrimSpace(q.Question)))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "*النوع:* %s\n", escape(q.Type))
	fmt.Fprintf(&b, "*الفصل:* %s\n\n", escape(q.Chapter))

	b.WriteString(separator + "\n\n")
	b.WriteString("*الحل:*\n\n")
	b.WriteString(escape(strings.TrimSpace(solution)))
	b.WriteString("\n\n")

	b.WriteString(separator + "\n\n")
	b.WriteString(escape(strings.TrimSpace(tip)))
	b.WriteString("\n\n")

	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "_الوقت: %s UTC_\n", ts.UTC().Format(TimestampLayout))
	fmt.Fprintf(&b, "_رقم السؤال: %d_", q.ID)

	return b.String()
}
