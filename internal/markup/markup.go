// Package markup converts the reply markup used by the knowledge base
// (**bold** spans, newline-separated paragraphs) into presentation formats.
package markup

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var boldSpan = regexp.MustCompile(`\*\*(.*?)\*\*`)

// HTML renders text as HTML paragraphs: every newline starts a new <p>
// and **bold** spans become <strong>. Text is escaped first.
func HTML(text string) string {
	escaped := html.EscapeString(text)
	escaped = boldSpan.ReplaceAllString(escaped, "<strong>$1</strong>")
	return "<p>" + strings.ReplaceAll(escaped, "\n", "</p><p>") + "</p>"
}

// Plain strips the bold markers and leaves the line structure intact.
func Plain(text string) string {
	return boldSpan.ReplaceAllString(text, "$1")
}

// Markdown turns single newlines into hard line breaks so that markdown
// renderers keep the reply's line structure.
func Markdown(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" && i < len(lines)-1 && lines[i+1] != "" {
			lines[i] = line + "  "
		}
	}
	return strings.Join(lines, "\n")
}
