package pipeline

import (
	"regexp"
	"strings"
)

// Precompiled regex patterns for snippet extraction.
var (
	// markdownLinkPattern matches a full [label](http...) link or image.
	markdownLinkPattern = regexp.MustCompile(`\[[^\]]*\]\(http[^)]*\)`)

	// markupCharsPattern matches heading/emphasis/quote/bracket markers.
	markupCharsPattern = regexp.MustCompile("[#*`>\\[\\]!]")

	// parenURLPattern matches a leftover URL target in parentheses.
	parenURLPattern = regexp.MustCompile(`\(http[^)]*\)`)

	whitespaceRunPattern = regexp.MustCompile(`\s+`)
)

// Snippet derives a plain-text preview from raw Markdown for listing cards.
// Full links are dropped, markup characters and parenthesized URL targets
// are stripped, and whitespace runs collapse to single spaces. When the
// result exceeds maxLen runes it is cut at the last word boundary at or
// before the limit and an ellipsis marker is appended. Empty input yields
// an empty string.
func Snippet(markdown string, maxLen int) string {
	clean := markdownLinkPattern.ReplaceAllString(markdown, "")
	clean = markupCharsPattern.ReplaceAllString(clean, "")
	clean = parenURLPattern.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(whitespaceRunPattern.ReplaceAllString(clean, " "))

	// Truncate on rune boundaries so multi-byte characters never split.
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	cut := string(runes[:maxLen])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + " …"
}
