package pipeline

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// Precompiled regex patterns for heading annotation.
var (
	// h2Pattern matches second-level headings across line breaks.
	// Captures: 1=attributes, 2=inner HTML (may contain inline tags)
	h2Pattern = regexp.MustCompile(`(?s)<h2([^>]*)>(.*?)</h2>`)

	// idAttrPattern extracts an id attribute value.
	idAttrPattern = regexp.MustCompile(`id="([^"]+)"`)

	// htmlTagPattern matches HTML tags for stripping from heading text.
	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
)

// TOCEntry references one second-level heading in a rendered document.
type TOCEntry struct {
	ID   string
	Text string
}

// EnsureHeadingIDs assigns section-{n} identifiers to h2 headings that lack
// an explicit id attribute, leaving existing identifiers untouched. The
// counter is 0-based over assigned headings in document order and resets per
// document: the anchors are local to one page. Idempotent.
func EnsureHeadingIDs(htmlContent string) string {
	counter := 0
	return h2Pattern.ReplaceAllStringFunc(htmlContent, func(m string) string {
		sub := h2Pattern.FindStringSubmatch(m)
		attrs, content := sub[1], sub[2]
		if strings.Contains(attrs, `id="`) {
			return m
		}
		id := fmt.Sprintf("section-%d", counter)
		counter++
		return `<h2 id="` + id + `"` + attrs + `>` + content + `</h2>`
	})
}

// ExtractTOC scans h2 headings and returns their identifiers and display
// text in document order. Inner markup is stripped from the text. A heading
// still lacking an id gets a synthetic section-{i} where i is its 0-based
// occurrence index among all h2 headings.
func ExtractTOC(htmlContent string) []TOCEntry {
	matches := h2Pattern.FindAllStringSubmatch(htmlContent, -1)
	if len(matches) == 0 {
		return nil
	}

	entries := make([]TOCEntry, 0, len(matches))
	for i, m := range matches {
		id := fmt.Sprintf("section-%d", i)
		if im := idAttrPattern.FindStringSubmatch(m[1]); im != nil {
			id = im[1]
		}
		entries = append(entries, TOCEntry{ID: id, Text: stripHTMLTags(m[2])})
	}
	return entries
}

// stripHTMLTags removes HTML tags from a string, decodes HTML entities,
// and trims whitespace. Decoding entities avoids double-encoding when the
// text is later escaped for HTML output.
func stripHTMLTags(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}
