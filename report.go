package vibepapers

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hzhou/vibepapers/internal/dateutil"
	"github.com/hzhou/vibepapers/internal/fileutil"
)

const abstractFallbackLen = 500

// GenerateReport builds the combined Markdown report for one day's batch.
// Papers without an analysis fall back to a truncated abstract.
func GenerateReport(papers []*Paper, day time.Time) string {
	dateStr := day.Format(dateutil.ISODate)

	var b strings.Builder
	fmt.Fprintf(&b, "# AI Paper Daily | %s\n\n", dateStr)
	fmt.Fprintf(&b, "> **%d** papers selected, ordered by community upvotes\n\n---\n\n", len(papers))

	for i, paper := range papers {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, paper.Title)
		fmt.Fprintf(&b, "**%d upvotes** · [HuggingFace](%s) · [arXiv](%s) · [PDF](%s)\n\n",
			paper.Upvotes, paper.HFURL, paper.ArxivURL, paper.PDFURL)

		if paper.Analysis != "" {
			b.WriteString(paper.Analysis)
		} else {
			b.WriteString("*(analysis unavailable, abstract follows)*\n\n")
			b.WriteString(truncateRunes(paper.Summary, abstractFallbackLen))
		}
		b.WriteString("\n\n---\n\n")
	}

	fmt.Fprintf(&b, "*Generated %s*\n", dateStr)
	return b.String()
}

// SaveReport writes the Markdown report to <outputDir>/<date>.md and
// returns the path.
func SaveReport(outputDir, markdown string, day time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating report dir: %w", err)
	}
	path := filepath.Join(outputDir, day.Format(dateutil.ISODate)+".md")
	if err := fileutil.WriteFileAtomic(path, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// GenerateEmailHTML builds a compact HTML digest of the batch for email
// delivery. Generated pages are not assumed reachable by the recipient, so
// links point at the public paper URLs.
func GenerateEmailHTML(papers []*Paper, day time.Time) string {
	dateStr := day.Format(dateutil.ISODate)

	var b strings.Builder
	b.WriteString("<html><body style=\"font-family:sans-serif\">")
	fmt.Fprintf(&b, "<h1>AI Paper Daily — %s</h1>", dateStr)
	fmt.Fprintf(&b, "<p>%d papers selected, ordered by community upvotes.</p><ol>", len(papers))

	for _, paper := range papers {
		fmt.Fprintf(&b, "<li><p><a href=%q><b>%s</b></a> — %d upvotes</p>",
			paper.HFURL, html.EscapeString(paper.Title), paper.Upvotes)
		if paper.Metadata != nil && paper.Metadata.OneLineSummary != "" {
			fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(paper.Metadata.OneLineSummary))
		} else if paper.Snippet != "" {
			fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(paper.Snippet))
		}
		b.WriteString("</li>")
	}

	b.WriteString("</ol></body></html>")
	return b.String()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
