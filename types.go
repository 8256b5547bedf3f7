package vibepapers

import "fmt"

// Paper is one analyzed item from a daily batch.
//
// The identity fields (ArxivID, Title, Summary, Authors, Upvotes,
// PublishedAt) come from the paper feed. Analysis is the raw Markdown
// produced by the model; Snippet and AnalysisHTML are rendering-time
// decorations attached by the Service.
type Paper struct {
	ArxivID     string
	Title       string
	Summary     string
	Authors     []string
	Upvotes     int
	PublishedAt string

	// Derived links, filled by DeriveLinks when empty.
	HFURL    string
	ArxivURL string
	PDFURL   string

	Analysis     string
	Snippet      string
	AnalysisHTML string
	Metadata     *Metadata
}

// DeriveLinks fills the canonical paper URLs from the arXiv id, keeping any
// value already set.
func (p *Paper) DeriveLinks() {
	if p.HFURL == "" {
		p.HFURL = fmt.Sprintf("https://huggingface.co/papers/%s", p.ArxivID)
	}
	if p.ArxivURL == "" {
		p.ArxivURL = fmt.Sprintf("https://arxiv.org/abs/%s", p.ArxivID)
	}
	if p.PDFURL == "" {
		p.PDFURL = fmt.Sprintf("https://arxiv.org/pdf/%s", p.ArxivID)
	}
}

// TopAuthors returns up to n contributor names for compact listings.
func (p *Paper) TopAuthors(n int) []string {
	if len(p.Authors) <= n {
		return p.Authors
	}
	return p.Authors[:n]
}
