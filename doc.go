// Package vibepapers renders AI-generated paper analyses into standalone,
// navigable HTML pages and maintains a cross-run statistical index over
// dated batches.
//
// # Quick Start
//
// Create a service and render a batch for a date:
//
//	svc, err := vibepapers.NewService(log, "output")
//	if err != nil {
//	    log.Fatal().Err(err).Msg("init")
//	}
//
//	outDir, err := svc.GeneratePaperPages(ctx, papers, day)
//	if err != nil {
//	    log.Fatal().Err(err).Msg("render")
//	}
//	svc.GenerateSummaryPage()
//
// # Rendering Pipeline
//
// Each paper's analysis goes through these stages:
//
//  1. Math and code shielding (placeholder extraction, code re-injected
//     before conversion so fenced blocks render normally)
//  2. Markdown to HTML conversion via goldmark (GFM tables, hard wraps,
//     chroma syntax-highlighting classes)
//  3. Math restoration (verbatim spans, ready for client-side KaTeX)
//  4. Heading annotation (stable section anchors) and TOC extraction
//  5. Page assembly through the embedded HTML templates
//
// A failure in any one paper degrades that page only; the batch, the daily
// index page, and the cross-run index always complete.
//
// # Outputs
//
// One directory per date with one HTML file per paper plus index.html, a
// papers_index.json mapping dates to compact per-paper records, and a
// summary.html dashboard over all recorded dates:
//
//	<output>/html/<date>/<arxiv-id>.html
//	<output>/html/<date>/index.html
//	<output>/html/papers_index.json
//	<output>/html/summary.html
package vibepapers
