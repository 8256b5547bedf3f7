package vibepapers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/hzhou/vibepapers/internal/assets"
	"github.com/hzhou/vibepapers/internal/dateutil"
	"github.com/hzhou/vibepapers/internal/pipeline"
	"github.com/hzhou/vibepapers/internal/runindex"
)

// Compile-time interface implementation checks.
var _ pipeline.HTMLConverter = (*pipeline.GoldmarkConverter)(nil)

const (
	snippetMaxLen         = 200
	maxIndexAuthors       = 3
	topTopicsLimit        = 15
	defaultAdjacentWindow = 7
	generatedAtLayout     = "2006-01-02 15:04:05"
)

// Option configures a Service.
type Option func(*Service)

// WithTemplateDir overrides the embedded page templates with files from dir.
func WithTemplateDir(dir string) Option {
	return func(s *Service) { s.templateDir = dir }
}

// WithAdjacentWindow sets how many days prev/next navigation looks around
// the target date. Panics if either value is negative (programmer error).
func WithAdjacentWindow(lookback, lookahead int) Option {
	if lookback < 0 || lookahead < 0 {
		panic("vibepapers: adjacent window days must be non-negative")
	}
	return func(s *Service) {
		s.lookback = lookback
		s.lookahead = lookahead
	}
}

// Service assembles the HTML pages for a batch of papers and maintains the
// cross-run index. A Service is single-threaded: the shared Markdown
// converter must not be used from multiple goroutines.
type Service struct {
	log         zerolog.Logger
	outputDir   string
	templateDir string
	lookback    int
	lookahead   int
	converter   pipeline.HTMLConverter
	templates   *assets.TemplateSet
}

// NewService creates a Service writing under outputDir.
func NewService(log zerolog.Logger, outputDir string, opts ...Option) (*Service, error) {
	s := &Service{
		log:       log,
		outputDir: outputDir,
		lookback:  defaultAdjacentWindow,
		lookahead: defaultAdjacentWindow,
		converter: pipeline.NewGoldmarkConverter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	templates, err := assets.Load(s.templateDir)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	s.templates = templates
	if s.templates.Summary == nil {
		s.log.Warn().Msg("summary template unavailable, dashboard stage will be skipped")
	}
	return s, nil
}

// HTMLRoot returns the directory holding the per-date output directories.
func (s *Service) HTMLRoot() string { return filepath.Join(s.outputDir, "html") }

// IndexPath returns the location of the cross-run papers index.
func (s *Service) IndexPath() string { return filepath.Join(s.HTMLRoot(), runindex.FileName) }

// renderAnalysis converts one analysis to HTML with math spans kept
// byte-identical. A placeholder restoration mismatch falls back to
// rendering the unshielded text: potential math corruption is preferable
// to dropped content.
func (s *Service) renderAnalysis(ctx context.Context, text string) (string, error) {
	shielded, store := pipeline.Protect(text)
	htmlContent, err := s.converter.ToHTML(ctx, shielded)
	if err != nil {
		return "", err
	}
	restored, err := pipeline.Restore(htmlContent, store)
	if err != nil {
		s.log.Warn().Err(err).Msg("rendering unshielded text instead")
		return s.converter.ToHTML(ctx, text)
	}
	return restored, nil
}

// paperPageData is the render context for one paper page.
type paperPageData struct {
	Paper        *Paper
	AnalysisHTML template.HTML
	TOC          []pipeline.TOCEntry
	PrevPaper    *Paper
	NextPaper    *Paper
	Date         string
	GeneratedAt  string
}

// renderPaperPage renders papers[i] into outDir. Panics from template or
// pipeline internals are recovered into an error so one bad paper cannot
// abort the batch.
func (s *Service) renderPaperPage(ctx context.Context, papers []*Paper, i int, outDir, dateStr, generatedAt string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: internal error: %v", ErrPageRender, r)
		}
	}()

	paper := papers[i]

	analysisHTML := ""
	if paper.Analysis != "" {
		analysisHTML, err = s.renderAnalysis(ctx, paper.Analysis)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPageRender, err)
		}
	}
	analysisHTML = pipeline.EnsureHeadingIDs(analysisHTML)
	toc := pipeline.ExtractTOC(analysisHTML)
	paper.AnalysisHTML = analysisHTML

	data := paperPageData{
		Paper:        paper,
		AnalysisHTML: template.HTML(analysisHTML), // #nosec G203 -- rendered from our own pipeline
		TOC:          toc,
		Date:         dateStr,
		GeneratedAt:  generatedAt,
	}
	if i > 0 {
		data.PrevPaper = papers[i-1]
	}
	if i < len(papers)-1 {
		data.NextPaper = papers[i+1]
	}

	var buf bytes.Buffer
	if err := s.templates.Paper.Execute(&buf, data); err != nil {
		return fmt.Errorf("%w: %v", ErrPageRender, err)
	}

	outPath := filepath.Join(outDir, paper.ArxivID+".html")
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil { // #nosec G306 -- published HTML
		return fmt.Errorf("%w: %v", ErrPageRender, err)
	}
	s.log.Debug().Str("path", outPath).Msg("paper page written")
	return nil
}

// writeFallbackPage emits a minimal page for a paper whose rendering
// failed, so navigation links stay valid.
func (s *Service) writeFallbackPage(outDir string, paper *Paper) {
	title := template.HTMLEscapeString(paper.Title)
	page := fmt.Sprintf(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>%s</title></head>
<body><h1>%s</h1><p>Analysis unavailable.</p><p><a href="%s">arXiv</a></p></body></html>
`, title, title, paper.ArxivURL)
	path := filepath.Join(outDir, paper.ArxivID+".html")
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil { // #nosec G306 -- published HTML
		s.log.Error().Err(err).Str("path", path).Msg("fallback page write failed")
	}
}

// GeneratePaperPages renders one HTML page per paper plus the daily index
// page for the given date, then upserts the cross-run index. A failure in
// one paper degrades that page only; failures in the index page or the
// cross-run index are logged and do not abort the run. Returns the output
// directory.
func (s *Service) GeneratePaperPages(ctx context.Context, papers []*Paper, day time.Time) (string, error) {
	if len(papers) == 0 {
		return "", ErrNoPapers
	}

	dateStr := day.Format(dateutil.ISODate)
	outDir := filepath.Join(s.HTMLRoot(), dateStr)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	generatedAt := time.Now().Format(generatedAtLayout)

	for i := range papers {
		if err := s.renderPaperPage(ctx, papers, i, outDir, dateStr, generatedAt); err != nil {
			s.log.Error().Err(err).Str("arxiv_id", papers[i].ArxivID).Msg("paper page failed, writing fallback")
			s.writeFallbackPage(outDir, papers[i])
		}
	}

	for _, p := range papers {
		p.Snippet = pipeline.Snippet(p.Analysis, snippetMaxLen)
	}

	if err := s.renderIndexPage(papers, outDir, dateStr, day, generatedAt); err != nil {
		s.log.Error().Err(err).Msg("daily index page failed")
	}

	if err := s.updateRunIndex(papers, dateStr); err != nil {
		s.log.Error().Err(err).Msg("cross-run index update failed")
	}

	s.log.Info().Int("papers", len(papers)).Str("dir", outDir).Msg("generated paper pages")
	return outDir, nil
}

// indexPageData is the render context for the daily index page.
type indexPageData struct {
	Papers          []*Paper
	Date            string
	GeneratedAt     string
	Stats           Stats
	PrevDate        string
	NextDate        string
	AllTags         []string
	TopicLabelsJSON template.JS
	TopicValuesJSON template.JS
}

func (s *Service) renderIndexPage(papers []*Paper, outDir, dateStr string, day time.Time, generatedAt string) error {
	stats := ComputeStats(papers)
	prevDate, nextDate := runindex.NearestAdjacent(s.HTMLRoot(), day, s.lookback, s.lookahead)

	labels := make([]string, 0, len(stats.TopicCounts))
	values := make([]int, 0, len(stats.TopicCounts))
	for _, tc := range stats.TopicCounts {
		labels = append(labels, tc.Topic)
		values = append(values, tc.Count)
	}
	labelsJSON, _ := json.Marshal(labels)
	valuesJSON, _ := json.Marshal(values)

	data := indexPageData{
		Papers:          papers,
		Date:            dateStr,
		GeneratedAt:     generatedAt,
		Stats:           stats,
		PrevDate:        prevDate,
		NextDate:        nextDate,
		AllTags:         stats.AllTags,
		TopicLabelsJSON: template.JS(labelsJSON), // #nosec G203 -- marshaled from our own data
		TopicValuesJSON: template.JS(valuesJSON), // #nosec G203 -- marshaled from our own data
	}

	var buf bytes.Buffer
	if err := s.templates.Index.Execute(&buf, data); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexRender, err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "index.html"), buf.Bytes(), 0o644); err != nil { // #nosec G306
		return fmt.Errorf("%w: %v", ErrIndexRender, err)
	}
	return nil
}

// updateRunIndex merges this batch into the cross-run index: the entry for
// dateStr is replaced in place, entries for other dates are preserved, and
// the file is rewritten atomically.
func (s *Service) updateRunIndex(papers []*Paper, dateStr string) error {
	path := s.IndexPath()
	idx, err := runindex.Load(path)
	if err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("papers index unreadable, starting fresh")
	}

	records := make([]runindex.Record, 0, len(papers))
	for _, p := range papers {
		records = append(records, toIndexRecord(p))
	}
	idx.Upsert(dateStr, records)

	if err := runindex.Save(path, idx); err != nil {
		return err
	}
	s.log.Info().Int("dates", len(idx)).Str("path", path).Msg("updated papers index")
	return nil
}

// toIndexRecord builds the compact per-paper record persisted in the
// cross-run index. Metadata fields are only set for papers that have
// metadata; they marshal as absent otherwise.
func toIndexRecord(p *Paper) runindex.Record {
	rec := runindex.Record{
		ArxivID: p.ArxivID,
		Title:   p.Title,
		Upvotes: p.Upvotes,
		Authors: p.TopAuthors(maxIndexAuthors),
	}
	if meta := p.Metadata; meta != nil {
		rec.OneLineSummary = meta.OneLineSummary
		rec.Tags = meta.Tags
		rec.Difficulty = meta.Difficulty
		rec.Novelty = meta.Novelty
		rec.Practicality = meta.Practicality
		rec.Topics = meta.Topics
		rec.KeyMetrics = toIndexMetrics(meta.KeyMetrics)
	}
	return rec
}

func toIndexMetrics(metrics []KeyMetric) []runindex.KeyMetric {
	if len(metrics) == 0 {
		return nil
	}
	out := make([]runindex.KeyMetric, len(metrics))
	for i, m := range metrics {
		out[i] = runindex.KeyMetric{Name: m.Name, Value: m.Value, Context: m.Context}
	}
	return out
}

// DailyStat is one row of the dashboard's per-day table and trend chart.
type DailyStat struct {
	Date            string  `json:"date"`
	Count           int     `json:"count"`
	AvgUpvotes      float64 `json:"avg_upvotes"`
	AvgDifficulty   float64 `json:"avg_difficulty"`
	AvgNovelty      float64 `json:"avg_novelty"`
	AvgPracticality float64 `json:"avg_practicality"`
}

// OverallAverages holds the rating means across every recorded paper.
type OverallAverages struct {
	Difficulty   float64 `json:"difficulty"`
	Novelty      float64 `json:"novelty"`
	Practicality float64 `json:"practicality"`
}

// summaryPageData is the render context for the cross-run dashboard.
type summaryPageData struct {
	DailyStats     []DailyStat
	DailyStatsJSON template.JS
	TopTopics      []TopicCount
	OverallAvg     OverallAverages
	TotalPapers    int
	TotalDates     int
	GeneratedAt    string
}

// GenerateSummaryPage renders the multi-day dashboard from the cross-run
// index. A missing or empty index, or an unavailable summary template,
// returns an error wrapping ErrSummarySkipped; callers treat both skips
// and render failures as non-fatal.
func (s *Service) GenerateSummaryPage() (string, error) {
	if s.templates.Summary == nil {
		return "", fmt.Errorf("%w: summary template unavailable", ErrSummarySkipped)
	}

	idx, err := runindex.Load(s.IndexPath())
	if err != nil {
		return "", fmt.Errorf("%w: papers index unreadable: %v", ErrSummarySkipped, err)
	}
	if len(idx) == 0 {
		return "", fmt.Errorf("%w: papers index empty", ErrSummarySkipped)
	}

	dailyStats, topTopics, overall := summarizeIndex(idx)
	dailyJSON, _ := json.Marshal(dailyStats)

	data := summaryPageData{
		DailyStats:     dailyStats,
		DailyStatsJSON: template.JS(dailyJSON), // #nosec G203 -- marshaled from our own data
		TopTopics:      topTopics,
		OverallAvg:     overall,
		TotalPapers:    idx.TotalRecords(),
		TotalDates:     len(idx),
		GeneratedAt:    time.Now().Format(generatedAtLayout),
	}

	var buf bytes.Buffer
	if err := s.templates.Summary.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSummaryRender, err)
	}

	outPath := filepath.Join(s.HTMLRoot(), "summary.html")
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil { // #nosec G306
		return "", fmt.Errorf("%w: %v", ErrSummaryRender, err)
	}
	s.log.Info().Str("path", outPath).Msg("generated summary page")
	return outPath, nil
}

// summarizeIndex computes per-day stats, overall rating averages, and the
// most frequent topics across all recorded dates. Days or indexes with no
// rated records report the midpoint rating.
func summarizeIndex(idx runindex.Index) ([]DailyStat, []TopicCount, OverallAverages) {
	var dailyStats []DailyStat
	var allDifficulty, allNovelty, allPracticality []int
	topicCounts := map[string]int{}
	var topicOrder []string

	for _, date := range idx.Dates() {
		records := idx[date]

		upvoteSum := 0
		var dayDifficulty, dayNovelty, dayPracticality []int
		for _, rec := range records {
			upvoteSum += rec.Upvotes
			if rec.HasRatings() {
				dayDifficulty = append(dayDifficulty, rec.Difficulty)
				dayNovelty = append(dayNovelty, rec.Novelty)
				dayPracticality = append(dayPracticality, rec.Practicality)
			}
			for _, topic := range rec.Topics {
				if _, seen := topicCounts[topic]; !seen {
					topicOrder = append(topicOrder, topic)
				}
				topicCounts[topic]++
			}
		}
		allDifficulty = append(allDifficulty, dayDifficulty...)
		allNovelty = append(allNovelty, dayNovelty...)
		allPracticality = append(allPracticality, dayPracticality...)

		avgUpvotes := 0.0
		if len(records) > 0 {
			avgUpvotes = float64(upvoteSum) / float64(len(records))
		}
		dailyStats = append(dailyStats, DailyStat{
			Date:            date,
			Count:           len(records),
			AvgUpvotes:      round1(avgUpvotes),
			AvgDifficulty:   round1(meanOrMidpoint(dayDifficulty)),
			AvgNovelty:      round1(meanOrMidpoint(dayNovelty)),
			AvgPracticality: round1(meanOrMidpoint(dayPracticality)),
		})
	}

	topTopics := make([]TopicCount, 0, len(topicOrder))
	for _, topic := range topicOrder {
		topTopics = append(topTopics, TopicCount{Topic: topic, Count: topicCounts[topic]})
	}
	sort.SliceStable(topTopics, func(i, j int) bool {
		return topTopics[i].Count > topTopics[j].Count
	})
	if len(topTopics) > topTopicsLimit {
		topTopics = topTopics[:topTopicsLimit]
	}

	overall := OverallAverages{
		Difficulty:   round1(meanOrMidpoint(allDifficulty)),
		Novelty:      round1(meanOrMidpoint(allNovelty)),
		Practicality: round1(meanOrMidpoint(allPracticality)),
	}
	return dailyStats, topTopics, overall
}

// meanOrMidpoint returns the mean rating, or the midpoint for no data.
func meanOrMidpoint(values []int) float64 {
	if len(values) == 0 {
		return DefaultRating
	}
	return meanInt(values)
}
