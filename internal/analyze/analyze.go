// Package analyze produces the Markdown deep-read analysis for each paper
// using the OpenAI Responses API with a strict JSON output schema.
package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/rs/zerolog"

	"github.com/hzhou/vibepapers"
)

// ErrAnalysisFailed indicates the model did not return a usable analysis.
var ErrAnalysisFailed = errors.New("paper analysis failed")

const (
	maxOutputTokens = 16000
	maxRetries      = 3
)

// Backoff schedules per failure class. Rate limits reset on a minute
// window so those waits are long.
var (
	rateLimitWaitTimes   = []time.Duration{65 * time.Second, 100 * time.Second, 135 * time.Second}
	serverErrorWaitTimes = []time.Duration{5 * time.Second, 30 * time.Second, 60 * time.Second}
)

const analysisInstructions = `You are a top-tier AI researcher writing a deep-read guide for a paper.
Produce a thorough Markdown analysis that lets the reader grasp roughly 90%% of
the paper without opening it, covering:

## Motivation
What problem is addressed, why it matters, and the claimed significance.

## Method and Formulation
Notation, key equations, derivations, and algorithm flow. All math must be
valid LaTeX; keep inline formulas on a single line.

## Experimental Setup
Models, datasets, hyperparameters, and prompts, in enough detail to reproduce.

## Results and Conclusions
Baselines compared, headline numbers, and the insights they support.

## Review
A sharp reviewer's take: strengths, weaknesses, and promising follow-ups.

## Study Questions
Three questions of increasing difficulty testing understanding of the paper.

Write the analysis in %s. Return the analysis text and the structured
metadata separately as instructed by the output schema.`

// resultSchema describes the structured model output. Field tags drive the
// generated JSON schema; every property is required under strict mode.
type analysisMetric struct {
	Name    string `json:"name" jsonschema_description:"Metric name"`
	Value   string `json:"value" jsonschema_description:"Metric value"`
	Context string `json:"context" jsonschema_description:"What the value is compared against"`
}

type analysisMetadata struct {
	OneLineSummary    string           `json:"one_line_summary" jsonschema_description:"One-sentence core contribution, at most 30 words"`
	Tags              []string         `json:"tags" jsonschema_description:"3-5 short keyword tags"`
	Difficulty        int              `json:"difficulty" jsonschema_description:"Reading difficulty 1-5"`
	Novelty           int              `json:"novelty" jsonschema_description:"Novelty 1-5"`
	Practicality      int              `json:"practicality" jsonschema_description:"Practicality 1-5"`
	Topics            []string         `json:"topics" jsonschema_description:"2-4 concrete research topics"`
	KeyMetrics        []analysisMetric `json:"key_metrics" jsonschema_description:"1-3 headline experimental metrics"`
	MermaidConceptMap string           `json:"mermaid_concept_map" jsonschema_description:"Mermaid graph of problem, method, result"`
	RelatedAreas      []string         `json:"related_areas" jsonschema_description:"2-3 related research areas"`
}

type analysisResult struct {
	Analysis string           `json:"analysis" jsonschema_description:"Full Markdown analysis"`
	Metadata analysisMetadata `json:"metadata"`
}

var resultSchema = GenerateSchema[analysisResult]()

// Analyzer drives the model calls for a batch.
type Analyzer struct {
	log      zerolog.Logger
	client   openai.Client
	model    string
	language string
}

// NewAnalyzer creates an Analyzer using the given API key and model.
func NewAnalyzer(log zerolog.Logger, apiKey, model, language string) *Analyzer {
	return &Analyzer{
		log:      log,
		client:   openai.NewClient(option.WithAPIKey(apiKey)),
		model:    model,
		language: language,
	}
}

// Analyze generates the analysis for one paper and stores it on the paper
// as Markdown with a trailing json:metadata fenced block. Keeping the
// fenced-block form means downstream extraction has a single parsing path
// regardless of where an analysis came from.
func (a *Analyzer) Analyze(ctx context.Context, paper *vibepapers.Paper) error {
	input := buildInput(paper)
	instructions := fmt.Sprintf(analysisInstructions, languageName(a.language))

	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "PaperAnalysis",
			Schema:      resultSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Paper analysis with structured metadata"),
			Type:        "json_schema",
		},
	}

	params := responses.ResponseNewParams{
		Model:           a.model,
		MaxOutputTokens: openai.Int(maxOutputTokens),
		Instructions:    openai.String(instructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(input, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	started := time.Now()
	resp, err := a.callWithRetry(ctx, params)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAnalysisFailed, paper.ArxivID, err)
	}

	var result analysisResult
	if err := decodeModelJSON(resp.OutputText(), &result); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAnalysisFailed, paper.ArxivID, err)
	}
	if strings.TrimSpace(result.Analysis) == "" {
		return fmt.Errorf("%w: %s: empty analysis", ErrAnalysisFailed, paper.ArxivID)
	}

	paper.Analysis = appendMetadataBlock(result.Analysis, result.Metadata)
	a.log.Info().
		Str("arxiv_id", paper.ArxivID).
		Dur("took", time.Since(started)).
		Int("analysis_chars", len(result.Analysis)).
		Msg("paper analyzed")
	return nil
}

// AnalyzeAll analyzes every paper in order, skipping papers that fail.
// Returns the number of successful analyses.
func (a *Analyzer) AnalyzeAll(ctx context.Context, papers []*vibepapers.Paper) int {
	ok := 0
	for _, paper := range papers {
		if err := ctx.Err(); err != nil {
			a.log.Warn().Err(err).Msg("analysis batch interrupted")
			break
		}
		if err := a.Analyze(ctx, paper); err != nil {
			a.log.Error().Err(err).Str("arxiv_id", paper.ArxivID).Msg("analysis skipped")
			continue
		}
		ok++
	}
	return ok
}

func (a *Analyzer) callWithRetry(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := a.client.Responses.New(ctx, params)
		if err == nil {
			return resp, nil
		}

		var wait time.Duration
		switch {
		case isRateLimitError(err):
			wait = rateLimitWaitTimes[attempt]
		case isServerError(err):
			wait = serverErrorWaitTimes[attempt]
		default:
			return nil, err
		}
		if attempt == maxRetries-1 {
			return nil, err
		}

		a.log.Warn().Err(err).Int("attempt", attempt+1).Dur("retry_in", wait).Msg("model call failed")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("failed after %d attempts", maxRetries)
}

func buildInput(paper *vibepapers.Paper) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", paper.Title)
	if len(paper.Authors) > 0 {
		fmt.Fprintf(&b, "Authors: %s\n", strings.Join(paper.Authors, ", "))
	}
	fmt.Fprintf(&b, "arXiv: %s\n\nAbstract:\n%s\n", paper.ArxivURL, paper.Summary)
	return b.String()
}

// appendMetadataBlock serializes the metadata back into the fenced-block
// form carried inside the analysis Markdown.
func appendMetadataBlock(analysis string, meta analysisMetadata) string {
	blob, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return analysis
	}
	return strings.TrimRight(analysis, " \t\n") +
		"\n\n```json:metadata\n" + string(blob) + "\n```\n"
}

func languageName(code string) string {
	switch strings.ToLower(code) {
	case "", "en":
		return "English"
	case "zh":
		return "Chinese"
	case "ja":
		return "Japanese"
	default:
		return code
	}
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "429") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "500") ||
		strings.Contains(s, "internal server error") ||
		strings.Contains(s, "server_error")
}

// decodeModelJSON tolerates a Markdown code fence around the JSON payload.
func decodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	return json.Unmarshal([]byte(s), v)
}
