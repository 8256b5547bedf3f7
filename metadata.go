package vibepapers

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Ordinal rating bounds. Every rating is clamped to this range at
// construction regardless of upstream input.
const (
	MinRating     = 1
	MaxRating     = 5
	DefaultRating = 3
)

// KeyMetric is one named result metric reported by the analysis.
type KeyMetric struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Context string `json:"context"`
}

// Metadata holds the structured facts extracted from an analysis.
type Metadata struct {
	OneLineSummary    string
	Tags              []string
	Difficulty        int
	Novelty           int
	Practicality      int
	Topics            []string
	KeyMetrics        []KeyMetric
	MermaidConceptMap string
	RelatedAreas      []string
}

// DefaultMetadata returns a minimal metadata value with midpoint ratings.
func DefaultMetadata() *Metadata {
	return &Metadata{
		Difficulty:   DefaultRating,
		Novelty:      DefaultRating,
		Practicality: DefaultRating,
	}
}

// metadataBlockPattern matches the ```json:metadata fenced block the model
// appends to the analysis.
var metadataBlockPattern = regexp.MustCompile("```json:metadata\\s*\\n([\\s\\S]*?)```")

// ExtractMetadata removes the json:metadata fenced block from the analysis
// text and parses it. It never fails: on a missing block or any parse
// error the cleaned text is returned with default metadata.
func ExtractMetadata(analysis string) (string, *Metadata) {
	loc := metadataBlockPattern.FindStringSubmatchIndex(analysis)
	if loc == nil {
		return analysis, DefaultMetadata()
	}

	jsonStr := strings.TrimSpace(analysis[loc[2]:loc[3]])
	cleaned := strings.TrimRight(analysis[:loc[0]], " \t\n") +
		strings.TrimLeft(analysis[loc[1]:], " \t\n")
	cleaned = strings.TrimSpace(cleaned)

	return cleaned, ParseMetadata([]byte(jsonStr))
}

// ParseMetadata builds Metadata from a JSON document. It is a validating
// constructor that always returns a usable value: unparsable input yields
// defaults, ratings are clamped to [MinRating, MaxRating], and non-numeric
// or missing ratings fall back to the midpoint.
func ParseMetadata(data []byte) *Metadata {
	var raw struct {
		OneLineSummary    string      `json:"one_line_summary"`
		Tags              []string    `json:"tags"`
		Difficulty        any         `json:"difficulty"`
		Novelty           any         `json:"novelty"`
		Practicality      any         `json:"practicality"`
		Topics            []string    `json:"topics"`
		KeyMetrics        []KeyMetric `json:"key_metrics"`
		MermaidConceptMap string      `json:"mermaid_concept_map"`
		RelatedAreas      []string    `json:"related_areas"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return DefaultMetadata()
	}

	return &Metadata{
		OneLineSummary:    raw.OneLineSummary,
		Tags:              raw.Tags,
		Difficulty:        clampRating(raw.Difficulty),
		Novelty:           clampRating(raw.Novelty),
		Practicality:      clampRating(raw.Practicality),
		Topics:            raw.Topics,
		KeyMetrics:        raw.KeyMetrics,
		MermaidConceptMap: raw.MermaidConceptMap,
		RelatedAreas:      raw.RelatedAreas,
	}
}

// clampRating converts an arbitrary JSON value to an ordinal rating.
// Numbers are truncated toward zero and clamped; numeric strings are
// accepted; anything else (including absence) is the midpoint.
func clampRating(v any) int {
	switch n := v.(type) {
	case float64:
		return clampInt(int(n))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return DefaultRating
		}
		return clampInt(int(f))
	default:
		return DefaultRating
	}
}

func clampInt(n int) int {
	if n < MinRating {
		return MinRating
	}
	if n > MaxRating {
		return MaxRating
	}
	return n
}
