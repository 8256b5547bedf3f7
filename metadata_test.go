package vibepapers

import (
	"strings"
	"testing"
)

func TestExtractMetadata(t *testing.T) {
	analysis := `## Motivation
Some analysis body.

` + "```json:metadata\n" + `{
  "one_line_summary": "does a thing",
  "tags": ["LLM", "RL"],
  "difficulty": 4,
  "novelty": 5,
  "practicality": 2,
  "topics": ["reasoning"]
}
` + "```\n"

	cleaned, meta := ExtractMetadata(analysis)

	if strings.Contains(cleaned, "json:metadata") {
		t.Errorf("cleaned text still contains metadata block: %q", cleaned)
	}
	if !strings.Contains(cleaned, "Some analysis body.") {
		t.Errorf("cleaned text lost analysis body: %q", cleaned)
	}
	if meta.OneLineSummary != "does a thing" {
		t.Errorf("OneLineSummary = %q", meta.OneLineSummary)
	}
	if meta.Difficulty != 4 || meta.Novelty != 5 || meta.Practicality != 2 {
		t.Errorf("ratings = %d/%d/%d, want 4/5/2", meta.Difficulty, meta.Novelty, meta.Practicality)
	}
	if len(meta.Tags) != 2 || meta.Tags[0] != "LLM" {
		t.Errorf("Tags = %v", meta.Tags)
	}
}

func TestExtractMetadataMissingBlock(t *testing.T) {
	analysis := "## Motivation\nNo metadata here."

	cleaned, meta := ExtractMetadata(analysis)

	if cleaned != analysis {
		t.Errorf("cleaned = %q, want unchanged", cleaned)
	}
	if meta == nil {
		t.Fatal("meta = nil, want defaults")
	}
	if meta.Difficulty != DefaultRating || meta.Novelty != DefaultRating || meta.Practicality != DefaultRating {
		t.Errorf("ratings = %d/%d/%d, want all %d", meta.Difficulty, meta.Novelty, meta.Practicality, DefaultRating)
	}
}

func TestExtractMetadataUnparsableBlock(t *testing.T) {
	analysis := "body\n\n```json:metadata\n{broken json\n```\n"

	cleaned, meta := ExtractMetadata(analysis)

	if strings.Contains(cleaned, "json:metadata") {
		t.Errorf("cleaned = %q, want block removed even when unparsable", cleaned)
	}
	if meta.Difficulty != DefaultRating {
		t.Errorf("Difficulty = %d, want default", meta.Difficulty)
	}
}

func TestParseMetadataRatingClamping(t *testing.T) {
	tests := []struct {
		name string
		json string
		want int
	}{
		{
			name: "in range",
			json: `{"difficulty": 4}`,
			want: 4,
		},
		{
			name: "below range",
			json: `{"difficulty": -5}`,
			want: MinRating,
		},
		{
			name: "zero",
			json: `{"difficulty": 0}`,
			want: MinRating,
		},
		{
			name: "above range",
			json: `{"difficulty": 7}`,
			want: MaxRating,
		},
		{
			name: "float truncated",
			json: `{"difficulty": 3.9}`,
			want: 3,
		},
		{
			name: "numeric string",
			json: `{"difficulty": "4"}`,
			want: 4,
		},
		{
			name: "non-numeric string",
			json: `{"difficulty": "hard"}`,
			want: DefaultRating,
		},
		{
			name: "missing",
			json: `{}`,
			want: DefaultRating,
		},
		{
			name: "null",
			json: `{"difficulty": null}`,
			want: DefaultRating,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := ParseMetadata([]byte(tt.json))
			if meta.Difficulty != tt.want {
				t.Errorf("ParseMetadata(%s).Difficulty = %d, want %d", tt.json, meta.Difficulty, tt.want)
			}
			if meta.Difficulty < MinRating || meta.Difficulty > MaxRating {
				t.Errorf("Difficulty %d outside [%d,%d]", meta.Difficulty, MinRating, MaxRating)
			}
		})
	}
}

func TestParseMetadataInvalidJSON(t *testing.T) {
	meta := ParseMetadata([]byte("not json at all"))
	if meta == nil {
		t.Fatal("ParseMetadata() = nil, want defaults")
	}
	if meta.Difficulty != DefaultRating {
		t.Errorf("Difficulty = %d, want default", meta.Difficulty)
	}
}
