package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
	}{
		{
			name:     "heading",
			input:    "## Motivation",
			contains: []string{"<h2", "Motivation", "</h2>"},
		},
		{
			name:     "emphasis",
			input:    "some **bold** text",
			contains: []string{"<strong>bold</strong>"},
		},
		{
			name:     "gfm table",
			input:    "| a | b |\n|---|---|\n| 1 | 2 |",
			contains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:     "fenced code block",
			input:    "```go\nfunc main() {}\n```",
			contains: []string{"<pre", "main"},
		},
		{
			name:     "hard wrap",
			input:    "line one\nline two",
			contains: []string{"<br"},
		},
		{
			name:     "autolink",
			input:    "see https://example.com now",
			contains: []string{`<a href="https://example.com"`},
		},
	}

	conv := NewGoldmarkConverter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := conv.ToHTML(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("ToHTML() error = %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("ToHTML(%q) = %q, missing %q", tt.input, got, want)
				}
			}
		})
	}
}

func TestToHTMLFragmentOnly(t *testing.T) {
	conv := NewGoldmarkConverter()

	got, err := conv.ToHTML(context.Background(), "plain paragraph")
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}
	if strings.Contains(got, "<html") || strings.Contains(got, "<body") {
		t.Errorf("ToHTML() = %q, want bare fragment", got)
	}
}

func TestToHTMLDeterministicAcrossDocuments(t *testing.T) {
	conv := NewGoldmarkConverter()

	first, err := conv.ToHTML(context.Background(), "## Motivation")
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}
	second, err := conv.ToHTML(context.Background(), "## Motivation")
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}
	if first != second {
		t.Errorf("identical documents rendered differently:\n%q\n%q", first, second)
	}
}

func TestToHTMLCancelledContext(t *testing.T) {
	conv := NewGoldmarkConverter()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := conv.ToHTML(ctx, "# test"); err == nil {
		t.Error("ToHTML() with cancelled context, want error")
	}
}

func TestToHTMLWithTimeout(t *testing.T) {
	conv := NewGoldmarkConverter()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := conv.ToHTML(ctx, "normal document")
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}
	if got == "" {
		t.Error("ToHTML() returned empty output")
	}
}
