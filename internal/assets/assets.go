// Package assets provides the embedded HTML page templates with optional
// filesystem overrides.
package assets

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/hzhou/vibepapers/internal/fileutil"
)

//go:embed templates/*.html
var embeddedFS embed.FS

// Template file names, looked up in the override directory first.
const (
	PaperTemplateName   = "paper.html"
	IndexTemplateName   = "index.html"
	SummaryTemplateName = "summary.html"
)

// ErrTemplateNotFound indicates a template could not be loaded or parsed.
var ErrTemplateNotFound = errors.New("template not found")

// TemplateSet holds the parsed page templates. Summary is nil when the
// summary template is unavailable; the dashboard stage is then skipped
// instead of failing the run.
type TemplateSet struct {
	Paper   *template.Template
	Index   *template.Template
	Summary *template.Template
}

// Load parses the page templates, preferring files in overrideDir (may be
// empty) over the embedded defaults. A broken paper or index template is an
// error; a broken summary template degrades to a nil Summary.
func Load(overrideDir string) (*TemplateSet, error) {
	paper, err := loadOne(overrideDir, PaperTemplateName)
	if err != nil {
		return nil, err
	}
	index, err := loadOne(overrideDir, IndexTemplateName)
	if err != nil {
		return nil, err
	}
	summary, err := loadOne(overrideDir, SummaryTemplateName)
	if err != nil {
		summary = nil
	}

	return &TemplateSet{Paper: paper, Index: index, Summary: summary}, nil
}

func loadOne(overrideDir, name string) (*template.Template, error) {
	var content []byte
	var err error

	override := filepath.Join(overrideDir, name)
	if overrideDir != "" && fileutil.FileExists(override) {
		content, err = os.ReadFile(override) // #nosec G304 -- operator-provided template dir
	} else {
		content, err = embeddedFS.ReadFile("templates/" + name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, name, err)
	}

	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, name, err)
	}
	return tmpl, nil
}
