package pipeline

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrShieldMismatch indicates that at least one math placeholder survived
// restoration, meaning the converter mangled a placeholder token.
var ErrShieldMismatch = errors.New("placeholder restoration incomplete")

// Placeholder tokens are plain alphanumeric so they pass through the
// Markdown converter unchanged. The reversed suffix makes an accidental
// collision with document text implausible.
const (
	mathPlaceholderPrefix = "MATHPLACEHOLDER"
	mathPlaceholderSuffix = "REDLOHECALP"
	codePlaceholderPrefix = "CODEPLACEHOLDER"
	codePlaceholderSuffix = "REDLOHECALEDOC"
)

// Precompiled regex patterns for performance.
var (
	fencedCodePattern     = regexp.MustCompile("```[\\s\\S]+?```")
	inlineCodePattern     = regexp.MustCompile("`[^`]+`")
	displayDollarPattern  = regexp.MustCompile(`\$\$[\s\S]+?\$\$`)
	displayBracketPattern = regexp.MustCompile(`\\\[[\s\S]+?\\\]`)
	inlineParenPattern    = regexp.MustCompile(`\\\(.*?\\\)`)
)

// ShieldStore holds the spans extracted by Protect, indexed by position.
// A store is created fresh per render call and discarded after Restore.
type ShieldStore struct {
	math []string
	code []string
}

// MathCount returns the number of shielded math spans.
func (s *ShieldStore) MathCount() int { return len(s.math) }

func (s *ShieldStore) stashMath(span string) string {
	idx := len(s.math)
	s.math = append(s.math, span)
	return mathToken(idx)
}

func (s *ShieldStore) stashCode(span string) string {
	idx := len(s.code)
	s.code = append(s.code, span)
	return codeToken(idx)
}

func mathToken(idx int) string {
	return mathPlaceholderPrefix + strconv.Itoa(idx) + mathPlaceholderSuffix
}

func codeToken(idx int) string {
	return codePlaceholderPrefix + strconv.Itoa(idx) + codePlaceholderSuffix
}

// Protect replaces math expressions with neutral placeholder tokens so the
// Markdown converter cannot corrupt them.
//
// Order matters and each pass depends on its predecessor:
//
//  1. Code is shielded first (fenced blocks, then inline spans) so a dollar
//     sign inside code is never misread as a math delimiter.
//  2. Math is shielded: display $$...$$ and \[...\] before inline $...$
//     so a double delimiter is never consumed as two inline spans, then
//     the \(...\) inline form.
//  3. Code is re-injected in full: the converter must see code so fenced
//     blocks render with correct formatting. Math stays shielded through
//     conversion and comes back via Restore.
//
// Unmatched or malformed delimiters are left as literal text.
func Protect(text string) (string, *ShieldStore) {
	store := &ShieldStore{}

	text = fencedCodePattern.ReplaceAllStringFunc(text, store.stashCode)
	text = inlineCodePattern.ReplaceAllStringFunc(text, store.stashCode)

	text = displayDollarPattern.ReplaceAllStringFunc(text, store.stashMath)
	text = displayBracketPattern.ReplaceAllStringFunc(text, store.stashMath)
	text = shieldInlineDollar(text, store)
	text = inlineParenPattern.ReplaceAllStringFunc(text, store.stashMath)

	for idx, code := range store.code {
		text = strings.Replace(text, codeToken(idx), code, 1)
	}

	return text, store
}

// shieldInlineDollar extracts inline $...$ math. Go's regexp has no
// lookaround, so the boundary rules are enforced by a scan: the opening
// dollar must not be adjacent to another dollar, the content must stay on
// one line, contain no dollar, and not be empty or whitespace-only, and
// the closing dollar must not be followed by another dollar.
func shieldInlineDollar(text string, store *ShieldStore) string {
	var b strings.Builder
	b.Grow(len(text))

	i := 0
	for i < len(text) {
		c := text[i]
		if c != '$' {
			b.WriteByte(c)
			i++
			continue
		}
		if (i > 0 && text[i-1] == '$') || (i+1 < len(text) && text[i+1] == '$') {
			b.WriteByte(c)
			i++
			continue
		}

		// Find the closing dollar on the same line.
		end := -1
		for j := i + 1; j < len(text); j++ {
			if text[j] == '\n' {
				break
			}
			if text[j] == '$' {
				end = j
				break
			}
		}
		if end == -1 || (end+1 < len(text) && text[end+1] == '$') {
			b.WriteByte(c)
			i++
			continue
		}

		content := text[i+1 : end]
		if strings.TrimSpace(content) == "" {
			b.WriteByte(c)
			i++
			continue
		}

		b.WriteString(store.stashMath(text[i : end+1]))
		i = end + 1
	}

	return b.String()
}

// Restore puts the original math spans back into the rendered HTML,
// verbatim and with no re-interpretation. Returns ErrShieldMismatch if a
// placeholder token is still present afterwards; the caller should then
// fall back to rendering the unshielded text rather than lose content.
func Restore(html string, store *ShieldStore) (string, error) {
	for idx, span := range store.math {
		html = strings.ReplaceAll(html, mathToken(idx), span)
	}
	if len(store.math) > 0 && strings.Contains(html, mathPlaceholderPrefix) {
		return html, ErrShieldMismatch
	}
	return html, nil
}
