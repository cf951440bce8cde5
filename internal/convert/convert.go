// Package convert transforms section content between the closed set of
// section formats: bullets, paragraphs, and blockquotes. Code sections are
// opaque and every conversion involving them fails loudly.
package convert

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/metamechanic/notesync/internal/model"
)

// UnsupportedConversionError is returned for conversion pairs outside the
// table, notably anything to or from code sections.
type UnsupportedConversionError struct {
	From model.Format
	To   model.Format
}

func (e *UnsupportedConversionError) Error() string {
	return fmt.Sprintf("no conversion from %s to %s", e.From, e.To)
}

type convertFunc func(string) string

// pairs is the explicit conversion table. A missing entry means the pair is
// unsupported; there is no fallback munging.
var pairs = map[[2]model.Format]convertFunc{
	{model.FormatBullets, model.FormatParagraphs}:     bulletsToParagraphs,
	{model.FormatParagraphs, model.FormatBullets}:     paragraphsToBullets,
	{model.FormatBullets, model.FormatBlockquotes}:    bulletsToBlockquotes,
	{model.FormatBlockquotes, model.FormatBullets}:    blockquotesToBullets,
	{model.FormatParagraphs, model.FormatBlockquotes}: paragraphsToBlockquotes,
	{model.FormatBlockquotes, model.FormatParagraphs}: blockquotesToParagraphs,
}

// Convert transforms content from one format to another. Identical formats
// pass through unchanged.
func Convert(content string, from, to model.Format) (string, error) {
	if from == to {
		return content, nil
	}
	fn, ok := pairs[[2]model.Format{from, to}]
	if !ok {
		return "", &UnsupportedConversionError{From: from, To: to}
	}
	return fn(content), nil
}

// Supported reports whether the pair has a table entry.
func Supported(from, to model.Format) bool {
	if from == to {
		return true
	}
	_, ok := pairs[[2]model.Format{from, to}]
	return ok
}

var bulletMarker = regexp.MustCompile(`^(\s*)[-*+]\s*`)

// bulletsToParagraphs turns each top-level bullet into one paragraph.
// Nested bullets are flattened into the parent paragraph as clauses in
// order. Flattening loses the nesting level; that loss is one-way and
// documented. Empty bullets are dropped.
func bulletsToParagraphs(content string) string {
	var paragraphs []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		m := bulletMarker.FindStringSubmatch(line)
		text := strings.TrimSpace(bulletMarker.ReplaceAllString(line, ""))
		if text == "" {
			continue
		}

		nested := m != nil && m[1] != ""
		if m == nil || nested {
			// Continuation or nested bullet joins the open paragraph.
			current = append(current, text)
			continue
		}

		flush()
		current = []string{text}
	}
	flush()

	return strings.Join(paragraphs, "\n\n")
}

// paragraphsToBullets turns each paragraph into one top-level bullet.
// Multi-sentence paragraphs stay a single bullet so the mapping remains
// traceable; wrapped lines inside a paragraph are joined first.
func paragraphsToBullets(content string) string {
	var bullets []string
	for _, para := range splitParagraphs(content) {
		lines := strings.Split(para, "\n")
		for i, l := range lines {
			lines[i] = strings.TrimSpace(l)
		}
		text := strings.Join(lines, " ")
		if text == "" {
			continue
		}
		bullets = append(bullets, "- "+text)
	}
	return strings.Join(bullets, "\n")
}

// bulletsToBlockquotes maps each bullet line 1:1 to a quote line,
// preserving order. Reversible when no line embeds blank lines.
func bulletsToBlockquotes(content string) string {
	return mapLines(content, func(line string) string {
		return "> " + strings.TrimSpace(bulletMarker.ReplaceAllString(line, ""))
	})
}

var quoteMarker = regexp.MustCompile(`^\s*>\s?`)

// blockquotesToBullets maps each quote line 1:1 back to a bullet line.
func blockquotesToBullets(content string) string {
	return mapLines(content, func(line string) string {
		return "- " + strings.TrimSpace(quoteMarker.ReplaceAllString(line, ""))
	})
}

// paragraphsToBlockquotes quotes each paragraph as a run of quote lines,
// separating paragraphs with a bare quote marker.
func paragraphsToBlockquotes(content string) string {
	var out []string
	for i, para := range splitParagraphs(content) {
		if i > 0 {
			out = append(out, ">")
		}
		for _, line := range strings.Split(para, "\n") {
			out = append(out, "> "+strings.TrimSpace(line))
		}
	}
	return strings.Join(out, "\n")
}

// blockquotesToParagraphs unquotes lines; a bare quote marker or blank line
// starts a new paragraph.
func blockquotesToParagraphs(content string) string {
	var paragraphs []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, "\n"))
			current = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		text := strings.TrimSpace(quoteMarker.ReplaceAllString(line, ""))
		if text == "" {
			flush()
			continue
		}
		current = append(current, text)
	}
	flush()

	return strings.Join(paragraphs, "\n\n")
}

// mapLines applies fn to each non-blank line, dropping blank lines.
func mapLines(content string, fn func(string) string) string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, fn(line))
	}
	return strings.Join(out, "\n")
}

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// splitParagraphs splits content on blank lines.
func splitParagraphs(content string) []string {
	var paragraphs []string
	for _, chunk := range paragraphBreak.Split(content, -1) {
		if strings.TrimSpace(chunk) != "" {
			paragraphs = append(paragraphs, strings.TrimSpace(chunk))
		}
	}
	return paragraphs
}
