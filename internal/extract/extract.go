// Package extract parses a platform's note file into frontmatter plus an
// ordered set of level-2-heading-delimited sections, detecting each
// section's content format from its markdown structure.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/metamechanic/notesync/internal/frontmatter"
	"github.com/metamechanic/notesync/internal/model"
	"github.com/metamechanic/notesync/internal/schema"
)

// MalformedSectionError records a heading with no schema entry for the
// note's declared type. It is recoverable: the section passes through
// opaque instead of aborting the file.
type MalformedSectionError struct {
	NoteType string
	Section  string
}

func (e *MalformedSectionError) Error() string {
	return fmt.Sprintf("section %q has no schema entry for note type %q", e.Section, e.NoteType)
}

// Document is the parsed form of one platform's note file.
type Document struct {
	// Meta holds the frontmatter record; unknown keys preserved verbatim.
	Meta frontmatter.Record

	// Type is the declared note type, defaulting to the schema's default.
	Type string

	// Preamble is body content before the first level-2 heading. It never
	// participates in sync.
	Preamble string

	// Sections holds the note's sections in file order.
	Sections []model.Section

	// Issues collects the recoverable problems found while parsing.
	Issues []error
}

var sectionHeading = regexp.MustCompile(`^##\s+(.+?)\s*$`)

// Parse splits a note file into frontmatter, preamble, and sections, and
// marks sections the schema does not know about for the note's type.
func Parse(content []byte, s *schema.Schema) (*Document, error) {
	meta, body, err := frontmatter.Parse(content)
	if err != nil {
		return nil, err
	}

	noteType := strings.ToLower(meta.StringValue("type"))
	if noteType == "" {
		noteType = schema.DefaultNoteType
	}

	doc := &Document{Meta: meta, Type: noteType}

	var current *model.Section
	var buf []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = nil
		if current == nil {
			doc.Preamble = text
			return
		}
		current.Content = text
		current.Format = DetectFormat(text)
		doc.Sections = append(doc.Sections, *current)
	}

	for _, line := range strings.Split(body, "\n") {
		m := sectionHeading.FindStringSubmatch(line)
		if m == nil {
			buf = append(buf, line)
			continue
		}
		flush()
		heading := m[1]
		name := model.NormalizeSectionName(heading)
		sec := model.Section{Name: name, Heading: heading, Schematized: true}
		if s != nil {
			if _, ok := s.Lookup(noteType, name); !ok {
				sec.Schematized = false
				doc.Issues = append(doc.Issues, &MalformedSectionError{NoteType: noteType, Section: name})
			}
		}
		current = &sec
	}
	flush()

	return doc, nil
}

// Render reconstructs the on-disk file content for the given platform,
// preserving frontmatter, preamble, and section order.
func Render(doc *Document, platform model.Platform) (string, error) {
	var sb strings.Builder

	if doc.Preamble != "" {
		sb.WriteString(doc.Preamble)
		sb.WriteString("\n\n")
	}

	for i, sec := range doc.Sections {
		heading := sec.Heading
		if heading == "" {
			heading = headingFromName(sec.Name)
		}
		sb.WriteString("## ")
		sb.WriteString(heading)
		sb.WriteString("\n\n")
		sb.WriteString(strings.TrimSpace(sec.Content))
		if i < len(doc.Sections)-1 {
			sb.WriteString("\n\n")
		}
	}

	return frontmatter.Render(doc.Meta, sb.String(), platform)
}

// headingFromName turns a normalized section name back into display form.
func headingFromName(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// md is a bare goldmark instance used only for structural inspection.
var md = goldmark.New()

// DetectFormat classifies section content by the kinds of its top-level
// markdown blocks: a lone fenced code block is code, predominantly quote
// blocks are blockquotes, predominantly lists are bullets, anything else
// is paragraphs.
func DetectFormat(content string) model.Format {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return model.FormatParagraphs
	}

	source := []byte(trimmed)
	root := md.Parser().Parse(text.NewReader(source))

	var lists, quotes, code, other, total int
	for child := root.FirstChild(); child != nil; child = child.NextSibling() {
		total++
		switch child.Kind() {
		case ast.KindList:
			lists++
		case ast.KindBlockquote:
			quotes++
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			code++
		default:
			other++
		}
	}

	switch {
	case code == 1 && total == 1:
		return model.FormatCode
	case quotes > 0 && quotes >= lists && quotes >= other:
		return model.FormatBlockquotes
	case lists > 0 && lists >= other:
		return model.FormatBullets
	default:
		return model.FormatParagraphs
	}
}
