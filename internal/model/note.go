// Package model defines the shared domain types for notesync: platforms,
// section formats, notes, and section snapshots.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/goliatone/go-slug"
)

// Section is one heading-delimited block of a note's body, the unit of
// sync granularity.
type Section struct {
	// Name is the normalized section key derived from the heading
	// (lowercased, spaces replaced with underscores).
	Name string `json:"name"`

	// Heading is the original heading text as it appeared in the file.
	Heading string `json:"heading"`

	// Format is the detected structural shape of the content.
	Format Format `json:"format"`

	// Content is the raw section body, heading excluded, trimmed.
	Content string `json:"content"`

	// Schematized is false when the note's declared type has no schema
	// entry for this section. Unschematized sections pass through opaque.
	Schematized bool `json:"schematized"`
}

// Hash returns the content hash used for change detection.
func (s Section) Hash() string {
	return ContentHash(s.Content)
}

// Note is one platform's rendition of a logical note.
type Note struct {
	// Identity is the stable cross-platform key (normalized title slug).
	Identity string `json:"identity"`

	// Type is the declared note type from frontmatter (person, book, ...).
	// Defaults to "note" when undeclared.
	Type string `json:"type"`

	Platform Platform `json:"platform"`

	// Path is the file this rendition was read from (or will be written to).
	Path string `json:"path"`

	// Meta holds the frontmatter key/value pairs. Unknown keys are
	// preserved verbatim.
	Meta map[string]any `json:"meta,omitempty"`

	// Preamble is body content before the first level-2 heading.
	Preamble string `json:"preamble,omitempty"`

	// Sections holds the note's sections in file order.
	Sections []Section `json:"sections"`

	ModifiedAt time.Time `json:"modified_at"`
}

// Section returns the named section and whether it exists.
func (n *Note) Section(name string) (Section, bool) {
	for _, s := range n.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// SectionNames returns the note's section names in file order.
func (n *Note) SectionNames() []string {
	names := make([]string, 0, len(n.Sections))
	for _, s := range n.Sections {
		names = append(names, s.Name)
	}
	return names
}

// SetSection replaces the named section's content in place, or appends a
// new section when the note does not have one yet.
func (n *Note) SetSection(sec Section) {
	for i := range n.Sections {
		if n.Sections[i].Name == sec.Name {
			n.Sections[i].Content = sec.Content
			n.Sections[i].Format = sec.Format
			return
		}
	}
	n.Sections = append(n.Sections, sec)
}

// Title returns the note's title from frontmatter, falling back to the
// identity slug with dashes spelled out.
func (n *Note) Title() string {
	if t, ok := n.Meta["title"].(string); ok && t != "" {
		return t
	}
	return strings.ReplaceAll(n.Identity, "-", " ")
}

// ContentHash returns the hex-encoded SHA-256 of the given content with
// trailing whitespace stripped, so cosmetic EOF differences do not register
// as edits.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(strings.TrimRight(content, " \t\n")))
	return hex.EncodeToString(sum[:])
}

// Identity derives the stable cross-platform note key from a title.
func Identity(title string) string {
	normalized, err := slug.Normalize(title)
	if err != nil || normalized == "" {
		// Degenerate titles still need a deterministic key.
		return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(title), " ", "-"))
	}
	return normalized
}

// NormalizeSectionName converts a heading to its schema lookup key.
func NormalizeSectionName(heading string) string {
	name := strings.ToLower(strings.TrimSpace(heading))
	return strings.ReplaceAll(name, " ", "_")
}
