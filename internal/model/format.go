package model

import (
	"fmt"
	"strings"
)

// Format identifies the structural shape of a section's content.
type Format string

const (
	// FormatBullets is an outline-style bullet list (Logseq's native shape).
	FormatBullets Format = "bullets"

	// FormatParagraphs is prose split into blank-line-separated paragraphs.
	FormatParagraphs Format = "paragraphs"

	// FormatBlockquotes is a run of `>`-prefixed quote lines.
	FormatBlockquotes Format = "blockquotes"

	// FormatCode is a section whose body is a single fenced code block.
	// Code sections are opaque and never converted.
	FormatCode Format = "code"
)

// IsValid returns true if the format is recognized.
func (f Format) IsValid() bool {
	switch f {
	case FormatBullets, FormatParagraphs, FormatBlockquotes, FormatCode:
		return true
	default:
		return false
	}
}

// String returns the format identifier.
func (f Format) String() string {
	return string(f)
}

// AllFormats returns all recognized section formats.
func AllFormats() []Format {
	return []Format{FormatBullets, FormatParagraphs, FormatBlockquotes, FormatCode}
}

// ParseFormat converts a schema-supplied string to a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("unknown section format %q", s)
	}
	return f, nil
}
