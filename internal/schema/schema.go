// Package schema loads and validates the note-type schema that drives
// section-level synchronization: which sections sync, which platform owns
// exclusive sections, and the format each platform expects.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/metamechanic/notesync/internal/model"
)

// DefaultNoteType is the fallback note type used when a note declares no
// type or declares one the schema does not define.
const DefaultNoteType = "note"

// LoadError indicates the schema document could not be loaded or failed
// structural validation. It is fatal: no sync runs without a schema.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("schema load failed for %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SectionPolicy is the per-section configuration record the schema stores
// for each (note type, section) pair.
type SectionPolicy struct {
	// Sync enables copying this section between platforms.
	Sync bool `json:"sync"`

	// Per-platform content format. Empty means the platform default
	// (bullets for Logseq, paragraphs elsewhere).
	LogseqFormat   model.Format `json:"logseq_format,omitempty"`
	ObsidianFormat model.Format `json:"obsidian_format,omitempty"`
	QuartoFormat   model.Format `json:"quarto_format,omitempty"`

	// Exclusivity flags. A section marked *_only lives on that platform
	// alone and is never a copy source or destination.
	LogseqOnly   bool `json:"logseq_only,omitempty"`
	ObsidianOnly bool `json:"obsidian_only,omitempty"`
	QuartoOnly   bool `json:"quarto_only,omitempty"`
}

// FormatFor returns the content format the given platform expects for this
// section.
func (p SectionPolicy) FormatFor(platform model.Platform) model.Format {
	var f model.Format
	switch platform {
	case model.Logseq:
		f = p.LogseqFormat
	case model.Obsidian:
		f = p.ObsidianFormat
	case model.Quarto:
		f = p.QuartoFormat
	}
	if f != "" {
		return f
	}
	if platform == model.Logseq {
		return model.FormatBullets
	}
	return model.FormatParagraphs
}

// ExclusivePlatform returns the platform this section is pinned to, if any.
func (p SectionPolicy) ExclusivePlatform() (model.Platform, bool) {
	switch {
	case p.LogseqOnly:
		return model.Logseq, true
	case p.ObsidianOnly:
		return model.Obsidian, true
	case p.QuartoOnly:
		return model.Quarto, true
	default:
		return "", false
	}
}

// AllowsWrite reports whether a copy directive may target this section on
// the given platform. Exclusivity always wins over the sync flag.
func (p SectionPolicy) AllowsWrite(target model.Platform) bool {
	if exclusive, ok := p.ExclusivePlatform(); ok {
		return exclusive == target
	}
	return true
}

// NoteType groups the section policies for one declared note type.
type NoteType struct {
	Sections map[string]SectionPolicy `json:"sections"`
}

// Schema is the loaded note-type schema. Immutable for the duration of a
// run; edits happen externally and take effect on the next invocation.
type Schema struct {
	Version   string              `json:"schema_version"`
	NoteTypes map[string]NoteType `json:"note_types"`
}

// Load reads and validates the schema document at path.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from configuration
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	s, err := Parse(data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return s, nil
}

// Parse validates raw schema JSON against the embedded meta-schema and
// decodes it.
func Parse(data []byte) (*Schema, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if err := metaSchema().Validate(doc); err != nil {
		return nil, fmt.Errorf("schema document rejected: %w", err)
	}

	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}

	// The meta-schema constrains format strings; re-check here so a stale
	// meta-schema cannot smuggle an unknown format into the converter.
	for typeName, nt := range s.NoteTypes {
		for sectionName, policy := range nt.Sections {
			for _, f := range []model.Format{policy.LogseqFormat, policy.ObsidianFormat, policy.QuartoFormat} {
				if f != "" && !f.IsValid() {
					return nil, fmt.Errorf("note type %q section %q: unknown format %q", typeName, sectionName, f)
				}
			}
		}
	}

	if _, ok := s.NoteTypes[DefaultNoteType]; !ok {
		return nil, fmt.Errorf("schema must define the %q note type", DefaultNoteType)
	}

	return &s, nil
}

// Lookup returns the policy for (noteType, section). Unknown note types
// fall back to the default type; the boolean is false when the section has
// no entry even there.
func (s *Schema) Lookup(noteType, section string) (SectionPolicy, bool) {
	nt, ok := s.NoteTypes[strings.ToLower(noteType)]
	if !ok {
		nt = s.NoteTypes[DefaultNoteType]
	}
	policy, ok := nt.Sections[section]
	return policy, ok
}

// SectionsFor returns the section names defined for a note type, including
// inherited default-type behavior for unknown types.
func (s *Schema) SectionsFor(noteType string) []string {
	nt, ok := s.NoteTypes[strings.ToLower(noteType)]
	if !ok {
		nt = s.NoteTypes[DefaultNoteType]
	}
	names := make([]string, 0, len(nt.Sections))
	for name := range nt.Sections {
		names = append(names, name)
	}
	return names
}

// metaSchemaJSON structurally constrains schema documents: a version, note
// types keyed by name, sections keyed by normalized name, and the known
// policy fields with closed format enums.
const metaSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["schema_version", "note_types"],
  "properties": {
    "schema_version": {"type": "string"},
    "note_types": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {
        "type": "object",
        "required": ["sections"],
        "properties": {
          "sections": {
            "type": "object",
            "additionalProperties": {
              "type": "object",
              "required": ["sync"],
              "properties": {
                "sync": {"type": "boolean"},
                "logseq_format": {"enum": ["bullets", "paragraphs", "blockquotes", "code"]},
                "obsidian_format": {"enum": ["bullets", "paragraphs", "blockquotes", "code"]},
                "quarto_format": {"enum": ["bullets", "paragraphs", "blockquotes", "code"]},
                "logseq_only": {"type": "boolean"},
                "obsidian_only": {"type": "boolean"},
                "quarto_only": {"type": "boolean"}
              },
              "additionalProperties": false
            }
          }
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`

var compiledMeta *jsonschema.Schema

func metaSchema() *jsonschema.Schema {
	if compiledMeta == nil {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("notesync-meta.json", strings.NewReader(metaSchemaJSON)); err != nil {
			panic(fmt.Sprintf("meta-schema resource: %v", err))
		}
		compiledMeta = c.MustCompile("notesync-meta.json")
	}
	return compiledMeta
}
