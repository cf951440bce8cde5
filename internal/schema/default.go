package schema

// DefaultJSON is the schema written by `notesync init` when none exists.
// It mirrors the starter note types of the publishing workflow: a generic
// note plus person, book, and article types.
const DefaultJSON = `{
  "schema_version": "1.0",
  "note_types": {
    "note": {
      "sections": {
        "overview": {
          "sync": true,
          "logseq_format": "bullets",
          "obsidian_format": "paragraphs",
          "quarto_format": "paragraphs"
        },
        "notes": {
          "sync": true,
          "logseq_format": "bullets",
          "obsidian_format": "bullets",
          "quarto_format": "bullets"
        },
        "references": {
          "sync": true,
          "logseq_format": "bullets",
          "obsidian_format": "bullets",
          "quarto_format": "bullets"
        }
      }
    },
    "person": {
      "sections": {
        "bio": {
          "sync": true,
          "logseq_format": "bullets",
          "obsidian_format": "paragraphs",
          "quarto_format": "paragraphs"
        },
        "works": {
          "sync": true,
          "logseq_format": "bullets",
          "obsidian_format": "bullets",
          "quarto_format": "bullets"
        },
        "quotes": {
          "sync": true,
          "logseq_format": "blockquotes",
          "obsidian_format": "blockquotes",
          "quarto_format": "blockquotes"
        },
        "analysis": {
          "sync": false,
          "obsidian_only": true
        }
      }
    },
    "book": {
      "sections": {
        "summary": {
          "sync": true,
          "logseq_format": "bullets",
          "obsidian_format": "paragraphs",
          "quarto_format": "paragraphs"
        },
        "quotes": {
          "sync": true,
          "logseq_format": "blockquotes",
          "obsidian_format": "blockquotes",
          "quarto_format": "blockquotes"
        },
        "reading_notes": {
          "sync": false,
          "obsidian_only": true
        }
      }
    },
    "article": {
      "sections": {
        "summary": {
          "sync": true,
          "logseq_format": "bullets",
          "obsidian_format": "paragraphs",
          "quarto_format": "paragraphs"
        },
        "key_points": {
          "sync": true,
          "logseq_format": "bullets",
          "obsidian_format": "bullets",
          "quarto_format": "bullets"
        },
        "snippets": {
          "sync": false,
          "quarto_only": true,
          "quarto_format": "code"
        }
      }
    }
  }
}`

// Default returns the built-in schema. It panics only if the embedded
// document drifts out of sync with the meta-schema, which the test suite
// catches.
func Default() *Schema {
	s, err := Parse([]byte(DefaultJSON))
	if err != nil {
		panic(err)
	}
	return s
}
