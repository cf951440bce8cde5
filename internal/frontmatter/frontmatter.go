// Package frontmatter parses and renders per-note metadata blocks: YAML
// (---) and TOML (+++) frontmatter for Obsidian and Quarto, and `key:: value`
// property lines for Logseq.
package frontmatter

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/metamechanic/notesync/internal/model"
)

// Record holds a note's metadata key/value pairs. Unknown keys are carried
// verbatim so platform-foreign fields survive a round trip.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// StringValue returns the value for key coerced to a string, or "".
func (r Record) StringValue(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// StringList returns the value for key as a string list, accepting either a
// YAML sequence or a comma-separated scalar.
func (r Record) StringList(key string) []string {
	switch v := r[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	case []string:
		return v
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}

// SplitResult contains the raw metadata block and remaining body.
type SplitResult struct {
	// Frontmatter contains the raw frontmatter bytes (YAML or TOML).
	Frontmatter []byte
	// TOML is true when the block used +++ delimiters.
	TOML bool
	// Body contains the content after the metadata block.
	Body string
	// HasFrontmatter indicates whether a fenced block was found.
	HasFrontmatter bool
}

// Split extracts a fenced frontmatter block from content. Supports both
// --- (YAML) and +++ (TOML) delimiters.
func Split(content []byte) SplitResult {
	if bytes.HasPrefix(content, []byte("---\n")) || bytes.HasPrefix(content, []byte("---\r\n")) {
		return extract(content, []byte("---"), false)
	}
	if bytes.HasPrefix(content, []byte("+++\n")) || bytes.HasPrefix(content, []byte("+++\r\n")) {
		return extract(content, []byte("+++"), true)
	}
	return SplitResult{Body: string(content)}
}

// extract pulls the block between delimiters, tolerating CRLF endings.
func extract(content, delimiter []byte, isTOML bool) SplitResult {
	remaining := content[len(delimiter):]

	if bytes.HasPrefix(remaining, []byte("\r\n")) {
		remaining = remaining[2:]
	} else if bytes.HasPrefix(remaining, []byte("\n")) {
		remaining = remaining[1:]
	}

	var block []byte
	var bodyStart int
	found := false

	if bytes.HasPrefix(remaining, delimiter) {
		// Empty frontmatter: ---\n---\n
		block = []byte{}
		bodyStart = len(delimiter)
		found = true
	} else {
		closing := append([]byte("\n"), delimiter...)
		if idx := bytes.Index(remaining, closing); idx != -1 {
			block = remaining[:idx]
			bodyStart = idx + len(closing)
			found = true
		} else {
			closing = append([]byte("\r\n"), delimiter...)
			if idx := bytes.Index(remaining, closing); idx != -1 {
				block = remaining[:idx]
				bodyStart = idx + len(closing)
				found = true
			}
		}
	}

	if !found {
		return SplitResult{Body: string(content)}
	}

	block = bytes.ReplaceAll(block, []byte("\r\n"), []byte("\n"))
	block = bytes.TrimRight(block, "\r")

	if bodyStart < len(remaining) {
		if bytes.HasPrefix(remaining[bodyStart:], []byte("\r\n")) {
			bodyStart += 2
		} else if bytes.HasPrefix(remaining[bodyStart:], []byte("\n")) {
			bodyStart++
		}
	}

	var body string
	if bodyStart < len(remaining) {
		body = string(remaining[bodyStart:])
	}

	return SplitResult{
		Frontmatter:    block,
		TOML:           isTOML,
		Body:           body,
		HasFrontmatter: true,
	}
}

// propertyLine matches Logseq `key:: value` properties at the top of a page.
var propertyLine = regexp.MustCompile(`^([a-zA-Z0-9_-]+):: (.*)$`)

// Parse decodes a note file's metadata and returns the record plus the body.
// Files without a fenced block are probed for Logseq properties.
func Parse(content []byte) (Record, string, error) {
	split := Split(content)
	if split.HasFrontmatter {
		rec := make(Record)
		var err error
		if split.TOML {
			err = toml.Unmarshal(split.Frontmatter, &rec)
		} else {
			err = yaml.Unmarshal(split.Frontmatter, &rec)
		}
		if err != nil {
			return nil, "", fmt.Errorf("frontmatter decode: %w", err)
		}
		return rec, split.Body, nil
	}
	rec, body := parseProperties(string(content))
	return rec, body, nil
}

// parseProperties pulls `key:: value` lines from the top of a Logseq page.
// Blank lines are skipped, so properties after a leading blank still count;
// parsing stops at the first non-blank non-property line, leaving `::`
// inside the body alone.
func parseProperties(content string) (Record, string) {
	rec := make(Record)
	lines := strings.Split(content, "\n")
	i := 0
	for ; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := propertyLine.FindStringSubmatch(line)
		if m == nil {
			break
		}
		rec[m[1]] = m[2]
	}
	return rec, strings.TrimLeft(strings.Join(lines[i:], "\n"), "\n")
}

// Render serializes a record and body into the on-disk form the platform
// expects: property lines for Logseq, a YAML fence elsewhere. Keys are
// emitted in sorted order so rewrites are deterministic.
func Render(rec Record, body string, platform model.Platform) (string, error) {
	var sb strings.Builder

	if platform.UsesYAMLFrontmatter() {
		data, err := yaml.Marshal(map[string]any(rec))
		if err != nil {
			return "", fmt.Errorf("frontmatter encode: %w", err)
		}
		sb.WriteString("---\n")
		sb.Write(data)
		sb.WriteString("---\n\n")
	} else if len(rec) > 0 {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(k)
			sb.WriteString(":: ")
			sb.WriteString(propertyValue(rec[k]))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(strings.TrimRight(body, "\n"))
	sb.WriteString("\n")
	return sb.String(), nil
}

// propertyValue flattens a metadata value to Logseq's single-line form.
func propertyValue(v any) string {
	switch val := v.(type) {
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(val, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
