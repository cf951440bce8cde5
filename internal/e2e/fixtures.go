package e2e

import (
	"os"
	"path/filepath"
	"testing"
)

// Fixture provides helpers for creating note files in E2E tests.
type Fixture struct {
	t       *testing.T
	baseDir string
}

// NewFixture creates a new fixture helper rooted at the given directory.
func NewFixture(t *testing.T, baseDir string) *Fixture {
	t.Helper()
	return &Fixture{
		t:       t,
		baseDir: baseDir,
	}
}

// WriteFile writes content to a file relative to the fixture base directory.
// It creates parent directories as needed.
func (f *Fixture) WriteFile(relPath, content string) string {
	f.t.Helper()
	fullPath := filepath.Join(f.baseDir, relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		f.t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, []byte(content), 0o600); err != nil {
		f.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}

	return fullPath
}

// WriteLogseqPage writes a Logseq page: `key:: value` properties followed
// by the body. The file is named after the title.
func (f *Fixture) WriteLogseqPage(title, noteType, body string) string {
	f.t.Helper()

	content := "title:: " + title + "\ntype:: " + noteType + "\n\n" + body
	return f.WriteFile(title+".md", content)
}

// WriteYAMLNote writes a note with a YAML frontmatter fence, the shape
// Obsidian and Quarto store.
func (f *Fixture) WriteYAMLNote(relPath, title, noteType, body string) string {
	f.t.Helper()

	content := "---\ntitle: " + title + "\ntype: " + noteType + "\n---\n\n" + body
	return f.WriteFile(relPath, content)
}

// Path returns the full path for a relative path.
func (f *Fixture) Path(relPath string) string {
	return filepath.Join(f.baseDir, relPath)
}

// Exists returns true if the file or directory exists.
func (f *Fixture) Exists(relPath string) bool {
	f.t.Helper()
	_, err := os.Stat(filepath.Join(f.baseDir, relPath))
	return err == nil
}

// ReadFile reads and returns the content of a file.
func (f *Fixture) ReadFile(relPath string) string {
	f.t.Helper()
	fullPath := filepath.Join(f.baseDir, relPath)

	// #nosec G304 - fullPath is constructed from trusted test fixture base and test-provided path
	data, err := os.ReadFile(fullPath)
	if err != nil {
		f.t.Fatalf("failed to read file %s: %v", fullPath, err)
	}

	return string(data)
}

// LogseqFixture returns a fixture rooted at the Logseq pages directory.
func (h *Harness) LogseqFixture() *Fixture {
	h.t.Helper()
	return NewFixture(h.t, filepath.Join(h.root, "graph", "pages"))
}

// ObsidianFixture returns a fixture rooted at the Obsidian vault.
func (h *Harness) ObsidianFixture() *Fixture {
	h.t.Helper()
	return NewFixture(h.t, filepath.Join(h.root, "vault"))
}

// QuartoFixture returns a fixture rooted at the Quarto project.
func (h *Harness) QuartoFixture() *Fixture {
	h.t.Helper()
	return NewFixture(h.t, filepath.Join(h.root, "project"))
}
