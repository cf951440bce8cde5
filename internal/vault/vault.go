// Package vault discovers, loads, and writes note files for one platform:
// a Logseq pages directory, an Obsidian vault, or a Quarto project.
package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/metamechanic/notesync/internal/config"
	"github.com/metamechanic/notesync/internal/extract"
	"github.com/metamechanic/notesync/internal/frontmatter"
	"github.com/metamechanic/notesync/internal/logging"
	"github.com/metamechanic/notesync/internal/model"
	"github.com/metamechanic/notesync/internal/schema"
)

// skipDirs are platform-internal directories that never hold notes.
var skipDirs = []string{
	".obsidian",
	".trash",
	".quarto",
	"_site",
	"_freeze",
	".git",
	"logseq",
}

// Vault is one platform's note store rooted at a directory.
type Vault struct {
	Platform model.Platform
	Root     string

	cfg    *config.Config
	schema *schema.Schema
}

// New builds a vault for the platform using the configured root. Relative
// configuration paths resolve against baseDir.
func New(platform model.Platform, cfg *config.Config, s *schema.Schema, baseDir string) *Vault {
	return &Vault{
		Platform: platform,
		Root:     cfg.RootFor(platform, baseDir),
		cfg:      cfg,
		schema:   s,
	}
}

// Discover returns the note files under the vault root, sorted, with
// platform-internal directories skipped. Quarto projects contribute both
// .md and .qmd documents.
func (v *Vault) Discover() ([]string, error) {
	if _, err := os.Stat(v.Root); err != nil {
		return nil, fmt.Errorf("vault root %s: %w", v.Root, err)
	}

	patterns := []string{"**/*.md"}
	if v.Platform == model.Quarto {
		patterns = append(patterns, "**/*.qmd")
	}

	fsys := os.DirFS(v.Root)
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %s in %s: %w", pattern, v.Root, err)
		}
		for _, m := range matches {
			if skipped(m) {
				continue
			}
			paths = append(paths, filepath.Join(v.Root, filepath.FromSlash(m)))
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// skipped reports whether a relative match sits inside an internal directory
// or is a hidden file.
func skipped(rel string) bool {
	parts := strings.Split(rel, "/")
	for i, part := range parts {
		for _, dir := range skipDirs {
			if part == dir {
				return true
			}
		}
		if i == len(parts)-1 && strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// Load reads and parses one note file into this platform's rendition.
func (v *Vault) Load(path string) (*model.Note, error) {
	// #nosec G304 - path comes from vault discovery
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	doc, err := extract.Parse(data, v.schema)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, issue := range doc.Issues {
		logging.Warn("section skipped by schema",
			logging.Platform(string(v.Platform)),
			logging.Path(path),
			logging.Err(issue))
	}

	title := doc.Meta.StringValue("title")
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	note := &model.Note{
		Identity: model.Identity(title),
		Type:     doc.Type,
		Platform: v.Platform,
		Path:     path,
		Meta:     doc.Meta,
		Preamble: doc.Preamble,
		Sections: doc.Sections,
	}
	if info, err := os.Stat(path); err == nil {
		note.ModifiedAt = info.ModTime()
	}
	return note, nil
}

// LoadAll discovers and loads every note, indexed by identity. Files that
// fail to parse are reported in errs and skipped rather than aborting the
// whole vault.
func (v *Vault) LoadAll() (map[string]*model.Note, []error) {
	paths, err := v.Discover()
	if err != nil {
		return nil, []error{err}
	}

	notes := make(map[string]*model.Note, len(paths))
	var errs []error
	for _, path := range paths {
		note, err := v.Load(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if existing, ok := notes[note.Identity]; ok {
			logging.Warn("duplicate note identity, keeping first",
				logging.Platform(string(v.Platform)),
				logging.Note(note.Identity),
				logging.Path(existing.Path))
			continue
		}
		notes[note.Identity] = note
	}
	return notes, errs
}

// TargetPath decides where a note belongs in this vault when it does not
// exist yet: Logseq pages are named by title, Obsidian notes route to a
// folder by type, and Quarto notes land in posts or, when marked
// interactive, as .qmd under visualizations.
func (v *Vault) TargetPath(note *model.Note) string {
	switch v.Platform {
	case model.Logseq:
		return filepath.Join(v.Root, note.Title()+".md")
	case model.Obsidian:
		folder := v.cfg.Platforms.Obsidian.FolderFor(note.Type)
		return filepath.Join(v.Root, folder, note.Title()+".md")
	case model.Quarto:
		if isInteractive(note) {
			dir := v.cfg.Platforms.Quarto.VisualizationsDir
			return filepath.Join(v.Root, dir, note.Identity+".qmd")
		}
		return filepath.Join(v.Root, v.cfg.Platforms.Quarto.PostsDir, note.Identity+".md")
	default:
		return filepath.Join(v.Root, note.Identity+".md")
	}
}

// isInteractive reports whether the note asks for Quarto's executable
// document form: an explicit interactive flag, or a visualization tag.
// Tags arrive as "tags" on most platforms and as "categories" once the
// metadata has been transformed for Quarto, so both keys count.
func isInteractive(note *model.Note) bool {
	switch v := note.Meta["interactive"].(type) {
	case bool:
		if v {
			return true
		}
	case string:
		if strings.EqualFold(v, "true") {
			return true
		}
	}
	rec := frontmatter.Record(note.Meta)
	for _, key := range []string{"tags", "categories"} {
		for _, tag := range rec.StringList(key) {
			if tag == "visualization" {
				return true
			}
		}
	}
	return false
}

// Store renders the note in this platform's on-disk form and writes it,
// creating parent directories as needed. Notes without a path yet are
// routed with TargetPath.
func (v *Vault) Store(note *model.Note) error {
	path := note.Path
	if path == "" {
		path = v.TargetPath(note)
		note.Path = path
	}

	doc := &extract.Document{
		Meta:     frontmatter.Record(note.Meta),
		Type:     note.Type,
		Preamble: note.Preamble,
		Sections: note.Sections,
	}
	content, err := extract.Render(doc, v.Platform)
	if err != nil {
		return fmt.Errorf("render %s: %w", note.Identity, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	// #nosec G306 - note files should be readable by user tools
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Walk visits every note file, useful for commands that only need paths.
func (v *Vault) Walk(fn func(path string, d fs.DirEntry) error) error {
	return filepath.WalkDir(v.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			for _, dir := range skipDirs {
				if d.Name() == dir {
					return filepath.SkipDir
				}
			}
			return nil
		}
		return fn(path, d)
	})
}
