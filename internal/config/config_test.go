package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/metamechanic/notesync/internal/model"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Platforms.Obsidian.DefaultFolder != "Notes" {
		t.Errorf("DefaultFolder = %q", cfg.Platforms.Obsidian.DefaultFolder)
	}
	if cfg.Platforms.Quarto.PostsDir != "posts" {
		t.Errorf("PostsDir = %q", cfg.Platforms.Quarto.PostsDir)
	}
	if cfg.DefaultSourcePlatform() != model.Logseq {
		t.Errorf("DefaultSourcePlatform = %v", cfg.DefaultSourcePlatform())
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("Debounce = %v", cfg.Watch.Debounce)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
platforms:
  logseq:
    graph: /graphs/main
  obsidian:
    vault: /vaults/main
    folders:
      person: Humans
sync:
  default_source: obsidian
  bidirectional: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath returned error: %v", err)
	}

	if got := cfg.Platforms.Logseq.PagesPath(dir); got != "/graphs/main/pages" {
		t.Errorf("PagesPath = %q", got)
	}
	if cfg.DefaultSourcePlatform() != model.Obsidian {
		t.Errorf("DefaultSourcePlatform = %v", cfg.DefaultSourcePlatform())
	}
	if !cfg.Sync.Bidirectional {
		t.Error("Bidirectional not loaded")
	}
	if got := cfg.Platforms.Obsidian.FolderFor("person"); got != "Humans" {
		t.Errorf("FolderFor(person) = %q", got)
	}
	// Unmapped types fall back to the default folder.
	if got := cfg.Platforms.Obsidian.FolderFor("gadget"); got != "Notes" {
		t.Errorf("FolderFor(gadget) = %q", got)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("NOTESYNC_OBSIDIAN_VAULT", "/env/vault")
	t.Setenv("NOTESYNC_SYNC_BIDIRECTIONAL", "yes")
	t.Setenv("NOTESYNC_WATCH_DEBOUNCE", "500ms")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("platforms:\n  obsidian:\n    vault: /file/vault\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath returned error: %v", err)
	}

	if cfg.Platforms.Obsidian.Vault != "/env/vault" {
		t.Errorf("env override lost: %q", cfg.Platforms.Obsidian.Vault)
	}
	if !cfg.Sync.Bidirectional {
		t.Error("bidirectional env override lost")
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Debounce = %v", cfg.Watch.Debounce)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := Default()
	cfg.Platforms.Logseq.Graph = "/graphs/roundtrip"
	if err := cfg.SaveToPath(path); err != nil {
		t.Fatalf("SaveToPath returned error: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath returned error: %v", err)
	}
	if loaded.Platforms.Logseq.Graph != "/graphs/roundtrip" {
		t.Errorf("Graph = %q", loaded.Platforms.Logseq.Graph)
	}
}

func TestRootFor(t *testing.T) {
	cfg := Default()
	cfg.Platforms.Logseq.Graph = "/g"
	cfg.Platforms.Obsidian.Vault = "/v"
	cfg.Platforms.Quarto.Project = "/q"

	tests := []struct {
		platform model.Platform
		want     string
	}{
		{model.Logseq, "/g/pages"},
		{model.Obsidian, "/v"},
		{model.Quarto, "/q"},
	}
	for _, tt := range tests {
		if got := cfg.RootFor(tt.platform, ""); got != tt.want {
			t.Errorf("RootFor(%s) = %q, want %q", tt.platform, got, tt.want)
		}
	}
}

func TestDefaultSourcePlatform_InvalidFallsBack(t *testing.T) {
	cfg := Default()
	cfg.Sync.DefaultSource = "notion"
	if cfg.DefaultSourcePlatform() != model.Logseq {
		t.Errorf("invalid source should fall back to logseq")
	}
}
