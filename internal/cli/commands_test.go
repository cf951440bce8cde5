package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/metamechanic/notesync/internal/config"
)

// testEnv writes a config file pointing every vault into a temp root and
// returns the config path plus the root.
func testEnv(t *testing.T) (string, string) {
	t.Helper()

	root := t.TempDir()
	graph := filepath.Join(root, "graph")
	vault := filepath.Join(root, "vault")
	project := filepath.Join(root, "project")
	for _, dir := range []string{filepath.Join(graph, "pages"), vault, project} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.Platforms.Logseq.Graph = graph
	cfg.Platforms.Obsidian.Vault = vault
	cfg.Platforms.Quarto.Project = project
	cfg.Schema.Path = filepath.Join(root, "schema.json")
	cfg.Ledger.Path = filepath.Join(root, "state", "ledger.json")
	cfg.Output.Progress = false

	cfgPath := filepath.Join(root, "config.yaml")
	if err := cfg.SaveToPath(cfgPath); err != nil {
		t.Fatal(err)
	}
	return cfgPath, root
}

func seedLogseqNote(t *testing.T, root string) {
	t.Helper()
	content := "title:: Alan Turing\ntype:: person\n\n## Bio\n\n- Born in 1912\n- Died in 1954\n"
	path := filepath.Join(root, "graph", "pages", "Alan Turing.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSyncCommand(t *testing.T) {
	t.Run("creates target note", func(t *testing.T) {
		cfgPath, root := testEnv(t)
		seedLogseqNote(t, root)

		output, err := captureOutput(t, func() error {
			return Run(context.Background(), []string{
				"notesync", "--config", cfgPath,
				"sync", "--source", "logseq", "--target", "obsidian",
			})
		})
		if err != nil {
			t.Fatalf("Run() error = %v\n%s", err, output)
		}
		if !strings.Contains(output, "Synced logseq -> obsidian") {
			t.Errorf("output = %q", output)
		}
		if !strings.Contains(output, "Created:   1") {
			t.Errorf("output = %q", output)
		}

		target := filepath.Join(root, "vault", "People", "Alan Turing.md")
		if _, err := os.Stat(target); err != nil {
			t.Errorf("target note not written: %v", err)
		}
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		cfgPath, root := testEnv(t)
		seedLogseqNote(t, root)

		output, err := captureOutput(t, func() error {
			return Run(context.Background(), []string{
				"notesync", "--config", cfgPath,
				"sync", "--dry-run", "--target", "obsidian",
			})
		})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if !strings.Contains(output, "Dry run - no changes made") {
			t.Errorf("output = %q", output)
		}
		if _, err := os.Stat(filepath.Join(root, "vault", "People", "Alan Turing.md")); !os.IsNotExist(err) {
			t.Error("dry run wrote a file")
		}
	})

	t.Run("verbose lists section outcomes", func(t *testing.T) {
		cfgPath, root := testEnv(t)
		seedLogseqNote(t, root)

		output, err := captureOutput(t, func() error {
			return Run(context.Background(), []string{
				"notesync", "--config", cfgPath, "--verbose",
				"sync", "--target", "obsidian",
			})
		})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if !strings.Contains(output, "alan-turing / bio") {
			t.Errorf("output = %q", output)
		}
	})

	t.Run("invalid source platform", func(t *testing.T) {
		cfgPath, _ := testEnv(t)
		_, err := captureOutput(t, func() error {
			return Run(context.Background(), []string{
				"notesync", "--config", cfgPath, "sync", "--source", "roam",
			})
		})
		if err == nil {
			t.Error("expected error for unknown platform")
		}
	})

	t.Run("source equals target", func(t *testing.T) {
		cfgPath, _ := testEnv(t)
		_, err := captureOutput(t, func() error {
			return Run(context.Background(), []string{
				"notesync", "--config", cfgPath,
				"sync", "--source", "logseq", "--target", "logseq",
			})
		})
		if err == nil {
			t.Error("expected error when source and target match")
		}
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := captureOutput(t, func() error {
			return Run(context.Background(), []string{
				"notesync", "--config", "/nonexistent/config.yaml", "sync",
			})
		})
		if err == nil {
			t.Error("expected error for missing config")
		}
	})
}

func TestConflictsCommand_Empty(t *testing.T) {
	cfgPath, _ := testEnv(t)

	output, err := captureOutput(t, func() error {
		return Run(context.Background(), []string{"notesync", "--config", cfgPath, "conflicts"})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(output, "No conflicts") {
		t.Errorf("output = %q", output)
	}
}

func TestConflictsCommand_ListsWithoutTTY(t *testing.T) {
	cfgPath, root := testEnv(t)
	seedLogseqNote(t, root)

	// First run records the section, then both sides diverge.
	if _, err := captureOutput(t, func() error {
		return Run(context.Background(), []string{
			"notesync", "--config", cfgPath, "sync", "--target", "obsidian",
		})
	}); err != nil {
		t.Fatalf("initial sync: %v", err)
	}

	logseqPath := filepath.Join(root, "graph", "pages", "Alan Turing.md")
	obsidianPath := filepath.Join(root, "vault", "People", "Alan Turing.md")
	if err := os.WriteFile(logseqPath, []byte("title:: Alan Turing\ntype:: person\n\n## Bio\n\n- Edited in logseq\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(obsidianPath)
	if err != nil {
		t.Fatal(err)
	}
	edited := strings.Replace(string(data), "Born in 1912", "Edited in obsidian", 1)
	if err := os.WriteFile(obsidianPath, []byte(edited), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := captureOutput(t, func() error {
		return Run(context.Background(), []string{
			"notesync", "--config", cfgPath, "sync", "--target", "obsidian",
		})
	}); err != nil {
		t.Fatalf("conflicting sync: %v", err)
	}

	// Stdout is a pipe here, so the command must fall back to the plain
	// listing instead of the TUI.
	output, err := captureOutput(t, func() error {
		return Run(context.Background(), []string{"notesync", "--config", cfgPath, "conflicts"})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(output, `alan-turing: section "bio" differs between logseq and obsidian`) {
		t.Errorf("output = %q", output)
	}
}

func TestInitCommand(t *testing.T) {
	root := t.TempDir()
	t.Setenv("NOTESYNC_LOGSEQ_GRAPH", filepath.Join(root, "graph"))
	t.Setenv("NOTESYNC_OBSIDIAN_VAULT", filepath.Join(root, "vault"))
	t.Setenv("NOTESYNC_QUARTO_PROJECT", filepath.Join(root, "project"))
	t.Setenv("NOTESYNC_SCHEMA_PATH", filepath.Join(root, "schema.json"))
	cfgPath := filepath.Join(root, "config.yaml")

	output, err := captureOutput(t, func() error {
		return Run(context.Background(), []string{"notesync", "--config", cfgPath, "init"})
	})
	if err != nil {
		t.Fatalf("Run() error = %v\n%s", err, output)
	}
	if !strings.Contains(output, "wrote config") {
		t.Errorf("output = %q", output)
	}

	for _, path := range []string{
		cfgPath,
		filepath.Join(root, "schema.json"),
		filepath.Join(root, "graph", "pages"),
		filepath.Join(root, "vault"),
		filepath.Join(root, "project", "posts"),
		filepath.Join(root, "project", "visualizations"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("init did not create %s: %v", path, err)
		}
	}

	// A second run leaves the existing files alone.
	output, err = captureOutput(t, func() error {
		return Run(context.Background(), []string{"notesync", "--config", cfgPath, "init"})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(output, "config exists") || !strings.Contains(output, "schema exists") {
		t.Errorf("output = %q", output)
	}
}

func TestConfigCommand(t *testing.T) {
	cfgPath, root := testEnv(t)

	output, err := captureOutput(t, func() error {
		return Run(context.Background(), []string{"notesync", "--config", cfgPath, "config"})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, want := range []string{"Configuration", "graph:", "Resolved paths", filepath.Join(root, "graph", "pages")} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}
