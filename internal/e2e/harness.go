// Package e2e provides testing infrastructure for end-to-end CLI tests.
// It includes a harness for running CLI commands against isolated temp
// vaults, fixture helpers, and output assertions.
package e2e

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/metamechanic/notesync/internal/cli"
	"github.com/metamechanic/notesync/internal/config"
)

// Result contains the outcome of running a CLI command.
type Result struct {
	// Stdout contains the captured standard output.
	Stdout string
	// Err is the error returned by the CLI command, if any.
	Err error
	// ExitCode is the inferred exit code (0 for success, 1 for error).
	ExitCode int
}

// Success returns true if the command completed without error.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Harness runs CLI commands against a config file whose vaults, schema,
// ledger, and conflict store all live inside one temp directory.
type Harness struct {
	t       *testing.T
	root    string
	cfgPath string
}

// NewHarness creates an isolated test environment: a Logseq graph, an
// Obsidian vault, and a Quarto project under a fresh temp root, plus a
// config file pointing at all three.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	root := t.TempDir()
	for _, dir := range []string{
		filepath.Join(root, "graph", "pages"),
		filepath.Join(root, "vault"),
		filepath.Join(root, "project"),
	} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	cfg := config.Default()
	cfg.Platforms.Logseq.Graph = filepath.Join(root, "graph")
	cfg.Platforms.Obsidian.Vault = filepath.Join(root, "vault")
	cfg.Platforms.Quarto.Project = filepath.Join(root, "project")
	cfg.Schema.Path = filepath.Join(root, "schema.json")
	cfg.Ledger.Path = filepath.Join(root, "state", "ledger.json")
	cfg.Output.Progress = false

	cfgPath := filepath.Join(root, "config.yaml")
	if err := cfg.SaveToPath(cfgPath); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	return &Harness{t: t, root: root, cfgPath: cfgPath}
}

// Root returns the temp directory everything lives under.
func (h *Harness) Root() string {
	return h.root
}

// Path returns the full path for a path relative to the harness root.
func (h *Harness) Path(relPath string) string {
	return filepath.Join(h.root, relPath)
}

// Run executes a CLI command with the harness config and captures stdout.
func (h *Harness) Run(args ...string) *Result {
	h.t.Helper()

	full := append([]string{"notesync", "--config", h.cfgPath}, args...)

	oldStdout := os.Stdout
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		h.t.Fatalf("failed to create stdout pipe: %v", err)
	}
	os.Stdout = stdoutW

	// Read stdout concurrently: a command that prints more than the pipe
	// buffer size would otherwise block on the full buffer.
	var stdoutBuf bytes.Buffer
	var copyErr error
	copyDone := make(chan struct{})
	go func() {
		defer close(copyDone)
		_, copyErr = io.Copy(&stdoutBuf, stdoutR)
	}()

	cmdErr := cli.Run(context.Background(), full)

	if err := stdoutW.Close(); err != nil {
		h.t.Fatalf("failed to close stdout pipe writer: %v", err)
	}
	os.Stdout = oldStdout

	<-copyDone
	if copyErr != nil {
		h.t.Fatalf("failed to read captured stdout: %v", copyErr)
	}

	exitCode := 0
	if cmdErr != nil {
		exitCode = 1
	}

	return &Result{
		Stdout:   stdoutBuf.String(),
		Err:      cmdErr,
		ExitCode: exitCode,
	}
}
