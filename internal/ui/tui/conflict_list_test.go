package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/metamechanic/notesync/internal/model"
	"github.com/metamechanic/notesync/internal/sync"
)

func conflictFixtures() []sync.Conflict {
	return []sync.Conflict{
		{
			Identity:      "alan-turing",
			Section:       "bio",
			Source:        model.Logseq,
			Target:        model.Obsidian,
			SourceContent: "- Born in 1912 (logseq edit)",
			TargetContent: "Born in 1912 (obsidian edit)",
			SourcePath:    "/graphs/main/pages/Alan Turing.md",
			TargetPath:    "/vaults/main/People/Alan Turing.md",
			Reason:        "edited on both platforms since last sync",
			DetectedAt:    time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			Identity:   "ada-lovelace",
			Section:    "works",
			Source:     model.Logseq,
			Target:     model.Quarto,
			DetectedAt: time.Date(2024, 6, 2, 11, 0, 0, 0, time.UTC),
		},
	}
}

func TestConflictList_ListView(t *testing.T) {
	m := NewConflictListModel(conflictFixtures())
	view := m.View()

	for _, want := range []string{"Unresolved conflicts", "alan-turing", "bio", "ada-lovelace"} {
		if !strings.Contains(view, want) {
			t.Errorf("list view missing %q:\n%s", want, view)
		}
	}
}

func TestConflictList_EmptyState(t *testing.T) {
	m := NewConflictListModel(nil)
	view := m.View()

	if !strings.Contains(view, "No conflicts") {
		t.Errorf("empty view = %q", view)
	}
}

func TestConflictList_EnterShowsDetail(t *testing.T) {
	m := NewConflictListModel(conflictFixtures())

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	detail := updated.(ConflictListModel)

	if detail.phase != phaseDetail {
		t.Fatalf("phase = %v", detail.phase)
	}
	view := detail.View()
	for _, want := range []string{"alan-turing / bio", "Logseq", "Obsidian", "(logseq edit)", "(obsidian edit)"} {
		if !strings.Contains(view, want) {
			t.Errorf("detail view missing %q:\n%s", want, view)
		}
	}
}

func TestConflictList_BackReturnsToList(t *testing.T) {
	m := NewConflictListModel(conflictFixtures())

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	updated, _ = updated.(ConflictListModel).Update(tea.KeyMsg{Type: tea.KeyEsc})

	if updated.(ConflictListModel).phase != phaseList {
		t.Errorf("phase = %v", updated.(ConflictListModel).phase)
	}
}

func TestConflictList_QuitSetsQuitting(t *testing.T) {
	m := NewConflictListModel(conflictFixtures())

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !updated.(ConflictListModel).quitting {
		t.Error("q did not quit")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
	if updated.(ConflictListModel).View() != "" {
		t.Error("quitting view should be empty")
	}
}

func TestConflictList_MissingSectionPlaceholder(t *testing.T) {
	conflicts := []sync.Conflict{{
		Identity: "x", Section: "s",
		Source: model.Logseq, Target: model.Obsidian,
	}}
	m := NewConflictListModel(conflicts)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.Contains(updated.(ConflictListModel).View(), "(section missing)") {
		t.Error("missing sections should render a placeholder")
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"a long path that overflows", 10, "a long ..."},
		{"abc", 2, "ab"},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		if got := truncateText(tt.in, tt.width); got != tt.want {
			t.Errorf("truncateText(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short line", 20, "short line"},
		{"one two three four", 9, "one two\nthree\nfour"},
		{"untouched when width is zero", 0, "untouched when width is zero"},
		{"", 10, ""},
	}
	for _, tt := range tests {
		if got := wrapText(tt.in, tt.width); got != tt.want {
			t.Errorf("wrapText(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
