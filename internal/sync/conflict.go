package sync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/metamechanic/notesync/internal/model"
	"github.com/metamechanic/notesync/internal/util"
)

// Conflict records one section that was edited on both platforms since the
// last sync. Conflicts are resolved manually: the user edits one side and
// reruns; the tool never merges diverged content.
type Conflict struct {
	Identity string         `json:"identity"`
	Section  string         `json:"section"`
	Source   model.Platform `json:"source"`
	Target   model.Platform `json:"target"`

	// SourceContent and TargetContent hold both renditions so the
	// conflicts viewer can show them side by side.
	SourceContent string `json:"source_content"`
	TargetContent string `json:"target_content"`

	SourcePath string `json:"source_path,omitempty"`
	TargetPath string `json:"target_path,omitempty"`

	Reason     string    `json:"reason"`
	DetectedAt time.Time `json:"detected_at"`
}

// Key identifies the conflict's section across runs.
func (c Conflict) Key() string {
	return c.Identity + "/" + c.Section
}

// Summary returns a one-line description for listings.
func (c Conflict) Summary() string {
	return fmt.Sprintf("%s: section %q differs between %s and %s", c.Identity, c.Section, c.Source, c.Target)
}

// ConflictStore persists unresolved conflicts between runs so the
// conflicts command can list them without re-scanning the vaults.
type ConflictStore struct {
	Conflicts map[string]Conflict `json:"conflicts"`
	path      string
}

// NewConflictStore loads the store at path, defaulting to
// ~/.notesync/conflicts.json. Missing or corrupt files start empty.
func NewConflictStore(path string) (*ConflictStore, error) {
	if path == "" {
		path = filepath.Join(util.ConfigPath(), "conflicts.json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}

	store := &ConflictStore{
		Conflicts: make(map[string]Conflict),
		path:      path,
	}
	// #nosec G304 - path comes from trusted configuration
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, store); err != nil {
			store.Conflicts = make(map[string]Conflict)
		}
	}
	store.path = path
	return store, nil
}

// Add records a conflict, replacing any earlier one for the same section.
func (s *ConflictStore) Add(c Conflict) {
	if c.DetectedAt.IsZero() {
		c.DetectedAt = time.Now()
	}
	s.Conflicts[c.Key()] = c
}

// Resolve drops a conflict once the section syncs cleanly again.
func (s *ConflictStore) Resolve(identity, section string) {
	delete(s.Conflicts, identity+"/"+section)
}

// List returns the stored conflicts in key order.
func (s *ConflictStore) List() []Conflict {
	keys := make([]string, 0, len(s.Conflicts))
	for k := range s.Conflicts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Conflict, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.Conflicts[k])
	}
	return out
}

// Len returns the number of stored conflicts.
func (s *ConflictStore) Len() int {
	return len(s.Conflicts)
}

// Save persists the store.
func (s *ConflictStore) Save() error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	// #nosec G306 - conflict listings should be readable by user
	return os.WriteFile(s.path, data, 0o644)
}
