// Package ledger persists the per-section content hashes recorded at the end
// of each successful sync. The ledger is what lets change detection tell an
// edit on one platform apart from concurrent edits on both.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/metamechanic/notesync/internal/model"
	"github.com/metamechanic/notesync/internal/util"
)

// Entry records the hashes of one section as last synced. Hashes are kept
// per platform because format conversion makes each platform's rendition
// textually different even when they agree in meaning.
type Entry struct {
	Hashes   map[model.Platform]string `json:"hashes"`
	SyncedAt time.Time                 `json:"synced_at"`
}

// Ledger maps (note identity, section name) keys to their last-synced
// hashes for all platforms.
type Ledger struct {
	Version string           `json:"version"`
	Entries map[string]Entry `json:"entries"`
	path    string
}

const ledgerVersion = "1.0"

// Key builds the ledger key for a note identity and section name.
func Key(identity, section string) string {
	return identity + "/" + section
}

// New creates or loads the ledger at path. An empty path defaults to
// ~/.notesync/ledger.json. A corrupt or version-mismatched file starts
// fresh rather than failing the run.
func New(path string) (*Ledger, error) {
	if path == "" {
		path = filepath.Join(util.ConfigPath(), "ledger.json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}

	l := &Ledger{
		Version: ledgerVersion,
		Entries: make(map[string]Entry),
		path:    path,
	}

	// #nosec G304 - path comes from trusted configuration
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, l); err != nil {
			l.Entries = make(map[string]Entry)
		}
		if l.Version != ledgerVersion {
			l.Entries = make(map[string]Entry)
			l.Version = ledgerVersion
		}
	}

	l.path = path
	return l, nil
}

// Get returns the recorded entry for a note's section.
func (l *Ledger) Get(identity, section string) (Entry, bool) {
	entry, ok := l.Entries[Key(identity, section)]
	return entry, ok
}

// Hash returns the last-synced hash of a section on one platform.
func (l *Ledger) Hash(identity, section string, platform model.Platform) (string, bool) {
	entry, ok := l.Entries[Key(identity, section)]
	if !ok {
		return "", false
	}
	h, ok := entry.Hashes[platform]
	return h, ok
}

// Record stores a platform's hash for a section, preserving the other
// platforms' hashes in the same entry.
func (l *Ledger) Record(identity, section string, platform model.Platform, hash string) {
	key := Key(identity, section)
	entry, ok := l.Entries[key]
	if !ok {
		entry = Entry{Hashes: make(map[model.Platform]string)}
	}
	entry.Hashes[platform] = hash
	entry.SyncedAt = time.Now()
	l.Entries[key] = entry
}

// Remove drops a section's entry, e.g. when the note disappeared from every
// platform.
func (l *Ledger) Remove(identity, section string) {
	delete(l.Entries, Key(identity, section))
}

// Size returns the number of recorded sections.
func (l *Ledger) Size() int {
	return len(l.Entries)
}

// Save writes the ledger atomically: serialize to a temp file next to the
// destination, then rename. A crash mid-run never corrupts the previous
// ledger.
func (l *Ledger) Save() error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("ledger temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ledger write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ledger close: %w", err)
	}

	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ledger rename: %w", err)
	}
	return nil
}

// Path returns the ledger's on-disk location.
func (l *Ledger) Path() string {
	return l.path
}
