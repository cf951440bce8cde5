package sync

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/metamechanic/notesync/internal/config"
	"github.com/metamechanic/notesync/internal/ledger"
	"github.com/metamechanic/notesync/internal/logging"
	"github.com/metamechanic/notesync/internal/model"
	"github.com/metamechanic/notesync/internal/schema"
	"github.com/metamechanic/notesync/internal/util"
	"github.com/metamechanic/notesync/internal/vault"
)

// Options configures one sync run.
type Options struct {
	// Source is the platform whose edits win by default.
	Source model.Platform

	// Targets are the platforms to sync toward. Empty means every other
	// platform.
	Targets []model.Platform

	// Bidirectional also copies target-side edits back to the source.
	Bidirectional bool

	// File restricts the run to the note stored at this path.
	File string

	// DryRun previews the plan without writing anything.
	DryRun bool
}

// Synchronizer wires the vaults, schema, ledger, and conflict store into
// runnable sync operations.
type Synchronizer struct {
	cfg       *config.Config
	schema    *schema.Schema
	ledger    *ledger.Ledger
	conflicts *ConflictStore
	vaults    map[model.Platform]*vault.Vault
}

// New builds a Synchronizer from configuration. The ledger and conflict
// store load eagerly so a corrupt state surfaces before any planning.
func New(cfg *config.Config, s *schema.Schema, baseDir string) (*Synchronizer, error) {
	led, err := ledger.New(util.ExpandPath(cfg.Ledger.Path, baseDir))
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	// Conflicts persist next to the ledger so both state files live together.
	conflicts, err := NewConflictStore(filepath.Join(filepath.Dir(led.Path()), "conflicts.json"))
	if err != nil {
		return nil, fmt.Errorf("conflict store: %w", err)
	}

	vaults := make(map[model.Platform]*vault.Vault, len(model.AllPlatforms()))
	for _, p := range model.AllPlatforms() {
		vaults[p] = vault.New(p, cfg, s, baseDir)
	}

	return &Synchronizer{
		cfg:       cfg,
		schema:    s,
		ledger:    led,
		conflicts: conflicts,
		vaults:    vaults,
	}, nil
}

// Ledger exposes the loaded ledger, mainly for inspection commands.
func (s *Synchronizer) Ledger() *ledger.Ledger { return s.ledger }

// ConflictStore exposes the persisted conflicts.
func (s *Synchronizer) ConflictStore() *ConflictStore { return s.conflicts }

// Vault returns the platform's vault.
func (s *Synchronizer) Vault(p model.Platform) *vault.Vault { return s.vaults[p] }

// Run executes one sync pass from the source toward each target, then
// persists the ledger and conflict store. Dry runs persist nothing.
func (s *Synchronizer) Run(opts Options) (*Result, error) {
	defer logging.Timer("sync")()

	if !opts.Source.IsValid() {
		return nil, fmt.Errorf("invalid source platform %q", opts.Source)
	}
	targets := opts.Targets
	if len(targets) == 0 {
		for _, p := range model.AllPlatforms() {
			if p != opts.Source {
				targets = append(targets, p)
			}
		}
	}
	for _, t := range targets {
		if !t.IsValid() {
			return nil, fmt.Errorf("invalid target platform %q", t)
		}
		if t == opts.Source {
			return nil, fmt.Errorf("source and target are both %s", t)
		}
	}

	logging.Debug("starting sync run",
		logging.Platform(string(opts.Source)),
		logging.Operation("sync"),
		logging.Count(len(targets)))

	result := &Result{
		Source:        opts.Source,
		Targets:       targets,
		Bidirectional: opts.Bidirectional,
		DryRun:        opts.DryRun,
	}

	notes := make(map[model.Platform]map[string]*model.Note)
	for _, p := range append([]model.Platform{opts.Source}, targets...) {
		loaded, errs := s.vaults[p].LoadAll()
		if loaded == nil {
			// Discovery failed outright, usually a mistyped root in the
			// config. Planning against an empty vault would be worse.
			return nil, fmt.Errorf("%s vault: %w", p, errs[0])
		}
		for _, err := range errs {
			logging.Warn("note skipped",
				logging.Platform(string(p)),
				logging.Err(err))
		}
		notes[p] = loaded
	}

	if opts.File != "" {
		identity, err := s.identityForFile(opts.File, notes)
		if err != nil {
			return nil, err
		}
		for p, m := range notes {
			if note, ok := m[identity]; ok {
				notes[p] = map[string]*model.Note{identity: note}
			} else {
				notes[p] = map[string]*model.Note{}
			}
		}
	} else if len(notes) == len(model.AllPlatforms()) {
		// Only a full, unscoped run sees every platform, so only then can
		// a note's absence everywhere mean it was deleted.
		s.pruneLedger(notes)
	}

	planner := &Planner{
		Schema:        s.schema,
		Ledger:        s.ledger,
		Bidirectional: opts.Bidirectional,
	}
	executor := &Executor{
		Vaults:    s.vaults,
		Ledger:    s.ledger,
		Conflicts: s.conflicts,
		DryRun:    opts.DryRun,
	}

	for _, target := range targets {
		directives := planner.Plan(opts.Source, target, notes[opts.Source], notes[target])
		result.Sections = append(result.Sections, executor.Apply(directives, notes)...)
	}

	if !opts.DryRun {
		if err := s.ledger.Save(); err != nil {
			return result, fmt.Errorf("ledger save: %w", err)
		}
		if err := s.conflicts.Save(); err != nil {
			return result, fmt.Errorf("conflict store save: %w", err)
		}
	}

	logging.Debug("sync run completed",
		logging.Platform(string(opts.Source)),
		logging.Count(len(result.Sections)))
	return result, nil
}

// pruneLedger drops ledger entries for notes that no longer exist on any
// platform, so deleted notes do not leave stale sync history behind.
func (s *Synchronizer) pruneLedger(notes map[model.Platform]map[string]*model.Note) {
	for key := range s.ledger.Entries {
		identity, section, ok := strings.Cut(key, "/")
		if !ok {
			continue
		}
		present := false
		for _, m := range notes {
			if _, ok := m[identity]; ok {
				present = true
				break
			}
		}
		if present {
			continue
		}
		logging.Debug("pruning ledger entry for deleted note",
			logging.Note(identity),
			logging.Section(section))
		s.ledger.Remove(identity, section)
	}
}

// identityForFile resolves a --file path to the note identity it holds.
func (s *Synchronizer) identityForFile(path string, notes map[model.Platform]map[string]*model.Note) (string, error) {
	abs, err := filepath.Abs(util.ExpandPath(path, ""))
	if err != nil {
		return "", err
	}
	for _, m := range notes {
		for identity, note := range m {
			notePath, err := filepath.Abs(note.Path)
			if err != nil {
				continue
			}
			if notePath == abs {
				return identity, nil
			}
		}
	}
	return "", fmt.Errorf("%s is not a note in any configured vault", path)
}
