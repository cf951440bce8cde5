package sync

import (
	"github.com/metamechanic/notesync/internal/frontmatter"
	"github.com/metamechanic/notesync/internal/ledger"
	"github.com/metamechanic/notesync/internal/logging"
	"github.com/metamechanic/notesync/internal/model"
	"github.com/metamechanic/notesync/internal/vault"
)

// Executor applies a planned directive list: sections are written into the
// in-memory target notes first, then each dirty note is rewritten once.
// Failures are isolated per note; the rest of the run proceeds.
type Executor struct {
	Vaults    map[model.Platform]*vault.Vault
	Ledger    *ledger.Ledger
	Conflicts *ConflictStore

	// DryRun reports what would happen without writing files, recording
	// ledger hashes, or persisting conflicts.
	DryRun bool
}

// noteKey addresses one platform's rendition of one note.
type noteKey struct {
	platform model.Platform
	identity string
}

// Apply executes directives against the loaded notes. The notes map is
// mutated: created notes are added so later directives for the same note
// land in the same file.
func (e *Executor) Apply(directives []Directive, notes map[model.Platform]map[string]*model.Note) []SectionResult {
	defer logging.Timer("execute")()

	results := make([]SectionResult, 0, len(directives))
	dirty := make(map[noteKey]*model.Note)
	pending := make(map[noteKey][]int)

	for _, d := range directives {
		sr := SectionResult{Directive: d, Action: d.Action, Message: d.Reason}

		switch d.Action {
		case ActionSkip:
			// Nothing to do.

		case ActionConfirm:
			if !e.DryRun {
				e.Ledger.Record(d.Identity, d.Section, d.Source, d.SourceHash)
				e.Ledger.Record(d.Identity, d.Section, d.Target, d.TargetHash)
				e.Conflicts.Resolve(d.Identity, d.Section)
			}

		case ActionConflict:
			c := e.buildConflict(d, notes)
			sr.Conflict = &c
			if !e.DryRun {
				e.Conflicts.Add(c)
			}

		case ActionCreate, ActionUpdate:
			key := noteKey{d.Target, d.Identity}
			note, err := e.stageSection(d, notes)
			if err != nil {
				sr.Action = ActionFailed
				sr.Error = err
				break
			}
			dirty[key] = note
			pending[key] = append(pending[key], len(results))
		}

		results = append(results, sr)
	}

	e.flush(dirty, pending, results)
	return results
}

// stageSection writes the directive's payload into the in-memory target
// note, creating the note from the source's metadata when needed.
func (e *Executor) stageSection(d Directive, notes map[model.Platform]map[string]*model.Note) (*model.Note, error) {
	src := notes[d.Source][d.Identity]
	if src == nil {
		return nil, &FileError{Path: d.Identity, Op: "stage", Err: errMissingSource}
	}

	target := notes[d.Target][d.Identity]
	if target == nil {
		meta := frontmatter.Transform(frontmatter.Record(src.Meta), d.Target, src.Title())
		target = &model.Note{
			Identity: d.Identity,
			Type:     src.Type,
			Platform: d.Target,
			Meta:     meta,
		}
		if notes[d.Target] == nil {
			notes[d.Target] = make(map[string]*model.Note)
		}
		notes[d.Target][d.Identity] = target
	} else {
		target.Meta = frontmatter.Merge(frontmatter.Record(src.Meta), frontmatter.Record(target.Meta), d.Target, src.Title())
	}

	heading := ""
	if sec, ok := src.Section(d.Section); ok {
		heading = sec.Heading
	}
	target.SetSection(model.Section{
		Name:        d.Section,
		Heading:     heading,
		Format:      d.TargetFormat,
		Content:     d.Payload,
		Schematized: true,
	})
	return target, nil
}

// flush writes each dirty note once and records ledger hashes for the
// directives it carried. A failed write fails only that note's directives.
func (e *Executor) flush(dirty map[noteKey]*model.Note, pending map[noteKey][]int, results []SectionResult) {
	for key, note := range dirty {
		if e.DryRun {
			continue
		}

		v := e.Vaults[key.platform]
		if err := v.Store(note); err != nil {
			logging.Error("note write failed",
				logging.Platform(string(key.platform)),
				logging.Note(key.identity),
				logging.Err(err))
			for _, i := range pending[key] {
				results[i].Action = ActionFailed
				results[i].Error = &FileError{Path: note.Path, Op: "write", Err: err}
			}
			continue
		}

		for _, i := range pending[key] {
			d := results[i].Directive
			e.Ledger.Record(d.Identity, d.Section, d.Source, d.SourceHash)
			e.Ledger.Record(d.Identity, d.Section, d.Target, d.TargetHash)
			e.Conflicts.Resolve(d.Identity, d.Section)
			logging.Debug("section synced",
				logging.Note(d.Identity),
				logging.Section(d.Section),
				logging.Platform(string(d.Target)))
		}
	}
}

// buildConflict captures both renditions for the conflicts viewer.
func (e *Executor) buildConflict(d Directive, notes map[model.Platform]map[string]*model.Note) Conflict {
	c := Conflict{
		Identity: d.Identity,
		Section:  d.Section,
		Source:   d.Source,
		Target:   d.Target,
		Reason:   d.Reason,
	}
	if src := notes[d.Source][d.Identity]; src != nil {
		c.SourcePath = src.Path
		if sec, ok := src.Section(d.Section); ok {
			c.SourceContent = sec.Content
		}
	}
	if tgt := notes[d.Target][d.Identity]; tgt != nil {
		c.TargetPath = tgt.Path
		if sec, ok := tgt.Section(d.Section); ok {
			c.TargetContent = sec.Content
		}
	}
	return c
}
