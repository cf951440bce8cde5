package sync

import (
	"fmt"
	"sort"

	"github.com/metamechanic/notesync/internal/convert"
	"github.com/metamechanic/notesync/internal/ledger"
	"github.com/metamechanic/notesync/internal/logging"
	"github.com/metamechanic/notesync/internal/model"
	"github.com/metamechanic/notesync/internal/schema"
)

// Action is the planned (and later applied) outcome for one section.
type Action string

const (
	// ActionCreate writes the section into a note that does not exist on
	// the target yet.
	ActionCreate Action = "create"

	// ActionUpdate rewrites the section inside an existing target note.
	ActionUpdate Action = "update"

	// ActionConfirm records ledger hashes for sides that already agree,
	// without writing anything.
	ActionConfirm Action = "confirm"

	// ActionSkip leaves the section alone.
	ActionSkip Action = "skip"

	// ActionConflict marks both-sides-edited sections for manual
	// resolution. Conflicts never write and never advance the ledger.
	ActionConflict Action = "conflict"

	// ActionFailed marks a directive whose execution errored.
	ActionFailed Action = "failed"
)

// Directive is one planned operation on one section of one note.
type Directive struct {
	Identity string
	Section  string
	Source   model.Platform
	Target   model.Platform

	Action Action
	State  State

	// Payload is the section content already converted to the target's
	// format. Only set for create/update.
	Payload string

	// TargetFormat is the format the payload is in.
	TargetFormat model.Format

	// SourceHash and TargetHash are the content hashes to record in the
	// ledger once the directive applies.
	SourceHash string
	TargetHash string

	// Reason explains skips and conflicts.
	Reason string
}

// Planner turns a pair of platform note sets into an ordered directive list
// by walking the decision table for every schematized section.
type Planner struct {
	Schema *schema.Schema
	Ledger *ledger.Ledger

	// Bidirectional also emits target-to-source directives when only the
	// target side changed. Without it those sections are reported, not
	// copied back.
	Bidirectional bool
}

// Plan builds directives for syncing source notes toward target notes.
// Directives come back sorted by (identity, section) so application order
// is deterministic.
func (p *Planner) Plan(
	source, target model.Platform,
	sourceNotes, targetNotes map[string]*model.Note,
) []Directive {
	defer logging.Timer("plan")()

	var directives []Directive

	for _, identity := range identityUnion(sourceNotes, targetNotes) {
		sourceNote := sourceNotes[identity]
		targetNote := targetNotes[identity]
		directives = append(directives, p.planNote(source, target, identity, sourceNote, targetNote)...)
	}

	sort.SliceStable(directives, func(i, j int) bool {
		if directives[i].Identity != directives[j].Identity {
			return directives[i].Identity < directives[j].Identity
		}
		return directives[i].Section < directives[j].Section
	})
	return directives
}

// planNote walks every section named on either side of one note.
func (p *Planner) planNote(source, target model.Platform, identity string, sourceNote, targetNote *model.Note) []Directive {
	noteType := schema.DefaultNoteType
	if sourceNote != nil {
		noteType = sourceNote.Type
	} else if targetNote != nil {
		noteType = targetNote.Type
	}

	var directives []Directive
	for _, name := range sectionUnion(sourceNote, targetNote) {
		d := p.planSection(source, target, identity, noteType, name, sourceNote, targetNote)
		directives = append(directives, d...)
	}
	return directives
}

// planSection applies the decision table to one section.
func (p *Planner) planSection(
	source, target model.Platform,
	identity, noteType, name string,
	sourceNote, targetNote *model.Note,
) []Directive {
	d := Directive{
		Identity: identity,
		Section:  name,
		Source:   source,
		Target:   target,
	}

	var sourceSec, targetSec model.Section
	var sourceExists, targetExists bool
	if sourceNote != nil {
		sourceSec, sourceExists = sourceNote.Section(name)
	}
	if targetNote != nil {
		targetSec, targetExists = targetNote.Section(name)
	}

	// Unschematized sections pass through opaque on their own platform.
	if (sourceExists && !sourceSec.Schematized) || (targetExists && !targetSec.Schematized) {
		d.Action, d.Reason = ActionSkip, "not in schema for note type "+noteType
		return []Directive{d}
	}

	policy, ok := p.Schema.Lookup(noteType, name)
	if !ok {
		d.Action, d.Reason = ActionSkip, "not in schema for note type "+noteType
		return []Directive{d}
	}
	if !policy.Sync {
		d.Action, d.Reason = ActionSkip, "sync disabled by schema"
		return []Directive{d}
	}
	// An exclusive section fails AllowsWrite for at least one side, so it
	// is never a copy source or destination.
	if !policy.AllowsWrite(d.Source) || !policy.AllowsWrite(d.Target) {
		exclusive, _ := policy.ExclusivePlatform()
		d.Action, d.Reason = ActionSkip, fmt.Sprintf("section is exclusive to %s", exclusive)
		return []Directive{d}
	}

	sourceHash := sourceSec.Hash()
	targetHash := targetSec.Hash()
	d.State = Classify(p.Ledger, identity, name, source, target,
		sourceHash, targetHash, sourceExists, targetExists)

	switch d.State {
	case StateAbsent:
		return nil

	case StateUnchanged:
		d.Action, d.Reason = ActionSkip, "unchanged since last sync"
		return []Directive{d}

	case StateTargetMissing:
		return p.copyDirective(d, sourceSec, policy, targetNote == nil)

	case StateSourceMissing:
		if p.Bidirectional {
			reverse := Directive{
				Identity: identity, Section: name,
				Source: target, Target: source,
				State: StateTargetMissing,
			}
			return p.copyDirective(reverse, targetSec, policy, sourceNote == nil)
		}
		d.Action, d.Reason = ActionSkip, "section exists only on "+string(target)
		return []Directive{d}

	case StateSourceChanged:
		return p.copyDirective(d, sourceSec, policy, false)

	case StateTargetChanged:
		if p.Bidirectional {
			reverse := Directive{
				Identity: identity, Section: name,
				Source: target, Target: source,
				State: StateSourceChanged,
			}
			return p.copyDirective(reverse, targetSec, policy, false)
		}
		d.Action, d.Reason = ActionSkip, "edited on "+string(target)+"; rerun with --bidirectional"
		return []Directive{d}

	case StateFirstRun, StateBothChanged:
		return p.reconcile(d, sourceSec, targetSec, policy)

	default:
		d.Action, d.Reason = ActionSkip, "unclassified state"
		return []Directive{d}
	}
}

// copyDirective converts the source section for the target and emits a
// create or update. Unconvertible content (code sections) downgrades to a
// logged skip rather than failing the run.
func (p *Planner) copyDirective(d Directive, src model.Section, policy schema.SectionPolicy, createNote bool) []Directive {
	targetFormat := policy.FormatFor(d.Target)
	payload, err := convert.Convert(src.Content, src.Format, targetFormat)
	if err != nil {
		logging.Warn("conversion unavailable, section left alone",
			logging.Note(d.Identity),
			logging.Section(d.Section),
			logging.Err(err))
		d.Action, d.Reason = ActionSkip, err.Error()
		return []Directive{d}
	}

	if d.Source == model.Logseq {
		payload = convert.LogseqSyntax(payload, d.Target)
	}

	d.Action = ActionUpdate
	if createNote {
		d.Action = ActionCreate
	}
	d.Payload = payload
	d.TargetFormat = targetFormat
	d.SourceHash = src.Hash()
	d.TargetHash = model.ContentHash(payload)
	return []Directive{d}
}

// reconcile handles the states where edits cannot be attributed to one
// side: if the source's rendition converts to exactly what the target
// already holds, the sides agree and only the ledger needs recording;
// otherwise the section is a conflict for manual resolution.
func (p *Planner) reconcile(d Directive, src, tgt model.Section, policy schema.SectionPolicy) []Directive {
	targetFormat := policy.FormatFor(d.Target)
	converted, err := convert.Convert(src.Content, src.Format, targetFormat)
	if err == nil {
		if d.Source == model.Logseq {
			converted = convert.LogseqSyntax(converted, d.Target)
		}
		if model.ContentHash(converted) == tgt.Hash() {
			d.Action = ActionConfirm
			d.Reason = "sides already agree"
			d.SourceHash = src.Hash()
			d.TargetHash = tgt.Hash()
			return []Directive{d}
		}
	}

	d.Action = ActionConflict
	if d.State == StateFirstRun {
		d.Reason = "no sync history and sides differ"
	} else {
		d.Reason = "edited on both platforms since last sync"
	}
	return []Directive{d}
}

// identityUnion returns the sorted union of note identities on both sides.
func identityUnion(a, b map[string]*model.Note) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for id := range a {
		seen[id] = struct{}{}
	}
	for id := range b {
		seen[id] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// sectionUnion returns the ordered union of section names: source order
// first, then target-only sections in their own order.
func sectionUnion(a, b *model.Note) []string {
	var names []string
	seen := make(map[string]struct{})
	add := func(n *model.Note) {
		if n == nil {
			return
		}
		for _, s := range n.Sections {
			if _, ok := seen[s.Name]; ok {
				continue
			}
			seen[s.Name] = struct{}{}
			names = append(names, s.Name)
		}
	}
	add(a)
	add(b)
	return names
}
