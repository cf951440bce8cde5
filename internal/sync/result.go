package sync

import (
	"fmt"
	"strings"

	"github.com/metamechanic/notesync/internal/model"
)

// SectionResult represents the outcome of syncing a single section.
type SectionResult struct {
	// Directive is the planned operation this result reports on.
	Directive Directive

	// Action is the action that was finally taken; it differs from the
	// directive's when execution failed.
	Action Action

	// Error contains any error that occurred during execution.
	Error error

	// Message provides additional context about the action.
	Message string

	// Conflict holds conflict details when Action is ActionConflict.
	Conflict *Conflict
}

// Success returns true if the section was processed without error.
func (sr *SectionResult) Success() bool {
	return sr.Action != ActionFailed
}

// Result contains the complete outcome of a sync run.
type Result struct {
	// Source is the source platform.
	Source model.Platform

	// Targets are the platforms synced toward.
	Targets []model.Platform

	// Bidirectional records whether reverse copies were allowed.
	Bidirectional bool

	// Sections contains the result for each processed section.
	Sections []SectionResult

	// DryRun indicates if this was a dry run (no changes made).
	DryRun bool
}

// Created returns sections written into new target notes.
func (r *Result) Created() []SectionResult { return r.filterByAction(ActionCreate) }

// Updated returns sections rewritten inside existing notes.
func (r *Result) Updated() []SectionResult { return r.filterByAction(ActionUpdate) }

// Confirmed returns sections whose sides already agreed.
func (r *Result) Confirmed() []SectionResult { return r.filterByAction(ActionConfirm) }

// Skipped returns sections left alone.
func (r *Result) Skipped() []SectionResult { return r.filterByAction(ActionSkip) }

// Conflicts returns sections needing manual resolution.
func (r *Result) Conflicts() []SectionResult { return r.filterByAction(ActionConflict) }

// Failed returns sections whose execution errored.
func (r *Result) Failed() []SectionResult { return r.filterByAction(ActionFailed) }

// HasConflicts returns true if there are unresolved conflicts.
func (r *Result) HasConflicts() bool {
	return len(r.Conflicts()) > 0
}

func (r *Result) filterByAction(action Action) []SectionResult {
	var filtered []SectionResult
	for _, sr := range r.Sections {
		if sr.Action == action {
			filtered = append(filtered, sr)
		}
	}
	return filtered
}

// Success returns true if no section failed.
func (r *Result) Success() bool {
	return len(r.Failed()) == 0
}

// TotalChanged returns the number of sections actually written.
func (r *Result) TotalChanged() int {
	return len(r.Created()) + len(r.Updated())
}

// Summary returns a human-readable summary of the sync run.
func (r *Result) Summary() string {
	var sb strings.Builder

	if r.DryRun {
		sb.WriteString("Dry run - no changes made\n")
	}

	targets := make([]string, 0, len(r.Targets))
	for _, t := range r.Targets {
		targets = append(targets, string(t))
	}
	direction := "->"
	if r.Bidirectional {
		direction = "<->"
	}
	sb.WriteString(fmt.Sprintf("Synced %s %s %s\n", r.Source, direction, strings.Join(targets, ", ")))

	sb.WriteString(fmt.Sprintf("  Created:   %d\n", len(r.Created())))
	sb.WriteString(fmt.Sprintf("  Updated:   %d\n", len(r.Updated())))
	sb.WriteString(fmt.Sprintf("  Confirmed: %d\n", len(r.Confirmed())))
	sb.WriteString(fmt.Sprintf("  Skipped:   %d\n", len(r.Skipped())))
	sb.WriteString(fmt.Sprintf("  Conflicts: %d\n", len(r.Conflicts())))
	sb.WriteString(fmt.Sprintf("  Failed:    %d\n", len(r.Failed())))

	if r.HasConflicts() {
		sb.WriteString("\nConflicts requiring resolution:\n")
		for _, c := range r.Conflicts() {
			sb.WriteString(fmt.Sprintf("  - %s / %s", c.Directive.Identity, c.Directive.Section))
			if c.Conflict != nil {
				sb.WriteString(fmt.Sprintf(": %s", c.Conflict.Reason))
			}
			sb.WriteString("\n")
		}
	}

	if !r.Success() {
		sb.WriteString("\nErrors:\n")
		for _, f := range r.Failed() {
			sb.WriteString(fmt.Sprintf("  - %s / %s: %v\n", f.Directive.Identity, f.Directive.Section, f.Error))
		}
	}

	return sb.String()
}
