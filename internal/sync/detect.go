package sync

import (
	"github.com/metamechanic/notesync/internal/ledger"
	"github.com/metamechanic/notesync/internal/model"
)

// State classifies one section's change status across a (source, target)
// platform pair, relative to the hashes recorded at the last sync.
type State string

const (
	// StateUnchanged means neither side changed since the last sync.
	StateUnchanged State = "unchanged"

	// StateSourceChanged means only the source side was edited.
	StateSourceChanged State = "source_changed"

	// StateTargetChanged means only the target side was edited.
	StateTargetChanged State = "target_changed"

	// StateBothChanged means both sides were edited since the last sync.
	StateBothChanged State = "both_changed"

	// StateTargetMissing means the section (or whole note) does not exist
	// on the target yet.
	StateTargetMissing State = "target_missing"

	// StateSourceMissing means the section exists only on the target.
	StateSourceMissing State = "source_missing"

	// StateFirstRun means the ledger has no record for this pair, so edits
	// cannot be attributed to either side.
	StateFirstRun State = "first_run"

	// StateAbsent means the section exists on neither side.
	StateAbsent State = "absent"
)

// Classify determines a section's state for a (source, target) pair by
// comparing each side's current hash with its last-synced hash. A ledger
// entry missing either platform's hash counts as first run for the pair:
// attribution needs both baselines.
func Classify(
	led *ledger.Ledger,
	identity, section string,
	source, target model.Platform,
	sourceHash, targetHash string,
	sourceExists, targetExists bool,
) State {
	switch {
	case !sourceExists && !targetExists:
		return StateAbsent
	case sourceExists && !targetExists:
		return StateTargetMissing
	case !sourceExists:
		return StateSourceMissing
	}

	lastSource, okSource := led.Hash(identity, section, source)
	lastTarget, okTarget := led.Hash(identity, section, target)
	if !okSource || !okTarget {
		return StateFirstRun
	}

	sourceClean := sourceHash == lastSource
	targetClean := targetHash == lastTarget

	switch {
	case sourceClean && targetClean:
		return StateUnchanged
	case !sourceClean && targetClean:
		return StateSourceChanged
	case sourceClean && !targetClean:
		return StateTargetChanged
	default:
		return StateBothChanged
	}
}
