package sync

import (
	"github.com/FireDaemon/sqlite-orm/core/schema"
	"github.com/FireDaemon/sqlite-orm/core/sqlite"
)

// Plan is the action list the executor carries out for one table.
type Plan struct {
	Outcome     Outcome
	AddColumns  []string // Declared columns to append, in declaration order
	DropColumns []string // Live columns to drop natively
	Rebuild     bool     // Run the create-copy-drop-rename cycle
	CopyRows    bool     // Copy surviving rows during the rebuild
}

// PlanTable is the pure decision procedure turning a diff into a
// plan. Rebuild dominates column addition: appending columns to a
// table that must be rebuilt anyway would be wasted work.
func PlanTable(tableExists bool, diff Diff, caps sqlite.Capabilities, preserve bool) Plan {
	if !tableExists {
		return Plan{Outcome: NewTableCreated}
	}
	if diff.Mismatch {
		return Plan{Outcome: DroppedAndRecreated, Rebuild: true, CopyRows: true}
	}

	hasExcess := len(diff.Excess) > 0
	if hasExcess && !preserve && !caps.DropColumn() {
		return Plan{Outcome: DroppedAndRecreated, Rebuild: true, CopyRows: true}
	}

	rebuild := false
	copyRows := true
	for _, ci := range diff.ToAdd {
		switch {
		case ci.Hidden == schema.HiddenStored:
			// Stored generated columns cannot be appended to an
			// existing table.
			rebuild = true
		case ci.Hidden == schema.HiddenVirtual:
			// Virtual generated columns ride the plain add path.
		case ci.NotNull && !ci.HasDefault():
			// The engine rejects adding a NOT NULL column without a
			// default, and the rebuild copy could not supply values
			// for it either.
			rebuild = true
			copyRows = false
		}
	}
	if rebuild {
		return Plan{Outcome: DroppedAndRecreated, Rebuild: true, CopyRows: copyRows}
	}

	var drops []string
	if hasExcess && !preserve {
		drops = make([]string, len(diff.Excess))
		for i, ci := range diff.Excess {
			drops[i] = ci.Name
		}
	}

	switch {
	case len(diff.ToAdd) > 0:
		adds := make([]string, len(diff.ToAdd))
		for i, ci := range diff.ToAdd {
			adds[i] = ci.Name
		}
		outcome := NewColumnsAdded
		if hasExcess {
			outcome = NewColumnsAddedAndOldColumnsRemoved
		}
		return Plan{Outcome: outcome, AddColumns: adds, DropColumns: drops}
	case hasExcess:
		return Plan{Outcome: OldColumnsRemoved, DropColumns: drops}
	default:
		return Plan{Outcome: AlreadyInSync}
	}
}
