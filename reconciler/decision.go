package reconciler

import "github.com/crystian/declincus/resource"

// Op names the lifecycle transition selected for one reconciliation call.
// Exactly one op is selected per invocation.
type Op string

const (
	OpNoOp    Op = "noop"
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
	OpRename  Op = "rename"
	OpSpecial Op = "special"
)

// Action names a one-shot volume operation carried by an OpSpecial
// decision. These are imperative, not continuously-reconciled state.
type Action string

const (
	ActionSnapshot       Action = "snapshot"
	ActionSnapshotDelete Action = "snapshot-delete"
	ActionRestore        Action = "restore"
	ActionExport         Action = "export"
	ActionImport         Action = "import"
	ActionCopy           Action = "copy"
	ActionMove           Action = "move"
)

// Decision is the transition the engine selected for a spec against the
// fetched actual state. It is ephemeral: computed, applied, and discarded
// within a single reconciliation call.
type Decision struct {
	Op     Op
	Action Action

	// Patch converges config/devices/attributes for OpUpdate. For
	// OpRename the patch is recomputed after the rename lands.
	Patch resource.Patch

	RenameFrom string
	RenameTo   string

	// Attach marks a pending device-attachment step applied after the
	// primary operation. Best effort: its failure is reported, never
	// rolled back into the primary action.
	Attach bool
}

// Changed reports whether applying this decision mutates anything.
func (d Decision) Changed() bool {
	return d.Op != OpNoOp
}

// Outcome is the caller-facing result of one reconciliation.
type Outcome struct {
	Changed     bool
	Decision    Decision
	Before      *resource.Actual
	After       *resource.Actual
	Diagnostics []string
}
