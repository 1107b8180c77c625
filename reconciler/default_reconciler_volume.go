package reconciler

import (
	"context"
	"fmt"

	"github.com/crystian/declincus/faults"
	"github.com/crystian/declincus/incus"
	"github.com/crystian/declincus/resource"
)

// planVolume handles the volume-only paths: the one-shot special states
// and snapshot management through present/absent. It reports handled=false
// when the spec is a plain present/absent volume with no snapshot param,
// which then flows through the shared branch.
func (r *DefaultReconciler) planVolume(ctx context.Context, spec resource.Spec, state resource.State) (Decision, *resource.Actual, bool, error) {
	switch state {
	case resource.StatePresent, resource.StateAbsent:
		if spec.Snapshot == "" {
			return Decision{}, nil, false, nil
		}
	}

	actions, err := r.volumeActions()
	if err != nil {
		return Decision{}, nil, true, err
	}

	switch state {
	case resource.StatePresent:
		decision, before, err := r.planSnapshotCreate(ctx, actions, spec)
		return decision, before, true, err
	case resource.StateAbsent:
		decision, before, err := r.planSnapshotDelete(ctx, actions, spec)
		return decision, before, true, err
	case resource.StateRestored:
		decision, before, err := r.planRestore(ctx, actions, spec)
		return decision, before, true, err
	case resource.StateExported:
		decision, before, err := r.planExport(ctx, spec)
		return decision, before, true, err
	case resource.StateImported:
		decision, before, err := r.planImport(ctx, spec)
		return decision, before, true, err
	case resource.StateCopied:
		decision, before, err := r.planCopy(ctx, spec)
		return decision, before, true, err
	}

	return Decision{}, nil, false, nil
}

func (r *DefaultReconciler) planSnapshotCreate(ctx context.Context, actions incus.VolumeActions, spec resource.Spec) (Decision, *resource.Actual, error) {
	volume, err := r.mustFetchVolume(ctx, spec)
	if err != nil {
		return Decision{}, nil, err
	}

	snapshot, err := r.fetchSnapshot(ctx, actions, spec)
	if err != nil {
		return Decision{}, nil, err
	}
	if snapshot != nil {
		// Snapshot creation is no-op-if-satisfied: an existing snapshot
		// under the declared name already fulfils the intent.
		return Decision{Op: OpNoOp}, volume, nil
	}
	return Decision{Op: OpSpecial, Action: ActionSnapshot}, volume, nil
}

func (r *DefaultReconciler) planSnapshotDelete(ctx context.Context, actions incus.VolumeActions, spec resource.Spec) (Decision, *resource.Actual, error) {
	volume, err := r.fetch(ctx, spec.Kind, spec.Identity)
	if err != nil {
		return Decision{}, nil, err
	}
	if volume == nil {
		return Decision{Op: OpNoOp}, nil, nil
	}

	snapshot, err := r.fetchSnapshot(ctx, actions, spec)
	if err != nil {
		return Decision{}, nil, err
	}
	if snapshot == nil {
		return Decision{Op: OpNoOp}, volume, nil
	}
	return Decision{Op: OpSpecial, Action: ActionSnapshotDelete}, volume, nil
}

func (r *DefaultReconciler) planRestore(ctx context.Context, actions incus.VolumeActions, spec resource.Spec) (Decision, *resource.Actual, error) {
	volume, err := r.mustFetchVolume(ctx, spec)
	if err != nil {
		return Decision{}, nil, err
	}

	snapshot, err := r.fetchSnapshot(ctx, actions, spec)
	if err != nil {
		return Decision{}, nil, err
	}
	if snapshot == nil {
		return Decision{}, nil, faults.NewTypedError(
			faults.ConflictError,
			fmt.Sprintf("snapshot %s/%s not found", spec.Identity.Name, spec.Snapshot),
			nil,
		)
	}
	return Decision{Op: OpSpecial, Action: ActionRestore}, volume, nil
}

func (r *DefaultReconciler) planExport(ctx context.Context, spec resource.Spec) (Decision, *resource.Actual, error) {
	volume, err := r.mustFetchVolume(ctx, spec)
	if err != nil {
		return Decision{}, nil, err
	}
	// Export overwrites the target file, so it is reported changed every
	// run; there is nothing on the hypervisor to converge against.
	return Decision{Op: OpSpecial, Action: ActionExport}, volume, nil
}

func (r *DefaultReconciler) planImport(ctx context.Context, spec resource.Spec) (Decision, *resource.Actual, error) {
	volume, err := r.fetch(ctx, spec.Kind, spec.Identity)
	if err != nil {
		return Decision{}, nil, err
	}
	if volume != nil {
		return Decision{}, nil, faults.NewTypedError(
			faults.ConflictError,
			fmt.Sprintf("volume %s already exists, refusing to import over it", spec.Identity),
			nil,
		)
	}
	return Decision{Op: OpSpecial, Action: ActionImport, Attach: spec.AttachTo != ""}, nil, nil
}

func (r *DefaultReconciler) planCopy(ctx context.Context, spec resource.Spec) (Decision, *resource.Actual, error) {
	source, err := r.mustFetchVolume(ctx, spec)
	if err != nil {
		return Decision{}, nil, err
	}

	targetIdentity := spec.Identity
	targetIdentity.Pool = spec.TargetPool
	targetIdentity.Name = spec.TargetVolume
	target, err := r.fetch(ctx, spec.Kind, targetIdentity)
	if err != nil {
		return Decision{}, nil, err
	}
	if target != nil {
		return Decision{}, nil, faults.NewTypedError(
			faults.ConflictError,
			fmt.Sprintf("target volume %s already exists", targetIdentity),
			nil,
		)
	}

	action := ActionCopy
	if spec.Move {
		action = ActionMove
	}
	return Decision{Op: OpSpecial, Action: action}, source, nil
}

func (r *DefaultReconciler) applySpecial(ctx context.Context, spec resource.Spec, decision Decision, before *resource.Actual) (Outcome, error) {
	actions, err := r.volumeActions()
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{Changed: true, Decision: decision, Before: before, After: before}

	switch decision.Action {
	case ActionSnapshot:
		if err := actions.SnapshotCreate(ctx, spec.Identity, spec.Snapshot); err != nil {
			return Outcome{}, err
		}
		outcome.Diagnostics = append(outcome.Diagnostics,
			fmt.Sprintf("snapshot %s/%s created", spec.Identity.Name, spec.Snapshot))

	case ActionSnapshotDelete:
		if err := actions.SnapshotDelete(ctx, spec.Identity, spec.Snapshot); err != nil {
			if !faults.IsNotFound(err) {
				return Outcome{}, err
			}
			outcome.Diagnostics = append(outcome.Diagnostics,
				fmt.Sprintf("snapshot %s/%s was already gone", spec.Identity.Name, spec.Snapshot))
		} else {
			outcome.Diagnostics = append(outcome.Diagnostics,
				fmt.Sprintf("snapshot %s/%s deleted", spec.Identity.Name, spec.Snapshot))
		}

	case ActionRestore:
		if err := actions.SnapshotRestore(ctx, spec.Identity, spec.Snapshot); err != nil {
			return Outcome{}, err
		}
		outcome.Diagnostics = append(outcome.Diagnostics,
			fmt.Sprintf("volume %s restored from snapshot %s", spec.Identity.Name, spec.Snapshot))

	case ActionExport:
		if err := actions.Export(ctx, spec.Identity, spec.ExportTo); err != nil {
			return Outcome{}, err
		}
		outcome.Diagnostics = append(outcome.Diagnostics,
			fmt.Sprintf("volume %s exported to %s", spec.Identity.Name, spec.ExportTo))

	case ActionImport:
		after, err := actions.Import(ctx, spec)
		if err != nil {
			return Outcome{}, err
		}
		outcome.After = after
		outcome.Diagnostics = append(outcome.Diagnostics,
			fmt.Sprintf("volume %s imported from %s", spec.Identity.Name, spec.ImportFrom))
		r.attachStep(ctx, spec, decision, &outcome)

	case ActionCopy, ActionMove:
		after, err := actions.Copy(ctx, spec.Identity, incus.CopyParams{
			TargetPool:   spec.TargetPool,
			TargetVolume: spec.TargetVolume,
			Move:         decision.Action == ActionMove,
			Target:       spec.Target,
		})
		if err != nil {
			return Outcome{}, err
		}
		outcome.After = after
		verb := "copied"
		if decision.Action == ActionMove {
			verb = "moved"
		}
		outcome.Diagnostics = append(outcome.Diagnostics,
			fmt.Sprintf("volume %s %s to %s/%s", spec.Identity.Name, verb, spec.TargetPool, spec.TargetVolume))

	default:
		return Outcome{}, faults.NewTypedError(
			faults.InternalError,
			fmt.Sprintf("unknown special action %q", decision.Action),
			nil,
		)
	}

	return outcome, nil
}

// attachPending reports whether the secondary device-attachment step still
// has work to do. An existing device under the attach name counts as
// attached.
func (r *DefaultReconciler) attachPending(ctx context.Context, spec resource.Spec) (bool, error) {
	if spec.AttachTo == "" {
		return false, nil
	}
	actions, err := r.volumeActions()
	if err != nil {
		return false, err
	}
	exists, err := actions.InstanceDeviceExists(ctx, spec.Identity, spec.AttachTo, spec.EffectiveAttachDevice())
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// attachStep performs the best-effort device attachment after a primary
// action succeeded. Its failure lands in diagnostics, never in the error
// return: attachment is not transactional with the volume operation.
func (r *DefaultReconciler) attachStep(ctx context.Context, spec resource.Spec, decision Decision, outcome *Outcome) {
	if !decision.Attach || spec.AttachTo == "" {
		return
	}

	actions, err := r.volumeActions()
	if err != nil {
		outcome.Diagnostics = append(outcome.Diagnostics,
			fmt.Sprintf("attach to %s skipped: %v", spec.AttachTo, err))
		return
	}

	params := incus.AttachParams{
		Instance: spec.AttachTo,
		Device:   spec.EffectiveAttachDevice(),
	}
	if spec.AttachPath != "" && spec.VolumeType != "block" && spec.ContentType != "iso" {
		params.Path = spec.AttachPath
	}

	if err := actions.DeviceAttach(ctx, spec.Identity, params); err != nil {
		r.Log.Error(err, "device attachment failed", "volume", spec.Identity.Name, "instance", spec.AttachTo)
		outcome.Diagnostics = append(outcome.Diagnostics,
			fmt.Sprintf("attach to %s failed: %v", spec.AttachTo, err))
		return
	}
	outcome.Diagnostics = append(outcome.Diagnostics,
		fmt.Sprintf("volume %s attached to %s as device %s", spec.Identity.Name, spec.AttachTo, params.Device))
}

func (r *DefaultReconciler) mustFetchVolume(ctx context.Context, spec resource.Spec) (*resource.Actual, error) {
	volume, err := r.fetch(ctx, spec.Kind, spec.Identity)
	if err != nil {
		return nil, err
	}
	if volume == nil {
		return nil, faults.NewTypedError(
			faults.ConflictError,
			fmt.Sprintf("volume %s not found", spec.Identity),
			nil,
		)
	}
	return volume, nil
}

func (r *DefaultReconciler) fetchSnapshot(ctx context.Context, actions incus.VolumeActions, spec resource.Spec) (*resource.Actual, error) {
	snapshot, err := actions.FetchSnapshot(ctx, spec.Identity, spec.Snapshot)
	if err != nil {
		if faults.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return snapshot, nil
}

func (r *DefaultReconciler) volumeActions() (incus.VolumeActions, error) {
	actions, ok := r.Client.(incus.VolumeActions)
	if !ok {
		return nil, faults.NewTypedError(
			faults.InternalError,
			"resource client does not support volume actions",
			nil,
		)
	}
	return actions, nil
}
