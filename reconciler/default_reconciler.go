package reconciler

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/crystian/declincus/faults"
	"github.com/crystian/declincus/incus"
	"github.com/crystian/declincus/metrics"
	"github.com/crystian/declincus/resource"
)

// DefaultReconciler drives one spec at a time through fetch, diff, decide,
// apply. It holds no state across invocations and performs no internal
// parallelism; concurrent invocations against the same identity are the
// hypervisor's problem to serialize or reject.
type DefaultReconciler struct {
	Client  incus.ResourceClient
	Log     logr.Logger
	Metrics *metrics.Recorder
}

func (r *DefaultReconciler) Reconcile(ctx context.Context, spec resource.Spec) (Outcome, error) {
	decision, before, err := r.Plan(ctx, spec)
	if err != nil {
		r.observeFailure(spec, err)
		return Outcome{}, wrapSpecError(spec, err)
	}

	if r.Metrics != nil {
		r.Metrics.ObserveDecision(string(spec.Kind), string(decision.Op))
	}

	outcome, err := r.Apply(ctx, spec, decision, before)
	if err != nil {
		r.observeFailure(spec, err)
		return Outcome{}, wrapSpecError(spec, err)
	}
	return outcome, nil
}

func (r *DefaultReconciler) Plan(ctx context.Context, spec resource.Spec) (Decision, *resource.Actual, error) {
	if r == nil || r.Client == nil {
		return Decision{}, nil, faults.NewTypedError(faults.InternalError, "resource client is not configured", nil)
	}
	if err := spec.Validate(); err != nil {
		return Decision{}, nil, err
	}

	state := spec.EffectiveState()

	if spec.Kind == resource.KindStorageVolume {
		if decision, before, handled, err := r.planVolume(ctx, spec, state); handled {
			return decision, before, err
		}
	}

	switch state {
	case resource.StatePresent:
		return r.planPresent(ctx, spec)
	case resource.StateAbsent:
		return r.planAbsent(ctx, spec)
	default:
		return Decision{}, nil, faults.NewTypedError(
			faults.ValidationError,
			fmt.Sprintf("state %q is not supported for kind %q", state, spec.Kind),
			nil,
		)
	}
}

func (r *DefaultReconciler) planPresent(ctx context.Context, spec resource.Spec) (Decision, *resource.Actual, error) {
	actual, err := r.fetch(ctx, spec.Kind, spec.Identity)
	if err != nil {
		return Decision{}, nil, err
	}

	if actual == nil && spec.RenameFrom != "" {
		oldIdentity := spec.Identity
		oldIdentity.Name = spec.RenameFrom
		old, err := r.fetch(ctx, spec.Kind, oldIdentity)
		if err != nil {
			return Decision{}, nil, err
		}
		if old != nil {
			attach, err := r.attachPending(ctx, spec)
			if err != nil {
				return Decision{}, nil, err
			}
			decision := Decision{
				Op:         OpRename,
				RenameFrom: spec.RenameFrom,
				RenameTo:   spec.Identity.Name,
				Patch:      resource.Diff(spec, old),
				Attach:     attach,
			}
			return decision, old, nil
		}
	}

	if actual == nil {
		return Decision{Op: OpCreate, Attach: spec.AttachTo != ""}, nil, nil
	}

	attach, err := r.attachPending(ctx, spec)
	if err != nil {
		return Decision{}, nil, err
	}

	patch := resource.Diff(spec, actual)
	if patch.Empty() && !attach {
		return Decision{Op: OpNoOp}, actual, nil
	}
	return Decision{Op: OpUpdate, Patch: patch, Attach: attach}, actual, nil
}

func (r *DefaultReconciler) planAbsent(ctx context.Context, spec resource.Spec) (Decision, *resource.Actual, error) {
	actual, err := r.fetch(ctx, spec.Kind, spec.Identity)
	if err != nil {
		return Decision{}, nil, err
	}
	if actual == nil {
		return Decision{Op: OpNoOp}, nil, nil
	}
	return Decision{Op: OpDelete}, actual, nil
}

func (r *DefaultReconciler) Apply(ctx context.Context, spec resource.Spec, decision Decision, before *resource.Actual) (Outcome, error) {
	outcome := Outcome{
		Changed:  decision.Changed(),
		Decision: decision,
		Before:   before,
	}

	switch decision.Op {
	case OpNoOp:
		outcome.After = before
		return outcome, nil

	case OpCreate:
		after, err := r.Client.Create(ctx, spec)
		if err != nil {
			return Outcome{}, err
		}
		outcome.After = after
		outcome.Diagnostics = append(outcome.Diagnostics,
			fmt.Sprintf("%s %s created", spec.Kind, spec.Identity.Name))
		r.attachStep(ctx, spec, decision, &outcome)
		return outcome, nil

	case OpUpdate:
		outcome2, err := r.applyUpdate(ctx, spec, decision, before)
		if err != nil {
			return Outcome{}, err
		}
		return outcome2, nil

	case OpDelete:
		if err := r.Client.Delete(ctx, spec.Kind, spec.Identity); err != nil {
			// The caller asked for absent; a vanish between fetch and
			// delete already satisfies that.
			if !faults.IsNotFound(err) {
				return Outcome{}, err
			}
			outcome.Diagnostics = append(outcome.Diagnostics,
				fmt.Sprintf("%s %s was already gone", spec.Kind, spec.Identity.Name))
		} else {
			outcome.Diagnostics = append(outcome.Diagnostics,
				fmt.Sprintf("%s %s deleted", spec.Kind, spec.Identity.Name))
		}
		outcome.After = nil
		return outcome, nil

	case OpRename:
		return r.applyRename(ctx, spec, decision, before)

	case OpSpecial:
		return r.applySpecial(ctx, spec, decision, before)

	default:
		return Outcome{}, faults.NewTypedError(
			faults.InternalError,
			fmt.Sprintf("unknown transition %q", decision.Op),
			nil,
		)
	}
}

func (r *DefaultReconciler) applyUpdate(ctx context.Context, spec resource.Spec, decision Decision, before *resource.Actual) (Outcome, error) {
	outcome := Outcome{Changed: true, Decision: decision, Before: before}

	if !decision.Patch.Empty() {
		after, err := r.Client.Update(ctx, spec.Kind, spec.Identity, decision.Patch)
		if err != nil {
			if faults.IsNotFound(err) {
				return Outcome{}, faults.NewTypedError(
					faults.ConflictError,
					fmt.Sprintf("%s %s vanished between fetch and update", spec.Kind, spec.Identity.Name),
					err,
				)
			}
			return Outcome{}, err
		}
		outcome.After = after
		outcome.Diagnostics = append(outcome.Diagnostics,
			fmt.Sprintf("%s %s updated", spec.Kind, spec.Identity.Name))
	} else {
		outcome.After = before
	}

	r.attachStep(ctx, spec, decision, &outcome)
	return outcome, nil
}

func (r *DefaultReconciler) applyRename(ctx context.Context, spec resource.Spec, decision Decision, before *resource.Actual) (Outcome, error) {
	outcome := Outcome{Changed: true, Decision: decision, Before: before}

	fromIdentity := spec.Identity
	fromIdentity.Name = decision.RenameFrom
	if err := r.Client.Rename(ctx, spec.Kind, fromIdentity, decision.RenameTo); err != nil {
		return Outcome{}, err
	}
	outcome.Diagnostics = append(outcome.Diagnostics,
		fmt.Sprintf("%s %s renamed to %s", spec.Kind, decision.RenameFrom, decision.RenameTo))

	// Re-fetch under the new name and fall through into a regular update.
	renamed, err := r.fetch(ctx, spec.Kind, spec.Identity)
	if err != nil {
		return Outcome{}, err
	}
	if renamed == nil {
		return Outcome{}, faults.NewTypedError(
			faults.ConflictError,
			fmt.Sprintf("%s %s vanished after rename", spec.Kind, spec.Identity.Name),
			nil,
		)
	}

	patch := resource.Diff(spec, renamed)
	if patch.Empty() {
		outcome.After = renamed
		r.attachStep(ctx, spec, decision, &outcome)
		return outcome, nil
	}

	after, err := r.Client.Update(ctx, spec.Kind, spec.Identity, patch)
	if err != nil {
		return Outcome{}, err
	}
	outcome.After = after
	outcome.Diagnostics = append(outcome.Diagnostics,
		fmt.Sprintf("%s %s updated", spec.Kind, spec.Identity.Name))
	r.attachStep(ctx, spec, decision, &outcome)
	return outcome, nil
}

// fetch translates the client's not-found signal into a nil actual; any
// other error propagates untouched.
func (r *DefaultReconciler) fetch(ctx context.Context, kind resource.Kind, id resource.Identity) (*resource.Actual, error) {
	actual, err := r.Client.Fetch(ctx, kind, id)
	if err != nil {
		if faults.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return actual, nil
}

func (r *DefaultReconciler) observeFailure(spec resource.Spec, err error) {
	if r.Metrics != nil {
		r.Metrics.ObserveFailure(string(spec.Kind), string(faults.Category(err)))
	}
	r.Log.Error(err, "reconciliation failed", "kind", spec.Kind, "name", spec.Identity.Name)
}

func wrapSpecError(spec resource.Spec, err error) error {
	return fmt.Errorf("reconcile %s %s: %w", spec.Kind, spec.Identity, err)
}
