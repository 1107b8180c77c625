package reconciler

import (
	"context"

	"github.com/crystian/declincus/resource"
)

// Reconciler converges one declared spec against the hypervisor's actual
// state. Plan decides without mutating; Apply executes a decision;
// Reconcile does both in sequence. Every call fetches actual state fresh:
// the hypervisor is the source of truth and nothing is cached across
// invocations.
type Reconciler interface {
	Plan(ctx context.Context, spec resource.Spec) (Decision, *resource.Actual, error)
	Apply(ctx context.Context, spec resource.Spec, decision Decision, before *resource.Actual) (Outcome, error)
	Reconcile(ctx context.Context, spec resource.Spec) (Outcome, error)
}
