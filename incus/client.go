// Package incus defines the client contract the reconciliation engine
// consumes. Implementations talk to an Incus server (or, for the remote
// kind, the local remotes catalog); the engine itself never builds
// requests or parses responses.
package incus

import (
	"context"

	"github.com/crystian/declincus/resource"
)

// ResourceClient is the per-kind capability set shared by every resource
// kind. All calls are scoped by the remote and project carried in the
// identity, verbatim from the caller.
//
// Fetch returns a NotFoundError-categorized error when the resource does
// not exist; the engine uses that signal for idempotency decisions, it is
// not a failure.
type ResourceClient interface {
	Fetch(ctx context.Context, kind resource.Kind, id resource.Identity) (*resource.Actual, error)
	Create(ctx context.Context, spec resource.Spec) (*resource.Actual, error)
	Update(ctx context.Context, kind resource.Kind, id resource.Identity, patch resource.Patch) (*resource.Actual, error)
	Delete(ctx context.Context, kind resource.Kind, id resource.Identity) error
	Rename(ctx context.Context, kind resource.Kind, from resource.Identity, to string) error
}

// VolumeActions is the additional capability set implemented by clients
// that can drive storage volume special actions.
type VolumeActions interface {
	FetchSnapshot(ctx context.Context, id resource.Identity, snapshot string) (*resource.Actual, error)
	SnapshotCreate(ctx context.Context, id resource.Identity, snapshot string) error
	SnapshotDelete(ctx context.Context, id resource.Identity, snapshot string) error
	SnapshotRestore(ctx context.Context, id resource.Identity, snapshot string) error

	Export(ctx context.Context, id resource.Identity, exportTo string) error
	Import(ctx context.Context, spec resource.Spec) (*resource.Actual, error)
	Copy(ctx context.Context, id resource.Identity, params CopyParams) (*resource.Actual, error)

	DeviceAttach(ctx context.Context, id resource.Identity, attach AttachParams) error
	InstanceDeviceExists(ctx context.Context, id resource.Identity, instance, device string) (bool, error)
}

// CopyParams carries the target of a volume copy or move. Target names a
// cluster member when the destination is cluster-scoped.
type CopyParams struct {
	TargetPool   string
	TargetVolume string
	Move         bool
	Target       string
}

// AttachParams names the instance-side device created for a volume.
type AttachParams struct {
	Instance string
	Device   string
	Path     string
}
