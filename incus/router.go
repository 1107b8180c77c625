package incus

import (
	"context"

	"github.com/crystian/declincus/faults"
	"github.com/crystian/declincus/resource"
)

var _ ResourceClient = (*Router)(nil)
var _ VolumeActions = (*Router)(nil)

// Router dispatches by resource kind: the remote kind is served by the
// local catalog client, everything else by the server client. Volume
// actions always go to the server.
type Router struct {
	Server  ResourceClient
	Catalog ResourceClient
}

func (r *Router) route(kind resource.Kind) (ResourceClient, error) {
	if kind == resource.KindRemote {
		if r.Catalog == nil {
			return nil, faults.NewTypedError(faults.InternalError, "no catalog client configured", nil)
		}
		return r.Catalog, nil
	}
	if r.Server == nil {
		return nil, faults.NewTypedError(faults.InternalError, "no server client configured", nil)
	}
	return r.Server, nil
}

func (r *Router) Fetch(ctx context.Context, kind resource.Kind, id resource.Identity) (*resource.Actual, error) {
	client, err := r.route(kind)
	if err != nil {
		return nil, err
	}
	return client.Fetch(ctx, kind, id)
}

func (r *Router) Create(ctx context.Context, spec resource.Spec) (*resource.Actual, error) {
	client, err := r.route(spec.Kind)
	if err != nil {
		return nil, err
	}
	return client.Create(ctx, spec)
}

func (r *Router) Update(ctx context.Context, kind resource.Kind, id resource.Identity, patch resource.Patch) (*resource.Actual, error) {
	client, err := r.route(kind)
	if err != nil {
		return nil, err
	}
	return client.Update(ctx, kind, id, patch)
}

func (r *Router) Delete(ctx context.Context, kind resource.Kind, id resource.Identity) error {
	client, err := r.route(kind)
	if err != nil {
		return err
	}
	return client.Delete(ctx, kind, id)
}

func (r *Router) Rename(ctx context.Context, kind resource.Kind, from resource.Identity, to string) error {
	client, err := r.route(kind)
	if err != nil {
		return err
	}
	return client.Rename(ctx, kind, from, to)
}

func (r *Router) volumeActions() (VolumeActions, error) {
	actions, ok := r.Server.(VolumeActions)
	if !ok {
		return nil, faults.NewTypedError(faults.InternalError, "server client does not support volume actions", nil)
	}
	return actions, nil
}

func (r *Router) FetchSnapshot(ctx context.Context, id resource.Identity, snapshot string) (*resource.Actual, error) {
	actions, err := r.volumeActions()
	if err != nil {
		return nil, err
	}
	return actions.FetchSnapshot(ctx, id, snapshot)
}

func (r *Router) SnapshotCreate(ctx context.Context, id resource.Identity, snapshot string) error {
	actions, err := r.volumeActions()
	if err != nil {
		return err
	}
	return actions.SnapshotCreate(ctx, id, snapshot)
}

func (r *Router) SnapshotDelete(ctx context.Context, id resource.Identity, snapshot string) error {
	actions, err := r.volumeActions()
	if err != nil {
		return err
	}
	return actions.SnapshotDelete(ctx, id, snapshot)
}

func (r *Router) SnapshotRestore(ctx context.Context, id resource.Identity, snapshot string) error {
	actions, err := r.volumeActions()
	if err != nil {
		return err
	}
	return actions.SnapshotRestore(ctx, id, snapshot)
}

func (r *Router) Export(ctx context.Context, id resource.Identity, exportTo string) error {
	actions, err := r.volumeActions()
	if err != nil {
		return err
	}
	return actions.Export(ctx, id, exportTo)
}

func (r *Router) Import(ctx context.Context, spec resource.Spec) (*resource.Actual, error) {
	actions, err := r.volumeActions()
	if err != nil {
		return nil, err
	}
	return actions.Import(ctx, spec)
}

func (r *Router) Copy(ctx context.Context, id resource.Identity, params CopyParams) (*resource.Actual, error) {
	actions, err := r.volumeActions()
	if err != nil {
		return nil, err
	}
	return actions.Copy(ctx, id, params)
}

func (r *Router) DeviceAttach(ctx context.Context, id resource.Identity, attach AttachParams) error {
	actions, err := r.volumeActions()
	if err != nil {
		return err
	}
	return actions.DeviceAttach(ctx, id, attach)
}

func (r *Router) InstanceDeviceExists(ctx context.Context, id resource.Identity, instance, device string) (bool, error) {
	actions, err := r.volumeActions()
	if err != nil {
		return false, err
	}
	return actions.InstanceDeviceExists(ctx, id, instance, device)
}
