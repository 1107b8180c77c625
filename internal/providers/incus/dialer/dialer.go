// Package dialer resolves the remote named by a resource identity into a
// live API gateway. Gateways are cached per remote for the lifetime of
// one dialer, so a bulk apply reuses connections.
package dialer

import (
	"context"
	"sync"

	"github.com/go-logr/logr"

	"github.com/crystian/declincus/config"
	"github.com/crystian/declincus/incus"
	incushttp "github.com/crystian/declincus/internal/providers/incus/http"
	"github.com/crystian/declincus/resource"
)

var _ incus.ResourceClient = (*ServerDialer)(nil)
var _ incus.VolumeActions = (*ServerDialer)(nil)

type ServerDialer struct {
	Remotes config.RemoteCatalogReader
	Log     logr.Logger

	mu       sync.Mutex
	gateways map[string]*incushttp.Gateway
}

func NewServerDialer(remotes config.RemoteCatalogReader, log logr.Logger) *ServerDialer {
	return &ServerDialer{
		Remotes:  remotes,
		Log:      log,
		gateways: make(map[string]*incushttp.Gateway),
	}
}

// gateway looks the remote up in the catalog. An empty name selects the
// catalog's default remote.
func (d *ServerDialer) gateway(ctx context.Context, name string) (*incushttp.Gateway, error) {
	var remote config.Remote
	var err error
	if name == "" {
		remote, err = d.Remotes.GetDefault(ctx)
	} else {
		remote, err = d.Remotes.Get(ctx, name)
	}
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if gateway, ok := d.gateways[remote.Name]; ok {
		return gateway, nil
	}
	gateway, err := incushttp.NewGateway(remote, d.Log)
	if err != nil {
		return nil, err
	}
	d.gateways[remote.Name] = gateway
	return gateway, nil
}

func (d *ServerDialer) Fetch(ctx context.Context, kind resource.Kind, id resource.Identity) (*resource.Actual, error) {
	gateway, err := d.gateway(ctx, id.Remote)
	if err != nil {
		return nil, err
	}
	return gateway.Fetch(ctx, kind, id)
}

func (d *ServerDialer) Create(ctx context.Context, spec resource.Spec) (*resource.Actual, error) {
	gateway, err := d.gateway(ctx, spec.Identity.Remote)
	if err != nil {
		return nil, err
	}
	return gateway.Create(ctx, spec)
}

func (d *ServerDialer) Update(ctx context.Context, kind resource.Kind, id resource.Identity, patch resource.Patch) (*resource.Actual, error) {
	gateway, err := d.gateway(ctx, id.Remote)
	if err != nil {
		return nil, err
	}
	return gateway.Update(ctx, kind, id, patch)
}

func (d *ServerDialer) Delete(ctx context.Context, kind resource.Kind, id resource.Identity) error {
	gateway, err := d.gateway(ctx, id.Remote)
	if err != nil {
		return err
	}
	return gateway.Delete(ctx, kind, id)
}

func (d *ServerDialer) Rename(ctx context.Context, kind resource.Kind, from resource.Identity, to string) error {
	gateway, err := d.gateway(ctx, from.Remote)
	if err != nil {
		return err
	}
	return gateway.Rename(ctx, kind, from, to)
}

func (d *ServerDialer) FetchSnapshot(ctx context.Context, id resource.Identity, snapshot string) (*resource.Actual, error) {
	gateway, err := d.gateway(ctx, id.Remote)
	if err != nil {
		return nil, err
	}
	return gateway.FetchSnapshot(ctx, id, snapshot)
}

func (d *ServerDialer) SnapshotCreate(ctx context.Context, id resource.Identity, snapshot string) error {
	gateway, err := d.gateway(ctx, id.Remote)
	if err != nil {
		return err
	}
	return gateway.SnapshotCreate(ctx, id, snapshot)
}

func (d *ServerDialer) SnapshotDelete(ctx context.Context, id resource.Identity, snapshot string) error {
	gateway, err := d.gateway(ctx, id.Remote)
	if err != nil {
		return err
	}
	return gateway.SnapshotDelete(ctx, id, snapshot)
}

func (d *ServerDialer) SnapshotRestore(ctx context.Context, id resource.Identity, snapshot string) error {
	gateway, err := d.gateway(ctx, id.Remote)
	if err != nil {
		return err
	}
	return gateway.SnapshotRestore(ctx, id, snapshot)
}

func (d *ServerDialer) Export(ctx context.Context, id resource.Identity, exportTo string) error {
	gateway, err := d.gateway(ctx, id.Remote)
	if err != nil {
		return err
	}
	return gateway.Export(ctx, id, exportTo)
}

func (d *ServerDialer) Import(ctx context.Context, spec resource.Spec) (*resource.Actual, error) {
	gateway, err := d.gateway(ctx, spec.Identity.Remote)
	if err != nil {
		return nil, err
	}
	return gateway.Import(ctx, spec)
}

func (d *ServerDialer) Copy(ctx context.Context, id resource.Identity, params incus.CopyParams) (*resource.Actual, error) {
	gateway, err := d.gateway(ctx, id.Remote)
	if err != nil {
		return nil, err
	}
	return gateway.Copy(ctx, id, params)
}

func (d *ServerDialer) DeviceAttach(ctx context.Context, id resource.Identity, attach incus.AttachParams) error {
	gateway, err := d.gateway(ctx, id.Remote)
	if err != nil {
		return err
	}
	return gateway.DeviceAttach(ctx, id, attach)
}

func (d *ServerDialer) InstanceDeviceExists(ctx context.Context, id resource.Identity, instance, device string) (bool, error) {
	gateway, err := d.gateway(ctx, id.Remote)
	if err != nil {
		return false, err
	}
	return gateway.InstanceDeviceExists(ctx, id, instance, device)
}
