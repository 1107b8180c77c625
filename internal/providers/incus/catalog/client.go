// Package catalog adapts the remote catalog service to the resource client
// contract. The remote kind never talks to a server: reconciling a remote
// edits the local catalog file.
package catalog

import (
	"context"
	"fmt"

	"github.com/crystian/declincus/config"
	"github.com/crystian/declincus/faults"
	"github.com/crystian/declincus/incus"
	"github.com/crystian/declincus/resource"
)

var _ incus.ResourceClient = (*Client)(nil)

type Client struct {
	Remotes config.RemoteService
}

func NewClient(remotes config.RemoteService) *Client {
	return &Client{Remotes: remotes}
}

func (c *Client) Fetch(ctx context.Context, kind resource.Kind, id resource.Identity) (*resource.Actual, error) {
	if err := c.checkKind(kind); err != nil {
		return nil, err
	}

	remote, err := c.Remotes.Get(ctx, id.Name)
	if err != nil {
		return nil, err
	}
	return remoteToActual(remote), nil
}

func (c *Client) Create(ctx context.Context, spec resource.Spec) (*resource.Actual, error) {
	if err := c.checkKind(spec.Kind); err != nil {
		return nil, err
	}

	remote := config.Remote{
		Name:        spec.Identity.Name,
		Description: spec.Description,
		URL:         spec.URL,
		Protocol:    spec.Protocol,
		Options:     spec.Config,
	}
	if err := c.Remotes.Create(ctx, remote); err != nil {
		return nil, err
	}
	return remoteToActual(remote), nil
}

func (c *Client) Update(ctx context.Context, kind resource.Kind, id resource.Identity, patch resource.Patch) (*resource.Actual, error) {
	if err := c.checkKind(kind); err != nil {
		return nil, err
	}

	remote, err := c.Remotes.Get(ctx, id.Name)
	if err != nil {
		return nil, err
	}

	options := resource.ConfigMap(remote.Options).Clone()
	if options == nil && len(patch.Set) > 0 {
		options = make(resource.ConfigMap, len(patch.Set))
	}
	for key, value := range patch.Set {
		options[key] = value
	}
	for _, key := range patch.Remove {
		delete(options, key)
	}
	remote.Options = options

	if patch.Description != nil {
		remote.Description = *patch.Description
	}
	if patch.URL != nil {
		remote.URL = *patch.URL
	}
	if patch.Protocol != nil {
		remote.Protocol = *patch.Protocol
	}

	if err := c.Remotes.Update(ctx, remote); err != nil {
		return nil, err
	}
	return remoteToActual(remote), nil
}

func (c *Client) Delete(ctx context.Context, kind resource.Kind, id resource.Identity) error {
	if err := c.checkKind(kind); err != nil {
		return err
	}
	return c.Remotes.Delete(ctx, id.Name)
}

func (c *Client) Rename(ctx context.Context, kind resource.Kind, from resource.Identity, to string) error {
	if err := c.checkKind(kind); err != nil {
		return err
	}
	return c.Remotes.Rename(ctx, from.Name, to)
}

func (c *Client) checkKind(kind resource.Kind) error {
	if kind != resource.KindRemote {
		return faults.NewTypedError(
			faults.InternalError,
			fmt.Sprintf("catalog client cannot handle kind %q", kind),
			nil,
		)
	}
	return nil
}

func remoteToActual(remote config.Remote) *resource.Actual {
	return &resource.Actual{
		Name:        remote.Name,
		Description: remote.Description,
		URL:         remote.URL,
		Protocol:    remote.Protocol,
		Config:      resource.ConfigMap(remote.Options).Clone(),
	}
}
