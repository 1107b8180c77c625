// Package repository defines where declaration documents live. A spec
// repository lists and loads YAML documents; the git-backed implementation
// additionally syncs against a remote before reading.
package repository

import (
	"context"

	"github.com/crystian/declincus/resource"
)

type SpecRepository interface {
	// List returns the relative paths of all declaration documents,
	// sorted for deterministic apply order.
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, path string) ([]resource.Spec, error)
}

// Syncer is the optional capability of repositories with a remote side.
type Syncer interface {
	Sync(ctx context.Context) error
}

// LoadAll flattens every document of the repository into one spec list,
// preserving list order.
func LoadAll(ctx context.Context, repo SpecRepository) ([]resource.Spec, error) {
	paths, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}

	var specs []resource.Spec
	for _, path := range paths {
		loaded, err := repo.Load(ctx, path)
		if err != nil {
			return nil, err
		}
		specs = append(specs, loaded...)
	}
	return specs, nil
}
