package config

import "context"

type RemoteCatalogReader interface {
	List(ctx context.Context) ([]Remote, error)
	Get(ctx context.Context, name string) (Remote, error)
	GetDefault(ctx context.Context) (Remote, error)
}

type RemoteCatalogWriter interface {
	Create(ctx context.Context, remote Remote) error
	Update(ctx context.Context, remote Remote) error
	Delete(ctx context.Context, name string) error
	Rename(ctx context.Context, fromName string, toName string) error
	SetDefault(ctx context.Context, name string) error
}

type RemoteService interface {
	RemoteCatalogReader
	RemoteCatalogWriter
}
