package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/crystian/declincus/config"
	"github.com/crystian/declincus/faults"
)

func newTestService(t *testing.T) *FileRemoteService {
	t.Helper()
	return NewFileRemoteService(filepath.Join(t.TempDir(), "remotes.yaml"))
}

func TestCreateGetRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	remote := config.Remote{
		Name:     "prod",
		URL:      "https://incus.example.com:8443",
		Protocol: config.ProtocolIncus,
		Options:  map[string]string{"project": "infra"},
	}
	if err := svc.Create(ctx, remote); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Get(ctx, "prod")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.URL != remote.URL || got.Options["project"] != "infra" {
		t.Fatalf("unexpected remote: %+v", got)
	}

	// First created remote becomes the default.
	def, err := svc.GetDefault(ctx)
	if err != nil {
		t.Fatalf("get default: %v", err)
	}
	if def.Name != "prod" {
		t.Fatalf("expected prod as default, got %q", def.Name)
	}
}

func TestCreateDuplicateIsValidationError(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	remote := config.Remote{Name: "prod", URL: "https://incus.example.com:8443"}
	if err := svc.Create(ctx, remote); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Create(ctx, remote); !faults.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetMissingIsNotFound(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Get(context.Background(), "nope"); !faults.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestDeleteReassignsDefault(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"one", "two"} {
		if err := svc.Create(ctx, config.Remote{Name: name, URL: "https://" + name + ".example.com"}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	if err := svc.Delete(ctx, "one"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	def, err := svc.GetDefault(ctx)
	if err != nil {
		t.Fatalf("get default: %v", err)
	}
	if def.Name != "two" {
		t.Fatalf("expected default to move to two, got %q", def.Name)
	}
}

func TestRenameFollowsDefault(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.Create(ctx, config.Remote{Name: "old", URL: "https://incus.example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Rename(ctx, "old", "new"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	if _, err := svc.Get(ctx, "old"); !faults.IsNotFound(err) {
		t.Fatalf("old name must be gone, got %v", err)
	}
	def, err := svc.GetDefault(ctx)
	if err != nil {
		t.Fatalf("get default: %v", err)
	}
	if def.Name != "new" {
		t.Fatalf("default must follow the rename, got %q", def.Name)
	}
}

func TestValidateRejectsBadCatalog(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []config.Remote{
		{Name: "", URL: "https://incus.example.com"},
		{Name: "no-url"},
		{Name: "bad-url", URL: "://broken"},
		{Name: "bad-protocol", URL: "https://incus.example.com", Protocol: "ftp"},
	}
	for _, remote := range cases {
		if err := svc.Create(ctx, remote); !faults.IsValidation(err) {
			t.Fatalf("remote %+v: expected validation error, got %v", remote, err)
		}
	}
}

func TestCatalogFileIsUserOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remotes.yaml")
	svc := NewFileRemoteService(path)

	if err := svc.Create(context.Background(), config.Remote{Name: "prod", URL: "https://incus.example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}
}

func TestEnvVarOverridesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "from-env.yaml")
	t.Setenv(config.RemotesFileEnvVar, path)

	svc := NewFileRemoteService("")
	if err := svc.Create(context.Background(), config.Remote{Name: "prod", URL: "https://incus.example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("catalog not written at env path: %v", err)
	}
}
