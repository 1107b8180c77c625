package fsstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/crystian/declincus/repository"
	"github.com/crystian/declincus/resource"
)

const profileDoc = `kind: profile
name: web
state: present
config:
  limits.cpu: "4"
`

const projectDoc = `kind: project
name: infra
state: present
`

func writeSpec(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestListIsSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "b/profiles.yaml", profileDoc)
	writeSpec(t, dir, "a/projects.yml", projectDoc)
	writeSpec(t, dir, "notes.txt", "not a spec")
	writeSpec(t, dir, ".hidden/skip.yaml", profileDoc)

	repo := NewLocalSpecRepository(dir)
	paths, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	want := []string{"a/projects.yml", "b/profiles.yaml"}
	if len(paths) != len(want) {
		t.Fatalf("unexpected paths %v", paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("unexpected paths %v, want %v", paths, want)
		}
	}
}

func TestLoadAllFlattensDocuments(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "profiles.yaml", profileDoc)
	writeSpec(t, dir, "projects.yaml", projectDoc)

	specs, err := repository.LoadAll(context.Background(), NewLocalSpecRepository(dir))
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}
	if specs[0].Kind != resource.KindProfile || specs[1].Kind != resource.KindProject {
		t.Fatalf("unexpected order: %s then %s", specs[0].Kind, specs[1].Kind)
	}
}

func TestLoadInvalidSpecFails(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "bad.yaml", "kind: profile\nstate: sideways\nname: x\n")

	_, err := NewLocalSpecRepository(dir).Load(context.Background(), "bad.yaml")
	if err == nil {
		t.Fatal("expected validation failure")
	}
}
