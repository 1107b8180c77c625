package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRemoteAddAndList(t *testing.T) {
	catalogPath := filepath.Join(t.TempDir(), "remotes.yaml")

	_, err := runCommand(t, "remote", "add", "prod", "https://incus.example.com:8443",
		"--project", "infra", "--remotes-file", catalogPath)
	if err != nil {
		t.Fatalf("remote add: %v", err)
	}

	output, err := runCommand(t, "remote", "list", "--remotes-file", catalogPath)
	if err != nil {
		t.Fatalf("remote list: %v", err)
	}
	if !strings.Contains(output, "prod (default)") || !strings.Contains(output, "https://incus.example.com:8443") {
		t.Fatalf("unexpected list output:\n%s", output)
	}
}

func TestApplyCreatesRemoteFromSpec(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "remotes.yaml")
	specPath := writeFile(t, dir, "remotes-spec.yaml", `kind: remote
name: prod
state: present
url: https://incus.example.com:8443
`)

	output, err := runCommand(t, "apply", specPath, "--remotes-file", catalogPath)
	if err != nil {
		t.Fatalf("apply: %v\n%s", err, output)
	}
	if !strings.Contains(output, "create") || !strings.Contains(output, "remote prod") {
		t.Fatalf("unexpected apply output:\n%s", output)
	}

	// A second apply converges to unchanged.
	output, err = runCommand(t, "apply", specPath, "--remotes-file", catalogPath)
	if err != nil {
		t.Fatalf("second apply: %v\n%s", err, output)
	}
	if !strings.Contains(output, "unchanged") {
		t.Fatalf("expected unchanged on second apply:\n%s", output)
	}
}

func TestApplyCheckDoesNotMutate(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "remotes.yaml")
	specPath := writeFile(t, dir, "remotes-spec.yaml", `kind: remote
name: prod
state: present
url: https://incus.example.com:8443
`)

	output, err := runCommand(t, "apply", specPath, "--check", "--remotes-file", catalogPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, output)
	}
	if !strings.Contains(output, "would create") {
		t.Fatalf("expected would-create report:\n%s", output)
	}

	if _, err := os.Stat(catalogPath); !os.IsNotExist(err) {
		t.Fatal("check mode must not write the catalog")
	}
}

func TestApplyAbsentNeedsConfirmation(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "remotes.yaml")
	specPath := writeFile(t, dir, "remove.yaml", `kind: remote
name: prod
state: absent
`)

	// Test runs have no terminal on stdin, so the guard must demand --yes.
	_, err := runCommand(t, "apply", specPath, "--remotes-file", catalogPath)
	if err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("expected --yes guard, got %v", err)
	}

	// Deleting a remote that is not in the catalog is idempotent.
	output, err := runCommand(t, "apply", specPath, "--yes", "--remotes-file", catalogPath)
	if err != nil {
		t.Fatalf("apply --yes: %v\n%s", err, output)
	}
	if !strings.Contains(output, "unchanged") {
		t.Fatalf("expected unchanged for missing remote:\n%s", output)
	}
}

func TestDiffReportsPlan(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "remotes.yaml")
	specPath := writeFile(t, dir, "remotes-spec.yaml", `kind: remote
name: prod
state: present
url: https://incus.example.com:8443
`)

	output, err := runCommand(t, "diff", specPath, "--remotes-file", catalogPath)
	if err != nil {
		t.Fatalf("diff: %v\n%s", err, output)
	}
	if !strings.Contains(output, "op: create") || !strings.Contains(output, "changed: true") {
		t.Fatalf("unexpected diff output:\n%s", output)
	}
}

func TestDiffJQFilter(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "remotes.yaml")
	specPath := writeFile(t, dir, "remotes-spec.yaml", `kind: remote
name: prod
state: present
url: https://incus.example.com:8443
`)

	output, err := runCommand(t, "diff", specPath, "--jq", ".[0].op", "--remotes-file", catalogPath)
	if err != nil {
		t.Fatalf("diff --jq: %v\n%s", err, output)
	}
	if !strings.Contains(output, "create") {
		t.Fatalf("unexpected filtered output:\n%s", output)
	}
}

func TestVersionCommand(t *testing.T) {
	output, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(output, "declincus") {
		t.Fatalf("unexpected version output %q", output)
	}
}

func TestApplyWithoutSpecsFails(t *testing.T) {
	_, err := runCommand(t, "apply")
	if err == nil || !strings.Contains(err.Error(), "no spec files") {
		t.Fatalf("expected missing-specs error, got %v", err)
	}
}
