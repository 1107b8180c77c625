package reconciler_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// The engine must stay transport-agnostic: everything it knows about the
// hypervisor arrives through the incus client interfaces.
func TestReconcilerPackageAvoidsTransportImports(t *testing.T) {
	root := repoRoot(t)
	for _, forbidden := range []string{"net/http", "github.com/go-git/go-git"} {
		for _, file := range goFiles(t, filepath.Join(root, "reconciler")) {
			content := readFile(t, file)
			if strings.Contains(content, `"`+forbidden+`"`) {
				t.Fatalf("reconciler file imports %s directly: %s", forbidden, file)
			}
		}
	}
}

func TestResourcePackageAvoidsClientImports(t *testing.T) {
	root := repoRoot(t)
	for _, file := range goFiles(t, filepath.Join(root, "resource")) {
		content := readFile(t, file)
		if strings.Contains(content, "declincus/incus") {
			t.Fatalf("resource file imports the client package: %s", file)
		}
	}
}

func repoRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to resolve current file path")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), ".."))
}

func goFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	return files
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file %s: %v", path, err)
	}
	return string(data)
}
