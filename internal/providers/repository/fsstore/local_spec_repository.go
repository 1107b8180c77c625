package fsstore

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/crystian/declincus/faults"
	"github.com/crystian/declincus/repository"
	"github.com/crystian/declincus/resource"
)

var _ repository.SpecRepository = (*LocalSpecRepository)(nil)

type LocalSpecRepository struct {
	baseDir string
}

func NewLocalSpecRepository(baseDir string) *LocalSpecRepository {
	return &LocalSpecRepository{baseDir: baseDir}
}

func (r *LocalSpecRepository) List(_ context.Context) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(r.baseDir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			// Dot directories hold repository internals, not declarations.
			if strings.HasPrefix(entry.Name(), ".") && path != r.baseDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !isSpecFile(entry.Name()) {
			return nil
		}

		relative, relErr := filepath.Rel(r.baseDir, path)
		if relErr != nil {
			return relErr
		}
		paths = append(paths, filepath.ToSlash(relative))
		return nil
	})
	if err != nil {
		return nil, faults.NewTypedError(faults.InternalError, "failed to scan spec directory "+r.baseDir, err)
	}

	sort.Strings(paths)
	return paths, nil
}

func (r *LocalSpecRepository) Load(_ context.Context, path string) ([]resource.Spec, error) {
	return resource.ParseFile(filepath.Join(r.baseDir, filepath.FromSlash(path)))
}

func isSpecFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
