package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crystian/declincus/config"
	"github.com/crystian/declincus/faults"
)

var _ config.RemoteService = (*FileRemoteService)(nil)

// FileRemoteService persists the remote catalog in a single YAML file,
// rewritten atomically on every mutation.
type FileRemoteService struct {
	catalogPath string
}

func NewFileRemoteService(path string) *FileRemoteService {
	return &FileRemoteService{catalogPath: path}
}

func (s *FileRemoteService) List(_ context.Context) ([]config.Remote, error) {
	catalog, err := s.loadCatalog()
	if err != nil {
		return nil, err
	}

	remotes := make([]config.Remote, len(catalog.Remotes))
	copy(remotes, catalog.Remotes)
	return remotes, nil
}

func (s *FileRemoteService) Get(_ context.Context, name string) (config.Remote, error) {
	catalog, err := s.loadCatalog()
	if err != nil {
		return config.Remote{}, err
	}

	idx := findRemoteIndex(catalog.Remotes, name)
	if idx < 0 {
		return config.Remote{}, notFoundError(fmt.Sprintf("remote %q not found", name))
	}
	return catalog.Remotes[idx], nil
}

func (s *FileRemoteService) GetDefault(_ context.Context) (config.Remote, error) {
	catalog, err := s.loadCatalog()
	if err != nil {
		return config.Remote{}, err
	}
	if catalog.DefaultRemote == "" {
		return config.Remote{}, notFoundError("default remote not set")
	}

	idx := findRemoteIndex(catalog.Remotes, catalog.DefaultRemote)
	if idx < 0 {
		return config.Remote{}, notFoundError(fmt.Sprintf("default remote %q not found", catalog.DefaultRemote))
	}
	return catalog.Remotes[idx], nil
}

func (s *FileRemoteService) Create(_ context.Context, remote config.Remote) error {
	if err := validateRemote(remote); err != nil {
		return err
	}

	catalog, err := s.loadCatalog()
	if err != nil {
		return err
	}

	if findRemoteIndex(catalog.Remotes, remote.Name) >= 0 {
		return validationError(fmt.Sprintf("remote %q already exists", remote.Name), nil)
	}

	catalog.Remotes = append(catalog.Remotes, remote)
	if catalog.DefaultRemote == "" {
		catalog.DefaultRemote = remote.Name
	}

	return s.saveCatalog(catalog)
}

func (s *FileRemoteService) Update(_ context.Context, remote config.Remote) error {
	if err := validateRemote(remote); err != nil {
		return err
	}

	catalog, err := s.loadCatalog()
	if err != nil {
		return err
	}

	idx := findRemoteIndex(catalog.Remotes, remote.Name)
	if idx < 0 {
		return notFoundError(fmt.Sprintf("remote %q not found", remote.Name))
	}

	catalog.Remotes[idx] = remote
	return s.saveCatalog(catalog)
}

func (s *FileRemoteService) Delete(_ context.Context, name string) error {
	catalog, err := s.loadCatalog()
	if err != nil {
		return err
	}

	idx := findRemoteIndex(catalog.Remotes, name)
	if idx < 0 {
		return notFoundError(fmt.Sprintf("remote %q not found", name))
	}

	catalog.Remotes = append(catalog.Remotes[:idx], catalog.Remotes[idx+1:]...)

	if catalog.DefaultRemote == name {
		if len(catalog.Remotes) == 0 {
			catalog.DefaultRemote = ""
		} else {
			catalog.DefaultRemote = catalog.Remotes[0].Name
		}
	}

	return s.saveCatalog(catalog)
}

func (s *FileRemoteService) Rename(_ context.Context, fromName string, toName string) error {
	if toName == "" {
		return validationError("remote name must not be empty", nil)
	}

	catalog, err := s.loadCatalog()
	if err != nil {
		return err
	}

	fromIdx := findRemoteIndex(catalog.Remotes, fromName)
	if fromIdx < 0 {
		return notFoundError(fmt.Sprintf("remote %q not found", fromName))
	}
	if findRemoteIndex(catalog.Remotes, toName) >= 0 {
		return validationError(fmt.Sprintf("remote %q already exists", toName), nil)
	}

	catalog.Remotes[fromIdx].Name = toName
	if catalog.DefaultRemote == fromName {
		catalog.DefaultRemote = toName
	}

	return s.saveCatalog(catalog)
}

func (s *FileRemoteService) SetDefault(_ context.Context, name string) error {
	catalog, err := s.loadCatalog()
	if err != nil {
		return err
	}

	if findRemoteIndex(catalog.Remotes, name) < 0 {
		return notFoundError(fmt.Sprintf("remote %q not found", name))
	}

	catalog.DefaultRemote = name
	return s.saveCatalog(catalog)
}

func (s *FileRemoteService) saveCatalog(catalog config.RemoteCatalog) error {
	if err := validateCatalog(catalog); err != nil {
		return err
	}

	resolvedPath, err := resolveCatalogPath(s.catalogPath)
	if err != nil {
		return err
	}

	encoded, err := encodeCatalog(catalog)
	if err != nil {
		return internalError("failed to encode remote catalog", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolvedPath), 0o755); err != nil {
		return internalError("failed to create remote catalog directory", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(resolvedPath), ".declincus-remotes-*")
	if err != nil {
		return internalError("failed to create temporary remote catalog file", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(encoded); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return internalError("failed to write remote catalog", err)
	}
	if err := tempFile.Chmod(0o600); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return internalError("failed to set remote catalog permissions", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return internalError("failed to finalize remote catalog", err)
	}

	if err := os.Rename(tempPath, resolvedPath); err != nil {
		_ = os.Remove(tempPath)
		return internalError("failed to replace remote catalog", err)
	}

	return nil
}

func (s *FileRemoteService) loadCatalog() (config.RemoteCatalog, error) {
	resolvedPath, err := resolveCatalogPath(s.catalogPath)
	if err != nil {
		return config.RemoteCatalog{}, err
	}

	catalog, err := decodeCatalogFile(resolvedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.RemoteCatalog{}, nil
		}
		return config.RemoteCatalog{}, err
	}

	if err := validateCatalog(catalog); err != nil {
		return config.RemoteCatalog{}, err
	}

	return catalog, nil
}

func findRemoteIndex(remotes []config.Remote, name string) int {
	for idx, item := range remotes {
		if item.Name == name {
			return idx
		}
	}
	return -1
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func notFoundError(message string) error {
	return faults.NewTypedError(faults.NotFoundError, message, nil)
}

func internalError(message string, cause error) error {
	return faults.NewTypedError(faults.InternalError, message, cause)
}
