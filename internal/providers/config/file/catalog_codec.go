package file

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/crystian/declincus/config"
	"go.yaml.in/yaml/v3"
)

func decodeCatalogFile(path string) (config.RemoteCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config.RemoteCatalog{}, err
	}
	return decodeCatalog(data)
}

func decodeCatalog(data []byte) (config.RemoteCatalog, error) {
	var catalog config.RemoteCatalog

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&catalog); err != nil {
		return config.RemoteCatalog{}, validationError("invalid remote catalog yaml", err)
	}

	return catalog, nil
}

func encodeCatalog(catalog config.RemoteCatalog) ([]byte, error) {
	return yaml.Marshal(catalog)
}

func resolveCatalogPath(explicitPath string) (string, error) {
	path := explicitPath
	if path == "" {
		path = os.Getenv(config.RemotesFileEnvVar)
	}
	if path == "" {
		path = config.DefaultRemoteCatalogPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", internalError("failed to resolve user home directory", err)
	}

	if path == "~" {
		path = homeDir
	} else if strings.HasPrefix(path, "~/") {
		path = filepath.Join(homeDir, strings.TrimPrefix(path, "~/"))
	}

	cleanPath := filepath.Clean(path)
	if cleanPath == "." {
		return "", validationError("remote catalog path is invalid", errors.New("resolved to current directory"))
	}

	if !filepath.IsAbs(cleanPath) {
		cleanPath = filepath.Join(homeDir, cleanPath)
	}

	return cleanPath, nil
}
