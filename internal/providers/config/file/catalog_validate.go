package file

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/crystian/declincus/config"
)

func validateCatalog(catalog config.RemoteCatalog) error {
	seen := make(map[string]struct{}, len(catalog.Remotes))
	for _, remote := range catalog.Remotes {
		if err := validateRemote(remote); err != nil {
			return err
		}
		if _, dup := seen[remote.Name]; dup {
			return validationError(fmt.Sprintf("duplicate remote %q in catalog", remote.Name), nil)
		}
		seen[remote.Name] = struct{}{}
	}

	if catalog.DefaultRemote != "" {
		if _, ok := seen[catalog.DefaultRemote]; !ok {
			return validationError(fmt.Sprintf("default remote %q is not in the catalog", catalog.DefaultRemote), nil)
		}
	}

	return nil
}

func validateRemote(remote config.Remote) error {
	if strings.TrimSpace(remote.Name) == "" {
		return validationError("remote name must not be empty", nil)
	}
	if strings.TrimSpace(remote.URL) == "" {
		return validationError(fmt.Sprintf("remote %q has no url", remote.Name), nil)
	}

	parsed, err := url.Parse(remote.URL)
	if err != nil || parsed.Scheme == "" {
		return validationError(fmt.Sprintf("remote %q has an invalid url %q", remote.Name, remote.URL), err)
	}

	switch remote.Protocol {
	case "", config.ProtocolIncus, config.ProtocolSimpleStreams:
	default:
		return validationError(
			fmt.Sprintf("remote %q has unsupported protocol %q", remote.Name, remote.Protocol), nil)
	}

	if remote.Auth != nil && remote.Auth.TrustToken != "" && remote.Auth.BasicAuth != nil {
		return validationError(
			fmt.Sprintf("remote %q declares both trust-token and basic-auth", remote.Name), nil)
	}

	return nil
}
