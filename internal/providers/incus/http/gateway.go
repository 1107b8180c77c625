// Package http implements the resource client contract against the Incus
// REST API. One gateway instance serves one remote.
package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-logr/logr"
	"golang.org/x/time/rate"

	"github.com/crystian/declincus/config"
	"github.com/crystian/declincus/incus"
	"github.com/crystian/declincus/internal/providers/shared/tlsconfig"
	"github.com/crystian/declincus/resource"
)

const (
	defaultHTTPTimeout = 30 * time.Second

	// Incus serializes storage operations server-side; a modest client
	// ceiling keeps bulk applies from flooding the operation queue.
	defaultRateLimit = rate.Limit(10)
	defaultRateBurst = 20
)

var _ incus.ResourceClient = (*Gateway)(nil)
var _ incus.VolumeActions = (*Gateway)(nil)

type Gateway struct {
	baseURL *url.URL
	client  *http.Client
	limiter *rate.Limiter
	log     logr.Logger

	versionMu     sync.Mutex
	versionLoaded bool
	serverVersion *semver.Version
	versionErr    error
}

func NewGateway(remote config.Remote, log logr.Logger) (*Gateway, error) {
	baseURL, err := parseBaseURL(remote.URL)
	if err != nil {
		return nil, err
	}

	tlsConfig, err := tlsconfig.Build(remote.TLS, "remote "+remote.Name)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig

	return &Gateway{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   defaultHTTPTimeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(defaultRateLimit, defaultRateBurst),
		log:     log,
	}, nil
}

func (g *Gateway) Fetch(ctx context.Context, kind resource.Kind, id resource.Identity) (*resource.Actual, error) {
	path, query, err := resourcePath(kind, id)
	if err != nil {
		return nil, err
	}

	var payload apiResource
	if _, err := g.execute(ctx, http.MethodGet, path, query, nil, &payload); err != nil {
		return nil, err
	}
	return payload.toActual(), nil
}

func (g *Gateway) Create(ctx context.Context, spec resource.Spec) (*resource.Actual, error) {
	path, query, err := collectionPath(spec.Kind, spec.Identity)
	if err != nil {
		return nil, err
	}
	if spec.Kind == resource.KindStorageVolume && spec.Target != "" {
		query.Set("target", spec.Target)
	}

	body := apiResource{
		Name:        spec.Identity.Name,
		Description: spec.Description,
		Driver:      spec.Driver,
		Config:      spec.Config,
		Devices:     fromDeviceMap(spec.Devices),
		ContentType: volumeContentType(spec),
	}
	if _, err := g.execute(ctx, http.MethodPost, path, query, body, nil); err != nil {
		return nil, err
	}

	return g.Fetch(ctx, spec.Kind, spec.Identity)
}

// Update converges via read-modify-write: the API's PATCH cannot unset
// keys, so removals require a full PUT of the merged state.
func (g *Gateway) Update(ctx context.Context, kind resource.Kind, id resource.Identity, patch resource.Patch) (*resource.Actual, error) {
	current, err := g.Fetch(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	merged := current.Clone()
	merged.Config = resource.ApplyPatch(current.Config, patch)
	merged.Devices = resource.ApplyDevicePatch(current.Devices, patch.Devices)
	if patch.Description != nil {
		merged.Description = *patch.Description
	}

	path, query, err := resourcePath(kind, id)
	if err != nil {
		return nil, err
	}

	body := apiResource{
		Description: merged.Description,
		Config:      merged.Config,
		Devices:     fromDeviceMap(merged.Devices),
	}
	if _, err := g.execute(ctx, http.MethodPut, path, query, body, nil); err != nil {
		return nil, err
	}
	return merged, nil
}

func (g *Gateway) Delete(ctx context.Context, kind resource.Kind, id resource.Identity) error {
	path, query, err := resourcePath(kind, id)
	if err != nil {
		return err
	}
	_, err = g.execute(ctx, http.MethodDelete, path, query, nil, nil)
	return err
}

func (g *Gateway) Rename(ctx context.Context, kind resource.Kind, from resource.Identity, to string) error {
	path, query, err := resourcePath(kind, from)
	if err != nil {
		return err
	}
	_, err = g.execute(ctx, http.MethodPost, path, query, apiRename{Name: to}, nil)
	return err
}

// requireServerVersion gates features the API only grew in later releases.
func (g *Gateway) requireServerVersion(ctx context.Context, minimum, feature string) error {
	version, err := g.fetchServerVersion(ctx)
	if err != nil {
		return err
	}
	if version == nil {
		// Unparseable development builds are assumed current.
		return nil
	}

	min, err := semver.NewVersion(minimum)
	if err != nil {
		return internalError(fmt.Sprintf("invalid minimum version %q", minimum), err)
	}
	if version.LessThan(min) {
		return validationError(
			fmt.Sprintf("server version %s does not support %s (needs %s or newer)", version, feature, minimum),
			nil,
		)
	}
	return nil
}

func (g *Gateway) fetchServerVersion(ctx context.Context) (*semver.Version, error) {
	g.versionMu.Lock()
	defer g.versionMu.Unlock()

	if g.versionLoaded {
		return g.serverVersion, g.versionErr
	}

	var info apiServerInfo
	if _, err := g.execute(ctx, http.MethodGet, apiPrefix, nil, nil, &info); err != nil {
		return nil, err
	}
	g.versionLoaded = true

	parsed, err := semver.NewVersion(strings.TrimSpace(info.Environment.ServerVersion))
	if err != nil {
		g.serverVersion = nil
	} else {
		g.serverVersion = parsed
	}
	return g.serverVersion, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, validationError("remote url is required", nil)
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return nil, validationError("remote url is invalid", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, validationError("remote url must use http or https", nil)
	}
	if parsed.Host == "" {
		return nil, validationError("remote url host is required", nil)
	}

	return parsed, nil
}
