package http

import (
	"fmt"
	"net/url"

	"github.com/crystian/declincus/resource"
)

const apiPrefix = "/1.0"

// resourcePath builds the per-kind endpoint for one resource instance.
// Project scoping travels as a query parameter where the API accepts it;
// an empty project means the server default.
func resourcePath(kind resource.Kind, id resource.Identity) (string, url.Values, error) {
	query := url.Values{}

	switch kind {
	case resource.KindProfile:
		if id.Project != "" {
			query.Set("project", id.Project)
		}
		return apiPrefix + "/profiles/" + url.PathEscape(id.Name), query, nil

	case resource.KindProject:
		return apiPrefix + "/projects/" + url.PathEscape(id.Name), query, nil

	case resource.KindStoragePool:
		return apiPrefix + "/storage-pools/" + url.PathEscape(id.Name), query, nil

	case resource.KindStorageVolume:
		if id.Pool == "" {
			return "", nil, validationError(fmt.Sprintf("volume %q has no pool", id.Name), nil)
		}
		if id.Project != "" {
			query.Set("project", id.Project)
		}
		return volumeCollectionPath(id.Pool) + "/" + url.PathEscape(id.Name), query, nil
	}

	return "", nil, internalError(fmt.Sprintf("no endpoint for kind %q", kind), nil)
}

// collectionPath is the create endpoint for a kind.
func collectionPath(kind resource.Kind, id resource.Identity) (string, url.Values, error) {
	query := url.Values{}

	switch kind {
	case resource.KindProfile:
		if id.Project != "" {
			query.Set("project", id.Project)
		}
		return apiPrefix + "/profiles", query, nil

	case resource.KindProject:
		return apiPrefix + "/projects", query, nil

	case resource.KindStoragePool:
		return apiPrefix + "/storage-pools", query, nil

	case resource.KindStorageVolume:
		if id.Pool == "" {
			return "", nil, validationError(fmt.Sprintf("volume %q has no pool", id.Name), nil)
		}
		if id.Project != "" {
			query.Set("project", id.Project)
		}
		return volumeCollectionPath(id.Pool), query, nil
	}

	return "", nil, internalError(fmt.Sprintf("no endpoint for kind %q", kind), nil)
}

func volumeCollectionPath(pool string) string {
	return apiPrefix + "/storage-pools/" + url.PathEscape(pool) + "/volumes/custom"
}

func snapshotPath(id resource.Identity, snapshot string) (string, url.Values, error) {
	base, query, err := resourcePath(resource.KindStorageVolume, id)
	if err != nil {
		return "", nil, err
	}
	return base + "/snapshots/" + url.PathEscape(snapshot), query, nil
}

func snapshotCollectionPath(id resource.Identity) (string, url.Values, error) {
	base, query, err := resourcePath(resource.KindStorageVolume, id)
	if err != nil {
		return "", nil, err
	}
	return base + "/snapshots", query, nil
}

func instancePath(project, instance string) (string, url.Values) {
	query := url.Values{}
	if project != "" {
		query.Set("project", project)
	}
	return apiPrefix + "/instances/" + url.PathEscape(instance), query
}
