package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/google/uuid"

	"github.com/crystian/declincus/incus"
	"github.com/crystian/declincus/resource"
)

// Cross-pool volume moves arrived with the 0.4 release line.
const minVersionVolumeMove = "0.4.0"

// volumeContentType maps the declared volume shape onto the wire's
// content_type field: a block volume travels as content_type=block,
// everything else passes the declared content type (iso) through.
func volumeContentType(spec resource.Spec) string {
	if spec.VolumeType == "block" {
		return "block"
	}
	return spec.ContentType
}

func (g *Gateway) FetchSnapshot(ctx context.Context, id resource.Identity, snapshot string) (*resource.Actual, error) {
	path, query, err := snapshotPath(id, snapshot)
	if err != nil {
		return nil, err
	}

	var payload apiResource
	if _, err := g.execute(ctx, http.MethodGet, path, query, nil, &payload); err != nil {
		return nil, err
	}
	return payload.toActual(), nil
}

func (g *Gateway) SnapshotCreate(ctx context.Context, id resource.Identity, snapshot string) error {
	path, query, err := snapshotCollectionPath(id)
	if err != nil {
		return err
	}
	_, err = g.execute(ctx, http.MethodPost, path, query, apiSnapshot{Name: snapshot}, nil)
	return err
}

func (g *Gateway) SnapshotDelete(ctx context.Context, id resource.Identity, snapshot string) error {
	path, query, err := snapshotPath(id, snapshot)
	if err != nil {
		return err
	}
	_, err = g.execute(ctx, http.MethodDelete, path, query, nil, nil)
	return err
}

func (g *Gateway) SnapshotRestore(ctx context.Context, id resource.Identity, snapshot string) error {
	path, query, err := resourcePath(resource.KindStorageVolume, id)
	if err != nil {
		return err
	}
	_, err = g.execute(ctx, http.MethodPut, path, query, apiRestore{Restore: snapshot}, nil)
	return err
}

// Export stages a server-side backup, downloads its tarball and removes
// the backup again. The staging name is random so concurrent exports of
// the same volume cannot collide.
func (g *Gateway) Export(ctx context.Context, id resource.Identity, exportTo string) error {
	base, query, err := resourcePath(resource.KindStorageVolume, id)
	if err != nil {
		return err
	}

	backupName := "declincus-" + uuid.NewString()
	backupPath := base + "/backups"
	if _, err := g.execute(ctx, http.MethodPost, backupPath, query,
		apiBackup{Name: backupName, VolumeOnly: true}, nil); err != nil {
		return err
	}
	defer func() {
		_, _ = g.execute(ctx, http.MethodDelete, backupPath+"/"+url.PathEscape(backupName), query, nil, nil)
	}()

	return g.download(ctx, backupPath+"/"+url.PathEscape(backupName)+"/export", query, exportTo)
}

func (g *Gateway) Import(ctx context.Context, spec resource.Spec) (*resource.Actual, error) {
	path, query, err := collectionPath(resource.KindStorageVolume, spec.Identity)
	if err != nil {
		return nil, err
	}

	source, err := os.Open(spec.ImportFrom)
	if err != nil {
		return nil, validationError(fmt.Sprintf("cannot read backup file %s", spec.ImportFrom), err)
	}
	defer source.Close()

	if err := g.upload(ctx, path, query, spec.Identity.Name, volumeContentType(spec), source); err != nil {
		return nil, err
	}
	return g.Fetch(ctx, resource.KindStorageVolume, spec.Identity)
}

func (g *Gateway) Copy(ctx context.Context, id resource.Identity, params incus.CopyParams) (*resource.Actual, error) {
	targetIdentity := id
	targetIdentity.Pool = params.TargetPool
	targetIdentity.Name = params.TargetVolume

	if params.Move {
		if err := g.requireServerVersion(ctx, minVersionVolumeMove, "volume move"); err != nil {
			return nil, err
		}

		path, query, err := resourcePath(resource.KindStorageVolume, id)
		if err != nil {
			return nil, err
		}
		if params.Target != "" {
			query.Set("target", params.Target)
		}
		body := apiRename{Name: params.TargetVolume, Pool: params.TargetPool}
		if _, err := g.execute(ctx, http.MethodPost, path, query, body, nil); err != nil {
			return nil, err
		}
		return g.Fetch(ctx, resource.KindStorageVolume, targetIdentity)
	}

	path, query, err := collectionPath(resource.KindStorageVolume, targetIdentity)
	if err != nil {
		return nil, err
	}
	if params.Target != "" {
		query.Set("target", params.Target)
	}
	body := apiVolumeCopy{
		Name: params.TargetVolume,
		Source: &apiVolumeSource{
			Name: id.Name,
			Pool: id.Pool,
			Type: "copy",
		},
	}
	if _, err := g.execute(ctx, http.MethodPost, path, query, body, nil); err != nil {
		return nil, err
	}
	return g.Fetch(ctx, resource.KindStorageVolume, targetIdentity)
}

func (g *Gateway) DeviceAttach(ctx context.Context, id resource.Identity, attach incus.AttachParams) error {
	path, query := instancePath(id.Project, attach.Instance)

	device := map[string]string{
		"type":   "disk",
		"pool":   id.Pool,
		"source": id.Name,
	}
	if attach.Path != "" {
		device["path"] = attach.Path
	}

	body := map[string]any{
		"devices": map[string]map[string]string{attach.Device: device},
	}
	_, err := g.execute(ctx, http.MethodPatch, path, query, body, nil)
	return err
}

func (g *Gateway) InstanceDeviceExists(ctx context.Context, id resource.Identity, instance, device string) (bool, error) {
	path, query := instancePath(id.Project, instance)

	var payload apiResource
	if _, err := g.execute(ctx, http.MethodGet, path, query, nil, &payload); err != nil {
		return false, err
	}
	_, ok := payload.Devices[device]
	return ok, nil
}

// download streams a non-envelope response body into a local file.
func (g *Gateway) download(ctx context.Context, path string, query url.Values, dest string) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return classifyTransportError(err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, g.resolveURL(path, query), nil)
	if err != nil {
		return internalError("failed to build download request", err)
	}

	response, err := g.client.Do(request)
	if err != nil {
		return classifyTransportError(err)
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
		return classifyStatusError(response.StatusCode, summarizeBody(raw))
	}

	file, err := os.Create(dest)
	if err != nil {
		return validationError(fmt.Sprintf("cannot write export file %s", dest), err)
	}
	if _, err := io.Copy(file, response.Body); err != nil {
		_ = file.Close()
		_ = os.Remove(dest)
		return remoteError("export download interrupted", err)
	}
	return file.Close()
}

// upload streams a backup tarball to a collection endpoint. The volume
// name and content type travel in headers, matching the API's
// octet-stream create form.
func (g *Gateway) upload(ctx context.Context, path string, query url.Values, name, contentType string, source io.Reader) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return classifyTransportError(err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, g.resolveURL(path, query), source)
	if err != nil {
		return internalError("failed to build upload request", err)
	}
	request.Header.Set("Content-Type", "application/octet-stream")
	request.Header.Set("X-Incus-name", name)
	if contentType != "" {
		request.Header.Set("X-Incus-type", contentType)
	}

	response, err := g.client.Do(request)
	if err != nil {
		return classifyTransportError(err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return remoteError("failed to read upload response", err)
	}
	if response.StatusCode >= http.StatusBadRequest {
		return classifyStatusError(response.StatusCode, summarizeBody(raw))
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return remoteError("upload response is not valid JSON", err)
	}
	if envelope.Type == "async" && envelope.Operation != "" {
		return g.waitOperation(ctx, envelope.Operation)
	}
	return nil
}
