package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-logr/logr"

	"github.com/crystian/declincus/config"
	"github.com/crystian/declincus/faults"
	"github.com/crystian/declincus/resource"
)

func newTestGateway(t *testing.T, handler http.Handler) *Gateway {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gateway, err := NewGateway(config.Remote{Name: "test", URL: server.URL}, logr.Discard())
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	return gateway
}

func writeSync(t *testing.T, w http.ResponseWriter, metadata any) {
	t.Helper()
	raw, err := json.Marshal(metadata)
	if err != nil {
		t.Fatalf("encode metadata: %v", err)
	}
	_ = json.NewEncoder(w).Encode(apiEnvelope{
		Type:       "sync",
		Status:     "Success",
		StatusCode: 200,
		Metadata:   raw,
	})
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(apiEnvelope{Type: "error", ErrorCode: code, Error: message})
}

func TestFetchProfileScopesProject(t *testing.T) {
	var gotPath, gotProject string
	gateway := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotProject = r.URL.Query().Get("project")
		writeSync(t, w, apiResource{
			Name:   "web",
			Config: map[string]string{"limits.cpu": "4"},
		})
	}))

	actual, err := gateway.Fetch(context.Background(), resource.KindProfile,
		resource.Identity{Name: "web", Project: "infra"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotPath != "/1.0/profiles/web" || gotProject != "infra" {
		t.Fatalf("unexpected request: path=%s project=%s", gotPath, gotProject)
	}
	if actual.Config["limits.cpu"] != "4" {
		t.Fatalf("unexpected actual: %+v", actual)
	}
}

func TestFetchMissingIsNotFound(t *testing.T) {
	gateway := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	}))

	_, err := gateway.Fetch(context.Background(), resource.KindProfile, resource.Identity{Name: "nope"})
	if !faults.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestUpdateMergesBeforePut(t *testing.T) {
	var putBody apiResource
	gateway := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeSync(t, w, apiResource{
				Name:   "web",
				Config: map[string]string{"limits.cpu": "4", "stale": "yes"},
			})
		case http.MethodPut:
			if err := json.NewDecoder(r.Body).Decode(&putBody); err != nil {
				t.Errorf("decode put body: %v", err)
			}
			writeSync(t, w, nil)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))

	_, err := gateway.Update(context.Background(), resource.KindProfile,
		resource.Identity{Name: "web"},
		resource.Patch{
			Set:    resource.ConfigMap{"limits.memory": "2GiB"},
			Remove: []string{"stale"},
		})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if putBody.Config["limits.cpu"] != "4" || putBody.Config["limits.memory"] != "2GiB" {
		t.Fatalf("merged config wrong: %+v", putBody.Config)
	}
	if _, ok := putBody.Config["stale"]; ok {
		t.Fatalf("removed key still present: %+v", putBody.Config)
	}
}

func TestDeleteWaitsAsyncOperation(t *testing.T) {
	const opID = "7a6f2e0e-58b0-4a7d-8a2c-9f31c1f8a111"
	var waited bool

	gateway := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/wait") {
			waited = true
			writeSync(t, w, apiOperation{ID: opID, Status: "Success", StatusCode: 200})
			return
		}
		_ = json.NewEncoder(w).Encode(apiEnvelope{
			Type:      "async",
			Operation: "/1.0/operations/" + opID,
		})
	}))

	err := gateway.Delete(context.Background(), resource.KindStorageVolume,
		resource.Identity{Name: "data", Pool: "default"})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !waited {
		t.Fatal("operation wait endpoint was never hit")
	}
}

func TestOperationFailureSurfacesMessage(t *testing.T) {
	const opID = "7a6f2e0e-58b0-4a7d-8a2c-9f31c1f8a222"

	gateway := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/wait") {
			writeSync(t, w, apiOperation{ID: opID, Status: "Failure", StatusCode: 400, Err: "pool is full"})
			return
		}
		_ = json.NewEncoder(w).Encode(apiEnvelope{
			Type:      "async",
			Operation: "/1.0/operations/" + opID,
		})
	}))

	err := gateway.SnapshotCreate(context.Background(),
		resource.Identity{Name: "data", Pool: "default"}, "snap0")
	if err == nil || !strings.Contains(err.Error(), "pool is full") {
		t.Fatalf("expected operation failure message, got %v", err)
	}
}

func TestRenamePostsNewName(t *testing.T) {
	var rename apiRename
	gateway := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&rename); err != nil {
			t.Errorf("decode rename body: %v", err)
		}
		writeSync(t, w, nil)
	}))

	err := gateway.Rename(context.Background(), resource.KindProfile,
		resource.Identity{Name: "old"}, "new")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if rename.Name != "new" {
		t.Fatalf("unexpected rename body: %+v", rename)
	}
}

func TestCreateVolumeHitsCollection(t *testing.T) {
	var postPath string
	gateway := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			postPath = r.URL.Path
		}
		writeSync(t, w, apiResource{Name: "data"})
	}))

	spec := resource.Spec{
		Kind:     resource.KindStorageVolume,
		Identity: resource.Identity{Name: "data", Pool: "default"},
	}
	if _, err := gateway.Create(context.Background(), spec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if postPath != "/1.0/storage-pools/default/volumes/custom" {
		t.Fatalf("unexpected create path %s", postPath)
	}
}

func TestCreateBlockVolumeSendsContentType(t *testing.T) {
	var postBody apiResource
	gateway := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if err := json.NewDecoder(r.Body).Decode(&postBody); err != nil {
				t.Errorf("decode create body: %v", err)
			}
		}
		writeSync(t, w, apiResource{Name: "data"})
	}))

	spec := resource.Spec{
		Kind:       resource.KindStorageVolume,
		Identity:   resource.Identity{Name: "data", Pool: "default"},
		VolumeType: "block",
	}
	if _, err := gateway.Create(context.Background(), spec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if postBody.ContentType != "block" {
		t.Fatalf("block volume must create with content_type=block, got %+v", postBody)
	}
}

func TestCreateIsoVolumeSendsContentType(t *testing.T) {
	var postBody apiResource
	gateway := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if err := json.NewDecoder(r.Body).Decode(&postBody); err != nil {
				t.Errorf("decode create body: %v", err)
			}
		}
		writeSync(t, w, apiResource{Name: "boot"})
	}))

	spec := resource.Spec{
		Kind:        resource.KindStorageVolume,
		Identity:    resource.Identity{Name: "boot", Pool: "default"},
		ContentType: "iso",
	}
	if _, err := gateway.Create(context.Background(), spec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if postBody.ContentType != "iso" {
		t.Fatalf("iso content type must reach the wire, got %+v", postBody)
	}
}

func TestClassifyTransportTimeout(t *testing.T) {
	if !faults.IsTimeout(classifyTransportError(context.DeadlineExceeded)) {
		t.Fatal("deadline exceeded must classify as timeout")
	}
	if !faults.IsCategory(classifyTransportError(io.ErrUnexpectedEOF), faults.RemoteError) {
		t.Fatal("other transport failures must classify as remote errors")
	}
}
