package http

import (
	"encoding/json"

	"github.com/crystian/declincus/resource"
)

// apiEnvelope is the standard Incus response wrapper. Async operations
// carry the operation path; errors carry the code and message.
type apiEnvelope struct {
	Type       string          `json:"type"`
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Operation  string          `json:"operation"`
	ErrorCode  int             `json:"error_code"`
	Error      string          `json:"error"`
	Metadata   json.RawMessage `json:"metadata"`
}

// apiResource is the shared shape of profile, project, pool and volume
// payloads. Fields a kind does not carry are simply omitted on the wire.
type apiResource struct {
	Name        string                       `json:"name,omitempty"`
	Description string                       `json:"description,omitempty"`
	Driver      string                       `json:"driver,omitempty"`
	Config      map[string]string            `json:"config,omitempty"`
	Devices     map[string]map[string]string `json:"devices,omitempty"`
	ContentType string                       `json:"content_type,omitempty"`
	UsedBy      []string                     `json:"used_by,omitempty"`
}

type apiRename struct {
	Name string `json:"name"`
	Pool string `json:"pool,omitempty"`
}

type apiVolumeSource struct {
	Name       string `json:"name"`
	Pool       string `json:"pool"`
	Type       string `json:"type"`
	VolumeOnly bool   `json:"volume_only,omitempty"`
}

type apiVolumeCopy struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	ContentType string           `json:"content_type,omitempty"`
	Source      *apiVolumeSource `json:"source,omitempty"`
}

type apiSnapshot struct {
	Name string `json:"name"`
}

type apiRestore struct {
	Restore string `json:"restore"`
}

type apiBackup struct {
	Name       string `json:"name"`
	VolumeOnly bool   `json:"volume_only"`
}

type apiServerInfo struct {
	Environment struct {
		ServerVersion string `json:"server_version"`
	} `json:"environment"`
}

func (r apiResource) toActual() *resource.Actual {
	return &resource.Actual{
		Name:        r.Name,
		Description: r.Description,
		Driver:      r.Driver,
		Config:      resource.ConfigMap(r.Config).Clone(),
		Devices:     toDeviceMap(r.Devices),
		ContentType: r.ContentType,
		UsedBy:      append([]string(nil), r.UsedBy...),
	}
}

func toDeviceMap(devices map[string]map[string]string) resource.DeviceMap {
	if devices == nil {
		return nil
	}
	out := make(resource.DeviceMap, len(devices))
	for name, attrs := range devices {
		out[name] = resource.ConfigMap(attrs).Clone()
	}
	return out
}

func fromDeviceMap(devices resource.DeviceMap) map[string]map[string]string {
	if devices == nil {
		return nil
	}
	out := make(map[string]map[string]string, len(devices))
	for name, attrs := range devices {
		out[name] = attrs.Clone()
	}
	return out
}
