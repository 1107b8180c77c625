package resource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/crystian/declincus/faults"
)

// specDocument is the YAML surface of a desired-state declaration. Field
// names follow the flat parameter style of the automation modules this
// engine replaces.
type specDocument struct {
	Kind        string         `yaml:"kind"`
	Name        string         `yaml:"name"`
	Pool        string         `yaml:"pool,omitempty"`
	Remote      string         `yaml:"remote,omitempty"`
	Project     string         `yaml:"project,omitempty"`
	Description string         `yaml:"description,omitempty"`
	Driver      string         `yaml:"driver,omitempty"`
	URL         string         `yaml:"url,omitempty"`
	Protocol    string         `yaml:"protocol,omitempty"`
	Config      map[string]any `yaml:"config,omitempty"`
	Devices     map[string]any `yaml:"devices,omitempty"`
	State       string         `yaml:"state,omitempty"`
	RenameFrom  string         `yaml:"rename_from,omitempty"`

	VolumeType   string `yaml:"type,omitempty"`
	ContentType  string `yaml:"content_type,omitempty"`
	Snapshot     string `yaml:"snapshot,omitempty"`
	ExportTo     string `yaml:"export_to,omitempty"`
	ImportFrom   string `yaml:"import_from,omitempty"`
	TargetPool   string `yaml:"target_pool,omitempty"`
	TargetVolume string `yaml:"target_volume,omitempty"`
	Move         bool   `yaml:"move,omitempty"`
	Target       string `yaml:"target,omitempty"`
	AttachTo     string `yaml:"attach_to,omitempty"`
	AttachPath   string `yaml:"attach_path,omitempty"`
	AttachDevice string `yaml:"attach_device,omitempty"`
}

// ParseDocuments decodes a YAML stream of desired-state declarations.
// Every document is normalized and validated; the first invalid document
// fails the whole stream.
func ParseDocuments(data []byte) ([]Spec, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))

	var specs []Spec
	for index := 0; ; index++ {
		var doc specDocument
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, faults.NewTypedError(
				faults.ValidationError,
				fmt.Sprintf("spec document %d is not valid YAML", index+1),
				err,
			)
		}

		spec, err := doc.toSpec()
		if err != nil {
			return nil, fmt.Errorf("spec document %d: %w", index+1, err)
		}
		specs = append(specs, spec)
	}

	if len(specs) == 0 {
		return nil, faults.NewTypedError(faults.ValidationError, "no spec documents found", nil)
	}
	return specs, nil
}

// ParseFile reads and parses one spec file.
func ParseFile(path string) ([]Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, faults.NewTypedError(
			faults.ValidationError,
			fmt.Sprintf("cannot read spec file %s", path),
			err,
		)
	}
	specs, err := ParseDocuments(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return specs, nil
}

func (d specDocument) toSpec() (Spec, error) {
	config, err := NormalizeConfig(d.Config)
	if err != nil {
		return Spec{}, err
	}
	devices, err := NormalizeDevices(d.Devices)
	if err != nil {
		return Spec{}, err
	}

	spec := Spec{
		Kind: Kind(strings.TrimSpace(d.Kind)),
		Identity: Identity{
			Name:    strings.TrimSpace(d.Name),
			Pool:    strings.TrimSpace(d.Pool),
			Remote:  strings.TrimSpace(d.Remote),
			Project: strings.TrimSpace(d.Project),
		},
		Description:  d.Description,
		Driver:       strings.TrimSpace(d.Driver),
		URL:          strings.TrimSpace(d.URL),
		Protocol:     strings.TrimSpace(d.Protocol),
		Config:       config,
		Devices:      devices,
		State:        State(strings.TrimSpace(d.State)),
		RenameFrom:   strings.TrimSpace(d.RenameFrom),
		VolumeType:   strings.TrimSpace(d.VolumeType),
		ContentType:  strings.TrimSpace(d.ContentType),
		Snapshot:     strings.TrimSpace(d.Snapshot),
		ExportTo:     d.ExportTo,
		ImportFrom:   d.ImportFrom,
		TargetPool:   strings.TrimSpace(d.TargetPool),
		TargetVolume: strings.TrimSpace(d.TargetVolume),
		Move:         d.Move,
		Target:       strings.TrimSpace(d.Target),
		AttachTo:     strings.TrimSpace(d.AttachTo),
		AttachPath:   d.AttachPath,
		AttachDevice: strings.TrimSpace(d.AttachDevice),
	}

	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// ApplyScopeDefaults fills remote and project when the caller left them
// unset. The engine itself never defaults these; this is the collaborator
// layer's one chance to do so before the spec reaches the reconciler.
func (s Spec) ApplyScopeDefaults(remote, project string) Spec {
	if s.Identity.Remote == "" {
		s.Identity.Remote = remote
	}
	if s.Identity.Project == "" {
		s.Identity.Project = project
	}
	return s
}
