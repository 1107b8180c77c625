package resource

type Kind string

const (
	KindProfile       Kind = "profile"
	KindRemote        Kind = "remote"
	KindProject       Kind = "project"
	KindStoragePool   Kind = "storage_pool"
	KindStorageVolume Kind = "storage_volume"
)

type State string

const (
	StatePresent  State = "present"
	StateAbsent   State = "absent"
	StateRestored State = "restored"
	StateExported State = "exported"
	StateImported State = "imported"
	StateCopied   State = "copied"
)

// ConfigMap holds hypervisor option keys. Keys are free-form; the valid key
// set is extended by the hypervisor itself, so no schema is applied.
type ConfigMap map[string]string

// DeviceMap maps a device name to its attribute set. Devices are compared
// and replaced as whole units: a partial device definition is invalid on
// the hypervisor.
type DeviceMap map[string]ConfigMap

// Identity addresses one resource instance. Remote and Project are taken
// verbatim from the caller; defaulting them is a collaborator concern.
type Identity struct {
	Name    string
	Pool    string
	Remote  string
	Project string
}

// Spec is the caller-declared desired state for one resource instance.
// It is built once per invocation and never mutated by the engine.
type Spec struct {
	Kind     Kind
	Identity Identity

	Description string
	Driver      string
	URL         string
	Protocol    string

	Config  ConfigMap
	Devices DeviceMap

	State      State
	RenameFrom string

	VolumeType  string
	ContentType string

	Snapshot     string
	ExportTo     string
	ImportFrom   string
	TargetPool   string
	TargetVolume string
	Move         bool
	Target       string

	AttachTo     string
	AttachPath   string
	AttachDevice string
}

// String renders the identity the way the CLI spells it:
// remote:project/pool/name with unset parts skipped.
func (id Identity) String() string {
	out := id.Name
	if id.Pool != "" {
		out = id.Pool + "/" + out
	}
	if id.Project != "" {
		out = id.Project + "/" + out
	}
	if id.Remote != "" {
		out = id.Remote + ":" + out
	}
	return out
}

// Actual is the hypervisor's current snapshot of a resource. A nil *Actual
// from the client signals the resource does not exist.
type Actual struct {
	Name        string
	Description string
	Driver      string
	URL         string
	Protocol    string
	Config      ConfigMap
	Devices     DeviceMap
	ContentType string
	UsedBy      []string
}

func (a *Actual) Clone() *Actual {
	if a == nil {
		return nil
	}
	cloned := *a
	cloned.Config = a.Config.Clone()
	cloned.Devices = a.Devices.Clone()
	cloned.UsedBy = append([]string(nil), a.UsedBy...)
	return &cloned
}

func (c ConfigMap) Clone() ConfigMap {
	if c == nil {
		return nil
	}
	cloned := make(ConfigMap, len(c))
	for key, value := range c {
		cloned[key] = value
	}
	return cloned
}

func (d DeviceMap) Clone() DeviceMap {
	if d == nil {
		return nil
	}
	cloned := make(DeviceMap, len(d))
	for name, attrs := range d {
		cloned[name] = attrs.Clone()
	}
	return cloned
}

// Patch is the minimal key-level change set that converges actual config
// toward desired config. Applying Set then Remove on top of the actual
// config yields the managed keys of the desired config; keys the caller
// never declared are left untouched.
type Patch struct {
	Set         ConfigMap
	Remove      []string
	Devices     DevicePatch
	Description *string

	// Remote-kind attributes; nil for every other kind.
	URL      *string
	Protocol *string
}

type DevicePatch struct {
	Set    DeviceMap
	Remove []string
}

func (p Patch) Empty() bool {
	return len(p.Set) == 0 &&
		len(p.Remove) == 0 &&
		p.Devices.Empty() &&
		p.Description == nil &&
		p.URL == nil &&
		p.Protocol == nil
}

func (d DevicePatch) Empty() bool {
	return len(d.Set) == 0 && len(d.Remove) == 0
}
