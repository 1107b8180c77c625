package resource

import (
	"fmt"
	"strings"

	"github.com/crystian/declincus/faults"
)

var statesByKind = map[Kind]map[State]struct{}{
	KindProfile:     {StatePresent: {}, StateAbsent: {}},
	KindRemote:      {StatePresent: {}, StateAbsent: {}},
	KindProject:     {StatePresent: {}, StateAbsent: {}},
	KindStoragePool: {StatePresent: {}, StateAbsent: {}},
	KindStorageVolume: {
		StatePresent: {}, StateAbsent: {}, StateRestored: {},
		StateExported: {}, StateImported: {}, StateCopied: {},
	},
}

// Validate rejects malformed specs before any remote call is made.
func (s Spec) Validate() error {
	allowed, ok := statesByKind[s.Kind]
	if !ok {
		return validationError(fmt.Sprintf("unknown resource kind %q", s.Kind), nil)
	}

	state := s.State
	if state == "" {
		state = StatePresent
	}
	if _, ok := allowed[state]; !ok {
		return validationError(fmt.Sprintf("state %q is not supported for kind %q", state, s.Kind), nil)
	}

	if strings.TrimSpace(s.Identity.Name) == "" {
		return validationError("name is required", nil)
	}

	if s.Kind == KindStorageVolume {
		return s.validateVolume(state)
	}

	if len(s.Devices) > 0 && s.Kind != KindProfile {
		return validationError("devices are only valid for profiles", nil)
	}
	if s.Snapshot != "" || s.ExportTo != "" || s.ImportFrom != "" ||
		s.TargetPool != "" || s.TargetVolume != "" || s.Move ||
		s.AttachTo != "" || s.AttachPath != "" || s.AttachDevice != "" {
		return validationError(fmt.Sprintf("volume parameters are not valid for kind %q", s.Kind), nil)
	}

	if s.Kind == KindRemote && state == StatePresent && strings.TrimSpace(s.URL) == "" {
		return validationError("url is required for a present remote", nil)
	}
	if s.Kind == KindStoragePool && state == StatePresent &&
		s.RenameFrom == "" && strings.TrimSpace(s.Driver) == "" {
		return validationError("driver is required for a present storage pool", nil)
	}

	return nil
}

func (s Spec) validateVolume(state State) error {
	if strings.TrimSpace(s.Identity.Pool) == "" {
		return validationError("pool is required for storage volumes", nil)
	}

	switch s.VolumeType {
	case "", "filesystem", "block":
	default:
		return validationError(fmt.Sprintf("invalid volume type %q", s.VolumeType), nil)
	}
	switch s.ContentType {
	case "", "filesystem", "block", "iso":
	default:
		return validationError(fmt.Sprintf("invalid content type %q", s.ContentType), nil)
	}

	switch state {
	case StateRestored:
		if s.Snapshot == "" {
			return validationError("snapshot is required for state restored", nil)
		}
	case StateExported:
		if s.ExportTo == "" {
			return validationError("export_to is required for state exported", nil)
		}
	case StateImported:
		if s.ImportFrom == "" {
			return validationError("import_from is required for state imported", nil)
		}
	case StateCopied:
		if s.TargetPool == "" {
			return validationError("target_pool is required for state copied", nil)
		}
		if s.TargetVolume == "" {
			return validationError("target_volume is required for state copied", nil)
		}
	}

	if s.Move && state != StateCopied {
		return validationError("move is only valid with state copied", nil)
	}
	if s.AttachPath != "" && s.AttachTo == "" {
		return validationError("attach_path requires attach_to", nil)
	}
	if s.AttachDevice != "" && s.AttachTo == "" {
		return validationError("attach_device requires attach_to", nil)
	}
	if len(s.Devices) > 0 {
		return validationError("devices are only valid for profiles", nil)
	}

	return nil
}

// EffectiveState returns the declared state, defaulting to present.
func (s Spec) EffectiveState() State {
	if s.State == "" {
		return StatePresent
	}
	return s.State
}

// EffectiveAttachDevice is the device name used when attaching the volume
// to an instance; it defaults to the volume name.
func (s Spec) EffectiveAttachDevice() string {
	if s.AttachDevice != "" {
		return s.AttachDevice
	}
	return s.Identity.Name
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}
