package resource

import "sort"

// DiffConfig computes the key-level patch converging actual toward desired.
//
// The omission policy is declare-to-delete: a key missing from desired is
// never removed, only a key declared with an empty value is. That is what
// lets one automation run coexist with keys set by other tooling on the
// same resource.
func DiffConfig(desired, actual ConfigMap) (set ConfigMap, remove []string) {
	set = ConfigMap{}

	keys := make([]string, 0, len(desired))
	for key := range desired {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		desiredValue := desired[key]
		actualValue, exists := actual[key]

		if desiredValue == "" {
			if exists {
				remove = append(remove, key)
			}
			continue
		}

		if !exists || CanonicalValue(actualValue) != CanonicalValue(desiredValue) {
			set[key] = desiredValue
		}
	}

	return set, remove
}

// DiffDevices computes the device-level patch. A device whose desired
// attribute set differs from the actual one in any attribute is replaced
// wholesale; a device declared with an empty attribute set is removed.
func DiffDevices(desired, actual DeviceMap) DevicePatch {
	patch := DevicePatch{Set: DeviceMap{}}

	names := make([]string, 0, len(desired))
	for name := range desired {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		desiredAttrs := desired[name]
		actualAttrs, exists := actual[name]

		if len(desiredAttrs) == 0 {
			if exists {
				patch.Remove = append(patch.Remove, name)
			}
			continue
		}

		if !exists || !configEqual(desiredAttrs, actualAttrs) {
			patch.Set[name] = desiredAttrs.Clone()
		}
	}

	return patch
}

func configEqual(a, b ConfigMap) bool {
	if len(a) != len(b) {
		return false
	}
	for key, valueA := range a {
		valueB, ok := b[key]
		if !ok {
			return false
		}
		if CanonicalValue(valueA) != CanonicalValue(valueB) {
			return false
		}
	}
	return true
}

// Diff compares a full desired spec against an existing resource and
// returns the minimal patch. Pure and total: an empty desired spec or a
// fully matching actual yields an empty patch.
func Diff(spec Spec, actual *Actual) Patch {
	var patch Patch

	actualConfig := ConfigMap{}
	actualDevices := DeviceMap{}
	if actual != nil {
		if actual.Config != nil {
			actualConfig = actual.Config
		}
		if actual.Devices != nil {
			actualDevices = actual.Devices
		}
	}

	patch.Set, patch.Remove = DiffConfig(spec.Config, actualConfig)
	patch.Devices = DiffDevices(spec.Devices, actualDevices)

	if spec.Description != "" && (actual == nil || actual.Description != spec.Description) {
		description := spec.Description
		patch.Description = &description
	}
	if spec.URL != "" && (actual == nil || actual.URL != spec.URL) {
		url := spec.URL
		patch.URL = &url
	}
	if spec.Protocol != "" && (actual == nil || actual.Protocol != spec.Protocol) {
		protocol := spec.Protocol
		patch.Protocol = &protocol
	}

	return patch
}

// ApplyPatch returns the config that results from applying patch on top of
// actual. Used to predict the post-update snapshot without a second fetch.
func ApplyPatch(actual ConfigMap, patch Patch) ConfigMap {
	result := actual.Clone()
	if result == nil {
		result = ConfigMap{}
	}
	for key, value := range patch.Set {
		result[key] = value
	}
	for _, key := range patch.Remove {
		delete(result, key)
	}
	return result
}

// ApplyDevicePatch mirrors ApplyPatch for profile devices.
func ApplyDevicePatch(actual DeviceMap, patch DevicePatch) DeviceMap {
	result := actual.Clone()
	if result == nil {
		result = DeviceMap{}
	}
	for name, attrs := range patch.Set {
		result[name] = attrs.Clone()
	}
	for _, name := range patch.Remove {
		delete(result, name)
	}
	return result
}
