package resource

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/crystian/declincus/faults"
)

// NormalizeConfig converts a loosely-typed mapping (as decoded from YAML or
// JSON) into a ConfigMap. Scalar values are stringified the way the
// hypervisor reports them; a nil value becomes the empty string, which the
// differ treats as declared-empty.
func NormalizeConfig(values map[string]any) (ConfigMap, error) {
	if values == nil {
		return nil, nil
	}

	normalized := make(ConfigMap, len(values))
	for key, value := range values {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			return nil, faults.NewTypedError(faults.ValidationError, "config keys must not be empty", nil)
		}
		stringValue, err := stringifyScalar(value)
		if err != nil {
			return nil, faults.NewTypedError(
				faults.ValidationError,
				fmt.Sprintf("config key %q has non-scalar value", trimmedKey),
				err,
			)
		}
		normalized[trimmedKey] = stringValue
	}
	return normalized, nil
}

// NormalizeDevices converts a loosely-typed device mapping into a DeviceMap.
// A device declared with an empty attribute set marks it for removal.
func NormalizeDevices(values map[string]any) (DeviceMap, error) {
	if values == nil {
		return nil, nil
	}

	normalized := make(DeviceMap, len(values))
	for name, value := range values {
		trimmedName := strings.TrimSpace(name)
		if trimmedName == "" {
			return nil, faults.NewTypedError(faults.ValidationError, "device names must not be empty", nil)
		}

		switch typed := value.(type) {
		case nil:
			normalized[trimmedName] = ConfigMap{}
		case map[string]any:
			attrs, err := NormalizeConfig(typed)
			if err != nil {
				return nil, faults.NewTypedError(
					faults.ValidationError,
					fmt.Sprintf("device %q has invalid attributes", trimmedName),
					err,
				)
			}
			if attrs == nil {
				attrs = ConfigMap{}
			}
			normalized[trimmedName] = attrs
		default:
			return nil, faults.NewTypedError(
				faults.ValidationError,
				fmt.Sprintf("device %q must be a mapping of attributes", trimmedName),
				nil,
			)
		}
	}
	return normalized, nil
}

func stringifyScalar(value any) (string, error) {
	switch typed := value.(type) {
	case nil:
		return "", nil
	case string:
		return typed, nil
	case bool:
		return strconv.FormatBool(typed), nil
	case int:
		return strconv.FormatInt(int64(typed), 10), nil
	case int64:
		return strconv.FormatInt(typed, 10), nil
	case uint64:
		if typed > math.MaxInt64 {
			return "", fmt.Errorf("integer out of range: %d", typed)
		}
		return strconv.FormatUint(typed, 10), nil
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			return "", fmt.Errorf("non-finite float")
		}
		if typed == math.Trunc(typed) && math.Abs(typed) < 1e15 {
			return strconv.FormatInt(int64(typed), 10), nil
		}
		return strconv.FormatFloat(typed, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
}

// CanonicalValue reduces a config value to its comparison form. The
// hypervisor reports booleans and sizes back as strings in whatever
// spelling it prefers; comparing raw strings would diff forever on
// "true" vs "yes" or "1GiB" vs "1073741824".
func CanonicalValue(value string) string {
	trimmed := strings.TrimSpace(value)

	switch strings.ToLower(trimmed) {
	case "true", "yes", "on":
		return "true"
	case "false", "no", "off":
		return "false"
	}

	if bytes, ok := parseByteSize(trimmed); ok {
		return strconv.FormatInt(bytes, 10)
	}

	return trimmed
}

var byteUnits = map[string]int64{
	"B":   1,
	"kB":  1000,
	"MB":  1000 * 1000,
	"GB":  1000 * 1000 * 1000,
	"TB":  1000 * 1000 * 1000 * 1000,
	"PB":  1000 * 1000 * 1000 * 1000 * 1000,
	"KiB": 1024,
	"MiB": 1024 * 1024,
	"GiB": 1024 * 1024 * 1024,
	"TiB": 1024 * 1024 * 1024 * 1024,
	"PiB": 1024 * 1024 * 1024 * 1024 * 1024,
}

// parseByteSize parses values like "10GiB" or "512 MB". Bare numbers are
// not treated as sizes: "2" must keep meaning "2" for keys like limits.cpu.
func parseByteSize(value string) (int64, bool) {
	idx := len(value)
	for idx > 0 {
		c := value[idx-1]
		if c >= '0' && c <= '9' || c == '.' || c == ' ' {
			break
		}
		idx--
	}
	if idx == 0 || idx == len(value) {
		return 0, false
	}

	unit := value[idx:]
	multiplier, ok := byteUnits[unit]
	if !ok {
		return 0, false
	}

	number := strings.TrimSpace(value[:idx])
	if number == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(number, 64)
	if err != nil || parsed < 0 {
		return 0, false
	}

	return int64(parsed * float64(multiplier)), true
}
