package resource

import (
	"reflect"
	"testing"

	"github.com/crystian/declincus/faults"
)

func TestNormalizeConfigStringifiesScalars(t *testing.T) {
	t.Parallel()

	got, err := NormalizeConfig(map[string]any{
		"limits.cpu":          2,
		"security.privileged": true,
		"size":                "10GiB",
		"cleared":             nil,
	})
	if err != nil {
		t.Fatalf("NormalizeConfig: %v", err)
	}

	want := ConfigMap{
		"limits.cpu":          "2",
		"security.privileged": "true",
		"size":                "10GiB",
		"cleared":             "",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestNormalizeConfigRejectsNestedValues(t *testing.T) {
	t.Parallel()

	_, err := NormalizeConfig(map[string]any{"bad": map[string]any{"nested": 1}})
	if !faults.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestNormalizeDevices(t *testing.T) {
	t.Parallel()

	got, err := NormalizeDevices(map[string]any{
		"eth0": map[string]any{"type": "nic", "network": "incusbr0"},
		"gone": nil,
	})
	if err != nil {
		t.Fatalf("NormalizeDevices: %v", err)
	}

	if !reflect.DeepEqual(got["eth0"], ConfigMap{"type": "nic", "network": "incusbr0"}) {
		t.Fatalf("unexpected eth0: %v", got["eth0"])
	}
	if attrs, ok := got["gone"]; !ok || len(attrs) != 0 {
		t.Fatalf("null device must normalize to empty attribute set, got %v", got["gone"])
	}
}

func TestNormalizeDevicesRejectsScalars(t *testing.T) {
	t.Parallel()

	_, err := NormalizeDevices(map[string]any{"eth0": "nic"})
	if !faults.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCanonicalValue(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"true", "true"},
		{"True", "true"},
		{"yes", "true"},
		{"on", "true"},
		{"false", "false"},
		{"no", "false"},
		{"off", "false"},
		{"10GiB", "10737418240"},
		{"1GB", "1000000000"},
		{"512 MiB", "536870912"},
		{"2", "2"},
		{"  spaced  ", "spaced"},
		{"@daily", "@daily"},
	}
	for _, tc := range cases {
		if got := CanonicalValue(tc.in); got != tc.want {
			t.Fatalf("CanonicalValue(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseByteSizeRejectsBareNumbers(t *testing.T) {
	t.Parallel()

	if _, ok := parseByteSize("42"); ok {
		t.Fatal("bare numbers must not parse as sizes")
	}
	if _, ok := parseByteSize("10XB"); ok {
		t.Fatal("unknown units must not parse")
	}
}
