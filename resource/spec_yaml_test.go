package resource

import (
	"strings"
	"testing"

	"github.com/crystian/declincus/faults"
)

const multiDocSpec = `
kind: profile
name: web
description: web servers
config:
  limits.cpu: 2
devices:
  eth0:
    type: nic
    network: incusbr0
---
kind: storage_volume
pool: default
name: data
state: copied
target_pool: backup
target_volume: data-copy
`

func TestParseDocumentsMultiDoc(t *testing.T) {
	t.Parallel()

	specs, err := ParseDocuments([]byte(multiDocSpec))
	if err != nil {
		t.Fatalf("ParseDocuments: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}

	profile := specs[0]
	if profile.Kind != KindProfile || profile.Identity.Name != "web" {
		t.Fatalf("unexpected first spec: %+v", profile)
	}
	if profile.Config["limits.cpu"] != "2" {
		t.Fatalf("expected numeric config stringified, got %v", profile.Config)
	}
	if profile.Devices["eth0"]["network"] != "incusbr0" {
		t.Fatalf("unexpected devices: %v", profile.Devices)
	}

	volume := specs[1]
	if volume.Kind != KindStorageVolume || volume.State != StateCopied {
		t.Fatalf("unexpected second spec: %+v", volume)
	}
	if volume.TargetPool != "backup" || volume.TargetVolume != "data-copy" {
		t.Fatalf("unexpected copy target: %+v", volume)
	}
}

func TestParseDocumentsRejectsInvalidState(t *testing.T) {
	t.Parallel()

	_, err := ParseDocuments([]byte("kind: profile\nname: web\nstate: restored\n"))
	if !faults.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "restored") {
		t.Fatalf("error should name the offending state: %v", err)
	}
}

func TestParseDocumentsRejectsCopyWithoutTarget(t *testing.T) {
	t.Parallel()

	doc := "kind: storage_volume\npool: default\nname: data\nstate: copied\n"
	_, err := ParseDocuments([]byte(doc))
	if !faults.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestParseDocumentsRejectsEmptyStream(t *testing.T) {
	t.Parallel()

	_, err := ParseDocuments([]byte(""))
	if !faults.IsValidation(err) {
		t.Fatalf("expected ValidationError for empty stream, got %v", err)
	}
}

func TestApplyScopeDefaults(t *testing.T) {
	t.Parallel()

	spec := Spec{Kind: KindProject, Identity: Identity{Name: "dev"}}
	defaulted := spec.ApplyScopeDefaults("local", "default")
	if defaulted.Identity.Remote != "local" || defaulted.Identity.Project != "default" {
		t.Fatalf("expected defaults applied, got %+v", defaulted.Identity)
	}

	scoped := Spec{Kind: KindProject, Identity: Identity{Name: "dev", Remote: "prod", Project: "infra"}}
	kept := scoped.ApplyScopeDefaults("local", "default")
	if kept.Identity.Remote != "prod" || kept.Identity.Project != "infra" {
		t.Fatalf("explicit scope must win, got %+v", kept.Identity)
	}
}

func TestValidateVolumeParamsOnProfile(t *testing.T) {
	t.Parallel()

	spec := Spec{Kind: KindProfile, Identity: Identity{Name: "web"}, Snapshot: "snap0"}
	if err := spec.Validate(); !faults.IsValidation(err) {
		t.Fatalf("expected ValidationError for snapshot on profile, got %v", err)
	}
}

func TestEffectiveAttachDeviceDefaultsToName(t *testing.T) {
	t.Parallel()

	spec := Spec{Kind: KindStorageVolume, Identity: Identity{Name: "data", Pool: "default"}, AttachTo: "vm1"}
	if got := spec.EffectiveAttachDevice(); got != "data" {
		t.Fatalf("expected attach device to default to volume name, got %q", got)
	}

	spec.AttachDevice = "disk1"
	if got := spec.EffectiveAttachDevice(); got != "disk1" {
		t.Fatalf("expected explicit attach device, got %q", got)
	}
}
