package target

import (
	"fmt"
	"sort"
)

// DeviceName maps a substring of a builder output filename to the vendor
// device name used in released artifacts.
type DeviceName struct {
	Match string // substring found in the raw builder output
	Name  string // marketing/device name used in the final filename
}

// Target is one device family the pipeline can build firmware for. It
// contributes the image-builder inputs and the vendor-specific repack and
// rename behavior for its devices.
type Target interface {
	// Name is the family ID, e.g. "amlogic" or "bcm27xx".
	Name() string

	// BuildTarget returns the image-builder target tuple for a device,
	// e.g. "armsr/armv8" or "bcm27xx/bcm2711".
	BuildTarget(device string) (string, error)

	// BuilderProfile returns the PROFILE= value passed to the external
	// image builder for a device.
	BuilderProfile(device string) (string, error)

	// DefaultPackages returns extra "fragment|source" request entries
	// every build of this family needs.
	DefaultPackages() []string

	// RepackBuilder names the vendor boot-layout builder this family
	// needs: "" (none), "ophub" or "ulo".
	RepackBuilder() string

	// RenameTable returns the artifact naming entries for this family.
	RenameTable() []DeviceName
}

var targets = make(map[string]Target)

// Register makes a Target available under its Name().
func Register(t Target) {
	targets[t.Name()] = t
}

// Get returns the Target by family name.
func Get(name string) (Target, bool) {
	t, ok := targets[name]
	return t, ok
}

// Names lists the registered families, sorted for stable CLI output.
func Names() []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForDevice finds the family that claims the given device name.
func ForDevice(device string) (Target, error) {
	for _, t := range targets {
		if _, err := t.BuilderProfile(device); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("no registered target family supports device %q", device)
}
