package target

import (
	"fmt"
	"sort"
)

func init() {
	Register(&Rockchip{})
	Register(&Allwinner{})
	Register(&Bcm27xx{})
	Register(&X86{})
}

// Rockchip boards (Orange Pi R1 Plus and friends) build from the generic
// ARM image and are repacked with the ULO builder.
type Rockchip struct{}

var rockchipDevices = map[string]string{
	"rk3318": "H96-Max",
	"rk3328": "Orangepi-R1-Plus",
	"rk3566": "Orangepi-3B",
}

func (t *Rockchip) Name() string { return "rockchip" }

func (t *Rockchip) BuildTarget(device string) (string, error) {
	if _, ok := rockchipDevices[device]; !ok {
		return "", fmt.Errorf("unknown rockchip device %q", device)
	}
	return "armsr/armv8", nil
}

func (t *Rockchip) BuilderProfile(device string) (string, error) {
	if _, ok := rockchipDevices[device]; !ok {
		return "", fmt.Errorf("unknown rockchip device %q", device)
	}
	return "generic", nil
}

func (t *Rockchip) DefaultPackages() []string { return nil }

func (t *Rockchip) RepackBuilder() string { return "ulo" }

func (t *Rockchip) RenameTable() []DeviceName {
	return tableFromMap(rockchipDevices)
}

// Allwinner boards (Orange Pi Zero line), also repacked with ULO.
type Allwinner struct{}

var allwinnerDevices = map[string]string{
	"h5":   "Orangepi-Zero-Plus2",
	"h6":   "Orangepi-One-Plus",
	"h616": "Orangepi-Zero2",
	"h618": "Orangepi-Zero3",
}

func (t *Allwinner) Name() string { return "allwinner" }

func (t *Allwinner) BuildTarget(device string) (string, error) {
	if _, ok := allwinnerDevices[device]; !ok {
		return "", fmt.Errorf("unknown allwinner device %q", device)
	}
	return "armsr/armv8", nil
}

func (t *Allwinner) BuilderProfile(device string) (string, error) {
	if _, ok := allwinnerDevices[device]; !ok {
		return "", fmt.Errorf("unknown allwinner device %q", device)
	}
	return "generic", nil
}

func (t *Allwinner) DefaultPackages() []string { return nil }

func (t *Allwinner) RepackBuilder() string { return "ulo" }

func (t *Allwinner) RenameTable() []DeviceName {
	return tableFromMap(allwinnerDevices)
}

// Bcm27xx is the Raspberry Pi line. The image builder emits bootable
// images directly, so no repack stage is involved.
type Bcm27xx struct{}

var bcmDevices = map[string]struct{ target, profile, name string }{
	"rpi-3": {"bcm27xx/bcm2710", "rpi-3", "Raspberry-Pi-3"},
	"rpi-4": {"bcm27xx/bcm2711", "rpi-4", "Raspberry-Pi-4"},
	"rpi-5": {"bcm27xx/bcm2712", "rpi-5", "Raspberry-Pi-5"},
}

func (t *Bcm27xx) Name() string { return "bcm27xx" }

func (t *Bcm27xx) BuildTarget(device string) (string, error) {
	d, ok := bcmDevices[device]
	if !ok {
		return "", fmt.Errorf("unknown raspberry pi device %q", device)
	}
	return d.target, nil
}

func (t *Bcm27xx) BuilderProfile(device string) (string, error) {
	d, ok := bcmDevices[device]
	if !ok {
		return "", fmt.Errorf("unknown raspberry pi device %q", device)
	}
	return d.profile, nil
}

func (t *Bcm27xx) DefaultPackages() []string {
	return []string{
		"kmod-usb-net-rtl8152|https://downloads.openwrt.org/releases/24.10.0/targets/bcm27xx/bcm2711/packages/",
	}
}

func (t *Bcm27xx) RepackBuilder() string { return "" }

func (t *Bcm27xx) RenameTable() []DeviceName {
	table := make([]DeviceName, 0, len(bcmDevices))
	for dev, d := range bcmDevices {
		table = append(table, DeviceName{Match: dev, Name: d.name})
	}
	return table
}

// X86 is plain PC hardware; generic profile, no repack.
type X86 struct{}

func (t *X86) Name() string { return "x86_64" }

func (t *X86) BuildTarget(device string) (string, error) {
	if device != "generic" {
		return "", fmt.Errorf("unknown x86_64 device %q", device)
	}
	return "x86/64", nil
}

func (t *X86) BuilderProfile(device string) (string, error) {
	if device != "generic" {
		return "", fmt.Errorf("unknown x86_64 device %q", device)
	}
	return "generic", nil
}

func (t *X86) DefaultPackages() []string { return nil }

func (t *X86) RepackBuilder() string { return "" }

func (t *X86) RenameTable() []DeviceName {
	return []DeviceName{{Match: "x86-64", Name: "X86-64"}, {Match: "x86_64", Name: "X86-64"}}
}

// tableFromMap orders entries longest match first so that s905x2 is tried
// before s905x when scanning a filename.
func tableFromMap(devices map[string]string) []DeviceName {
	table := make([]DeviceName, 0, len(devices))
	for match, name := range devices {
		table = append(table, DeviceName{Match: match, Name: name})
	}
	sort.Slice(table, func(i, j int) bool {
		if len(table[i].Match) != len(table[j].Match) {
			return len(table[i].Match) > len(table[j].Match)
		}
		return table[i].Match < table[j].Match
	})
	return table
}
