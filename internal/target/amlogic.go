package target

import "fmt"

// Amlogic covers the TV-box SoCs (HG680P, B860H, and friends). All of them
// build from the generic ARM system-ready image and get their vendor boot
// layout from the ophub repack builder afterwards.
type Amlogic struct{}

func init() {
	Register(&Amlogic{})
}

func (t *Amlogic) Name() string { return "amlogic" }

var amlogicDevices = map[string]string{
	"s905x":  "HG680P",
	"s905x2": "HG680P-V2",
	"s905x3": "X96-Max-Plus",
	"s905x4": "Akari-AX810",
	"s912":   "Tanix-TX8",
	"s905":   "Beelink-Mini-MX",
}

func (t *Amlogic) BuildTarget(device string) (string, error) {
	if _, ok := amlogicDevices[device]; !ok {
		return "", fmt.Errorf("unknown amlogic device %q", device)
	}
	return "armsr/armv8", nil
}

func (t *Amlogic) BuilderProfile(device string) (string, error) {
	if _, ok := amlogicDevices[device]; !ok {
		return "", fmt.Errorf("unknown amlogic device %q", device)
	}
	return "generic", nil
}

func (t *Amlogic) DefaultPackages() []string {
	return []string{
		"luci-app-amlogic|https://api.github.com/repos/ophub/luci-app-amlogic/releases/latest",
	}
}

func (t *Amlogic) RepackBuilder() string { return "ophub" }

func (t *Amlogic) RenameTable() []DeviceName {
	return tableFromMap(amlogicDevices)
}
