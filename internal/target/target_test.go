package target

import "testing"

func TestRegistryContainsAllFamilies(t *testing.T) {
	for _, name := range []string{"amlogic", "rockchip", "allwinner", "bcm27xx", "x86_64"} {
		if _, ok := Get(name); !ok {
			t.Errorf("family %s not registered", name)
		}
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	if len(names) < 5 {
		t.Fatalf("expected at least 5 families, got %d", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names not sorted: %s before %s", names[i-1], names[i])
		}
	}
}

func TestAmlogicBuildInputs(t *testing.T) {
	fam, _ := Get("amlogic")
	bt, err := fam.BuildTarget("s905x")
	if err != nil {
		t.Fatalf("BuildTarget failed: %v", err)
	}
	if bt != "armsr/armv8" {
		t.Errorf("expected armsr/armv8, got %s", bt)
	}
	if fam.RepackBuilder() != "ophub" {
		t.Errorf("amlogic must repack with ophub, got %q", fam.RepackBuilder())
	}
	if _, err := fam.BuildTarget("unknown-soc"); err == nil {
		t.Error("expected error for unknown device")
	}
}

func TestBcm27xxPerDeviceTargets(t *testing.T) {
	fam, _ := Get("bcm27xx")
	bt, err := fam.BuildTarget("rpi-4")
	if err != nil {
		t.Fatalf("BuildTarget failed: %v", err)
	}
	if bt != "bcm27xx/bcm2711" {
		t.Errorf("expected bcm27xx/bcm2711, got %s", bt)
	}
	if fam.RepackBuilder() != "" {
		t.Error("raspberry pi images need no repack")
	}
}

func TestForDevice(t *testing.T) {
	fam, err := ForDevice("h616")
	if err != nil {
		t.Fatalf("ForDevice failed: %v", err)
	}
	if fam.Name() != "allwinner" {
		t.Errorf("expected allwinner, got %s", fam.Name())
	}
	if _, err := ForDevice("not-a-device"); err == nil {
		t.Error("expected error for unclaimed device")
	}
}

func TestRenameTableCoversDevices(t *testing.T) {
	fam, _ := Get("amlogic")
	table := fam.RenameTable()
	found := false
	for _, entry := range table {
		if entry.Match == "s905x" && entry.Name == "HG680P" {
			found = true
		}
	}
	if !found {
		t.Error("amlogic rename table missing s905x -> HG680P")
	}
}
