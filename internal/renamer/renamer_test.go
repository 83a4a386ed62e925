package renamer

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/wildanadt/RTA-WRT/internal/target"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func testOptions() Options {
	return Options{
		Base:    "immortalwrt",
		Version: "24.10.0",
		Tunnel:  "openclash",
		Table: []target.DeviceName{
			{Match: "s905x2", Name: "HG680P-V2"},
			{Match: "s905x", Name: "HG680P"},
		},
	}
}

func TestRenameAppliesNamingScheme(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "openwrt_amlogic_s905x_k6.1.66.img.gz")

	entries, err := Rename(dir, testOptions())
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	want := "RTA-WRT_immortalwrt-24.10.0_openclash_HG680P.img.gz"
	if entries[0].Renamed != want {
		t.Errorf("renamed to %q, want %q", entries[0].Renamed, want)
	}
	if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
}

func TestRenameKeepsCompressionExtension(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "openwrt_amlogic_s905x_k6.1.66.img.xz")
	touch(t, dir, "openwrt_amlogic_s905x2_k6.1.66.img")

	entries, err := Rename(dir, testOptions())
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	want := map[string]string{
		"HG680P":    "RTA-WRT_immortalwrt-24.10.0_openclash_HG680P.img.xz",
		"HG680P-V2": "RTA-WRT_immortalwrt-24.10.0_openclash_HG680P-V2.img",
	}
	for _, e := range entries {
		if e.Renamed != want[e.Device] {
			t.Errorf("%s renamed to %q, want %q", e.Device, e.Renamed, want[e.Device])
		}
		if _, err := os.Stat(filepath.Join(dir, e.Renamed)); err != nil {
			t.Errorf("renamed file missing: %v", err)
		}
	}
}

func TestRenameMoreSpecificMatchWins(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "openwrt_amlogic_s905x2_k6.1.66.img.gz")

	entries, err := Rename(dir, testOptions())
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Device != "HG680P-V2" {
		t.Fatalf("expected HG680P-V2 entry, got %+v", entries)
	}
}

func TestRenameLeavesUnrelatedFilesAlone(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "sha256sums")
	touch(t, dir, "openwrt_rockchip_rk3328.img.gz") // not in table

	entries, err := Rename(dir, testOptions())
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no renames, got %+v", entries)
	}
	for _, name := range []string{"sha256sums", "openwrt_rockchip_rk3328.img.gz"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s was touched: %v", name, err)
		}
	}
}

func TestRenameRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "openwrt_amlogic_s905x_k6.1.66.img.gz")
	touch(t, dir, "RTA-WRT_immortalwrt-24.10.0_openclash_HG680P.img.gz")

	if _, err := Rename(dir, testOptions()); err == nil {
		t.Fatal("expected overwrite refusal")
	}
}

func TestRenameWritesManifest(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "openwrt_amlogic_s905x_k6.1.66.img.gz")
	touch(t, dir, "openwrt_amlogic_s905x2_k6.1.66.img.gz")

	if _, err := Rename(dir, testOptions()); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "artifacts.yml"))
	if err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
	var manifest struct {
		Artifacts []Entry `yaml:"artifacts"`
	}
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("manifest is not valid YAML: %v", err)
	}
	if len(manifest.Artifacts) != 2 {
		t.Fatalf("expected 2 manifest entries, got %d", len(manifest.Artifacts))
	}
	for _, e := range manifest.Artifacts {
		if e.Device == "" || e.Original == "" || e.Renamed == "" {
			t.Errorf("incomplete manifest entry: %+v", e)
		}
	}
}

func TestRenameRequiresVersion(t *testing.T) {
	opts := testOptions()
	opts.Version = ""
	if _, err := Rename(t.TempDir(), opts); err == nil {
		t.Fatal("expected error for missing version")
	}
}
