package renamer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wildanadt/RTA-WRT/internal/target"
	"github.com/wildanadt/RTA-WRT/internal/utils/logger"
)

// Options names one release's artifacts.
type Options struct {
	Base    string // "openwrt" or "immortalwrt"
	Version string
	Tunnel  string // tunnel flavor baked into the image, e.g. "openclash"
	Table   []target.DeviceName
}

// Entry is one renamed artifact, recorded in the manifest.
type Entry struct {
	Device   string `yaml:"device"`
	Original string `yaml:"original"`
	Renamed  string `yaml:"renamed"`
}

const manifestName = "artifacts.yml"

// Rename walks dir, renames every firmware image whose filename matches an
// entry in the device table, and writes a YAML manifest alongside them.
// Files that match no table entry are left untouched.
func Rename(dir string, opts Options) ([]Entry, error) {
	log := logger.Logger()
	if opts.Version == "" {
		return nil, fmt.Errorf("release version not set")
	}

	listing, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading artifact directory: %w", err)
	}

	var entries []Entry
	for _, de := range listing {
		if de.IsDir() || !isFirmwareImage(de.Name()) {
			continue
		}
		device, ok := lookupDevice(de.Name(), opts.Table)
		if !ok {
			log.Debugf("No device name for %s, leaving as is", de.Name())
			continue
		}
		newName := opts.artifactName(device, imageSuffix(de.Name()))
		if newName == de.Name() {
			continue
		}
		src := filepath.Join(dir, de.Name())
		dst := filepath.Join(dir, newName)
		if _, err := os.Stat(dst); err == nil {
			return entries, fmt.Errorf("refusing to overwrite existing %s", dst)
		}
		if err := os.Rename(src, dst); err != nil {
			return entries, fmt.Errorf("renaming %s: %w", de.Name(), err)
		}
		log.Infof("Renamed %s -> %s", de.Name(), newName)
		entries = append(entries, Entry{Device: device, Original: de.Name(), Renamed: newName})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Renamed < entries[j].Renamed })
	if err := writeManifest(filepath.Join(dir, manifestName), entries); err != nil {
		return entries, err
	}
	return entries, nil
}

// artifactName implements the release naming scheme. The suffix comes from
// the original file so an xz or raw image keeps its compression extension.
func (o Options) artifactName(device, suffix string) string {
	return fmt.Sprintf("RTA-WRT_%s-%s_%s_%s%s", o.Base, o.Version, o.Tunnel, device, suffix)
}

func isFirmwareImage(name string) bool {
	return imageSuffix(name) != ""
}

func imageSuffix(name string) string {
	for _, s := range []string{".img.gz", ".img.xz", ".img"} {
		if strings.HasSuffix(name, s) {
			return s
		}
	}
	return ""
}

// lookupDevice finds the first table entry whose match string occurs in the
// filename. Table order matters: more specific matches must come first
// (s905x2 before s905x).
func lookupDevice(name string, table []target.DeviceName) (string, bool) {
	for _, dn := range table {
		if strings.Contains(name, dn.Match) {
			return dn.Name, true
		}
	}
	return "", false
}

func writeManifest(path string, entries []Entry) error {
	data, err := yaml.Marshal(struct {
		Artifacts []Entry `yaml:"artifacts"`
	}{Artifacts: entries})
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}
