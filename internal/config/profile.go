package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile describes one firmware build: the image-builder inputs, the
// package batch to resolve and download, the config patches to apply, and
// how the resulting images are repacked, renamed and announced.
type Profile struct {
	Name    string   `yaml:"name" json:"name"`
	Base    string   `yaml:"base" json:"base"`       // "openwrt" or "immortalwrt"
	Version string   `yaml:"version" json:"version"` // e.g. "24.10.0"
	Target  string   `yaml:"target" json:"target"`   // e.g. "armsr/armv8"
	Tunnel  string   `yaml:"tunnel,omitempty" json:"tunnel,omitempty"`
	Devices []string `yaml:"devices" json:"devices"`

	// Packages are "name_fragment|source" entries, in download order.
	Packages []string `yaml:"packages,omitempty" json:"packages,omitempty"`

	Patches   []PatchRule  `yaml:"patches,omitempty" json:"patches,omitempty"`
	Checksums ChecksumSpec `yaml:"checksums,omitempty" json:"checksums,omitempty"`
	Repack    RepackSpec   `yaml:"repack,omitempty" json:"repack,omitempty"`
	Notify    NotifySpec   `yaml:"notify,omitempty" json:"notify,omitempty"`
}

// PatchRule is one text substitution over builder config files.
type PatchRule struct {
	Match   string `yaml:"match" json:"match"`
	Replace string `yaml:"replace" json:"replace"`
	Files   string `yaml:"files" json:"files"` // glob relative to the builder dir
}

// ChecksumSpec points at an upstream sha256sums listing and, optionally,
// its detached GPG signature and the keyring to verify it with.
type ChecksumSpec struct {
	URL          string `yaml:"url,omitempty" json:"url,omitempty"`
	SignatureURL string `yaml:"signature_url,omitempty" json:"signature_url,omitempty"`
	KeyringPath  string `yaml:"keyring_path,omitempty" json:"keyring_path,omitempty"`
}

// RepackSpec selects the vendor boot-layout builder for SD-card targets.
type RepackSpec struct {
	Builder    string `yaml:"builder,omitempty" json:"builder,omitempty"` // "", "ophub" or "ulo"
	BuilderDir string `yaml:"builder_dir,omitempty" json:"builder_dir,omitempty"`
	Kernel     string `yaml:"kernel,omitempty" json:"kernel,omitempty"`
	RootfsSize int    `yaml:"rootfs_size,omitempty" json:"rootfs_size,omitempty"` // MB
}

// NotifySpec configures the Telegram release announcement.
type NotifySpec struct {
	Enabled      bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	ChatID       int64  `yaml:"chat_id,omitempty" json:"chat_id,omitempty"`
	TopicID      int64  `yaml:"topic_id,omitempty" json:"topic_id,omitempty"`
	PagePath     string `yaml:"page_path,omitempty" json:"page_path,omitempty"`
	DownloadBase string `yaml:"download_base,omitempty" json:"download_base,omitempty"`
}

// LoadProfile reads a profile YAML file, validates it against the embedded
// schema, and unmarshals it. Invalid profiles never reach the resolver.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	if err := ValidateProfileYAML(data); err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	return &p, nil
}
