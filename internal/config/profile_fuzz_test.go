package config

import (
	"os"
	"path/filepath"
	"testing"
)

// FuzzValidateProfileYAML checks that arbitrary YAML never crashes the
// schema validator.
func FuzzValidateProfileYAML(f *testing.F) {
	f.Add([]byte("name: x\nbase: openwrt\nversion: \"1\"\ntarget: x86/64\ndevices: [generic]"))
	f.Add([]byte("{}"))
	f.Add([]byte(""))
	f.Add([]byte("invalid: yaml: content: ["))
	f.Add([]byte("name: null\nbase: null"))
	f.Add([]byte("---\n---\n---"))
	f.Add([]byte("base: &a openwrt\nname: *a"))
	f.Add([]byte("packages:\n  - \"no-pipe-here\""))
	f.Add([]byte("devices: [a, b, c]\nunknown_field: true"))
	f.Add(make([]byte, 10000))

	f.Fuzz(func(t *testing.T, data []byte) {
		// Validation may reject the input but must not panic.
		_ = ValidateProfileYAML(data)
	})
}

// FuzzLoadProfile checks the full load path: a returned profile and an
// error are mutually exclusive.
func FuzzLoadProfile(f *testing.F) {
	f.Add([]byte(validProfile))
	f.Add([]byte("base: slackware"))
	f.Add([]byte("name: x"))

	f.Fuzz(func(t *testing.T, data []byte) {
		path := filepath.Join(t.TempDir(), "profile.yml")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Skip("failed to write temp profile")
		}
		p, err := LoadProfile(path)
		if err != nil && p != nil {
			t.Error("expected nil profile when load fails")
		}
		if err == nil && p == nil {
			t.Error("expected a profile when load succeeds")
		}
	})
}
