package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestResolveRequestedLogLevelPrefersExplicitFlag(t *testing.T) {
	prev := logLevel
	logLevel = "warn"
	t.Cleanup(func() {
		logLevel = prev
	})

	if got := resolveRequestedLogLevel(nil); got != "warn" {
		t.Fatalf("expected explicit log level to win, got %q", got)
	}
}

func TestResolveRequestedLogLevelUsesVerboseFallback(t *testing.T) {
	prev := logLevel
	logLevel = ""
	t.Cleanup(func() {
		logLevel = prev
	})

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("verbose", false, "")
	if err := cmd.Flags().Set("verbose", "true"); err != nil {
		t.Fatalf("set verbose: %v", err)
	}

	if got := resolveRequestedLogLevel(cmd); got != "debug" {
		t.Fatalf("expected verbose flag to set debug level, got %q", got)
	}
}

func TestResolveRequestedLogLevelIgnoresUnsetVerbose(t *testing.T) {
	prev := logLevel
	logLevel = ""
	t.Cleanup(func() {
		logLevel = prev
	})

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("verbose", false, "")

	if got := resolveRequestedLogLevel(cmd); got != "" {
		t.Fatalf("expected empty when verbose not set, got %q", got)
	}
}

func TestAttachLoggingHooksAddsHookToSubcommand(t *testing.T) {
	root := createRootCommand()
	cmd, _, err := root.Find([]string{"build"})
	if err != nil {
		t.Fatalf("find build command: %v", err)
	}
	if cmd == nil {
		t.Fatal("build command not found")
	}
	if cmd.PersistentPreRunE == nil {
		t.Fatal("expected logging hook on build command")
	}
}

func TestRootCommandHasAllSubcommands(t *testing.T) {
	root := createRootCommand()
	for _, name := range []string{"build", "download", "patch", "repack", "notify", "targets"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("subcommand %q not registered: %v", name, err)
		}
	}
}

func TestTargetsCommandListsFamilies(t *testing.T) {
	root := createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"targets"})
	if err := root.Execute(); err != nil {
		t.Fatalf("targets command failed: %v", err)
	}
	for _, want := range []string{"amlogic", "bcm27xx", "x86_64"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("targets output missing %q:\n%s", want, out.String())
		}
	}
}
