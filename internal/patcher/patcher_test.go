package patcher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestApplyReplacesInOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "make.sh", "OP_ROOT_SIZE=1024\nKERNEL=stable\n")

	rules := []Rule{
		{Match: `OP_ROOT_SIZE=\d+`, Replace: "OP_ROOT_SIZE=3072", Files: "make.sh"},
		{Match: `KERNEL=stable`, Replace: "KERNEL=6.1.y", Files: "make.sh"},
	}
	reports, err := Apply(dir, rules)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	for _, r := range reports {
		if r.Applied != 1 {
			t.Errorf("rule %q applied %d times, want 1", r.Rule, r.Applied)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "make.sh"))
	if err != nil {
		t.Fatalf("failed to read result: %v", err)
	}
	got := string(data)
	if !strings.Contains(got, "OP_ROOT_SIZE=3072") || !strings.Contains(got, "KERNEL=6.1.y") {
		t.Errorf("unexpected content after patching:\n%s", got)
	}
}

func TestApplyLaterRuleSeesEarlierOutput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "conf", "mode=a\n")

	rules := []Rule{
		{Match: `mode=a`, Replace: "mode=b", Files: "conf"},
		{Match: `mode=b`, Replace: "mode=c", Files: "conf"},
	}
	reports, err := Apply(dir, rules)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if reports[1].Applied != 1 {
		t.Errorf("second rule applied %d times, want 1", reports[1].Applied)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "conf"))
	if !strings.Contains(string(data), "mode=c") {
		t.Errorf("expected mode=c, got %q", string(data))
	}
}

func TestApplyGlobCoversMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "board-a.conf", "DISTRO=generic\n")
	writeFile(t, dir, "board-b.conf", "DISTRO=generic\nDISTRO=generic\n")

	reports, err := Apply(dir, []Rule{
		{Match: `DISTRO=generic`, Replace: "DISTRO=rta", Files: "*.conf"},
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	total := 0
	for _, r := range reports {
		total += r.Applied
	}
	if total != 3 {
		t.Errorf("expected 3 replacements across files, got %d", total)
	}
}

func TestApplyMissingFileIsError(t *testing.T) {
	dir := t.TempDir()
	_, err := Apply(dir, []Rule{
		{Match: `x`, Replace: "y", Files: "no-such-file.sh"},
	})
	if err == nil {
		t.Fatal("expected error for glob with no matches")
	}
}

func TestApplyZeroMatchesIsNotError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "conf", "nothing here\n")

	reports, err := Apply(dir, []Rule{
		{Match: `absent-token`, Replace: "replacement", Files: "conf"},
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(reports) != 1 || reports[0].Applied != 0 {
		t.Errorf("expected one report with zero applications, got %+v", reports)
	}
}

func TestApplyBadRegexIsError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "conf", "x\n")

	_, err := Apply(dir, []Rule{{Match: `([`, Replace: "y", Files: "conf"}})
	if err == nil {
		t.Fatal("expected error for invalid regular expression")
	}
}

func TestApplyPreservesFileMode(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "make.sh", "VALUE=1\n")
	if err := os.Chmod(path, 0o755); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	if _, err := Apply(dir, []Rule{{Match: `VALUE=1`, Replace: "VALUE=2", Files: "make.sh"}}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("mode changed to %v, want 0755", info.Mode().Perm())
	}
}
