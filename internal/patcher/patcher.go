package patcher

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/wildanadt/RTA-WRT/internal/utils/logger"
)

// Rule is one substitution over builder config files. Rules are applied in
// declaration order, so later rules see earlier rules' output.
type Rule struct {
	Match   string // regular expression
	Replace string // replacement, $1-style group references allowed
	Files   string // glob relative to the builder directory
}

// Report records what one rule did to one file.
type Report struct {
	Rule    string
	File    string
	Applied int
}

// Apply runs every rule against the files it globs under baseDir. A rule
// whose glob matches no file is an error (the builder layout changed); a
// rule that matches files but replaces nothing is only a warning.
func Apply(baseDir string, rules []Rule) ([]Report, error) {
	log := logger.Logger()
	var reports []Report
	for _, rule := range rules {
		re, err := regexp.Compile(rule.Match)
		if err != nil {
			return reports, fmt.Errorf("compiling rule %q: %w", rule.Match, err)
		}
		paths, err := filepath.Glob(filepath.Join(baseDir, rule.Files))
		if err != nil {
			return reports, fmt.Errorf("bad glob %q: %w", rule.Files, err)
		}
		if len(paths) == 0 {
			return reports, fmt.Errorf("rule %q: no file matches %q under %s", rule.Match, rule.Files, baseDir)
		}
		for _, path := range paths {
			applied, err := applyToFile(re, rule.Replace, path)
			if err != nil {
				return reports, err
			}
			if applied == 0 {
				log.Warnf("rule %q matched nothing in %s", rule.Match, path)
			} else {
				log.Debugf("rule %q replaced %d occurrence(s) in %s", rule.Match, applied, path)
			}
			reports = append(reports, Report{Rule: rule.Match, File: path, Applied: applied})
		}
	}
	return reports, nil
}

func applyToFile(re *regexp.Regexp, replace, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	count := len(re.FindAllIndex(data, -1))
	if count == 0 {
		return 0, nil
	}
	out := re.ReplaceAll(data, []byte(replace))
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return count, nil
}
