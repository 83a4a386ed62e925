package pkgresolver

import (
	"path"
	"regexp"
	"strings"
)

// The old grep chain tried progressively looser patterns until one hit.
// That fallback is kept as an explicit ordered list of strategies: each
// returns its matches over the candidate list, and the first strategy with
// a non-empty result wins.
type matchStrategy struct {
	name    string
	matches func(fragment string, candidates []string) []string
}

// delimiter-bounded: fragment immediately followed by ., _ or - and a
// version digit, with a package-manager extension. This is what separates
// "foo" from "foobar".
var delimiterBounded = matchStrategy{
	name: "delimiter-bounded",
	matches: func(fragment string, candidates []string) []string {
		re := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(fragment) + `[._-]v?\d`)
		var out []string
		for _, c := range candidates {
			base := path.Base(c)
			if hasPackageExt(base) && re.MatchString(base) {
				out = append(out, c)
			}
		}
		return out
	},
}

// loose substring with a package-manager extension.
var looseSubstring = matchStrategy{
	name: "loose-substring",
	matches: func(fragment string, candidates []string) []string {
		frag := strings.ToLower(fragment)
		var out []string
		for _, c := range candidates {
			base := path.Base(c)
			if hasPackageExt(base) && strings.Contains(strings.ToLower(base), frag) {
				out = append(out, c)
			}
		}
		return out
	},
}

// bare substring, any extension. Only directory listings fall this far;
// release assets without .ipk/.apk are never package files.
var bareSubstring = matchStrategy{
	name: "bare-substring",
	matches: func(fragment string, candidates []string) []string {
		frag := strings.ToLower(fragment)
		var out []string
		for _, c := range candidates {
			if strings.Contains(strings.ToLower(path.Base(c)), frag) {
				out = append(out, c)
			}
		}
		return out
	},
}

var releaseStrategies = []matchStrategy{delimiterBounded, looseSubstring}
var listingStrategies = []matchStrategy{delimiterBounded, looseSubstring, bareSubstring}

func hasPackageExt(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".ipk") || strings.HasSuffix(lower, ".apk")
}

// selectCandidate runs the strategy cascade over candidate filenames and
// picks the version-highest match of the first strategy that hits.
func selectCandidate(fragment string, candidates []string, strategies []matchStrategy) (string, bool) {
	for _, strategy := range strategies {
		matches := strategy.matches(fragment, candidates)
		if len(matches) == 0 {
			continue
		}
		best := matches[0]
		for _, m := range matches[1:] {
			if versionLess(path.Base(best), path.Base(m)) {
				best = m
			}
		}
		return best, true
	}
	return "", false
}

// versionLess compares two filenames the way `sort -V` does: runs of
// digits compare numerically, everything else byte-wise. Leading zeros do
// not change a number's value, so 1.10.0 ranks above 1.2.0. This is the
// legacy ordering, deliberately not strict semver.
func versionLess(a, b string) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		da, db := isDigit(ca), isDigit(cb)
		if da && db {
			ia, na := scanNumber(a, i)
			jb, nb := scanNumber(b, j)
			if na != nb {
				return na < nb
			}
			i, j = ia, jb
			continue
		}
		// A digit run facing a non-digit after an equal prefix means one
		// side carries an extra version component (1.0.1 vs 1.0.ipk); the
		// side continuing with the digit ranks higher.
		if da != db {
			return db
		}
		if ca != cb {
			return ca < cb
		}
		i++
		j++
	}
	return len(a)-i < len(b)-j
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// scanNumber reads a digit run starting at i and returns the index after
// the run and its numeric value.
func scanNumber(s string, i int) (int, uint64) {
	var n uint64
	for i < len(s) && isDigit(s[i]) {
		n = n*10 + uint64(s[i]-'0')
		i++
	}
	return i, n
}
