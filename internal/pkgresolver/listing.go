package pkgresolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// Directory listings come either as HTML index pages or as plain-text
// file lists; both are mined for quoted href-like tokens first and bare
// path tokens second.
var hrefPattern = regexp.MustCompile(`(?i)href\s*=\s*["']([^"']+)["']`)
var quotedPattern = regexp.MustCompile(`["']([^"'<>\s]+\.(?:ipk|apk|gz|xz|bin|img))["']`)

const maxListingBytes = 8 << 20

// resolveListing fetches a directory page and applies the matcher cascade
// to the candidate links found on it.
func (r *Resolver) resolveListing(ctx context.Context, req PackageRequest) (string, error) {
	resp, err := r.get(ctx, req.Source)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("listing %s returned status %d", req.Source, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListingBytes))
	if err != nil {
		return "", fmt.Errorf("reading listing %s: %w", req.Source, err)
	}

	candidates := extractCandidates(string(body))
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no links found at %s", ErrNoMatch, req.Source)
	}
	chosen, ok := selectCandidate(req.NameFragment, candidates, listingStrategies)
	if !ok {
		return "", fmt.Errorf("%w: fragment %q against %d listing entries", ErrNoMatch, req.NameFragment, len(candidates))
	}
	return absoluteURL(req.Source, chosen)
}

// extractCandidates pulls link-like strings out of a listing body,
// de-duplicated and in document order.
func extractCandidates(body string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(link string) {
		link = strings.TrimSpace(link)
		if link == "" || strings.HasPrefix(link, "?") || strings.HasPrefix(link, "#") || link == "../" {
			return
		}
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		out = append(out, link)
	}
	for _, m := range hrefPattern.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	for _, m := range quotedPattern.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	// Plain-text listings: one filename per line, no markup at all.
	if len(out) == 0 && !strings.Contains(body, "<") {
		for _, line := range strings.Split(body, "\n") {
			fields := strings.Fields(line)
			if len(fields) > 0 {
				add(fields[len(fields)-1])
			}
		}
	}
	return out
}

// absoluteURL resolves a listing link against the page it came from.
func absoluteURL(base, link string) (string, error) {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link, nil
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base URL %s: %w", base, err)
	}
	if !strings.HasSuffix(baseURL.Path, "/") {
		baseURL.Path += "/"
	}
	ref, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parsing link %s: %w", link, err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}
