package pkgresolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/wildanadt/RTA-WRT/internal/utils/logger"
	"github.com/wildanadt/RTA-WRT/internal/utils/network"
)

// ErrNoMatch is returned when no candidate filename matches the fragment.
var ErrNoMatch = errors.New("no matching package asset")

// ErrMalformedRequest is returned for entries missing a fragment or source.
var ErrMalformedRequest = errors.New("malformed package request")

// PackageRequest names one package to locate: a filename fragment and the
// place to look for it, either a GitHub releases API endpoint or a plain
// directory-listing page.
type PackageRequest struct {
	NameFragment string
	Source       string
}

// ResolvedPackage pairs a request with the concrete URL it resolved to.
// An empty DownloadURL means resolution failed; the batch carries on.
type ResolvedPackage struct {
	Request     PackageRequest
	DownloadURL string
}

// Resolved reports whether resolution produced a usable URL.
func (r ResolvedPackage) Resolved() bool { return r.DownloadURL != "" }

// ParseRequest splits a "name_fragment|source" entry into a request.
func ParseRequest(entry string) (PackageRequest, error) {
	parts := strings.SplitN(entry, "|", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return PackageRequest{}, fmt.Errorf("%w: %q (want \"fragment|source\")", ErrMalformedRequest, entry)
	}
	return PackageRequest{
		NameFragment: strings.TrimSpace(parts[0]),
		Source:       strings.TrimSpace(parts[1]),
	}, nil
}

// ParseRequests parses a full entry list, rejecting malformed lines but
// keeping the valid remainder in order.
func ParseRequests(entries []string) ([]PackageRequest, []error) {
	var reqs []PackageRequest
	var errs []error
	for _, entry := range entries {
		req, err := ParseRequest(entry)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		reqs = append(reqs, req)
	}
	return reqs, errs
}

// Resolver turns package requests into concrete download URLs.
type Resolver struct {
	client *http.Client
}

// NewResolver builds a resolver around the given HTTP client; nil gets the
// shared secure client.
func NewResolver(client *http.Client) *Resolver {
	if client == nil {
		client = network.NewSecureHTTPClient()
	}
	return &Resolver{client: client}
}

// ResolveAll resolves every request, preserving request order. Individual
// failures are logged and yield an unresolved entry; they never abort the
// batch.
func (r *Resolver) ResolveAll(ctx context.Context, requests []PackageRequest) []ResolvedPackage {
	log := logger.Logger()
	resolved := make([]ResolvedPackage, 0, len(requests))
	for _, req := range requests {
		downloadURL, err := r.Resolve(ctx, req)
		if err != nil {
			if errors.Is(err, ErrNoMatch) {
				log.Warnf("no asset found for %q at %s", req.NameFragment, req.Source)
			} else {
				log.Errorf("resolving %q: %v", req.NameFragment, err)
			}
			resolved = append(resolved, ResolvedPackage{Request: req})
			continue
		}
		log.Infof("resolved %s -> %s", req.NameFragment, downloadURL)
		resolved = append(resolved, ResolvedPackage{Request: req, DownloadURL: downloadURL})
	}
	return resolved
}

// Resolve finds the single best download URL for one request.
func (r *Resolver) Resolve(ctx context.Context, req PackageRequest) (string, error) {
	if req.NameFragment == "" || req.Source == "" {
		return "", ErrMalformedRequest
	}
	if isGitHubAPISource(req.Source) {
		return r.resolveGitHub(ctx, req)
	}
	return r.resolveListing(ctx, req)
}

func isGitHubAPISource(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return u.Host == "api.github.com" && strings.Contains(u.Path, "/releases")
}

func (r *Resolver) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json, text/html;q=0.9, */*;q=0.8")
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	return resp, nil
}
