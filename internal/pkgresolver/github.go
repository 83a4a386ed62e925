package pkgresolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

type githubRelease struct {
	TagName string        `json:"tag_name"`
	Assets  []githubAsset `json:"assets"`
}

// resolveGitHub fetches release metadata from the GitHub API and selects
// the asset matching the fragment. A 404 on .../releases/latest (common
// for repos that only publish pre-releases) falls back to the full
// releases list.
func (r *Resolver) resolveGitHub(ctx context.Context, req PackageRequest) (string, error) {
	assets, err := r.fetchReleaseAssets(ctx, req.Source)
	if err != nil {
		return "", err
	}
	if len(assets) == 0 {
		return "", fmt.Errorf("%w: release at %s has no assets", ErrNoMatch, req.Source)
	}

	names := make([]string, len(assets))
	byName := make(map[string]string, len(assets))
	for i, a := range assets {
		names[i] = a.Name
		byName[a.Name] = a.BrowserDownloadURL
	}
	name, ok := selectCandidate(req.NameFragment, names, releaseStrategies)
	if !ok {
		return "", fmt.Errorf("%w: fragment %q against %d release assets", ErrNoMatch, req.NameFragment, len(assets))
	}
	return byName[name], nil
}

func (r *Resolver) fetchReleaseAssets(ctx context.Context, source string) ([]githubAsset, error) {
	resp, err := r.get(ctx, source)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && strings.HasSuffix(source, "/latest") {
		return r.fetchReleaseListAssets(ctx, strings.TrimSuffix(source, "/latest"))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API %s returned status %d", source, resp.StatusCode)
	}

	// The endpoint may serve a single release object or a release list.
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding GitHub API response: %w", err)
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var releases []githubRelease
		if err := json.Unmarshal(raw, &releases); err != nil {
			return nil, fmt.Errorf("decoding GitHub release list: %w", err)
		}
		return firstReleaseWithAssets(releases), nil
	}
	var release githubRelease
	if err := json.Unmarshal(raw, &release); err != nil {
		return nil, fmt.Errorf("decoding GitHub release: %w", err)
	}
	return release.Assets, nil
}

func (r *Resolver) fetchReleaseListAssets(ctx context.Context, source string) ([]githubAsset, error) {
	resp, err := r.get(ctx, source)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API %s returned status %d", source, resp.StatusCode)
	}
	var releases []githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, fmt.Errorf("decoding GitHub release list: %w", err)
	}
	return firstReleaseWithAssets(releases), nil
}

func firstReleaseWithAssets(releases []githubRelease) []githubAsset {
	for _, rel := range releases {
		if len(rel.Assets) > 0 {
			return rel.Assets
		}
	}
	return nil
}
