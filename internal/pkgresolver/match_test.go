package pkgresolver

import "testing"

func TestSelectCandidatePrefersDelimiterBoundedVersionMax(t *testing.T) {
	candidates := []string{"foo-1.2.0.ipk", "foo-1.10.0.ipk", "foobar-9.0.ipk"}
	got, ok := selectCandidate("foo", candidates, releaseStrategies)
	if !ok {
		t.Fatal("expected a match")
	}
	if got != "foo-1.10.0.ipk" {
		t.Errorf("expected foo-1.10.0.ipk, got %s", got)
	}
}

func TestSelectCandidateFallsBackToLooseSubstring(t *testing.T) {
	candidates := []string{"luci-app-openclash_0.46.079_all.ipk", "clash-meta.tar.gz"}
	got, ok := selectCandidate("openclash", candidates, releaseStrategies)
	if !ok {
		t.Fatal("expected a loose match")
	}
	if got != "luci-app-openclash_0.46.079_all.ipk" {
		t.Errorf("expected openclash ipk, got %s", got)
	}
}

func TestSelectCandidateBareSubstringOnlyForListings(t *testing.T) {
	candidates := []string{"tailscale_1.80.0_arm64.tar.gz"}
	if _, ok := selectCandidate("tailscale", candidates, releaseStrategies); ok {
		t.Error("release cascade must not match non-package extensions")
	}
	got, ok := selectCandidate("tailscale", candidates, listingStrategies)
	if !ok {
		t.Fatal("listing cascade should fall back to bare substring")
	}
	if got != "tailscale_1.80.0_arm64.tar.gz" {
		t.Errorf("unexpected match %s", got)
	}
}

func TestSelectCandidatePrefersExtraVersionComponent(t *testing.T) {
	candidates := []string{"foo-1.0.ipk", "foo-1.0.1.ipk"}
	got, ok := selectCandidate("foo", candidates, releaseStrategies)
	if !ok {
		t.Fatal("expected a match")
	}
	if got != "foo-1.0.1.ipk" {
		t.Errorf("expected foo-1.0.1.ipk, got %s", got)
	}
}

func TestSelectCandidateApkExtension(t *testing.T) {
	candidates := []string{"luci-theme-argon-2.3.1.apk", "luci-theme-argon-2.3.2.apk"}
	got, ok := selectCandidate("luci-theme-argon", candidates, releaseStrategies)
	if !ok {
		t.Fatal("expected a match")
	}
	if got != "luci-theme-argon-2.3.2.apk" {
		t.Errorf("expected 2.3.2, got %s", got)
	}
}

func TestSelectCandidateNoMatch(t *testing.T) {
	if _, ok := selectCandidate("zerotier", []string{"foo-1.0.ipk"}, listingStrategies); ok {
		t.Error("expected no match")
	}
}

func TestVersionLess(t *testing.T) {
	cases := []struct {
		a, b string
		less bool
	}{
		{"foo-1.2.0.ipk", "foo-1.10.0.ipk", true},
		{"foo-1.10.0.ipk", "foo-1.2.0.ipk", false},
		{"foo-2.0.9.ipk", "foo-2.1.0.ipk", true},
		{"foo-2.1.0.ipk", "foo-2.1.0.ipk", false},
		{"pkg_0.9_all.ipk", "pkg_0.10_all.ipk", true},
		{"a-1.0.ipk", "a-1.0.1.ipk", true},
		{"a-1.0.1.ipk", "a-1.0.ipk", false},
		{"pkg_2.3_all.ipk", "pkg_2.3.7_all.ipk", true},
		{"kernel-5.15.ipk", "kernel-6.6.ipk", true},
	}
	for _, c := range cases {
		if got := versionLess(c.a, c.b); got != c.less {
			t.Errorf("versionLess(%q, %q) = %v, want %v", c.a, c.b, got, c.less)
		}
	}
}

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest("openclash|https://api.github.com/repos/vernesong/OpenClash/releases/latest")
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if req.NameFragment != "openclash" {
		t.Errorf("unexpected fragment %q", req.NameFragment)
	}
}

func TestParseRequestMalformed(t *testing.T) {
	for _, entry := range []string{"", "nofragment", "|https://example.com", "frag|", "  |  "} {
		if _, err := ParseRequest(entry); err == nil {
			t.Errorf("expected error for entry %q", entry)
		}
	}
}

func TestParseRequestsKeepsValidRemainder(t *testing.T) {
	reqs, errs := ParseRequests([]string{
		"a|https://example.com/a",
		"broken",
		"b|https://example.com/b",
	})
	if len(reqs) != 2 {
		t.Fatalf("expected 2 valid requests, got %d", len(reqs))
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 parse error, got %d", len(errs))
	}
	if reqs[0].NameFragment != "a" || reqs[1].NameFragment != "b" {
		t.Error("request order not preserved")
	}
}
