package pkgresolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func releaseJSON(assets ...string) string {
	body := `{"tag_name":"v1.0.0","assets":[`
	for i, name := range assets {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf(`{"name":%q,"browser_download_url":"https://dl.example.com/%s"}`, name, name)
	}
	return body + `]}`
}

func TestResolveGitHubLatestRelease(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, releaseJSON("luci-app-passwall_25.2.1_all.ipk", "passwall-checksums.txt"))
	}))
	defer srv.Close()

	r := NewResolver(srv.Client())
	got, err := r.resolveGitHub(context.Background(), PackageRequest{
		NameFragment: "luci-app-passwall",
		Source:       srv.URL + "/repos/xiaorouji/openwrt-passwall/releases/latest",
	})
	if err != nil {
		t.Fatalf("resolveGitHub failed: %v", err)
	}
	want := "https://dl.example.com/luci-app-passwall_25.2.1_all.ipk"
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestResolveGitHubFallsBackToReleaseList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/o/r/releases/latest" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, "[%s,%s]",
			`{"tag_name":"nightly","assets":[]}`,
			releaseJSON("neko_1.0.2_aarch64.ipk"))
	}))
	defer srv.Close()

	r := NewResolver(srv.Client())
	got, err := r.resolveGitHub(context.Background(), PackageRequest{
		NameFragment: "neko",
		Source:       srv.URL + "/repos/o/r/releases/latest",
	})
	if err != nil {
		t.Fatalf("resolveGitHub failed: %v", err)
	}
	if got != "https://dl.example.com/neko_1.0.2_aarch64.ipk" {
		t.Errorf("unexpected URL %s", got)
	}
}

func TestResolveGitHubPicksVersionMaxAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, releaseJSON("foo-1.2.0.ipk", "foo-1.10.0.ipk", "foobar-9.0.ipk"))
	}))
	defer srv.Close()

	r := NewResolver(srv.Client())
	got, err := r.resolveGitHub(context.Background(), PackageRequest{
		NameFragment: "foo",
		Source:       srv.URL + "/releases/latest",
	})
	if err != nil {
		t.Fatalf("resolveGitHub failed: %v", err)
	}
	if got != "https://dl.example.com/foo-1.10.0.ipk" {
		t.Errorf("expected foo-1.10.0.ipk URL, got %s", got)
	}
}

func TestResolveListingHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<a href="../">../</a>
<a href="luci-app-zerotier_1.0.1_all.ipk">luci-app-zerotier_1.0.1_all.ipk</a>
<a href="luci-app-zerotier_1.0.3_all.ipk">luci-app-zerotier_1.0.3_all.ipk</a>
<a href="?C=M;O=A">sort</a>
</body></html>`)
	}))
	defer srv.Close()

	r := NewResolver(srv.Client())
	got, err := r.resolveListing(context.Background(), PackageRequest{
		NameFragment: "luci-app-zerotier",
		Source:       srv.URL + "/packages/luci",
	})
	if err != nil {
		t.Fatalf("resolveListing failed: %v", err)
	}
	want := srv.URL + "/packages/luci/luci-app-zerotier_1.0.3_all.ipk"
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestResolveListingPlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "-rw-r--r-- 1024 tailscale_1.80.0_arm64.ipk\n-rw-r--r-- 99 readme.txt\n")
	}))
	defer srv.Close()

	r := NewResolver(srv.Client())
	got, err := r.resolveListing(context.Background(), PackageRequest{
		NameFragment: "tailscale",
		Source:       srv.URL + "/dir/",
	})
	if err != nil {
		t.Fatalf("resolveListing failed: %v", err)
	}
	if got != srv.URL+"/dir/tailscale_1.80.0_arm64.ipk" {
		t.Errorf("unexpected URL %s", got)
	}
}

func TestResolveAllContinuesPastFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/good":
			fmt.Fprint(w, `<a href="pkga-2.0.ipk">x</a>`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	r := NewResolver(srv.Client())
	resolved := r.ResolveAll(context.Background(), []PackageRequest{
		{NameFragment: "pkga", Source: srv.URL + "/good"},
		{NameFragment: "pkgb", Source: srv.URL + "/bad"},
		{NameFragment: "missing", Source: srv.URL + "/good"},
	})
	if len(resolved) != 3 {
		t.Fatalf("expected 3 results, got %d", len(resolved))
	}
	if !resolved[0].Resolved() {
		t.Error("first request should resolve")
	}
	if resolved[1].Resolved() || resolved[2].Resolved() {
		t.Error("failed requests must yield unresolved entries, not abort")
	}
	if resolved[0].Request.NameFragment != "pkga" {
		t.Error("request order not preserved")
	}
}

func TestResolveRejectsMalformedRequest(t *testing.T) {
	r := NewResolver(nil)
	_, err := r.Resolve(context.Background(), PackageRequest{})
	if !errors.Is(err, ErrMalformedRequest) {
		t.Fatalf("expected ErrMalformedRequest, got %v", err)
	}
}

func TestIsGitHubAPISource(t *testing.T) {
	if !isGitHubAPISource("https://api.github.com/repos/o/r/releases/latest") {
		t.Error("API releases URL should classify as GitHub source")
	}
	if isGitHubAPISource("https://downloads.immortalwrt.org/releases/packages-24.10/aarch64_generic/luci/") {
		t.Error("download mirror must classify as listing source")
	}
}
