package pkgfetcher

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"

	"github.com/wildanadt/RTA-WRT/internal/utils/network"
)

// ChecksumSet maps filenames to their expected hex SHA-256 digests, as
// published in the sha256sums file next to upstream directory listings.
type ChecksumSet map[string]string

// ParseChecksums reads "digest *filename" / "digest  filename" lines.
func ParseChecksums(r io.Reader) (ChecksumSet, error) {
	set := make(ChecksumSet)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 || len(fields[0]) != sha256.Size*2 {
			continue
		}
		name := strings.TrimPrefix(fields[1], "*")
		set[name] = strings.ToLower(fields[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading checksum listing: %w", err)
	}
	return set, nil
}

// Contains reports whether the set lists the given filename.
func (c ChecksumSet) Contains(name string) bool {
	_, ok := c[name]
	return ok
}

// VerifyFile checks a downloaded file against the set. Files the set does
// not list pass; the set only constrains what upstream published digests
// for.
func (c ChecksumSet) VerifyFile(path string, name string) error {
	want, ok := c[name]
	if !ok {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s for checksum: %w", path, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hashing %s: %w", path, err)
	}
	got := hex.EncodeToString(h.Sum(nil))
	if got != want {
		return fmt.Errorf("checksum mismatch for %s: got %s, want %s", name, got, want)
	}
	return nil
}

// FetchChecksums downloads a sha256sums listing and, when a signature URL
// and keyring are configured, verifies its detached GPG signature before
// trusting it.
func FetchChecksums(ctx context.Context, client *http.Client, url, sigURL, keyringPath string) (ChecksumSet, error) {
	if client == nil {
		client = network.NewSecureHTTPClient()
	}
	sums, err := fetchBody(ctx, client, url)
	if err != nil {
		return nil, err
	}
	if sigURL != "" && keyringPath != "" {
		sig, err := fetchBody(ctx, client, sigURL)
		if err != nil {
			return nil, err
		}
		if err := verifyDetachedSignature(sums, sig, keyringPath); err != nil {
			return nil, fmt.Errorf("checksum signature verification failed: %w", err)
		}
	}
	return ParseChecksums(bytes.NewReader(sums))
}

func fetchBody(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func verifyDetachedSignature(signed, sig []byte, keyringPath string) error {
	kf, err := os.Open(keyringPath)
	if err != nil {
		return fmt.Errorf("opening keyring %s: %w", keyringPath, err)
	}
	defer kf.Close()
	keyring, err := openpgp.ReadArmoredKeyRing(kf)
	if err != nil {
		// Binary keyrings are also accepted.
		if _, seekErr := kf.Seek(0, io.SeekStart); seekErr != nil {
			return fmt.Errorf("rewinding keyring: %w", seekErr)
		}
		keyring, err = openpgp.ReadKeyRing(kf)
		if err != nil {
			return fmt.Errorf("reading keyring %s: %w", keyringPath, err)
		}
	}
	if bytes.HasPrefix(bytes.TrimSpace(sig), []byte("-----BEGIN PGP")) {
		_, err = openpgp.CheckArmoredDetachedSignature(keyring, bytes.NewReader(signed), bytes.NewReader(sig), nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(keyring, bytes.NewReader(signed), bytes.NewReader(sig), nil)
	}
	return err
}
