package repacker

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// DecompressImage makes a writable raw copy of a builder image inside
// workDir, decoding .gz and .xz wrappers. The returned cleanup removes the
// copy; call it after the final artifact has been written elsewhere.
func DecompressImage(path, workDir string) (raw string, cleanup func(), err error) {
	src, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer src.Close()

	var reader io.Reader = src
	base := filepath.Base(path)
	switch {
	case strings.HasSuffix(base, ".gz"):
		gz, err := gzip.NewReader(src)
		if err != nil {
			return "", nil, fmt.Errorf("reading gzip %s: %w", path, err)
		}
		defer gz.Close()
		reader = gz
		base = strings.TrimSuffix(base, ".gz")
	case strings.HasSuffix(base, ".xz"):
		xr, err := xz.NewReader(src)
		if err != nil {
			return "", nil, fmt.Errorf("reading xz %s: %w", path, err)
		}
		reader = xr
		base = strings.TrimSuffix(base, ".xz")
	}

	raw = filepath.Join(workDir, base)
	dst, err := os.Create(raw)
	if err != nil {
		return "", nil, fmt.Errorf("creating %s: %w", raw, err)
	}
	if _, err := io.Copy(dst, reader); err != nil {
		dst.Close()
		os.Remove(raw)
		return "", nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(raw)
		return "", nil, fmt.Errorf("closing %s: %w", raw, err)
	}
	return raw, func() { os.Remove(raw) }, nil
}

// CompressImage gzips a raw image into dst.
func CompressImage(raw, dst string) error {
	src, err := os.Open(raw)
	if err != nil {
		return fmt.Errorf("opening %s: %w", raw, err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	gz, err := gzip.NewWriterLevel(out, gzip.BestCompression)
	if err != nil {
		out.Close()
		return err
	}
	if _, err := io.Copy(gz, src); err != nil {
		gz.Close()
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("compressing %s: %w", raw, err)
	}
	if err := gz.Close(); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("finalizing %s: %w", dst, err)
	}
	return out.Close()
}
