package repacker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wildanadt/RTA-WRT/internal/utils/logger"
	"github.com/wildanadt/RTA-WRT/internal/utils/shell"
)

// Options drives one repack run for a single device.
type Options struct {
	Builder    string // "ophub" or "ulo"
	BuilderDir string
	Board      string // builder's board identifier, e.g. "s905x"
	Kernel     string
	RootfsSize int // MB, 0 = builder default
	OutDir     string
	// BootFiles are written into the image's FAT boot partition after the
	// builder finishes. Keys are paths inside the partition.
	BootFiles map[string][]byte
}

// Run invokes the vendor builder, patches the boot partition of every image
// it produced and recompresses the results into OutDir. It returns the final
// artifact paths.
func Run(opts Options) ([]string, error) {
	log := logger.Logger()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	cmd, outGlob := opts.builderInvocation()
	log.Infof("Running %s builder for %s (kernel %s)", opts.Builder, opts.Board, opts.Kernel)
	if _, err := shell.ExecCmdWithStream(cmd, true, "", nil); err != nil {
		return nil, fmt.Errorf("%s builder failed: %w", opts.Builder, err)
	}

	images, err := locateOutput(filepath.Join(opts.BuilderDir, outGlob))
	if err != nil {
		return nil, err
	}
	log.Infof("Builder produced %d image(s)", len(images))

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var artifacts []string
	for _, img := range images {
		final, err := opts.finishImage(img)
		if err != nil {
			return artifacts, err
		}
		artifacts = append(artifacts, final)
	}
	return artifacts, nil
}

func (o Options) validate() error {
	switch o.Builder {
	case "ophub", "ulo":
	default:
		return fmt.Errorf("unknown repack builder %q", o.Builder)
	}
	if o.BuilderDir == "" {
		return fmt.Errorf("builder directory not set")
	}
	if o.Board == "" {
		return fmt.Errorf("board not set")
	}
	return nil
}

// builderInvocation returns the command line for the configured builder and
// the glob, relative to BuilderDir, where it leaves its images.
func (o Options) builderInvocation() (cmd, outGlob string) {
	switch o.Builder {
	case "ulo":
		args := []string{"./ulo.sh", "-m", o.Board}
		if o.Kernel != "" {
			args = append(args, "-k", o.Kernel)
		}
		if o.RootfsSize > 0 {
			args = append(args, "-s", fmt.Sprintf("%d", o.RootfsSize))
		}
		return "cd " + o.BuilderDir + " && " + strings.Join(args, " "), "out/*/*.img*"
	default: // ophub
		args := []string{"./remake", "-b", o.Board}
		if o.Kernel != "" {
			args = append(args, "-k", o.Kernel)
		}
		if o.RootfsSize > 0 {
			args = append(args, "-s", fmt.Sprintf("%d", o.RootfsSize))
		}
		return "cd " + o.BuilderDir + " && " + strings.Join(args, " "), "openwrt/out/*.img*"
	}
}

func locateOutput(glob string) ([]string, error) {
	paths, err := filepath.Glob(glob)
	if err != nil {
		return nil, fmt.Errorf("bad output glob %q: %w", glob, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("builder produced no image under %q", glob)
	}
	sort.Strings(paths)
	return paths, nil
}

// finishImage decompresses one builder image if needed, writes the boot
// files into its FAT partition and recompresses it into OutDir as .img.gz.
func (o Options) finishImage(path string) (string, error) {
	raw, cleanup, err := DecompressImage(path, o.OutDir)
	if err != nil {
		return "", err
	}
	defer cleanup()

	if len(o.BootFiles) > 0 {
		if err := InjectBootFiles(raw, o.BootFiles); err != nil {
			return "", err
		}
	}

	final := filepath.Join(o.OutDir, filepath.Base(raw)+".gz")
	if err := CompressImage(raw, final); err != nil {
		return "", err
	}
	return final, nil
}
