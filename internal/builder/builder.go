package builder

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wildanadt/RTA-WRT/internal/config"
	"github.com/wildanadt/RTA-WRT/internal/notifier"
	"github.com/wildanadt/RTA-WRT/internal/patcher"
	"github.com/wildanadt/RTA-WRT/internal/pkgfetcher"
	"github.com/wildanadt/RTA-WRT/internal/pkgresolver"
	"github.com/wildanadt/RTA-WRT/internal/renamer"
	"github.com/wildanadt/RTA-WRT/internal/repacker"
	"github.com/wildanadt/RTA-WRT/internal/target"
	cfgutil "github.com/wildanadt/RTA-WRT/internal/utils/config"
	"github.com/wildanadt/RTA-WRT/internal/utils/logger"
	"github.com/wildanadt/RTA-WRT/internal/utils/shell"
	"github.com/wildanadt/RTA-WRT/internal/utils/system"
)

// Options drives one full firmware build.
type Options struct {
	Profile *config.Profile
	Global  *cfgutil.GlobalConfig

	// Strict turns a partial package batch into a build failure instead
	// of a warning.
	Strict bool

	// BotToken authenticates the Telegram announcement. Empty disables
	// the notify stage even when the profile enables it.
	BotToken string

	// DryRunNotify renders the announcement without sending it.
	DryRunNotify bool

	Progress bool
}

// Builder runs the firmware pipeline: resolve and download the package
// batch, patch the builder configs, run the image builder, repack
// SD-card layouts, rename the artifacts and announce the release.
type Builder struct {
	opts    Options
	helpers *cfgutil.ConfigHelpers
}

func New(opts Options) (*Builder, error) {
	if opts.Profile == nil {
		return nil, fmt.Errorf("no build profile")
	}
	if opts.Global == nil {
		opts.Global = cfgutil.Default()
	}
	return &Builder{opts: opts, helpers: cfgutil.NewConfigHelpers(opts.Global)}, nil
}

// Run executes every stage in order. Package-batch shortfalls abort only
// under Strict; everything after the fetch stage works with whatever
// arrived.
func (b *Builder) Run(ctx context.Context) error {
	log := logger.Logger()
	p := b.opts.Profile
	log.Infof("Building %s (%s %s) for %d device(s)", p.Name, p.Base, p.Version, len(p.Devices))

	if _, err := system.GetHostOsInfo(); err != nil {
		log.Warnf("Could not detect host OS: %v", err)
	}
	if err := system.RequireTools("make", "tar"); err != nil {
		log.Warnf("Build host preflight: %v", err)
	}

	if err := b.helpers.CreateWorkDir(); err != nil {
		return err
	}
	if err := b.helpers.CreateOutDir(); err != nil {
		return err
	}

	packageDir, err := b.downloadPackages(ctx)
	if err != nil {
		return err
	}

	builderDir, err := b.builderDir()
	if err != nil {
		return err
	}
	if err := b.applyPatches(builderDir); err != nil {
		return err
	}

	artifacts, err := b.buildImages(ctx, builderDir, packageDir)
	if err != nil {
		return err
	}

	entries, err := b.renameArtifacts()
	if err != nil {
		return err
	}
	log.Infof("Build produced %d artifact(s), %d renamed", len(artifacts), len(entries))

	return b.notify(ctx, entries)
}

// downloadPackages resolves and fetches the profile's package batch plus
// each device family's defaults, returning the directory the verified
// files landed in.
func (b *Builder) downloadPackages(ctx context.Context) (string, error) {
	log := logger.Logger()
	p := b.opts.Profile

	entries := append([]string{}, p.Packages...)
	for _, fam := range b.families() {
		entries = append(entries, fam.DefaultPackages()...)
	}
	if len(entries) == 0 {
		log.Info("No packages requested, skipping download stage")
		workDir, err := b.helpers.WorkDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(workDir, "packages"), nil
	}

	requests, parseErrs := pkgresolver.ParseRequests(entries)
	for _, err := range parseErrs {
		if b.opts.Strict {
			return "", err
		}
		log.Warnf("Skipping package entry: %v", err)
	}

	resolver := pkgresolver.NewResolver(nil)
	batch := resolver.ResolveAll(ctx, requests)

	opts := pkgfetcher.Options{
		Workers:  b.helpers.Workers(),
		Progress: b.opts.Progress,
	}
	if p.Checksums.URL != "" {
		sums, err := pkgfetcher.FetchChecksums(ctx, nil, p.Checksums.URL, p.Checksums.SignatureURL, p.Checksums.KeyringPath)
		if err != nil {
			return "", fmt.Errorf("fetching checksums: %w", err)
		}
		opts.Checksums = sums
	}

	workDir, err := b.helpers.WorkDir()
	if err != nil {
		return "", err
	}
	packageDir := filepath.Join(workDir, "packages")

	result, err := pkgfetcher.New(opts).Fetch(ctx, batch, packageDir)
	if err != nil {
		return "", err
	}
	if outDir, err := b.helpers.OutDir(); err == nil {
		logger.ReportPath = outDir
		if err := logger.GlobalQueueReport.WriteQueueToFile(p.Name); err != nil {
			log.Warnf("Could not write download queue report: %v", err)
		}
	}
	if !result.Complete() {
		if b.opts.Strict {
			return "", fmt.Errorf("package batch incomplete: %s", result.Summary())
		}
		log.Warnf("Continuing with partial package set: %s", result.Summary())
	}
	return packageDir, nil
}

// builderDir is where the external image builder was unpacked.
func (b *Builder) builderDir() (string, error) {
	if dir := b.opts.Profile.Repack.BuilderDir; dir != "" {
		return dir, nil
	}
	workDir, err := b.helpers.WorkDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(workDir, "imagebuilder"), nil
}

func (b *Builder) applyPatches(builderDir string) error {
	p := b.opts.Profile
	if len(p.Patches) == 0 {
		return nil
	}
	rules := make([]patcher.Rule, len(p.Patches))
	for i, pr := range p.Patches {
		rules[i] = patcher.Rule{Match: pr.Match, Replace: pr.Replace, Files: pr.Files}
	}
	if _, err := patcher.Apply(builderDir, rules); err != nil {
		return fmt.Errorf("patching builder configs: %w", err)
	}
	return nil
}

// buildImages runs the image builder once per device and repacks families
// that need a vendor boot layout.
func (b *Builder) buildImages(ctx context.Context, builderDir, packageDir string) ([]string, error) {
	log := logger.Logger()
	p := b.opts.Profile
	outDir, err := b.helpers.OutDir()
	if err != nil {
		return nil, err
	}

	var artifacts []string
	for _, device := range p.Devices {
		if err := ctx.Err(); err != nil {
			return artifacts, err
		}
		fam, err := target.ForDevice(device)
		if err != nil {
			return artifacts, err
		}
		profileName, err := fam.BuilderProfile(device)
		if err != nil {
			return artifacts, err
		}

		cmd := fmt.Sprintf("cd %s && make image PROFILE=%q PACKAGES=%q BIN_DIR=%q",
			builderDir, profileName, packageDir, outDir)
		log.Infof("Running image builder for %s (%s)", device, profileName)
		if _, err := shell.ExecCmdWithStream(cmd, false, "", nil); err != nil {
			return artifacts, fmt.Errorf("image builder failed for %s: %w", device, err)
		}

		if builderName := fam.RepackBuilder(); builderName != "" {
			repacked, err := repacker.Run(repacker.Options{
				Builder:    builderName,
				BuilderDir: b.repackBuilderDir(builderName),
				Board:      device,
				Kernel:     p.Repack.Kernel,
				RootfsSize: p.Repack.RootfsSize,
				OutDir:     outDir,
			})
			if err != nil {
				return artifacts, fmt.Errorf("repacking %s: %w", device, err)
			}
			artifacts = append(artifacts, repacked...)
		}
	}
	return artifacts, nil
}

func (b *Builder) repackBuilderDir(builderName string) string {
	if dir := b.opts.Profile.Repack.BuilderDir; dir != "" {
		return dir
	}
	workDir, _ := b.helpers.WorkDir()
	return filepath.Join(workDir, builderName)
}

func (b *Builder) renameArtifacts() ([]renamer.Entry, error) {
	p := b.opts.Profile
	outDir, err := b.helpers.OutDir()
	if err != nil {
		return nil, err
	}

	var table []target.DeviceName
	for _, fam := range b.families() {
		table = append(table, fam.RenameTable()...)
	}
	return renamer.Rename(outDir, renamer.Options{
		Base:    p.Base,
		Version: p.Version,
		Tunnel:  p.Tunnel,
		Table:   table,
	})
}

// families returns the distinct device families the profile builds for,
// in device order.
func (b *Builder) families() []target.Target {
	seen := make(map[string]bool)
	var fams []target.Target
	for _, device := range b.opts.Profile.Devices {
		fam, err := target.ForDevice(device)
		if err != nil {
			continue
		}
		if !seen[fam.Name()] {
			seen[fam.Name()] = true
			fams = append(fams, fam)
		}
	}
	return fams
}

func (b *Builder) notify(ctx context.Context, entries []renamer.Entry) error {
	log := logger.Logger()
	p := b.opts.Profile
	if !p.Notify.Enabled {
		return nil
	}
	if b.opts.BotToken == "" && !b.opts.DryRunNotify {
		log.Warn("Notify enabled but no bot token provided, skipping announcement")
		return nil
	}

	bot := notifier.New(notifier.Config{
		Token:   b.opts.BotToken,
		ChatID:  strconv.FormatInt(p.Notify.ChatID, 10),
		TopicID: int(p.Notify.TopicID),
		DryRun:  b.opts.DryRunNotify,
	})

	var buttons []notifier.Button
	var pageArtifacts []notifier.Artifact
	for _, e := range entries {
		if p.Notify.DownloadBase == "" {
			continue
		}
		url := strings.TrimSuffix(p.Notify.DownloadBase, "/") + "/" + e.Renamed
		buttons = append(buttons, notifier.Button{Text: e.Device, URL: url})
		pageArtifacts = append(pageArtifacts, notifier.Artifact{Name: e.Renamed, URL: url})
	}

	if p.Notify.PagePath != "" {
		err := notifier.WritePage(p.Notify.PagePath, notifier.PageData{
			Title:     fmt.Sprintf("RTA-WRT %s %s", p.Base, p.Version),
			Base:      p.Base,
			Version:   p.Version,
			Tunnel:    p.Tunnel,
			Artifacts: pageArtifacts,
		})
		if err != nil {
			return err
		}
		log.Infof("Wrote download page to %s", p.Notify.PagePath)
	}

	message := b.announcement(entries)
	if err := bot.SendMessage(ctx, message, buttons); err != nil {
		return err
	}

	if p.Notify.DownloadBase == "" && len(entries) > 0 {
		outDir, err := b.helpers.OutDir()
		if err != nil {
			return err
		}
		paths := make([]string, len(entries))
		for i, e := range entries {
			paths[i] = filepath.Join(outDir, e.Renamed)
		}
		return bot.SendFiles(ctx, paths, message)
	}
	return nil
}

func (b *Builder) announcement(entries []renamer.Entry) string {
	p := b.opts.Profile
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>RTA-WRT %s %s</b>\n", p.Base, p.Version)
	if p.Tunnel != "" {
		fmt.Fprintf(&sb, "Tunnel: %s\n", p.Tunnel)
	}
	fmt.Fprintf(&sb, "\n%d image(s):\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&sb, "• %s\n", e.Device)
	}
	return sb.String()
}
