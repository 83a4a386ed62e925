package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wildanadt/RTA-WRT/internal/pkgfetcher"
	"github.com/wildanadt/RTA-WRT/internal/pkgresolver"
	"github.com/wildanadt/RTA-WRT/internal/utils/logger"
)

// Download command flags
var (
	downloadDest   string
	downloadStrict bool
)

func createDownloadCommand() *cobra.Command {
	downloadCmd := &cobra.Command{
		Use:   "download FRAGMENT|SOURCE ...",
		Short: "Resolve and download a package batch",
		Long: `Download resolves each "fragment|source" entry to a concrete
package URL (GitHub release assets or directory listings) and fetches
them concurrently into the destination directory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: executeDownload,
	}

	downloadCmd.Flags().StringVarP(&downloadDest, "dest", "d", "packages",
		"Destination directory for downloaded packages")
	downloadCmd.Flags().BoolVar(&downloadStrict, "strict", false,
		"Exit non-zero when not every package downloads")
	return downloadCmd
}

func executeDownload(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	requests, parseErrs := pkgresolver.ParseRequests(args)
	for _, err := range parseErrs {
		if downloadStrict {
			return err
		}
		log.Warnf("Skipping entry: %v", err)
	}

	resolver := pkgresolver.NewResolver(nil)
	batch := resolver.ResolveAll(cmd.Context(), requests)

	fetcher := pkgfetcher.New(pkgfetcher.Options{
		Workers:  globalConfig.Workers,
		Progress: true,
	})
	result, err := fetcher.Fetch(cmd.Context(), batch, downloadDest)
	if err != nil {
		return err
	}
	if downloadStrict && !result.Complete() {
		return fmt.Errorf("incomplete batch: %s", result.Summary())
	}
	return nil
}
