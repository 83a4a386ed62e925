package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wildanadt/RTA-WRT/internal/builder"
	"github.com/wildanadt/RTA-WRT/internal/config"
	"github.com/wildanadt/RTA-WRT/internal/utils/logger"
)

// Build command flags
var (
	strictBuild  bool
	showProgress bool
	dryRunNotify bool
)

func createBuildCommand() *cobra.Command {
	buildCmd := &cobra.Command{
		Use:   "build PROFILE_FILE",
		Short: "Run the full firmware build for a profile",
		Long: `Build runs every pipeline stage for one profile: package
resolution and download, config patching, image building, SD-card
repacking, artifact renaming and the release announcement.

The Telegram bot token is read from the TELEGRAM_BOT_TOKEN environment
variable.`,
		Args: cobra.ExactArgs(1),
		RunE: executeBuild,
	}

	buildCmd.Flags().BoolVar(&strictBuild, "strict", false,
		"Fail the build when the package batch is incomplete")
	buildCmd.Flags().BoolVar(&showProgress, "progress", false,
		"Render a download progress bar")
	buildCmd.Flags().BoolVar(&dryRunNotify, "dry-run-notify", false,
		"Log the release announcement instead of sending it")
	return buildCmd
}

func executeBuild(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	profile, err := config.LoadProfile(args[0])
	if err != nil {
		return err
	}
	log.Infof("Loaded profile %s", profile.Name)

	b, err := builder.New(builder.Options{
		Profile:      profile,
		Global:       globalConfig,
		Strict:       strictBuild,
		BotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		DryRunNotify: dryRunNotify,
		Progress:     showProgress,
	})
	if err != nil {
		return err
	}
	return b.Run(cmd.Context())
}
