package main

import (
	"fmt"

	"github.com/spf13/cobra"

	cfgutil "github.com/wildanadt/RTA-WRT/internal/utils/config"
	"github.com/wildanadt/RTA-WRT/internal/utils/logger"
)

// Global command flags
var (
	configFile string
	logLevel   string
	verbose    bool
)

// globalConfig is loaded once by the logging hook and shared by every
// subcommand.
var globalConfig = cfgutil.Default()

func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rta-wrt",
		Short: "RTA-WRT firmware build pipeline",
		Long: `rta-wrt builds customized OpenWrt/ImmortalWrt firmware images:
it resolves and downloads the package batch, patches the image-builder
configuration, runs the external builders, repacks vendor SD-card layouts,
renames the artifacts and announces the release.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"Path to the global YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Shorthand for --log-level debug")

	rootCmd.AddCommand(createBuildCommand())
	rootCmd.AddCommand(createDownloadCommand())
	rootCmd.AddCommand(createPatchCommand())
	rootCmd.AddCommand(createRepackCommand())
	rootCmd.AddCommand(createNotifyCommand())
	rootCmd.AddCommand(createTargetsCommand())

	attachLoggingHooks(rootCmd)
	return rootCmd
}

// attachLoggingHooks makes every subcommand initialize config and logging
// before it runs.
func attachLoggingHooks(root *cobra.Command) {
	for _, cmd := range root.Commands() {
		cmd.PersistentPreRunE = setupRun
	}
}

func setupRun(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		cfg, err := cfgutil.LoadGlobal(configFile)
		if err != nil {
			return err
		}
		globalConfig = cfg
	}

	level := resolveRequestedLogLevel(cmd)
	if level == "" {
		level = globalConfig.Logging.Level
	}
	z, err := logger.New(level)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	logger.Init(z)
	return nil
}

// resolveRequestedLogLevel returns the level asked for on the command line:
// an explicit --log-level wins, then --verbose as a debug shorthand, then
// empty to defer to the config file.
func resolveRequestedLogLevel(cmd *cobra.Command) string {
	if logLevel != "" {
		return logLevel
	}
	if cmd != nil && cmd.Flags().Changed("verbose") {
		if on, err := cmd.Flags().GetBool("verbose"); err == nil && on {
			return "debug"
		}
	}
	return ""
}
