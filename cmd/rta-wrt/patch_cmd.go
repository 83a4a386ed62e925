package main

import (
	"github.com/spf13/cobra"

	"github.com/wildanadt/RTA-WRT/internal/config"
	"github.com/wildanadt/RTA-WRT/internal/patcher"
	"github.com/wildanadt/RTA-WRT/internal/utils/logger"
)

// Patch command flags
var patchDir string

func createPatchCommand() *cobra.Command {
	patchCmd := &cobra.Command{
		Use:   "patch PROFILE_FILE",
		Short: "Apply a profile's config patches to a builder directory",
		Args:  cobra.ExactArgs(1),
		RunE:  executePatch,
	}

	patchCmd.Flags().StringVarP(&patchDir, "dir", "d", ".",
		"Builder directory the patch globs are relative to")
	return patchCmd
}

func executePatch(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	profile, err := config.LoadProfile(args[0])
	if err != nil {
		return err
	}

	rules := make([]patcher.Rule, len(profile.Patches))
	for i, pr := range profile.Patches {
		rules[i] = patcher.Rule{Match: pr.Match, Replace: pr.Replace, Files: pr.Files}
	}
	reports, err := patcher.Apply(patchDir, rules)
	if err != nil {
		return err
	}

	applied := 0
	for _, r := range reports {
		applied += r.Applied
	}
	log.Infof("Applied %d substitution(s) across %d file(s)", applied, len(reports))
	return nil
}
