package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wildanadt/RTA-WRT/internal/target"
)

func createTargetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the supported device families",
		Args:  cobra.NoArgs,
		RunE:  executeTargets,
	}
}

func executeTargets(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, name := range target.Names() {
		fam, _ := target.Get(name)
		repack := fam.RepackBuilder()
		if repack == "" {
			repack = "none"
		}
		fmt.Fprintf(out, "%-12s repack=%s\n", name, repack)
	}
	return nil
}
