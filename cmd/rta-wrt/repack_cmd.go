package main

import (
	"github.com/spf13/cobra"

	"github.com/wildanadt/RTA-WRT/internal/repacker"
	"github.com/wildanadt/RTA-WRT/internal/utils/logger"
)

// Repack command flags
var (
	repackBuilder    string
	repackBuilderDir string
	repackBoard      string
	repackKernel     string
	repackRootfsSize int
	repackOutDir     string
)

func createRepackCommand() *cobra.Command {
	repackCmd := &cobra.Command{
		Use:   "repack",
		Short: "Run a vendor SD-card builder and finalize its images",
		Long: `Repack invokes the ophub or ULO builder for one board, writes
the boot-partition tweaks into the produced images and recompresses
them into the output directory.`,
		RunE: executeRepack,
	}

	repackCmd.Flags().StringVar(&repackBuilder, "builder", "ophub",
		"Vendor builder: ophub or ulo")
	repackCmd.Flags().StringVar(&repackBuilderDir, "builder-dir", "",
		"Directory the vendor builder was cloned into")
	repackCmd.Flags().StringVar(&repackBoard, "board", "",
		"Board identifier passed to the builder, e.g. s905x")
	repackCmd.Flags().StringVar(&repackKernel, "kernel", "",
		"Kernel version for the builder, e.g. 6.1.y")
	repackCmd.Flags().IntVar(&repackRootfsSize, "rootfs-size", 0,
		"Root filesystem size in MB (0 = builder default)")
	repackCmd.Flags().StringVarP(&repackOutDir, "out", "o", "builds",
		"Output directory for the final artifacts")
	repackCmd.MarkFlagRequired("builder-dir")
	repackCmd.MarkFlagRequired("board")
	return repackCmd
}

func executeRepack(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	artifacts, err := repacker.Run(repacker.Options{
		Builder:    repackBuilder,
		BuilderDir: repackBuilderDir,
		Board:      repackBoard,
		Kernel:     repackKernel,
		RootfsSize: repackRootfsSize,
		OutDir:     repackOutDir,
	})
	if err != nil {
		return err
	}
	for _, a := range artifacts {
		log.Infof("Repacked %s", a)
	}
	return nil
}
