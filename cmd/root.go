package cmd

import (
	"fmt"
	"os"

	"criteria-diff/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "criteria-diff",
	Short: "Criteria Catalogue Reconciler",
	Long: `Criteria Diff compares two catalogues of success criteria (for example
two WCAG datasets) by identifier and reports missing and changed entries.
Sources are read from local files or an S3 compatible bucket.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console logger with ISO8601 timestamps for CLI errors
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
