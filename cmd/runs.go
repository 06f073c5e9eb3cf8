package cmd

import (
	"context"
	"errors"
	"fmt"

	"criteria-diff/core/config"
	"criteria-diff/core/logger"

	"github.com/spf13/cobra"
)

var runsLimit int

// runsCmd lists the recorded comparison runs.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded comparison runs",
	Long:  `Lists the most recent comparison runs from the run history database (database.enabled must be set).`,
	RunE:  runListRuns,
}

// runsShowCmd prints the report of one recorded run.
var runsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print the report of a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowRun,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")
	runsCmd.AddCommand(runsShowCmd)
	RootCmd.AddCommand(runsCmd)
}

func runListRuns(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	runs := openRunStore(ctx, cfg.Database, l)
	if runs == nil {
		return errors.New("run history is not available, check the database settings")
	}

	list, err := runs.List(ctx, runsLimit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-36s  %-20s  %6s  %6s  %7s  %s\n", "ID", "GENERATED", "ONLY_A", "ONLY_B", "CHANGED", "SOURCES")
	for _, r := range list {
		fmt.Printf("%-36s  %-20s  %6d  %6d  %7d  %s <> %s\n",
			r.ID, r.GeneratedAt, r.OnlyA, r.OnlyB, r.ChangedCommon, r.SourceA, r.SourceB)
	}
	return nil
}

func runShowRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	runs := openRunStore(ctx, cfg.Database, l)
	if runs == nil {
		return errors.New("run history is not available, check the database settings")
	}

	run, err := runs.Get(ctx, args[0])
	if err != nil {
		return err
	}
	report, err := run.Decode()
	if err != nil {
		return err
	}
	return writeReport("-", report)
}
