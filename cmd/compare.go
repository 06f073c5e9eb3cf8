package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"criteria-diff/core/config"
	"criteria-diff/core/database"
	"criteria-diff/core/logger"
	"criteria-diff/core/reconcile"
	"criteria-diff/core/storage"
	"criteria-diff/core/utils"
	"criteria-diff/feature/compare"
	"criteria-diff/feature/compare/source"
	"criteria-diff/feature/compare/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// errDifferences is returned by compare --strict when the sources differ.
var errDifferences = errors.New("sources differ")

var (
	// Flags for the compare command
	compareA            string
	compareB            string
	compareOut          string
	compareFields       string
	compareOrder        string
	compareLabelA       string
	compareLabelB       string
	compareWorkers      int
	comparePublish      bool
	compareReportObject string
	compareStrict       bool
)

// compareCmd compares two criteria catalogues and writes the report.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two criteria catalogues",
	Long: `Compare two criteria catalogues by identifier.

Sources are local files, s3://bucket/key or storage:key (default bucket).
The JSON report is written to --out ("-" for stdout).

Examples:
  # Compare the configured sources
  compare

  # Compare two files, only the title and level fields
  compare --a data/wcag_tenon.json --b data/wcag_w3c.json --fields title,level

  # Compare bucket objects, print the report and publish it
  compare --a storage:wcag/tenon.json --b storage:wcag/w3c.yaml --out - --publish

  # Fail when the catalogues differ (CI)
  compare --strict`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareA, "a", "", "Source A (default from config)")
	compareCmd.Flags().StringVar(&compareB, "b", "", "Source B (default from config)")
	compareCmd.Flags().StringVar(&compareOut, "out", "", `Report file, "-" for stdout (default from config)`)
	compareCmd.Flags().StringVar(&compareFields, "fields", "", "Comma separated field allowlist")
	compareCmd.Flags().StringVar(&compareOrder, "order", "", "Identifier order: lexical or numeric")
	compareCmd.Flags().StringVar(&compareLabelA, "label-a", "", "Label of source A in line diffs")
	compareCmd.Flags().StringVar(&compareLabelB, "label-b", "", "Label of source B in line diffs")
	compareCmd.Flags().IntVar(&compareWorkers, "workers", 0, "Parallel diff workers (default from config)")
	compareCmd.Flags().BoolVar(&comparePublish, "publish", false, "Publish the report to the bucket")
	compareCmd.Flags().StringVar(&compareReportObject, "report-object", "", "Object key of the published report")
	compareCmd.Flags().BoolVar(&compareStrict, "strict", false, "Exit with an error when the sources differ")

	RootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if compareWorkers > 0 {
		cfg.Compare.Workers = compareWorkers
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	refA, err := source.ParseRef(utils.FirstNonEmpty(compareA, cfg.Compare.SourceA))
	if err != nil {
		return fmt.Errorf("source a: %w", err)
	}
	refB, err := source.ParseRef(utils.FirstNonEmpty(compareB, cfg.Compare.SourceB))
	if err != nil {
		return fmt.Errorf("source b: %w", err)
	}

	var client storage.Client
	if refA.Kind == source.KindStorage || refB.Kind == source.KindStorage || comparePublish {
		client, err = storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
	}

	runs := openRunStore(ctx, cfg.Database, l)
	svc := compare.NewService(client, cfg.Storage.Bucket, l, runs, cfg.Compare)

	l.Info("Starting comparison", zap.String("a", refA.String()), zap.String("b", refB.String()))

	report, err := svc.Compare(ctx, compare.Request{
		Params: compare.Params{
			Fields: utils.SplitList(compareFields),
			Order:  compareOrder,
			LabelA: compareLabelA,
			LabelB: compareLabelB,
		},
		A:            refA,
		B:            refB,
		Publish:      comparePublish,
		ReportObject: compareReportObject,
	})
	if report == nil {
		return err
	}
	if err != nil {
		// Publishing failed; the local report is still written
		l.Error("Failed to publish report", zap.Error(err))
	}

	out := utils.FirstNonEmpty(compareOut, cfg.Compare.Output, "-")
	if writeErr := writeReport(out, report); writeErr != nil {
		return writeErr
	}
	if out != "-" {
		l.Info("Report written", zap.String("path", out))
	}

	printCompareSummary(l, report)

	if err != nil {
		return err
	}
	if compareStrict && hasDifferences(report) {
		return errDifferences
	}
	return nil
}

// writeReport writes the report as indented JSON to path, or stdout for "-".
func writeReport(path string, report *reconcile.Report) error {
	w := os.Stdout
	if path != "-" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// printCompareSummary logs the counts and a sample of the changed identifiers.
func printCompareSummary(l *zap.Logger, report *reconcile.Report) {
	c := report.Counts
	l.Info("Comparison report",
		zap.String("generated_at", report.GeneratedAt),
		zap.Int("a_items", c.AItems),
		zap.Int("b_items", c.BItems),
		zap.Int("only_a", c.OnlyA),
		zap.Int("only_b", c.OnlyB),
		zap.Int("changed_common", c.ChangedCommon),
		zap.Int("common_total", c.CommonTotal),
	)

	maxShow := 5
	if len(report.Changes) < maxShow {
		maxShow = len(report.Changes)
	}
	for _, change := range report.Changes[:maxShow] {
		fields := make([]string, 0, len(change.Diffs))
		for _, d := range change.Diffs {
			fields = append(fields, d.Field)
		}
		l.Info("Changed criterion", zap.String("id", change.ID), zap.Strings("fields", fields))
	}
	if len(report.Changes) > maxShow {
		l.Info("Additional changes not shown", zap.Int("count", len(report.Changes)-maxShow))
	}
}

func hasDifferences(report *reconcile.Report) bool {
	c := report.Counts
	return c.OnlyA > 0 || c.OnlyB > 0 || c.ChangedCommon > 0
}

// openRunStore connects the run history database when it is enabled.
// Failures are logged and disable the history.
func openRunStore(ctx context.Context, cfg database.Config, l *zap.Logger) *store.Store {
	if !cfg.Enabled {
		return nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		l.Warn("Optional database connection failed", zap.Error(err))
		return nil
	}

	runs := store.New(db)
	if err := runs.Migrate(ctx); err != nil {
		l.Warn("Run history migration failed", zap.Error(err))
		return nil
	}

	l.Debug("Run history enabled", zap.String("driver", cfg.Driver))
	return runs
}
