package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/redresslabs/redress/internal/analyzer"
	"github.com/redresslabs/redress/internal/rights"
)

// newAnalyzeCmd creates and configures the 'analyze' subcommand.
func newAnalyzeCmd() *cobra.Command {
	var (
		category string
		from     string
		to       string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Builds a snapshot and report bundle from stored posts",
		Long: `Scans the record store, segments post text against the industry
dictionary, and writes a timestamped bundle holding snapshot.json, the
rendered charts, and an HTML report.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, category, from, to, out)
		},
	}
	cmd.Flags().StringVar(&category, "category", "all", "category to analyze, or all")
	cmd.Flags().StringVar(&from, "from", "", "window start YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "window end YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&out, "out", "", "bundle output root (empty uses <data_dir>/analysis)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, category, from, to, out string) error {
	application, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	var categories []rights.Category
	if category != "" && category != "all" {
		cat, err := rights.ParseCategory(category)
		if err != nil {
			return fmt.Errorf("%w: %w", rights.ErrSetup, err)
		}
		categories = []rights.Category{cat}
	}
	window, err := parseWindow(from, to)
	if err != nil {
		return err
	}

	an, err := application.Analyzer()
	if err != nil {
		return err
	}
	gen, err := application.Reporter(out)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snap, err := an.Analyze(ctx, categories, window)
	if err != nil {
		return fmt.Errorf("analyze corpus: %w", err)
	}
	bundle, err := gen.Generate(ctx, snap)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	application.Logger().Info("analysis finished",
		zap.Int("posts", snap.TotalPosts),
		zap.String("report", bundle.ReportPath),
	)
	fmt.Fprintln(cmd.OutOrStdout(), bundle.ReportPath)
	return nil
}

func parseWindow(from, to string) (analyzer.Window, error) {
	var w analyzer.Window
	if from != "" {
		parsed, err := time.Parse("2006-01-02", from)
		if err != nil {
			return w, fmt.Errorf("%w: --from must be YYYY-MM-DD", rights.ErrSetup)
		}
		w.From = parsed
	}
	if to != "" {
		parsed, err := time.Parse("2006-01-02", to)
		if err != nil {
			return w, fmt.Errorf("%w: --to must be YYYY-MM-DD", rights.ErrSetup)
		}
		// The window is inclusive, so stretch the end date to its last
		// instant.
		w.To = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return w, nil
}
