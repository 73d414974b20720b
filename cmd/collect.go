package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/redresslabs/redress/internal/app"
	"github.com/redresslabs/redress/internal/rights"
)

// newCollectCmd creates and configures the 'collect' subcommand.
func newCollectCmd() *cobra.Command {
	var (
		mode        string
		category    string
		keywordsPer int
		at          string
	)
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Runs keyword collection once or on the daily schedule",
		Long: `Collects complaint posts for each category's next keyword batch through
the crawler service, deduplicates them into the record store, and saves
attached media. In schedule mode the pass repeats daily at the configured
time until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollect(cmd, mode, category, keywordsPer, at)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "once", "run mode: once or schedule")
	cmd.Flags().StringVar(&category, "category", "all", "category to collect, or all")
	cmd.Flags().IntVar(&keywordsPer, "keywords-per-run", 0, "keywords per category per run (0 uses config)")
	cmd.Flags().StringVar(&at, "at", "", "daily run time HH:MM for schedule mode (empty uses config)")
	return cmd
}

func runCollect(cmd *cobra.Command, mode, category string, keywordsPer int, at string) error {
	application, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	opts := app.CollectOptions{KeywordsPerRun: keywordsPer}
	if category != "" && category != "all" {
		cat, err := rights.ParseCategory(category)
		if err != nil {
			return fmt.Errorf("%w: %w", rights.ErrSetup, err)
		}
		opts.Categories = []rights.Category{cat}
	}
	if at != "" {
		parsed, err := time.Parse("15:04", at)
		if err != nil {
			return fmt.Errorf("%w: --at must be HH:MM", rights.ErrSetup)
		}
		opts.DailyAt = parsed
	}

	sched, err := application.Scheduler(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "once":
		summary, err := sched.RunOnce(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				application.Logger().Warn("collection interrupted",
					zap.String("run_id", summary.RunID))
				return nil
			}
			return fmt.Errorf("collection run: %w", err)
		}
		application.Logger().Info("collection finished",
			zap.String("run_id", summary.RunID),
			zap.Int("posts_new", summary.TotalNew()),
		)
		return nil
	case "schedule":
		if err := sched.RunSchedule(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("schedule loop: %w", err)
		}
		application.Logger().Info("schedule loop stopped")
		return nil
	default:
		return fmt.Errorf("%w: unknown mode %q", rights.ErrSetup, mode)
	}
}
