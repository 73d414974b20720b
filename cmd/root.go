// Package cmd defines and implements the CLI commands for the redress
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/redresslabs/redress/internal/app"
	"github.com/redresslabs/redress/internal/config"
	"github.com/redresslabs/redress/internal/rights"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// newApp is the application factory. It is a variable so tests can replace
// it with a factory building against in-memory providers.
var newApp = func(ctx context.Context, cfgPath string) (*app.App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", rights.ErrSetup, err)
	}
	return app.Build(ctx, cfg)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redress",
		Short: "Collects and analyzes consumer-rights complaints from social platforms",
		Long: `redress periodically harvests consumer-complaint posts in the medical
beauty, male health, and general rights verticals through an external
crawler service, stores them deduplicated per category, and distills the
corpus into keyword, author, and trend reports.`,
		SilenceUsage: true,

		// Runs after flags are parsed but before the subcommand's RunE;
		// builds the container and injects it for subcommands to resolve.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			application, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), appKey, application)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			application, ok := cmd.Context().Value(appKey).(*app.App)
			if !ok || application == nil {
				return
			}
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = application.Close(closeCtx)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (empty means environment-only configuration)")

	cmd.AddCommand(newCollectCmd())
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

func resolveApp(ctx context.Context) (*app.App, error) {
	application, ok := ctx.Value(appKey).(*app.App)
	if !ok || application == nil {
		return nil, errors.New("application services not initialized")
	}
	return application, nil
}

// Execute runs the CLI and maps errors onto exit codes: 0 on success, 2 for
// setup failures detected before any collection, 1 for run failures.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, rights.ErrSetup) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
