package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// newServeCmd creates and configures the 'serve' subcommand.
func newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves the ops API and generated reports over HTTP",
		Long: `Exposes health probes, Prometheus metrics, recent run summaries, the
latest analysis snapshot, and the report bundle tree. The server only
reads; collection and analysis stay in their own commands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, port)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (0 uses config)")
	return cmd
}

func runServe(cmd *cobra.Command, port int) error {
	application, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return application.ServeOps(ctx, port)
}
