package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/umbrellacorp/usiop/internal/gateway"
)

var (
	serveConfig string
	servePort   int
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "Path to gateway config YAML")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gateway",
	Long: "Runs the clearance-gated query pipeline as an HTTP service.\n" +
		"Sessions are created per employee; each query passes through the\n" +
		"policy engine and is audited before any retrieval happens.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := gateway.LoadConfig(serveConfig)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	srv, err := gateway.New(cfg, logger)
	if err != nil {
		// A broken clearance table must abort process start.
		return fmt.Errorf("gateway startup: %w", err)
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}
