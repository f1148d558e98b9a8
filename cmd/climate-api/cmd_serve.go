package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Nazarious-ucu/hawaii-climate-api/internal/app"
	"github.com/Nazarious-ucu/hawaii-climate-api/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Start the HTTP API and serve until SIGINT or SIGTERM.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, l, err := loadConfig()
	if err != nil {
		return err
	}

	m := metrics.NewMetrics(cfg.MetricsNamespace)
	application := app.New(*cfg, l, m)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return application.Start(ctx)
}
