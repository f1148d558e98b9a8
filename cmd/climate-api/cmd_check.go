package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Nazarious-ucu/hawaii-climate-api/internal/app"
	"github.com/Nazarious-ucu/hawaii-climate-api/internal/config"
	"github.com/Nazarious-ucu/hawaii-climate-api/internal/metrics"
	"github.com/Nazarious-ucu/hawaii-climate-api/internal/repository"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the climate database",
	Long: `Open the configured climate database read-only and print the station count,
the latest measurement date, the trailing year window and the most active station.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, l, err := loadConfig()
		if err != nil {
			return err
		}
		return runCheck(cmd.Context(), *cfg, l, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(ctx context.Context, cfg config.Config, l zerolog.Logger, out io.Writer) error {
	store, err := repository.Open(ctx, cfg.DB.Dialect, cfg.DB.Source, 1)
	if err != nil {
		return fmt.Errorf("open climate store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			l.Error().Err(err).Msg("Database close error")
		}
	}()

	svc := app.NewService(store, cfg.Breaker, l, metrics.NewMetrics(cfg.MetricsNamespace))

	stations, err := svc.Stations(ctx)
	if err != nil {
		return err
	}

	window, err := svc.TrailingWindow(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "Dialect:              %s\n", store.Dialect())
	fmt.Fprintf(out, "Stations:             %d\n", len(stations))
	fmt.Fprintf(out, "Latest measurement:   %s\n", window.To)
	fmt.Fprintf(out, "Trailing year:        %s .. %s\n", window.From, window.To)
	fmt.Fprintf(out, "Most active station:  %s (%d observations)\n",
		window.Station.StationID, window.Station.Observations)
	fmt.Fprintln(out, strings.Repeat("=", 60))
	return nil
}
