package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Nazarious-ucu/hawaii-climate-api/internal/config"
	"github.com/Nazarious-ucu/hawaii-climate-api/internal/services/logger"
	pkglogger "github.com/Nazarious-ucu/hawaii-climate-api/pkg/logger"
)

const serviceName = "climate-api"

var rootCmd = &cobra.Command{
	Use:   serviceName,
	Short: "Hawaii climate API",
	Long: `climate-api serves read-only precipitation, station and temperature
endpoints over the pre-populated Hawaii climate database.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// @title Hawaii Climate API
// @version 1.0
// @description Read-only API over the Hawaii weather station measurements
// @host localhost:5000
// @BasePath /
func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := pkglogger.NewLogger(cfg.Logging.LogsPath, serviceName, cfg.Logging.Level)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, l.Hook(logger.RequestIDHook{}), nil
}
