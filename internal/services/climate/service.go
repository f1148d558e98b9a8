package climate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/hawaii-climate-api/internal/dates"
	"github.com/Nazarious-ucu/hawaii-climate-api/internal/models"
	"github.com/Nazarious-ucu/hawaii-climate-api/internal/repository"
)

type climateRepository interface {
	Precipitation(ctx context.Context) ([]models.Precipitation, error)
	Stations(ctx context.Context) ([]models.Station, error)
	LatestDate(ctx context.Context) (string, error)
	MostActiveStation(ctx context.Context) (models.StationActivity, error)
	Observations(ctx context.Context, stationID, from, to string) ([]models.TemperatureObservation, error)
	SummaryFrom(ctx context.Context, from string) (models.TemperatureSummary, error)
	SummaryBetween(ctx context.Context, from, to string) (models.TemperatureSummary, error)
}

type Service struct {
	repo climateRepository
	log  zerolog.Logger
}

func NewService(repo climateRepository, logger zerolog.Logger) *Service {
	logger = logger.With().Str("component", "ClimateService").Logger()
	return &Service{repo: repo, log: logger}
}

func (s *Service) Precipitation(ctx context.Context) ([]models.Precipitation, error) {
	return s.repo.Precipitation(ctx)
}

func (s *Service) Stations(ctx context.Context) ([]models.Station, error) {
	return s.repo.Stations(ctx)
}

// TrailingWindow finds the latest recorded date, the year leading up to it and
// the station with the most measurements.
func (s *Service) TrailingWindow(ctx context.Context) (models.TrailingWindow, error) {
	latest, err := s.repo.LatestDate(ctx)
	if err != nil {
		return models.TrailingWindow{}, err
	}

	end, err := dates.Parse(latest)
	if err != nil {
		return models.TrailingWindow{}, fmt.Errorf("latest measurement date: %w", err)
	}

	station, err := s.repo.MostActiveStation(ctx)
	if err != nil {
		return models.TrailingWindow{}, err
	}

	window := models.TrailingWindow{
		Station: station,
		From:    dates.Format(dates.OneYearBefore(end)),
		To:      dates.Format(end),
	}
	s.log.Debug().Ctx(ctx).
		Str("station", station.StationID).
		Int("observations", station.Observations).
		Str("from", window.From).
		Str("to", window.To).
		Msg("trailing window resolved")
	return window, nil
}

// TrailingYearObservations returns the most active station's tobs over the
// trailing year. An empty measurement table yields an empty list.
func (s *Service) TrailingYearObservations(ctx context.Context) ([]models.TemperatureObservation, error) {
	window, err := s.TrailingWindow(ctx)
	if errors.Is(err, repository.ErrNoMeasurements) {
		s.log.Info().Ctx(ctx).Msg("no measurements recorded, empty trailing year")
		return []models.TemperatureObservation{}, nil
	}
	if err != nil {
		return nil, err
	}

	return s.repo.Observations(ctx, window.Station.StationID, window.From, window.To)
}

func (s *Service) SummaryFrom(ctx context.Context, start time.Time) (models.TemperatureSummary, error) {
	return s.repo.SummaryFrom(ctx, dates.Format(start))
}

func (s *Service) SummaryBetween(ctx context.Context, start, end time.Time) (models.TemperatureSummary, error) {
	return s.repo.SummaryBetween(ctx, dates.Format(start), dates.Format(end))
}
