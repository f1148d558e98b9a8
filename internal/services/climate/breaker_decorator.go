package climate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Nazarious-ucu/hawaii-climate-api/internal/models"
	"github.com/Nazarious-ucu/hawaii-climate-api/internal/repository"
)

var ErrStoreUnavailable = errors.New("climate store unavailable")

type BreakerConfig struct {
	TimeInterval time.Duration
	TimeTimeOut  time.Duration
	RepeatNumber uint32
}

// BreakerRepository stops hitting the store after RepeatNumber consecutive failures.
// An empty measurement table is a normal answer and does not count as a failure.
type BreakerRepository struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	wrapped climateRepository
}

func NewBreakerRepository(name string, cfg BreakerConfig, wrapped climateRepository) *BreakerRepository {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.TimeInterval,
		Timeout:     cfg.TimeTimeOut,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.RepeatNumber
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, repository.ErrNoMeasurements)
		},
	}
	return &BreakerRepository{
		name:    name,
		cb:      gobreaker.NewCircuitBreaker(settings),
		wrapped: wrapped,
	}
}

func (b *BreakerRepository) State() gobreaker.State {
	return b.cb.State()
}

func execute[T any](b *BreakerRepository, fn func() (T, error)) (T, error) {
	var zero T

	result, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, b.name, err)
	}
	if err != nil {
		return zero, err
	}

	res, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s: unexpected result %T", ErrStoreUnavailable, b.name, result)
	}
	return res, nil
}

func (b *BreakerRepository) Precipitation(ctx context.Context) ([]models.Precipitation, error) {
	return execute(b, func() ([]models.Precipitation, error) {
		return b.wrapped.Precipitation(ctx)
	})
}

func (b *BreakerRepository) Stations(ctx context.Context) ([]models.Station, error) {
	return execute(b, func() ([]models.Station, error) {
		return b.wrapped.Stations(ctx)
	})
}

func (b *BreakerRepository) LatestDate(ctx context.Context) (string, error) {
	return execute(b, func() (string, error) {
		return b.wrapped.LatestDate(ctx)
	})
}

func (b *BreakerRepository) MostActiveStation(ctx context.Context) (models.StationActivity, error) {
	return execute(b, func() (models.StationActivity, error) {
		return b.wrapped.MostActiveStation(ctx)
	})
}

func (b *BreakerRepository) Observations(
	ctx context.Context,
	stationID, from, to string,
) ([]models.TemperatureObservation, error) {
	return execute(b, func() ([]models.TemperatureObservation, error) {
		return b.wrapped.Observations(ctx, stationID, from, to)
	})
}

func (b *BreakerRepository) SummaryFrom(ctx context.Context, from string) (models.TemperatureSummary, error) {
	return execute(b, func() (models.TemperatureSummary, error) {
		return b.wrapped.SummaryFrom(ctx, from)
	})
}

func (b *BreakerRepository) SummaryBetween(ctx context.Context, from, to string) (models.TemperatureSummary, error) {
	return execute(b, func() (models.TemperatureSummary, error) {
		return b.wrapped.SummaryBetween(ctx, from, to)
	})
}
