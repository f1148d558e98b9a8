package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/hawaii-climate-api/internal/metrics"
	"github.com/Nazarious-ucu/hawaii-climate-api/internal/models"
)

//go:embed sql/ping.sql
var pingSQL string

//go:embed sql/select-precipitation.sql
var selectPrecipitationSQL string

//go:embed sql/select-stations.sql
var selectStationsSQL string

//go:embed sql/select-latest-date.sql
var selectLatestDateSQL string

//go:embed sql/select-most-active-station.sql
var selectMostActiveStationSQL string

//go:embed sql/select-observations.sql
var selectObservationsSQL string

//go:embed sql/select-summary-from.sql
var selectSummaryFromSQL string

//go:embed sql/select-summary-between.sql
var selectSummaryBetweenSQL string

// ErrNoMeasurements is returned when the measurement table is empty.
var ErrNoMeasurements = errors.New("no measurements recorded")

// ClimateRepository runs the read queries over the measurement and station tables.
type ClimateRepository struct {
	store *Store
	log   zerolog.Logger
	m     *metrics.Metrics
}

func NewClimateRepository(store *Store, logger zerolog.Logger, m *metrics.Metrics) *ClimateRepository {
	logger = logger.With().Str("component", "ClimateRepository").Logger()
	return &ClimateRepository{store: store, log: logger, m: m}
}

// Precipitation returns every (date, prcp) pair in store order.
func (r *ClimateRepository) Precipitation(ctx context.Context) ([]models.Precipitation, error) {
	const op = "precipitation"
	start := time.Now()
	r.log.Debug().Ctx(ctx).Msg("querying precipitation")

	out := make([]models.Precipitation, 0)
	err := r.store.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, selectPrecipitationSQL)
		if err != nil {
			return err
		}
		defer r.closeRows(ctx, op, rows)

		for rows.Next() {
			var rec models.Precipitation
			var prcp sql.NullFloat64
			if err := rows.Scan(&rec.Date, &prcp); err != nil {
				return err
			}
			rec.Prcp = nullFloat(prcp)
			out = append(out, rec)
		}
		return rows.Err()
	})
	if err := r.finish(ctx, op, start, err, len(out)); err != nil {
		return nil, err
	}
	return out, nil
}

// Stations returns every station row.
func (r *ClimateRepository) Stations(ctx context.Context) ([]models.Station, error) {
	const op = "stations"
	start := time.Now()
	r.log.Debug().Ctx(ctx).Msg("querying stations")

	out := make([]models.Station, 0)
	err := r.store.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, selectStationsSQL)
		if err != nil {
			return err
		}
		defer r.closeRows(ctx, op, rows)

		for rows.Next() {
			var s models.Station
			if err := rows.Scan(&s.ID, &s.Name, &s.Latitude, &s.Longitude); err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	if err := r.finish(ctx, op, start, err, len(out)); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestDate returns the greatest measurement date. ISO dates are fixed width,
// so the string maximum is the calendar maximum.
func (r *ClimateRepository) LatestDate(ctx context.Context) (string, error) {
	const op = "latest_date"
	start := time.Now()

	var latest sql.NullString
	err := r.store.withConn(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, selectLatestDateSQL).Scan(&latest)
	})
	if err := r.finish(ctx, op, start, err, 1); err != nil {
		return "", err
	}
	if !latest.Valid {
		return "", ErrNoMeasurements
	}
	return latest.String, nil
}

// MostActiveStation returns the station with the most measurement rows.
// Ties go to the lexicographically smallest station id.
func (r *ClimateRepository) MostActiveStation(ctx context.Context) (models.StationActivity, error) {
	const op = "most_active_station"
	start := time.Now()

	var activity models.StationActivity
	err := r.store.withConn(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, selectMostActiveStationSQL).
			Scan(&activity.StationID, &activity.Observations)
	})
	if errors.Is(err, sql.ErrNoRows) {
		r.m.ObserveQuery(op, time.Since(start), nil)
		r.log.Info().Ctx(ctx).Msg("no measurements, no active station")
		return models.StationActivity{}, ErrNoMeasurements
	}
	if err := r.finish(ctx, op, start, err, 1); err != nil {
		return models.StationActivity{}, err
	}
	return activity, nil
}

// Observations returns (date, tobs) for one station with from <= date <= to, ascending by date.
func (r *ClimateRepository) Observations(
	ctx context.Context,
	stationID, from, to string,
) ([]models.TemperatureObservation, error) {
	const op = "observations"
	start := time.Now()
	r.log.Debug().Ctx(ctx).
		Str("station", stationID).
		Str("from", from).
		Str("to", to).
		Msg("querying temperature observations")

	out := make([]models.TemperatureObservation, 0)
	err := r.store.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, r.store.rebind(selectObservationsSQL), stationID, from, to)
		if err != nil {
			return err
		}
		defer r.closeRows(ctx, op, rows)

		for rows.Next() {
			var rec models.TemperatureObservation
			var tobs sql.NullFloat64
			if err := rows.Scan(&rec.Date, &tobs); err != nil {
				return err
			}
			rec.Tobs = nullFloat(tobs)
			out = append(out, rec)
		}
		return rows.Err()
	})
	if err := r.finish(ctx, op, start, err, len(out)); err != nil {
		return nil, err
	}
	return out, nil
}

// SummaryFrom aggregates tobs over date >= from.
func (r *ClimateRepository) SummaryFrom(ctx context.Context, from string) (models.TemperatureSummary, error) {
	return r.summary(ctx, "summary_from", selectSummaryFromSQL, from)
}

// SummaryBetween aggregates tobs over from <= date <= to.
func (r *ClimateRepository) SummaryBetween(ctx context.Context, from, to string) (models.TemperatureSummary, error) {
	return r.summary(ctx, "summary_between", selectSummaryBetweenSQL, from, to)
}

func (r *ClimateRepository) summary(
	ctx context.Context,
	op, query string,
	args ...any,
) (models.TemperatureSummary, error) {
	start := time.Now()
	r.log.Debug().Ctx(ctx).Interface("args", args).Msg("querying temperature summary")

	var tmin, tavg, tmax sql.NullFloat64
	err := r.store.withConn(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, r.store.rebind(query), args...).Scan(&tmin, &tavg, &tmax)
	})
	if err := r.finish(ctx, op, start, err, 1); err != nil {
		return models.TemperatureSummary{}, err
	}

	return models.TemperatureSummary{
		TMin: nullFloat(tmin),
		TAvg: nullFloat(tavg),
		TMax: nullFloat(tmax),
	}, nil
}

func (r *ClimateRepository) finish(ctx context.Context, op string, start time.Time, err error, count int) error {
	dur := time.Since(start)
	r.m.ObserveQuery(op, dur, err)
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).
			Str("operation", op).
			Dur("duration", dur).
			Msg("climate query failed")
		return err
	}

	r.log.Info().Ctx(ctx).
		Str("operation", op).
		Int("count", count).
		Dur("duration", dur).
		Msg("climate query completed")
	return nil
}

func (r *ClimateRepository) closeRows(ctx context.Context, op string, rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		r.log.Error().Err(err).Ctx(ctx).
			Str("operation", op).
			Msg("failed to close rows after query")
	}
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
