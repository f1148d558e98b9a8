// Package repotest builds seeded climate databases for tests.
package repotest

import (
	"database/sql"
	"embed"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/hawaii-climate-api/internal/models"
	"github.com/Nazarious-ucu/hawaii-climate-api/internal/repository"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	WaikikiID = "USC00519397"
	WaiheeID  = "USC00519281"
	KaneoheID = "USC00513117"
)

// NewDB opens a migrated, empty in-memory database. A single connection keeps
// every query on the same in-memory schema.
func NewDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})

	migrate(t, db)
	return db
}

// NewFile writes a seeded database file under t.TempDir and returns its path.
func NewFile(t testing.TB, stations []models.Station, measurements []models.Measurement) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "hawaii.sqlite")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, db.Close())
	}()

	migrate(t, db)
	Seed(t, db, stations, measurements)
	return path
}

func migrate(t testing.TB, db *sql.DB) {
	t.Helper()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.Up(db, "migrations"))
}

// NewStore returns a store over a database seeded with the given rows.
func NewStore(t testing.TB, stations []models.Station, measurements []models.Measurement) *repository.Store {
	t.Helper()

	db := NewDB(t)
	Seed(t, db, stations, measurements)
	return repository.NewStore(db, repository.DialectSQLite)
}

func Seed(t testing.TB, db *sql.DB, stations []models.Station, measurements []models.Measurement) {
	t.Helper()

	for _, s := range stations {
		_, err := db.Exec(
			`INSERT INTO station (station, name, latitude, longitude) VALUES (?, ?, ?, ?)`,
			s.ID, s.Name, s.Latitude, s.Longitude,
		)
		require.NoError(t, err)
	}
	for _, m := range measurements {
		_, err := db.Exec(
			`INSERT INTO measurement (station, date, prcp, tobs) VALUES (?, ?, ?, ?)`,
			m.StationID, m.Date, m.Prcp, m.Tobs,
		)
		require.NoError(t, err)
	}
}

func Float(v float64) *float64 {
	return &v
}

// HawaiiStations is a slice of the station table of the Hawaii dataset.
func HawaiiStations() []models.Station {
	return []models.Station{
		{ID: WaikikiID, Name: "WAIKIKI 717.2, HI US", Latitude: 21.2716, Longitude: -157.8168},
		{ID: WaiheeID, Name: "WAIHEE 837.5, HI US", Latitude: 21.45167, Longitude: -157.84889},
		{ID: KaneoheID, Name: "KANEOHE 838.1, HI US", Latitude: 21.4234, Longitude: -157.8015},
	}
}

// HawaiiMeasurements has its latest date (2017-08-23) at Waikiki while Waihee is
// the most active station, with one Waihee row just outside the trailing year.
func HawaiiMeasurements() []models.Measurement {
	return []models.Measurement{
		{StationID: WaiheeID, Date: "2016-08-22", Prcp: Float(0.4), Tobs: Float(74)},
		{StationID: WaiheeID, Date: "2016-08-23", Prcp: Float(1.79), Tobs: Float(77)},
		{StationID: WaiheeID, Date: "2017-01-15", Prcp: nil, Tobs: Float(62)},
		{StationID: WaiheeID, Date: "2017-08-18", Prcp: Float(0.06), Tobs: Float(79)},
		{StationID: WaikikiID, Date: "2016-08-23", Prcp: Float(0), Tobs: Float(81)},
		{StationID: WaikikiID, Date: "2017-08-23", Prcp: Float(0), Tobs: Float(81)},
		{StationID: KaneoheID, Date: "2017-05-01", Prcp: Float(0.2), Tobs: Float(70)},
	}
}
