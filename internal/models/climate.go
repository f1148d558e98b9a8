package models

// Station is a weather-reporting location.
type Station struct {
	ID        string  `json:"station"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Measurement is one station's record for one date. Date is an ISO 8601 calendar date.
type Measurement struct {
	StationID string
	Date      string
	Prcp      *float64
	Tobs      *float64
}

type Precipitation struct {
	Date string   `json:"date"`
	Prcp *float64 `json:"prcp"`
}

type TemperatureObservation struct {
	Date string   `json:"date"`
	Tobs *float64 `json:"tobs"`
}

// TemperatureSummary holds min/avg/max tobs; all fields are nil when nothing matched.
type TemperatureSummary struct {
	TMin *float64 `json:"TMIN"`
	TAvg *float64 `json:"TAVG"`
	TMax *float64 `json:"TMAX"`
}

type StationActivity struct {
	StationID    string
	Observations int
}

// TrailingWindow is the year of data ending at the latest recorded date,
// narrowed to the most active station.
type TrailingWindow struct {
	Station StationActivity
	From    string
	To      string
}
