package climate

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/hawaii-climate-api/internal/dates"
	"github.com/Nazarious-ucu/hawaii-climate-api/internal/metrics"
	"github.com/Nazarious-ucu/hawaii-climate-api/internal/models"
)

const APIPrefix = "/api/v1.0"

//go:embed templates/index.html
var templatesFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

type indexPage struct {
	Title  string
	Prefix string
	Routes []string
	Start  string
	Range  string
}

type climateService interface {
	Precipitation(ctx context.Context) ([]models.Precipitation, error)
	Stations(ctx context.Context) ([]models.Station, error)
	TrailingYearObservations(ctx context.Context) ([]models.TemperatureObservation, error)
	SummaryFrom(ctx context.Context, start time.Time) (models.TemperatureSummary, error)
	SummaryBetween(ctx context.Context, start, end time.Time) (models.TemperatureSummary, error)
}

type Handler struct {
	Service climateService
	log     zerolog.Logger
	m       *metrics.Metrics
}

func NewHandler(svc climateService, logger zerolog.Logger, m *metrics.Metrics) *Handler {
	logger = logger.With().Str("component", "ClimateHandler").Logger()
	return &Handler{Service: svc, log: logger, m: m}
}

// Index
// @Summary List available routes
// @Description Human readable page describing the API routes.
// @Tags climate
// @Produce html
// @Success 200
// @Router / [get]
func (h *Handler) Index(c *gin.Context) {
	c.Render(http.StatusOK, render.HTML{
		Template: indexTemplate,
		Name:     "index.html",
		Data: indexPage{
			Title:  "Hawaii Climate API",
			Prefix: APIPrefix,
			Routes: []string{
				APIPrefix + "/precipitation",
				APIPrefix + "/stations",
				APIPrefix + "/tobs",
			},
			Start: "<start>",
			Range: "<start>/<end>",
		},
	})
}

// GetPrecipitation
// @Summary Precipitation by date
// @Description All (date, prcp) pairs across all stations.
// @Tags climate
// @Produce json
// @Success 200 {array} models.Precipitation
// @Failure 500
// @Router /api/v1.0/precipitation [get]
func (h *Handler) GetPrecipitation(c *gin.Context) {
	data, err := h.Service.Precipitation(c.Request.Context())
	if err != nil {
		h.storeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// GetStations
// @Summary Weather stations
// @Tags climate
// @Produce json
// @Success 200 {array} models.Station
// @Failure 500
// @Router /api/v1.0/stations [get]
func (h *Handler) GetStations(c *gin.Context) {
	data, err := h.Service.Stations(c.Request.Context())
	if err != nil {
		h.storeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// GetTobs
// @Summary Trailing year of temperature observations
// @Description Observations of the most active station over the year ending at the latest recorded date.
// @Tags climate
// @Produce json
// @Success 200 {array} models.TemperatureObservation
// @Failure 500
// @Router /api/v1.0/tobs [get]
func (h *Handler) GetTobs(c *gin.Context) {
	data, err := h.Service.TrailingYearObservations(c.Request.Context())
	if err != nil {
		h.storeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// GetSummaryFrom
// @Summary Temperature summary from a date
// @Description TMIN, TAVG and TMAX over every measurement on or after start.
// @Tags climate
// @Produce json
// @Param start path string true "Start date, YYYY-MM-DD"
// @Success 200 {array} models.TemperatureSummary
// @Failure 404 {object} map[string]string
// @Failure 500
// @Router /api/v1.0/{start} [get]
func (h *Handler) GetSummaryFrom(c *gin.Context) {
	start, ok := h.dateParam(c, "start")
	if !ok {
		return
	}

	summary, err := h.Service.SummaryFrom(c.Request.Context(), start)
	if err != nil {
		h.storeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, []models.TemperatureSummary{summary})
}

// GetSummaryBetween
// @Summary Temperature summary for a date range
// @Description TMIN, TAVG and TMAX over measurements with start <= date <= end.
// @Tags climate
// @Produce json
// @Param start path string true "Start date, YYYY-MM-DD"
// @Param end path string true "End date, YYYY-MM-DD"
// @Success 200 {array} models.TemperatureSummary
// @Failure 404 {object} map[string]string
// @Failure 500
// @Router /api/v1.0/{start}/{end} [get]
func (h *Handler) GetSummaryBetween(c *gin.Context) {
	start, ok := h.dateParam(c, "start")
	if !ok {
		return
	}
	end, ok := h.dateParam(c, "end")
	if !ok {
		return
	}

	summary, err := h.Service.SummaryBetween(c.Request.Context(), start, end)
	if err != nil {
		h.storeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, []models.TemperatureSummary{summary})
}

func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

func MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
}

// dateParam writes the 404 response itself when the value does not parse.
func (h *Handler) dateParam(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Param(name)
	t, err := dates.Parse(raw)
	if err != nil {
		h.m.RecordInvalidDate(name)
		h.log.Debug().Ctx(c.Request.Context()).
			Str("parameter", name).
			Str("value", raw).
			Msg("rejected date parameter")
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("%s is not a valid date.", raw)})
		return time.Time{}, false
	}
	return t, true
}

func (h *Handler) storeFailure(c *gin.Context, err error) {
	event := h.log.Error()
	if errors.Is(err, context.Canceled) {
		event = h.log.Warn()
	}
	event.Err(err).Ctx(c.Request.Context()).
		Str("route", c.FullPath()).
		Msg("climate query failed")

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
