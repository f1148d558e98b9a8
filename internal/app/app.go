package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	swaggerfiles "github.com/swaggo/files"
	swagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/Nazarious-ucu/hawaii-climate-api/docs"
	"github.com/Nazarious-ucu/hawaii-climate-api/internal/config"
	climatehandler "github.com/Nazarious-ucu/hawaii-climate-api/internal/handlers/climate"
	"github.com/Nazarious-ucu/hawaii-climate-api/internal/handlers/health"
	"github.com/Nazarious-ucu/hawaii-climate-api/internal/metrics"
	"github.com/Nazarious-ucu/hawaii-climate-api/internal/repository"
	"github.com/Nazarious-ucu/hawaii-climate-api/internal/services/climate"
	"github.com/Nazarious-ucu/hawaii-climate-api/internal/services/logger"
)

const (
	timeoutDuration = 5 * time.Second
)

type ServiceContainer struct {
	Store   *repository.Store
	Service *climate.Service

	Handler    http.Handler
	Srv        *http.Server
	fileLogger *zap.Logger
}

type App struct {
	cfg config.Config
	l   zerolog.Logger
	m   *metrics.Metrics
}

func New(cfg config.Config, logger zerolog.Logger, m *metrics.Metrics) *App {
	logger = logger.With().Str("component", "App").Logger()
	return &App{cfg: cfg, l: logger, m: m}
}

// NewService builds the query layer over the store with the breaker in between.
func NewService(store *repository.Store, cfg config.Breaker, l zerolog.Logger, m *metrics.Metrics) *climate.Service {
	repo := repository.NewClimateRepository(store, l, m)
	breaker := climate.NewBreakerRepository("climate-store", climate.BreakerConfig{
		TimeInterval: cfg.Interval(),
		TimeTimeOut:  cfg.Timeout(),
		RepeatNumber: cfg.RepeatNumber,
	}, repo)
	return climate.NewService(breaker, l)
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(
	climateHandler *climatehandler.Handler,
	healthHandler *health.Handler,
	m *metrics.Metrics,
	accessLog *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(
		gin.Recovery(),
		logger.RequestIDMiddleware(),
		logger.AccessLog(accessLog),
		m.HTTPMiddleware(),
	)

	router.GET("/", climateHandler.Index)

	api := router.Group(climatehandler.APIPrefix)
	{
		api.GET("/precipitation", climateHandler.GetPrecipitation)
		api.GET("/stations", climateHandler.GetStations)
		api.GET("/tobs", climateHandler.GetTobs)
		api.GET("/:start", climateHandler.GetSummaryFrom)
		api.GET("/:start/:end", climateHandler.GetSummaryBetween)
	}

	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/metrics", gin.WrapH(m.Handler()))
	router.GET("/swagger/*any", swagger.WrapHandler(swaggerfiles.Handler))

	router.NoRoute(climatehandler.NotFound)
	router.NoMethod(climatehandler.MethodNotAllowed)

	return router
}

// NewHandler wires the service, the handlers and the router behind CORS.
func NewHandler(
	store *repository.Store,
	cfg config.Config,
	l zerolog.Logger,
	m *metrics.Metrics,
	accessLog *zap.Logger,
) (http.Handler, *climate.Service) {
	svc := NewService(store, cfg.Breaker, l, m)
	router := NewRouter(
		climatehandler.NewHandler(svc, l, m),
		health.NewHandler(store, l),
		m,
		accessLog,
	)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{logger.HeaderRequestID},
		ExposedHeaders: []string{logger.HeaderRequestID},
	})
	return c.Handler(router), svc
}

func (a *App) Init(ctx context.Context) (ServiceContainer, error) {
	a.l.Info().
		Str("http_addr", a.cfg.ServerAddress()).
		Str("dialect", a.cfg.DB.Dialect).
		Strs("cors_origins", a.cfg.Server.CORSOrigins).
		Msg("Initializing application")

	openCtx, cancel := context.WithTimeout(ctx, timeoutDuration)
	defer cancel()
	store, err := repository.Open(openCtx, a.cfg.DB.Dialect, a.cfg.DB.Source, a.cfg.DB.MaxOpenConns)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("open climate store: %w", err)
	}
	a.l.Info().Str("dialect", store.Dialect()).Msg("Climate store opened")

	if err := a.m.Registry().Register(collectors.NewDBStatsCollector(store.DB(), "climate")); err != nil {
		a.l.Warn().Err(err).Msg("DB stats collector not registered")
	}

	fileLogger, err := logger.NewFileLogger(a.cfg.Logging.AccessLogPath)
	if err != nil {
		_ = store.Close()
		return ServiceContainer{}, fmt.Errorf("create access logger: %w", err)
	}

	handler, svc := NewHandler(store, a.cfg, a.l, a.m, fileLogger)

	httpSrv := &http.Server{
		Addr:              a.cfg.ServerAddress(),
		Handler:           handler,
		ReadTimeout:       a.cfg.ReadTimeout(),
		ReadHeaderTimeout: a.cfg.ReadTimeout(),
	}
	a.l.Info().Str("http_addr", a.cfg.ServerAddress()).Msg("HTTP server configured")

	return ServiceContainer{
		Store:      store,
		Service:    svc,
		Handler:    handler,
		Srv:        httpSrv,
		fileLogger: fileLogger,
	}, nil
}

// Start serves until ctx is cancelled or the listener fails, then shuts down.
func (a *App) Start(ctx context.Context) error {
	srvContainer, err := a.Init(ctx)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		a.l.Info().Str("http_addr", a.cfg.ServerAddress()).Msg("HTTP server listening")
		if err := srvContainer.Srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.l.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			a.l.Error().Err(err).Msg("HTTP server error")
			return errors.Join(err, a.Stop(srvContainer))
		}
	}

	return a.Stop(srvContainer)
}

func (a *App) Stop(srvContainer ServiceContainer) error {
	a.l.Info().Msg("Stopping application")

	var errs []error

	ctx, cancel := context.WithTimeout(context.Background(), timeoutDuration)
	defer cancel()
	if err := srvContainer.Srv.Shutdown(ctx); err != nil {
		a.l.Error().Err(err).Msg("HTTP shutdown error")
		errs = append(errs, err)
	} else {
		a.l.Info().Msg("HTTP server stopped")
	}

	if srvContainer.fileLogger != nil {
		if err := srvContainer.fileLogger.Sync(); err != nil {
			a.l.Warn().Err(err).Msg("failed to sync access logger")
		}
	}

	if err := srvContainer.Store.Close(); err != nil {
		a.l.Error().Err(err).Msg("Database close error")
		errs = append(errs, err)
	} else {
		a.l.Info().Msg("Database closed")
	}

	a.l.Info().Msg("Application shutdown complete")
	return errors.Join(errs...)
}
