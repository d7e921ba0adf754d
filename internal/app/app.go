package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"pronafmonitor/internal/config"
	"pronafmonitor/internal/dataprocessing"
	apierrors "pronafmonitor/internal/errors"
	"pronafmonitor/internal/exporter"
	"pronafmonitor/internal/geo"
	"pronafmonitor/internal/infrastructure"
	customMiddleware "pronafmonitor/internal/middleware"
	"pronafmonitor/internal/services"
	handlers "pronafmonitor/internal/transport/http"
	ws "pronafmonitor/internal/websocket"
	"pronafmonitor/pkg/contracts/events"
)

var (
	// RepoURL is reported by /api/version when set at link time
	RepoURL = ""
	// Version is overridden at link time with -ldflags "-X pronafmonitor/internal/app.Version=..."
	Version = config.AppVersion
	// BuildTime is set at compile time
	BuildTime = time.Now().Format(time.RFC3339)
	// BuildID is a unique identifier for this build
	BuildID = generateBuildID()
)

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(Version))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics

	Store      *dataprocessing.Store
	Boundaries *geo.Fetcher
	Exporter   *exporter.Exporter
	Dashboard  *services.DashboardService
	Health     *services.HealthService

	WebSocketHub *ws.Hub
	Dispatcher   *ws.DashboardDispatcher
}

// NewApplication loads configuration from the environment and config file
// and builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires every component for cfg. Nothing is started; see Start.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", Version))

	paths, err := config.GetPaths(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if cfg.Logging.Output != "console" {
		if err := paths.EnsureDirectories(); err != nil {
			return nil, fmt.Errorf("failed to ensure directories: %w", err)
		}
	}
	paths.LogPathResolution(logger)

	if !config.FileExists(paths.DataFile) {
		logger.Warn("Dataset not found, the dashboard will report it until the file appears",
			slog.String("path", paths.DataFile))
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if otelProviders.Meter != nil {
		metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create business metrics: %w", err)
		}
		app.Metrics = metrics
	}

	app.initializeServices()

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices builds the data, boundary and export layers and the
// services on top of them.
func (a *Application) initializeServices() {
	opts := dataprocessing.DefaultLoadOptions()
	opts.Delimiter = []rune(a.Config.Data.Delimiter)[0]
	opts.Sheet = a.Config.Data.Sheet

	a.Store = dataprocessing.NewStore(dataprocessing.NewLoader(opts, a.Logger), a.Logger)
	a.Store.OnLoad(func(ctx context.Context, source string, rows int, took time.Duration) {
		infrastructure.RecordDatasetLoad(ctx, a.Metrics, source, rows)
	})

	a.Boundaries = geo.NewFetcher(a.Config.Geo, a.Logger, a.Metrics)
	a.Exporter = exporter.NewExporter(a.Config.Export, a.Logger, a.Metrics)

	a.Dashboard = services.NewDashboardService(a.Config, a.Paths.DataFile, a.Store, a.Boundaries,
		a.Exporter, a.Logger, a.Metrics)

	a.WebSocketHub = ws.NewHub(a.Logger, a.Metrics)
	a.Dispatcher = ws.NewDashboardDispatcher(a.Dashboard, a.Logger)

	a.Health = services.NewHealthService(Version, RepoURL, BuildTime, BuildID,
		a.Dashboard, a.WebSocketHub, a.Logger)
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	// These don't wrap the ResponseWriter, so the WebSocket upgrade is safe
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StripSlashes)

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	wsHandler := handlers.NewWebSocketHandler(a.WebSocketHub, a.Dispatcher, a.Config.WebSocket,
		a.Config.Security.AllowedOrigins, a.Config.Logging.Development, a.Logger)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger), errorHandler.Recover).Handle("/ws", wsHandler)

	page, err := handlers.NewPageHandler(a.Dashboard, a.Logger)
	if err != nil {
		return err
	}

	r.Group(func(r chi.Router) {
		// Order: OTel → Logger → Recoverer → headers → CORS → rate limit → compression
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))

		secure := customMiddleware.DefaultSecureHeaders()
		secure.DevMode = a.Config.Logging.Development
		r.Use(secure.Handler)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Use(customMiddleware.Compress(5))

		a.setupAPIRoutes(r, errorHandler)
		r.Get("/", page.ServeHTTP)
	})

	// Prometheus scrape endpoint stays outside the group
	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP))

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		handlers.NewDashboardHandler(a.Dashboard, a.Logger, errorHandler).RegisterRoutes(r)

		validation := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler)
		r.With(
			customMiddleware.ContentTypeValidator("application/json"),
			validation.ValidateRequest,
		).Post("/logs", handlers.NewClientLogHandler(a.Logger, errorHandler).Handle)
	})
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}

	if a.Config.Logging.Development {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins,
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:8080",
		)
	}

	a.Logger.Debug("CORS configured",
		slog.Bool("development", a.Config.Logging.Development),
		slog.Any("allowed_origins", cfg.AllowedOrigins))

	return cfg
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Warm loads the dataset and, in the background, the boundary document.
// A missing dataset is logged and is not fatal: the page explains it.
// Open sessions get a system:status message after each step.
func (a *Application) Warm(ctx context.Context) {
	if err := a.Dashboard.Warm(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Dataset not loaded at startup",
			slog.String("path", a.Dashboard.DataPath()),
			slog.String("error", err.Error()))
	}
	a.broadcastStatus(ctx)

	go func() {
		if _, err := a.Boundaries.Get(context.WithoutCancel(ctx)); err != nil {
			a.Logger.WarnContext(ctx, "Boundaries not loaded at startup, the map falls back until they are",
				slog.String("url", a.Boundaries.URL()),
				slog.String("error", err.Error()))
		}
		a.broadcastStatus(ctx)
	}()
}

// broadcastStatus tells every open session whether the dataset and the
// boundary document are loaded.
func (a *Application) broadcastStatus(ctx context.Context) {
	dataset, boundaries := a.Dashboard.Ready()
	status := events.SystemStatus{
		Dataset:    readiness(dataset),
		Boundaries: readiness(boundaries),
		Sessions:   a.WebSocketHub.ClientCount(),
	}
	msg := events.NewMessage(uuid.New().String(), events.MessageTypeSystemStatus, status)
	if err := a.WebSocketHub.Broadcast(msg); err != nil {
		a.Logger.DebugContext(ctx, "status broadcast skipped", slog.String("error", err.Error()))
	}
}

func readiness(ok bool) string {
	if ok {
		return "ready"
	}
	return "not_ready"
}

// Start starts the application. A listen failure calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	a.WebSocketHub.Start()
	a.Warm(ctx)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	// Sessions are hijacked connections; Shutdown does not close them
	a.WebSocketHub.Stop()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}
