package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog/log"

	"github.com/mubashirhassanpk/react-static-magic/internal/config"
	"github.com/mubashirhassanpk/react-static-magic/internal/database"
	"github.com/mubashirhassanpk/react-static-magic/internal/jobs"
	"github.com/mubashirhassanpk/react-static-magic/internal/middleware"
	"github.com/mubashirhassanpk/react-static-magic/internal/observability"
	"github.com/mubashirhassanpk/react-static-magic/internal/ratelimit"
	"github.com/mubashirhassanpk/react-static-magic/internal/scaling"
	"github.com/mubashirhassanpk/react-static-magic/internal/storage"
)

// Server represents the HTTP server
type Server struct {
	app            *fiber.App
	config         *config.Config
	db             *database.Connection
	storage        *storage.Service
	metrics        *observability.Metrics
	tracer         *observability.Tracer
	buildHandler   *BuildHandler
	storageHandler *StorageHandler
	systemHandler  *SystemHandler
	retention      *jobs.Retention
	elector        *scaling.LeaderElector
	rateLimits     ratelimit.Store
	startTime      time.Time
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, db *database.Connection) (*Server, error) {
	app := fiber.New(fiber.Config{
		ServerHeader:          "StaticMagic",
		AppName:               "StaticMagic v1.0.0",
		BodyLimit:             cfg.Server.BodyLimit,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		DisableStartupMessage: !cfg.Debug,
		ErrorHandler:          customErrorHandler,
		Prefork:               false,
	})

	// Prometheus metrics, fed by the HTTP middleware, the database
	// connection and the build processor
	metrics := observability.NewMetrics()
	db.SetMetrics(metrics)

	// OpenTelemetry tracer; a failed exporter setup downgrades to noop
	tracerCfg := observability.TracerConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
		Insecure:    cfg.Tracing.Insecure,
	}
	tracer, err := observability.NewTracer(context.Background(), tracerCfg)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize OpenTelemetry tracer, tracing will be disabled")
	}

	// Blob storage for uploaded projects and build outputs
	storageService, err := storage.NewService(&cfg.Storage)
	if err != nil {
		return nil, err
	}
	if err := storageService.EnsureBuckets(context.Background()); err != nil {
		log.Warn().Err(err).Msg("Failed to ensure storage buckets")
	}

	// Build job record store and processor
	jobStore := jobs.NewStorage(db)
	processor := jobs.NewProcessor(jobStore, storageService.Provider, cfg)
	processor.SetMetrics(metrics)

	// Retention sweeper for expired jobs and their artifacts. Sweeps
	// run on every instance's schedule but only the elected leader
	// actually deletes, so multi-node deployments clean up exactly once
	var retention *jobs.Retention
	var elector *scaling.LeaderElector
	if cfg.Retention.Enabled {
		retention = jobs.NewRetention(jobStore, storageService.Provider, cfg)
		if err := retention.Start(); err != nil {
			log.Error().Err(err).Msg("Failed to start retention sweeper")
			retention = nil
		} else {
			elector = scaling.NewLeaderElector(db.Pool(), scaling.RetentionSweeperLockID, "retention-sweeper")
			elector.Start(nil, nil)
			retention.SetLeaderCheck(elector.IsLeader)
		}
	}

	// Shared counters for the build endpoint limits. The postgres
	// backend makes the limits global across instances
	var rateLimits ratelimit.Store
	if cfg.RateLimit.Enabled {
		rateLimits, err = ratelimit.NewStore(cfg.RateLimit.Backend, db.Pool())
		if err != nil {
			return nil, err
		}
	}

	buildHandler := NewBuildHandler(jobStore, processor, storageService.Provider,
		storageService.UploadBucket(), storageService.MaxUploadSize())
	buildHandler.SetMetrics(metrics)

	storageHandler := NewStorageHandler(storageService.Provider,
		[]string{storageService.UploadBucket(), storageService.OutputBucket()})
	storageHandler.SetMetrics(metrics)

	server := &Server{
		app:            app,
		config:         cfg,
		db:             db,
		storage:        storageService,
		metrics:        metrics,
		tracer:         tracer,
		buildHandler:   buildHandler,
		storageHandler: storageHandler,
		systemHandler:  NewSystemHandler(db, storageService, cfg),
		retention:      retention,
		elector:        elector,
		rateLimits:     rateLimits,
		startTime:      time.Now(),
	}

	log.Debug().Msg("Setting up middlewares")
	server.setupMiddlewares()

	log.Debug().Msg("Setting up routes")
	server.setupRoutes()

	log.Debug().Msg("Server initialization complete")
	return server, nil
}

// setupMiddlewares sets up global middlewares
func (s *Server) setupMiddlewares() {
	// Request ID middleware - must be first so every log line can carry it
	s.app.Use(requestid.New())

	// Distributed tracing spans for API requests
	if s.config.Tracing.Enabled && s.tracer != nil && s.tracer.IsEnabled() {
		s.app.Use(middleware.TracingMiddleware(middleware.TracingConfig{
			Enabled:            true,
			ServiceName:        s.config.Tracing.ServiceName,
			SkipPaths:          []string{"/health", "/ready", "/metrics"},
			RecordRequestBody:  false,
			RecordResponseBody: false,
		}))
	}

	// Recover middleware - catch panics
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: s.config.Debug,
	}))

	// CORS middleware - upload clients live on other origins
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-Request-ID",
	}))

	// Structured request logging
	s.app.Use(middleware.StructuredLogger())

	// Per-route body size limits; the upload route gets the large limit
	s.app.Use(middleware.BodyLimitMiddleware(
		middleware.BodyLimitsFromConfig(s.config.Storage.MaxUploadSize),
	))

	// HTTP metrics
	s.app.Use(s.metrics.MetricsMiddleware())

	// Compression middleware
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelDefault,
	}))
}

// setupRoutes sets up all routes
func (s *Server) setupRoutes() {
	// Health check and Prometheus metrics
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/metrics", s.metrics.Handler())

	// Stored objects (download/preview URL backing)
	s.app.Get("/storage/:bucket/*", s.storageHandler.DownloadObject)

	// API v1 routes - versioned for future compatibility
	v1 := s.app.Group("/api/v1")

	// Build jobs. The write endpoints carry per-IP rate limits when enabled
	builds := v1.Group("/builds")
	if s.rateLimits != nil {
		builds.Post("/", middleware.UploadLimiter(s.rateLimits, s.config.RateLimit.UploadPerMinute), s.buildHandler.UploadProject)
		builds.Post("/process", middleware.ProcessLimiter(s.rateLimits, s.config.RateLimit.ProcessPerMinute), s.buildHandler.ProcessBuild)
	} else {
		builds.Post("/", s.buildHandler.UploadProject)
		builds.Post("/process", s.buildHandler.ProcessBuild)
	}

	// Stats must come before /:id
	builds.Get("/stats", s.buildHandler.GetBuildStats)
	builds.Get("/:id", s.buildHandler.GetBuild)
	builds.Get("/", s.buildHandler.ListBuilds)

	// Admin
	admin := v1.Group("/admin")
	admin.Get("/system", s.systemHandler.GetSystemInfo)

	// 404 handler
	s.app.Use(notFoundHandler)
}

func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(404).JSON(fiber.Map{
		"error": "Not Found",
		"path":  c.Path(),
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbHealthy := true
	if err := s.db.Health(ctx); err != nil {
		dbHealthy = false
		log.Error().Err(err).Msg("Database health check failed")
	}

	storageHealthy := true
	if err := s.storage.Provider.Health(ctx); err != nil {
		storageHealthy = false
		log.Error().Err(err).Msg("Storage health check failed")
	}

	status := "ok"
	httpStatus := fiber.StatusOK
	if !dbHealthy || !storageHealthy {
		status = "degraded"
		httpStatus = fiber.StatusServiceUnavailable
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"services": fiber.Map{
			"database": dbHealthy,
			"storage":  storageHealthy,
		},
		"timestamp": time.Now().UTC(),
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.app.Listen(s.config.Server.Address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.retention != nil {
		s.retention.Stop()
	}

	if s.elector != nil {
		s.elector.Stop()
	}

	if s.rateLimits != nil {
		if err := s.rateLimits.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close rate limit store")
		}
	}

	if s.tracer != nil {
		if err := s.tracer.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to shut down tracer")
		}
	}

	log.Info().Msg("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// App returns the underlying Fiber app instance for testing
func (s *Server) App() *fiber.App {
	return s.app
}

// Storage returns the storage service
func (s *Server) Storage() *storage.Service {
	return s.storage
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	// Default to 500 status code
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Log error
	if code >= 500 {
		log.Error().Err(err).Str("path", c.Path()).Msg("Server error")
	}

	// Return JSON error response
	return c.Status(code).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}
