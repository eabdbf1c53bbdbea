package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"printconnect/docs"
	"printconnect/internal/changefeed"
	"printconnect/internal/config"
	"printconnect/internal/database"
	"printconnect/internal/database/migration"
	handlers "printconnect/internal/http/handler"
	"printconnect/internal/http/middleware"
	"printconnect/internal/logger"
	"printconnect/internal/metrics"
	"printconnect/internal/otel"
	"printconnect/internal/repository/postgres"
	"printconnect/internal/service"
	"printconnect/internal/storage"
)

// @title PrintConnect API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := cfg.Location()

	logger.Init(cfg.Log.Level, cfg.Log.Format, loc)
	log := logger.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, cfg.Tracing, logger.Get())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracing")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	// PostgreSQL connection (pooled via database/sql, traced via otelsql)
	db, err := database.NewPostgres(ctx, cfg.Database, logger.Component("database"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, logger.Get(), cfg.Database.Host); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	// S3-compatible object storage for uploaded print files
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object storage")
	}

	feed, err := newFeed(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize change feed")
	}
	defer feed.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	jobMetrics, err := metrics.NewJobMetrics(reg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register job metrics")
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register http metrics")
	}

	// Repositories and services
	authSvc := service.NewAuthService(
		postgres.NewIdentityPostgres(db),
		postgres.NewSessionPostgres(db),
		service.AuthSettings{
			OperatorEmails: cfg.OperatorEmails,
			SessionTTL:     cfg.Session.TTL,
			BcryptCost:     cfg.Session.BcryptCost,
			Logger:         logger.Get(),
		},
	)
	jobSvc := service.NewPrintJobService(objStore, postgres.NewPrintJobPostgres(db), feed, service.PrintJobSettings{
		MaxFileBytes:  cfg.Upload.MaxFileBytes,
		MonoRate:      cfg.Pricing.MonoRate,
		ColorRate:     cfg.Pricing.ColorRate,
		PresignExpiry: cfg.MinIO.PresignExpiry,
		Logger:        logger.Get(),
		Metrics:       jobMetrics,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// oversized uploads up to twice the limit still reach the service and get its FILE_TOO_LARGE answer
		BodyLimit: int(2 * cfg.Upload.MaxFileBytes),
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(loc))
	app.Use(otelfiber.Middleware())
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, handlers.Dependencies{
		DB:   db,
		Auth: authSvc,
		Jobs: jobSvc,
		Feed: feed,
	})

	go func() {
		<-ctx.Done()
		log.Info().Str("event", "shutdown").Msg("shutting down http server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	addr := ":" + cfg.Port
	log.Info().Str("event", "startup").Str("addr", addr).Msg("http server listening")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

// newFeed uses Redis pub/sub when REDIS_ADDR is set so every API instance sees
// every change; otherwise changes are only visible within this process.
func newFeed(cfg config.RedisConfig) (changefeed.Feed, error) {
	if cfg.Addr == "" {
		log := logger.Component("main")
		log.Warn().Msg("REDIS_ADDR not set, using in-process change feed")
		return changefeed.NewLocal(), nil
	}
	client, err := changefeed.NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return changefeed.NewRedis(client, cfg.ChannelPrefix, logger.Component("changefeed")), nil
}
