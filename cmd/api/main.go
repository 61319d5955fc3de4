package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/gema-assignments-api/internal/config"
	"github.com/noah-isme/gema-assignments-api/internal/database"
	"github.com/noah-isme/gema-assignments-api/internal/handler"
	"github.com/noah-isme/gema-assignments-api/internal/middleware"
	"github.com/noah-isme/gema-assignments-api/internal/models"
	"github.com/noah-isme/gema-assignments-api/internal/repository"
	"github.com/noah-isme/gema-assignments-api/internal/router"
	"github.com/noah-isme/gema-assignments-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("app", cfg.AppName).Logger()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Assignment{}, &models.Submission{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured; concurrent submissions rely on the database transaction only")
	}

	notifier, closeNotifier, err := buildNotifier(cfg, redisClient, logger)
	if err != nil {
		log.Fatalf("failed to configure notifier: %v", err)
	}
	defer closeNotifier()

	var locker service.AttemptLocker = service.NoopAttemptLocker{}
	if redisClient != nil {
		locker = service.NewRedisAttemptLocker(redisClient, cfg.SubmissionLockTTL)
	}

	validate := service.NewValidator()

	userRepo := repository.NewUserRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	healthRepo := repository.NewHealthRepository(db)

	authenticator := service.NewAuthenticator(userRepo, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, validate, cfg.EnforceUpdateOwnership, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, validate, locker, notifier, service.SubmissionOptions{
		Topic: cfg.NotifierTopic,
		Scope: cfg.SubmissionScope,
	}, logger)
	seedService := service.NewSeedService(userRepo, bcrypt.DefaultCost, logger)

	go seedUsers(seedService, cfg.UsersCSVPath, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, RequestTimeout: cfg.RequestTimeout})
	router.Register(app, cfg, router.Dependencies{
		HealthHandler:     handler.NewHealthHandler(healthRepo, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		AuthMiddleware:    middleware.BasicAuth(authenticator, logger),
		SubmissionLimiter: middleware.RateLimit("submissions", cfg.SubmissionRateLimit, cfg.SubmissionRateWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildNotifier(cfg config.Config, redisClient *redis.Client, logger zerolog.Logger) (service.Notifier, func(), error) {
	noop := func() {}

	switch cfg.NotifierDriver {
	case config.NotifierNATS:
		conn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			return nil, noop, err
		}
		return service.NewNATSNotifier(conn, logger), func() { drainNATS(conn) }, nil
	case config.NotifierRedis:
		if redisClient == nil {
			return nil, noop, errors.New("redis notifier requires a redis url")
		}
		return service.NewRedisNotifier(redisClient, logger), noop, nil
	case config.NotifierKafka:
		writer, err := database.NewKafkaWriter(cfg.KafkaBrokers)
		if err != nil {
			return nil, noop, err
		}
		return service.NewKafkaNotifier(writer, logger), func() { closeQuietly(writer) }, nil
	default:
		return service.NewLogNotifier(logger), noop, nil
	}
}

func drainNATS(conn *nats.Conn) {
	if err := conn.Drain(); err != nil {
		conn.Close()
	}
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}

// seedUsers runs in the background so a slow or missing CSV never delays readiness.
func seedUsers(seeder service.SeedService, path string, logger zerolog.Logger) {
	if path == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := seeder.SeedUsersFromFile(ctx, path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Warn().Str("path", path).Msg("users csv not found; skipping bootstrap")
	case err != nil:
		logger.Error().Err(err).Str("path", path).Msg("users csv bootstrap failed")
	default:
		logger.Info().Int("inserted", result.Inserted).Int("existing", result.Existing).Int("skipped", result.Skipped).Msg("users csv bootstrap finished")
	}
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
