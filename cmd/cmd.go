package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event-photo-backend/internal/config"
	"event-photo-backend/internal/handlers"
	"event-photo-backend/internal/middleware"
	"event-photo-backend/internal/notify"
	"event-photo-backend/internal/repository"
	"event-photo-backend/internal/services"
	"event-photo-backend/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	modeAPI    = "api"
	modeWorker = "worker"
)

func Run() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	mode := flag.String("mode", modeAPI, "run mode: api or worker")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	if cfg.Database.Migrate {
		if err := repository.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		log.Info().Msg("Database migrations applied")
	}

	store := repository.NewPostgresStore(db)

	switch *mode {
	case modeAPI:
		err = runAPI(ctx, cfg, store)
	case modeWorker:
		err = runWorker(ctx, cfg, store)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatal().Err(err).Str("mode", *mode).Msg("Exited with error")
	}
}

func runAPI(ctx context.Context, cfg *config.Config, store *repository.PostgresStore) error {
	blobs, err := storage.NewS3Store(ctx, cfg.AWS)
	if err != nil {
		return fmt.Errorf("failed to create blob store: %w", err)
	}

	var notifier notify.Publisher = notify.LogPublisher{}
	if cfg.RabbitMQ.URL != "" {
		queue, err := notify.NewQueue(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			return fmt.Errorf("failed to connect to notification queue: %w", err)
		}
		defer queue.Close()
		notifier = queue
	} else {
		log.Warn().Msg("rabbitmq.url is empty, notifications are only logged")
	}

	// Initialize services
	wsHub := services.NewWSHub()
	userService := services.NewUserService(store.Users(), cfg.JWT.Secret, cfg.JWT.TTL)
	eventService := services.NewEventService(store, blobs, cfg.Events)
	membershipService := services.NewMembershipService(store, wsHub, notifier)
	photoService := services.NewPhotoService(store, blobs, wsHub, cfg.Uploads)

	joinLimiter := middleware.NewKeyedRateLimiter(cfg.Server.JoinAttemptsPerMinute)
	go joinLimiter.Cleanup(ctx)

	// Initialize handlers
	router := &handlers.Router{
		Users:       handlers.NewUserHandler(userService),
		Events:      handlers.NewEventHandler(eventService, membershipService),
		Photos:      handlers.NewPhotoHandler(photoService),
		WebSocket:   handlers.NewWebSocketHandler(wsHub, userService, photoService),
		Validator:   userService,
		JoinLimiter: joinLimiter,
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
	return nil
}

func runWorker(ctx context.Context, cfg *config.Config, store *repository.PostgresStore) error {
	if cfg.RabbitMQ.URL == "" {
		return errors.New("rabbitmq.url is required in worker mode")
	}

	sender, err := notify.NewAPNsSender(cfg.APNs)
	if err != nil {
		return fmt.Errorf("failed to create APNs sender: %w", err)
	}

	queue, err := notify.NewQueue(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
	if err != nil {
		return fmt.Errorf("failed to connect to notification queue: %w", err)
	}
	defer queue.Close()

	worker := notify.NewWorker(store.Users(), sender)

	log.Info().Str("queue", cfg.RabbitMQ.Queue).Msg("Notification worker started")
	if err := queue.Consume(ctx, worker.Handle); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info().Msg("Notification worker stopped")
	return nil
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}
