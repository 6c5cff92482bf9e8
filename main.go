package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	api "github.com/vitaprozen/blog-backend/api"
	"github.com/vitaprozen/blog-backend/cache"
	"github.com/vitaprozen/blog-backend/config"
	"github.com/vitaprozen/blog-backend/database"
	"github.com/vitaprozen/blog-backend/storage"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	c := config.New()
	setupLogging(c)

	log.Info().Msg("Initializing app...")

	ctx := context.Background()

	loaded, err := config.LoadParameters(ctx, c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading parameters from SSM")
	}
	if loaded > 0 {
		log.Info().Int("parameters", loaded).Msg("Loaded configuration from SSM Parameter Store")
	}

	currentDB, err := database.Connect(ctx, c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}

	mediaStore, err := storage.New(ctx, c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error configuring media storage")
	}
	cleanupTimeout := time.Duration(config.GetInt(c, "CLEANUP_TIMEOUT_SECONDS", 30)) * time.Second
	cleaner := storage.NewCleaner(mediaStore, cleanupTimeout)

	responseCache, err := cache.New(ctx,
		config.GetString(c, "REDIS_URL", ""),
		time.Duration(config.GetInt(c, "CACHE_TTL_SECONDS", 300))*time.Second,
	)
	if err != nil {
		// The cache only speeds up reads, so run without it.
		log.Warn().Err(err).Msg("Redis unavailable, response cache disabled")
		responseCache = nil
	}

	server, err := api.NewServer(c, api.Dependencies{
		Database:   currentDB,
		MediaStore: mediaStore,
		Cleaner:    cleaner,
		Cache:      responseCache,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	errChannel := make(chan error, 2)

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Err(fatalErr).Dur("uptime", server.Uptime()).Msg("Closing server")

	server.ShutdownGracefully(30 * time.Second)

	log.Info().Msg("Waiting for media cleanup to finish")
	cleaner.Close()

	if err := responseCache.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing redis client")
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := currentDB.Close(closeCtx); err != nil {
		log.Error().Err(err).Msg("Error closing database connection")
	}
}

// setupLogging configures the global zerolog logger from LOG_LEVEL and LOG_FORMAT.
func setupLogging(c map[string]string) {
	level, err := zerolog.ParseLevel(strings.ToLower(config.GetString(c, "LOG_LEVEL", "info")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if config.GetString(c, "LOG_FORMAT", "json") == "console" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
