package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/vitaprozen/blog-backend/cache"
	"github.com/vitaprozen/blog-backend/config"
	"github.com/vitaprozen/blog-backend/database"
	"github.com/vitaprozen/blog-backend/storage"
)

// Dependencies are the long lived clients shared by every handler
type Dependencies struct {
	Database   database.Database
	MediaStore storage.MediaStore
	Cleaner    *storage.Cleaner
	// Cache may be nil when redis is not configured
	Cache *cache.Cache
}

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(c map[string]string, deps Dependencies) (Server, error) {
	if config.GetString(c, "ADMIN_SECRET_TOKEN", "") == "" {
		return Server{}, errors.New("ADMIN_SECRET_TOKEN must be set")
	}

	port := config.GetString(c, "PORT", "5000")
	address := fmt.Sprintf("0.0.0.0:%s", port)

	startupTime := time.Now()

	router := newRouter(deps, withConfig(c), withStartupTime(startupTime))

	readTimeout := time.Duration(config.GetInt(c, "READ_TIMEOUT_SECONDS", 60)) * time.Second
	writeTimeout := time.Duration(config.GetInt(c, "WRITE_TIMEOUT_SECONDS", 60)) * time.Second
	idleTimeout := time.Duration(config.GetInt(c, "IDLE_TIMEOUT_SECONDS", 120)) * time.Second

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  readTimeout,  // Timeout for reading the entire request
		WriteTimeout: writeTimeout, // Timeout for writing the response
		IdleTimeout:  idleTimeout,  // Timeout for idle connections
	}

	return Server{server, startupTime}, nil
}

type router struct {
	config      map[string]string
	startupTime time.Time
}

func withConfig(c map[string]string) func(*router) {
	return func(r *router) {
		r.config = c
	}
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func newRouter(deps Dependencies, opts ...func(*router)) *chi.Mux {
	var router router
	for _, opt := range opts {
		opt(&router)
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(middleware.RequestID)
	chiRouter.Use(middleware.RealIP)
	chiRouter.Use(LogInternalServerErrors)
	chiRouter.Use(HTTPLoggingMiddleware)

	acceptedOrigins := config.GetList(router.config, "ACCEPTED_ORIGINS", []string{"*"}, false)
	chiRouter.Use(corsMiddleware(acceptedOrigins))

	handlers := initializeHandlers(deps, router.config)

	authMiddleware := newAuthMiddleware(config.GetString(router.config, "ADMIN_SECRET_TOKEN", ""))

	maxUploadBytes := int64(config.GetInt(router.config, "MAX_UPLOAD_MB", 10)) << 20
	uploadMiddleware := newUploadMiddleware(deps.MediaStore, deps.Cleaner, maxUploadBytes)

	setupRoutes(chiRouter, handlers, authMiddleware, uploadMiddleware, config.GetString(router.config, "STATIC_DIR", "uploads"))

	log.Debug().Time("startupTime", router.startupTime).Msg("Router initialized")

	return chiRouter
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}

// Uptime reports how long the server has been running
func (s Server) Uptime() time.Duration {
	return time.Since(s.startupTime)
}
