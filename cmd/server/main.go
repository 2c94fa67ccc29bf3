package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cheru-estates/listing-service/internal/handlers"
	"github.com/cheru-estates/listing-service/internal/importer"
	"github.com/cheru-estates/listing-service/internal/services"
	"github.com/cheru-estates/listing-service/internal/storage"
)

func main() {
	// Setup logger
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	config := loadConfig()

	log.Info().
		Str("host", config.Host).
		Str("port", config.Port).
		Msg("Starting listing import service")

	log.Info().Msg("Initializing Postgres storage...")
	store, err := storage.NewPostgresStorage(
		config.DBHost,
		config.DBPort,
		config.DBUser,
		config.DBPassword,
		config.DBName,
		config.DBSSLMode,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Postgres storage")
	}
	defer store.Close()
	log.Info().Msg("Postgres storage initialized")

	log.Info().Msg("Initializing MinIO storage...")
	imageStorage, err := storage.NewMinIOStorage(
		config.MinIOEndpoint,
		config.MinIOPublicEndpoint,
		config.MinIOAccessKey,
		config.MinIOSecretKey,
		config.MinIOBucket,
		config.MinIOUseSSL,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MinIO storage")
	}
	log.Info().Msg("MinIO storage initialized")

	var publisher *services.RabbitMQPublisher
	if config.RabbitMQURL != "" {
		log.Info().Msg("Initializing RabbitMQ publisher...")
		publisher, err = services.NewRabbitMQPublisher(
			config.RabbitMQURL,
			config.RabbitMQExchange,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize RabbitMQ publisher")
		}
		defer publisher.Close()
		log.Info().Msg("RabbitMQ publisher initialized")
	} else {
		log.Warn().Msg("RABBITMQ_URL not set, listing.imported events disabled")
	}

	resolver := importer.NewResolver(store)
	ingestor := importer.NewAssetIngestor(imageStorage, config.ImageFetchTimeout)

	var events importer.EventPublisher
	var broker handlers.HealthChecker
	if publisher != nil {
		events = publisher
		broker = publisher
	}
	listingImporter := importer.New(resolver, ingestor, store, events)

	handler := handlers.NewHandler(listingImporter, store, imageStorage, broker)

	router := setupRouter(handler, config.AdminAPIToken)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // bulk imports fetch remote images row by row
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("address", srv.Addr).
			Msg("Server starting...")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}

type Config struct {
	Host                string
	Port                string
	AdminAPIToken       string
	ImageFetchTimeout   time.Duration
	RabbitMQURL         string
	RabbitMQExchange    string
	MinIOEndpoint       string
	MinIOPublicEndpoint string
	MinIOAccessKey      string
	MinIOSecretKey      string
	MinIOBucket         string
	MinIOUseSSL         bool
	DBHost              string
	DBPort              string
	DBUser              string
	DBPassword          string
	DBName              string
	DBSSLMode           string
}

// loadConfig loads configuration from environment variables
func loadConfig() *Config {
	fetchTimeout := importer.DefaultFetchTimeout
	if raw := getEnv("IMAGE_FETCH_TIMEOUT_SECONDS", ""); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			fetchTimeout = time.Duration(seconds) * time.Second
		}
	}

	return &Config{
		Host:                getEnv("SERVICE_HOST", "0.0.0.0"),
		Port:                getEnv("SERVICE_PORT", "8080"),
		AdminAPIToken:       getEnv("ADMIN_API_TOKEN", ""),
		ImageFetchTimeout:   fetchTimeout,
		RabbitMQURL:         getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange:    getEnv("RABBITMQ_EXCHANGE", "listings.events"),
		MinIOEndpoint:       getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOPublicEndpoint: getEnv("MINIO_PUBLIC_ENDPOINT", "localhost:9000"),
		MinIOAccessKey:      getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinIOSecretKey:      getEnv("MINIO_SECRET_KEY", "minioadmin123"),
		MinIOBucket:         getEnv("MINIO_BUCKET_NAME", "listing-images"),
		MinIOUseSSL:         getEnv("MINIO_USE_SSL", "false") == "true",
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "5432"),
		DBUser:              getEnv("DB_USER", "postgres"),
		DBPassword:          getEnv("DB_PASSWORD", "postgres"),
		DBName:              getEnv("DB_NAME", "postgres"),
		DBSSLMode:           getEnv("DB_SSL_MODE", "disable"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setupRouter configures all routes and middleware
func setupRouter(h *handlers.Handler, adminToken string) *mux.Router {
	r := mux.NewRouter()

	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)

	r.HandleFunc("/health", h.HealthCheckHandler).Methods("GET")

	// Admin API. The real authentication gate lives upstream; the token
	// check here is the service-local boundary.
	api := r.PathPrefix("/api/admin").Subrouter()
	api.Use(adminAuthMiddleware(adminToken))
	api.HandleFunc("/listings/bulk", h.BulkImportHandler).Methods("POST")
	api.HandleFunc("/listings", h.ListListingsHandler).Methods("GET")
	api.HandleFunc("/listings/{id}", h.ListingDetailHandler).Methods("GET")
	api.HandleFunc("/catalog", h.CatalogHandler).Methods("GET")

	log.Info().Msg("Routes configured successfully")
	return r
}

// adminAuthMiddleware rejects requests without the configured admin token
func adminAuthMiddleware(token string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				log.Warn().Msg("ADMIN_API_TOKEN not set, admin API is unprotected")
				next.ServeHTTP(w, r)
				return
			}
			if r.Header.Get("X-Admin-Token") != token {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs all HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap ResponseWriter to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.statusCode).
			Dur("duration_ms", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("HTTP request")
	})
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("Panic recovered")

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
