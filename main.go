package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	gcs "cloud.google.com/go/storage"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"guessTheDjAPI/handlers"
	"guessTheDjAPI/internal/config"
	"guessTheDjAPI/middleware"
	"guessTheDjAPI/repository"
	"guessTheDjAPI/services"
	"guessTheDjAPI/storage"
)

var (
	cfg          *config.Config
	gcsClient    *gcs.Client
	store        *storage.GCSStore
	gameService  *services.GameService
	gameLocation *time.Location
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	gameLocation, err = cfg.Location()
	if err != nil {
		log.Fatal("Failed to resolve game timezone: ", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	gcsClient, err = gcs.NewClient(ctx)
	if err != nil {
		log.Fatal("Failed to create storage client: ", err)
	}

	store = storage.NewGCSStore(gcsClient, cfg.GCSBucket)
	if err := store.Ping(ctx); err != nil {
		log.Fatal("Failed to reach game bucket: ", err)
	}
	log.Printf("Connected to bucket %s", cfg.GCSBucket)

	gameRepo := repository.NewGameRepository(store)
	gameService = services.NewGameService(gameRepo)

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing storage client...")
		gcsClient.Close()
	}()

	commandHandler := handlers.NewCommandHandler(gameService, gameLocation)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "storage unreachable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "guessTheDj-api"}`))
	}).Methods("GET")

	// -------------------------------------------------------------------------
	// SLASH COMMAND ROUTES (SLACK-SIGNED)
	// -------------------------------------------------------------------------
	commands := r.PathPrefix("/commands").Subrouter()
	commands.Use(middleware.SlackVerifyMiddleware(cfg.SlackSigningSecret))

	commands.HandleFunc("/suggest", commandHandler.Suggest).Methods("POST")
	commands.HandleFunc("/choose", commandHandler.Choose).Methods("POST")
	commands.HandleFunc("/play", commandHandler.Play).Methods("POST")
	commands.HandleFunc("/guess", commandHandler.Guess).Methods("POST")
	commands.HandleFunc("/reveal", commandHandler.Reveal).Methods("POST")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "X-Slack-Signature", "X-Slack-Request-Timestamp"}),
	)

	server := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
