package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wavelength-backend/internal/config"
	"wavelength-backend/internal/handlers"
	"wavelength-backend/internal/middleware"
	"wavelength-backend/internal/repository"
	"wavelength-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Initialize services
	authService := services.NewAuthService(cfg.JWT.Secret, cfg.JWT.ProviderSecret)

	var generator services.SummaryGenerator
	generator, err = services.NewGeminiSummaryGenerator(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		// Bootstrap falls back to the fixed summary when no generator is
		// configured; the server still starts.
		log.Warn().Err(err).Msg("Summary generator unavailable, profiles will use the fallback summary")
		generator = services.UnavailableSummaryGenerator{}
	}

	profileService := services.NewProfileService(userRepo, generator)
	socialService := services.NewSocialService(userRepo, cfg.Social.AllowSelfFollow)
	presenceHub := services.NewPresenceHub()
	clientHub := services.NewClientHub()

	var pushService *services.PushService
	if cfg.APNs.Enabled {
		pushService, err = services.NewPushService(userRepo, cfg.APNs)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create push service")
		}
	}

	var notifier services.OfflineNotifier
	if pushService != nil {
		notifier = pushService
	}
	chatService := services.NewChatService(messageRepo, clientHub, presenceHub, notifier)

	avatarService, err := services.NewAvatarService(userRepo, cfg.AWS.Region, cfg.AWS.S3Bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create avatar service")
	}

	// Initialize handlers
	userHandler := handlers.NewUserHandler(profileService, authService, presenceHub)
	socialHandler := handlers.NewSocialHandler(socialService)
	messageHandler := handlers.NewMessageHandler(chatService, pushService)
	avatarHandler := handlers.NewAvatarHandler(avatarService)
	wsHandler := handlers.NewWebSocketHandler(clientHub, presenceHub, authService, chatService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes: authenticated by the provider identity token
		r.Post("/session", userHandler.CreateSession)
		r.Post("/profile", userHandler.BootstrapProfile)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(authService))
			r.Get("/profile", userHandler.GetProfile)
			r.Get("/users", userHandler.ListUsers)
			r.Get("/users/{user_id}", userHandler.GetUser)
			r.Post("/users/{user_id}/follow", socialHandler.Follow)
			r.Delete("/users/{user_id}/follow", socialHandler.Unfollow)
			r.Get("/chats/{peer_id}/messages", messageHandler.GetHistory)
			r.Post("/push-token", messageHandler.RegisterPushToken)
			r.Post("/avatar/upload-url", avatarHandler.CreateUploadURL)
			r.Put("/avatar", avatarHandler.ConfirmUpload)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Shutdown HTTP server; live WebSocket sessions close with it and
	// their disconnect handlers mark the users offline.
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
