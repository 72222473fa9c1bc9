package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"event_chat/internal/config"
	"event_chat/internal/database"
	"event_chat/internal/domain"
	"event_chat/internal/handler"
	"event_chat/internal/middleware"
	"event_chat/internal/notification"
	"event_chat/internal/repository"
	"event_chat/internal/service"
	"event_chat/pkg/logger"
)

var (
	readRateLimit  = domain.RateLimitRule{Scope: domain.RateLimitScopeRead, Limit: 120, Window: time.Minute}
	writeRateLimit = domain.RateLimitRule{Scope: domain.RateLimitScopeWrite, Limit: 60, Window: time.Minute}
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Log.Level)
	defer func() { _ = appLogger.Sync() }()

	ctx := context.Background()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, cfg.Database.DSN, appLogger); err != nil {
			appLogger.Fatal("Failed to migrate database", "error", err)
		}
	}

	dbPool, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", "error", err)
	}
	defer dbPool.Close()
	appLogger.Info("Database connection established")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		appLogger.Fatal("Failed to connect to Redis", "error", err)
	}
	appLogger.Info("Redis connection established")

	repos := repository.NewRepositories(dbPool, rdb, appLogger)
	push := notification.NewOneSignalClient(cfg.OneSignal)
	hub := handler.NewHub(appLogger.With("component", "hub"))

	services := service.NewServices(repos, cfg, push, hub, clockwork.NewRealClock(), appLogger)
	handlers := handler.NewHandlers(services, hub, dbPool, rdb, push, cfg, appLogger)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.AccessSecret, cfg.JWT.Issuer, appLogger)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(services.RateLimit, appLogger)

	router := setupRouter(handlers, services, authMiddleware, rateLimitMiddleware, cfg, appLogger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
	}
	hub.Close()

	// let in-flight push notifications finish, bounded by the shutdown timeout
	done := make(chan struct{})
	go func() {
		services.Notifier.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		appLogger.Warn("Pending push notifications abandoned")
	}

	appLogger.Info("Server exited")
}

func setupRouter(
	handlers *handler.Handlers,
	services *service.Services,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	cfg *config.Config,
	log logger.Logger,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorHandler(log))

	router.GET("/health", handlers.Health.Check)

	readLimit := rateLimitMiddleware.Limit(readRateLimit)
	writeLimit := rateLimitMiddleware.Limit(writeRateLimit)

	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware.RequireAuth())
	v1.Use(middleware.TrackPresence(services.Presence, log))
	v1.Use(middleware.NoCache())
	{
		events := v1.Group("/events/:eventId")
		{
			events.GET("/messages", readLimit, handlers.Chat.GetEventMessages)
			events.POST("/messages", writeLimit, handlers.Chat.SendEventMessage)
			events.GET("/participants", readLimit, handlers.Chat.GetEventParticipants)
		}

		chats := v1.Group("/chats")
		{
			chats.GET("/mine", readLimit, handlers.Chat.GetMyEventChats)
			chats.GET("/private", readLimit, handlers.Chat.GetMyPrivateChats)
		}

		private := v1.Group("/private/:userId")
		{
			private.GET("/messages", readLimit, handlers.Chat.GetPrivateMessages)
			private.POST("/messages", writeLimit, handlers.Chat.SendPrivateMessage)
		}

		moderation := v1.Group("/moderation")
		moderation.Use(writeLimit)
		{
			moderation.DELETE("/messages/:id", handlers.Moderation.DeleteMessage)

			event := moderation.Group("/events/:eventId")
			{
				event.GET("/muted", handlers.Moderation.GetMutedUsers)
				event.GET("/banned", handlers.Moderation.GetBannedUsers)
				event.GET("/log", handlers.Moderation.GetModerationLog)
				event.POST("/users/:userId/mute", handlers.Moderation.MuteUser)
				event.POST("/users/:userId/unmute", handlers.Moderation.UnmuteUser)
				event.POST("/users/:userId/ban", handlers.Moderation.BanUser)
				event.GET("/users/:userId/status", handlers.Moderation.GetUserStatus)
			}
		}
	}

	ws := router.Group("/ws")
	ws.Use(authMiddleware.RequireAuth())
	ws.Use(middleware.TrackPresence(services.Presence, log))
	{
		ws.GET("/events/:eventId", handlers.WebSocket.HandleEvent)
	}

	return router
}
