// Package main runs the campus portal HTTP server with WebSocket fan-out
// and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/campushub/backend/config"
	"github.com/campushub/backend/internal/auth"
	"github.com/campushub/backend/internal/eventrequests"
	"github.com/campushub/backend/internal/events"
	"github.com/campushub/backend/internal/feedback"
	"github.com/campushub/backend/internal/lostfound"
	"github.com/campushub/backend/internal/middleware"
	"github.com/campushub/backend/internal/models"
	"github.com/campushub/backend/internal/realtime"
	"github.com/campushub/backend/internal/worker"
	"github.com/campushub/backend/pkg/database"
	"github.com/campushub/backend/pkg/docstore"
	"github.com/campushub/backend/pkg/queue"
	"github.com/campushub/backend/pkg/redis"
	"github.com/campushub/backend/pkg/response"
	"github.com/campushub/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			MediaBucket:          cfg.AWS.MediaBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	hub.Start()

	// Document collections on Redis
	itemColl := docstore.NewCollection[models.Item](rdb.Client, docstore.CollectionItems)
	requestColl := docstore.NewCollection[models.EventRequest](rdb.Client, docstore.CollectionEventRequests)
	eventColl := docstore.NewCollection[models.Event](rdb.Client, docstore.CollectionEvents)
	feedbackColl := docstore.NewCollection[models.Feedback](rdb.Client, docstore.CollectionFeedback)

	jobQueue := queue.NewQueue(rdb.Client, logger)
	var itemOffload lostfound.MediaOffloader
	var eventOffload events.MediaOffloader
	if s3Client != nil {
		itemOffload = jobQueue
		eventOffload = jobQueue
	}

	// Auth
	signupPolicy, err := auth.NewSignupPolicy(cfg.Registration.FacultyCode, cfg.Registration.AdminCode, cfg.Registration.StudentEmailPattern)
	if err != nil {
		logger.Fatal("signup policy", zap.Error(err))
	}
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, signupPolicy, logger)

	// Lost & Found
	lostfoundSvc := lostfound.NewService(itemColl, authRepo, hub, lostfound.DefaultTransitions(), logger)
	lostfoundHandler := lostfound.NewHandler(lostfoundSvc, itemOffload, logger)

	// Event requests (student submissions, faculty/admin review)
	requestSvc := eventrequests.NewService(requestColl, eventColl, authRepo, hub, logger)
	requestHandler := eventrequests.NewHandler(requestSvc)

	// Events (direct creation + materialized approvals)
	eventSvc := events.NewService(eventColl, hub)
	eventHandler := events.NewHandler(eventSvc, eventOffload, logger)

	// Feedback
	feedbackSvc := feedback.NewService(feedbackColl, authRepo, hub)
	feedbackHandler := feedback.NewHandler(feedbackSvc)

	// Background worker (inline image offload to S3)
	mediaProcessor := worker.NewMediaProcessor(itemColl, eventColl, s3Client, jobQueue, logger)

	validate := func(token string) (userID, email, role string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", "", "", err
		}
		return claims.UserID.String(), claims.Email, claims.Role, nil
	}
	wsValidate := func(token string) (userID, role string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", "", err
		}
		return claims.UserID.String(), claims.Role, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.Auth(validate))
	{
		api.GET("/auth/me", authHandler.Me)
		api.POST("/auth/logout", authHandler.Logout)
		api.GET("/users", middleware.RequireRole(models.RoleAdmin), authHandler.List)

		// Lost & Found
		api.POST("/lost-found/report", lostfoundHandler.Report)
		api.GET("/lost-found", lostfoundHandler.List)
		api.PUT("/lost-found/:id", lostfoundHandler.Update)

		// Event requests
		api.POST("/event-requests", middleware.RequireRole(models.RoleStudent), requestHandler.Submit)
		api.GET("/event-requests", requestHandler.List)
		api.PUT("/event-requests/:id/approve", middleware.RequireRole(models.RoleFaculty, models.RoleAdmin), requestHandler.Approve)
		api.PUT("/event-requests/:id/reject", middleware.RequireRole(models.RoleFaculty, models.RoleAdmin), requestHandler.Reject)
		api.DELETE("/event-requests/:id", requestHandler.Delete)

		// Events
		api.GET("/events", eventHandler.List)
		api.POST("/events", middleware.RequireRole(models.RoleFaculty, models.RoleAdmin), eventHandler.Create)
		api.PUT("/events/:id", eventHandler.Update)
		api.DELETE("/events/:id", eventHandler.Delete)

		// Feedback
		api.POST("/feedback", feedbackHandler.Submit)
		api.GET("/feedback", middleware.RequireRole(models.RoleAdmin), feedbackHandler.List)
		api.PUT("/feedback/:id/status", middleware.RequireRole(models.RoleAdmin), feedbackHandler.SetStatus)
	}

	// WebSocket (token in query; browsers cannot set an Authorization header)
	router.GET("/ws", realtime.ServeWs(hub, logger, wsValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if s3Client != nil {
		go mediaProcessor.Run(workerCtx)
		logger.Info("media worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
