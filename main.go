package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loopr_server/apperrors"
	"loopr_server/config"
	"loopr_server/logger"
	"loopr_server/metrics"
	"loopr_server/routes"
	"loopr_server/services"
	"loopr_server/socket"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_ = logger.Initialize("info", "-")
		logger.FatalWithFields("Failed to load config", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		_ = logger.Initialize("info", "-")
		logger.FatalWithFields("Failed to initialize logger", err)
	}
	defer logger.Close()

	ctx := context.Background()
	m := metrics.Initialize()

	// Initialize DynamoDB client and service
	logger.Log.Info("Initializing DynamoDB client...", zap.String("region", cfg.AWSRegion))
	dynamoClient, err := services.InitializeDynamoDBClient(ctx, cfg.AWSRegion, cfg.DynamoEndpoint)
	if err != nil {
		logger.FatalWithFields("Failed to initialize DynamoDB client", err)
	}
	dynamoService := &services.DynamoService{Client: dynamoClient}

	s3Service, err := services.InitializeS3Service(ctx, cfg.AWSRegion, cfg.AvatarBucket, cfg.AvatarPublicBaseURL)
	if err != nil {
		logger.FatalWithFields("Failed to initialize S3 client", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Log.Warn("Redis is not reachable, refresh tokens will fail until it is", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	// Initialize Services
	sessionService := services.NewSessionService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, &services.RedisSessionStore{Client: redisClient})
	accountService := &services.AccountService{Dynamo: dynamoService, Table: cfg.AccountsTable, Sessions: sessionService}
	userProfileService := &services.UserProfileService{Dynamo: dynamoService, Table: cfg.ProfileTable}
	courseService := services.NewCourseService(cfg.GolfAPIBaseURL, cfg.GolfAPIKey)
	roundService := &services.RoundService{Dynamo: dynamoService, Table: cfg.RoundsTable}

	socketServer := socket.NewServer(sessionService)
	go socketServer.Serve()
	defer socketServer.Close()

	workflow := services.NewProfileSyncWorkflow(sessionService, userProfileService, s3Service,
		services.WithNotifier(socketServer),
		services.WithObserver(func(userID string, state services.SaveState, err error) {
			m.RecordSaveState(string(state), string(apperrors.KindOf(err)))
		}),
	)

	// Initialize the router
	r := mux.NewRouter()
	r.Use(metrics.Middleware(m))

	// Register routes
	routes.RegisterRoutes(r)
	routes.RegisterAuthRoutes(r, accountService, sessionService)
	routes.RegisterUserProfileRoutes(r, workflow, userProfileService, sessionService)
	routes.RegisterS3Routes(r, s3Service, sessionService)
	routes.RegisterCourseRoutes(r, courseService, roundService, sessionService)
	routes.RegisterSocketRoutes(r, socketServer.Handler())

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Refresh-Token"},
		AllowCredentials: true,
	}).Handler(r)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Starting server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.FatalWithFields("Server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}
}
