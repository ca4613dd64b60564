package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"marketplace-chat-service/internal/config"
	"marketplace-chat-service/internal/db"
	"marketplace-chat-service/internal/handlers"
	"marketplace-chat-service/internal/middleware"
	"marketplace-chat-service/internal/notifier"
	"marketplace-chat-service/internal/observability"
	"marketplace-chat-service/internal/rabbitmq"
	"marketplace-chat-service/internal/repositories"
	"marketplace-chat-service/internal/services"
	"marketplace-chat-service/internal/storage"
	"marketplace-chat-service/internal/telemetry"
	"marketplace-chat-service/internal/ws"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
		if err != nil {
			logger.Fatal("failed to init tracing", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			_ = shutdown(shutdownCtx)
		}()
	}

	database, err := db.Connect(cfg.DBDSN, logger)
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	defer auditPublisher.Close()
	logger.Info("audit publisher ready", zap.String("mode", rabbitmq.PublisherMode(auditPublisher)))
	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, cfg.AuditRoutingKey, cfg.ServiceName, cfg.Environment, logger)

	if cfg.AMQPURL != "" {
		if eventSink, err := observability.NewAMQPEventSink(cfg.AMQPURL, cfg.AMQPExchange); err != nil {
			logger.Warn("stream events disabled", zap.Error(err))
		} else {
			observability.SetEventSink(eventSink)
			defer eventSink.Close()
		}
	}

	userRepo := repositories.NewUserRepo(database)
	itemRepo := repositories.NewItemRepo(database)
	convRepo := repositories.NewConversationRepo(database)
	msgRepo := repositories.NewMessageRepo(database)

	events := notifier.NewRedisNotifier(redisClient, logger)

	hub := ws.NewHub(logger)
	bridge := ws.NewBridge(events, hub, logger)
	go bridge.Run(ctx)

	authService := services.NewAuthService(userRepo, cfg.JWTSecret, time.Duration(cfg.JWTExpiryMin)*time.Minute)
	conversationService := services.NewConversationService(convRepo, msgRepo, userRepo, itemRepo, events, logger)

	var uploader storage.Uploader
	if cfg.S3Bucket != "" {
		s3Client, err := storage.NewS3Client(ctx, storage.S3Config{
			Region:     cfg.S3Region,
			Bucket:     cfg.S3Bucket,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Endpoint:   cfg.S3Endpoint,
			PublicBase: cfg.S3PublicBase,
		})
		if err != nil {
			logger.Fatal("failed to init object storage", zap.Error(err))
		}
		uploader = s3Client
	} else {
		logger.Warn("object storage not configured, image uploads disabled")
	}
	itemService := services.NewItemService(itemRepo, uploader, logger)

	authHandler := handlers.NewAuthHandler(authService, auditEmitter)
	conversationHandler := handlers.NewConversationHandler(conversationService, auditEmitter)
	itemHandler := handlers.NewItemHandler(itemService)
	conversationWS := ws.NewConversationWebSocketHandler(hub, conversationService, authService)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(authService)

	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)

	router.POST("/messages", authMiddleware, conversationHandler.SendMessage)
	router.POST("/messages/:message_id/read", authMiddleware, conversationHandler.MarkMessageAsRead)
	router.POST("/messages/:message_id/delivered", authMiddleware, conversationHandler.MarkMessageAsDelivered)
	router.GET("/conversations", authMiddleware, conversationHandler.ListConversations)
	router.GET("/conversations/with/:user_id/messages", authMiddleware, conversationHandler.ListMessages)
	router.POST("/conversations/:conversation_id/archive", authMiddleware, conversationHandler.ArchiveConversation)
	router.POST("/conversations/:conversation_id/unarchive", authMiddleware, conversationHandler.UnarchiveConversation)

	router.POST("/items", authMiddleware, itemHandler.CreateItem)
	router.GET("/items/:item_id", authMiddleware, itemHandler.GetItem)

	router.GET("/ws/conversations/:conversation_id", conversationWS.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.DebugRoutes)

	logger.Info("listening", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
