package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/roomdesk/service-booking/internal/application"
	"github.com/roomdesk/service-booking/internal/cache"
	"github.com/roomdesk/service-booking/internal/config"
	bookingEvents "github.com/roomdesk/service-booking/internal/events"
	"github.com/roomdesk/service-booking/internal/handler"
	"github.com/roomdesk/service-booking/internal/pkg/auth"
	"github.com/roomdesk/service-booking/internal/pkg/clock"
	"github.com/roomdesk/service-booking/internal/pkg/database"
	"github.com/roomdesk/service-booking/internal/pkg/health"
	"github.com/roomdesk/service-booking/internal/pkg/kafka"
	"github.com/roomdesk/service-booking/internal/pkg/logger"
	"github.com/roomdesk/service-booking/internal/pkg/middleware"
	"github.com/roomdesk/service-booking/internal/pkg/rabbitmq"
	"github.com/roomdesk/service-booking/internal/repository"
	"github.com/roomdesk/service-booking/internal/repository/memory"
)

const serviceName = "service-booking"

type publisher interface {
	application.EventPublisher
	io.Closer
}

type store interface {
	application.UnitOfWork
	Ping(ctx context.Context) error
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("store", cfg.StoreDriver),
		zap.String("broker", cfg.Events.Broker),
	)

	uow := openStore(cfg, log)
	checkers := []health.Checker{health.CheckFunc{CheckName: "store", Fn: uow.Ping}}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.Issuer, cfg.JWTConfig.AccessTTL)

	// Initialize event publisher
	eventPublisher := newPublisher(cfg, log)
	defer func() { _ = eventPublisher.Close() }()

	// Initialize room cache
	var roomCache cache.Cache = cache.NoopCache{}
	if cfg.Redis.Addr != "" {
		if client := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log); client != nil {
			defer func() { _ = client.Close() }()
			redisCache := cache.NewRedisCache(client, "roomdesk", cfg.Redis.TTL)
			roomCache = redisCache
			checkers = append(checkers, health.CheckFunc{CheckName: "redis", Fn: redisCache.Ping})
		}
	}

	// Initialize application services
	clk := clock.NewRealClock()
	roomService := application.NewRoomService(uow, roomCache, log)
	bookingService := application.NewBookingService(
		uow,
		application.NewLedger(clk),
		application.NewHistoryRecorder(clk),
		eventPublisher,
		cfg.Events.Kafka.BookingTopic,
		clk,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start room directory consumer in a goroutine
	if cfg.Events.Kafka.ConsumeRooms {
		roomConsumer := bookingEvents.NewRoomEventConsumer(
			cfg.Events.Kafka.Brokers,
			cfg.Events.Kafka.GroupPrefix+serviceName,
			cfg.Events.Kafka.RoomTopic,
			roomService,
			log,
		)
		defer func() { _ = roomConsumer.Close() }()

		go func() {
			log.Info("starting room event consumer")
			if err := roomConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("room event consumer error", zap.Error(err))
			}
		}()
	}

	// Setup Gin router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	health.NewHandler(serviceName, checkers...).RegisterRoutes(router)

	// Register routes
	handler.NewRoomHandler(roomService, bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminHandler(roomService, bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}

func openStore(cfg *config.ServiceConfig, log *zap.Logger) store {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore()
	}

	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// SQL migrations carry the overlap exclusion constraint, so they run
	// instead of GORM AutoMigrate in every environment.
	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}
	return repository.NewGormUnitOfWork(db, log)
}

func newPublisher(cfg *config.ServiceConfig, log *zap.Logger) publisher {
	switch cfg.Events.Broker {
	case config.BrokerKafka:
		return kafka.NewProducer(cfg.Events.Kafka.Brokers, log)
	case config.BrokerRabbitMQ:
		p, err := rabbitmq.NewPublisher(cfg.Events.RabbitMQ.URL, cfg.Events.RabbitMQ.Exchange)
		if err != nil {
			log.Error("rabbitmq unavailable, events disabled", zap.Error(err))
			return bookingEvents.NewNoopPublisher(log)
		}
		return p
	default:
		return bookingEvents.NewNoopPublisher(log)
	}
}
