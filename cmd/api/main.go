package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/hall-booking-api/api/swagger"
	"github.com/noah-isme/hall-booking-api/internal/handler"
	"github.com/noah-isme/hall-booking-api/internal/repository"
	"github.com/noah-isme/hall-booking-api/internal/router"
	"github.com/noah-isme/hall-booking-api/internal/service"
	"github.com/noah-isme/hall-booking-api/migrations"
	"github.com/noah-isme/hall-booking-api/pkg/broker"
	"github.com/noah-isme/hall-booking-api/pkg/cache"
	"github.com/noah-isme/hall-booking-api/pkg/config"
	"github.com/noah-isme/hall-booking-api/pkg/database"
	"github.com/noah-isme/hall-booking-api/pkg/export"
	"github.com/noah-isme/hall-booking-api/pkg/jobs"
	"github.com/noah-isme/hall-booking-api/pkg/logger"
	"github.com/noah-isme/hall-booking-api/pkg/middleware/ratelimit"
)

// @title Hall Booking API
// @version 1.0.0
// @description Hall booking backend for a dog-training club
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, migrations.FS, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, calendar cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	blockedRepo := repository.NewBlockedTimeRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Booking.CalendarCacheTTL, logr, redisClient != nil)
	window := service.NewBookingWindow(cfg.Booking.Location(), cfg.Booking.OpeningHour, cfg.Booking.ClosingHour)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var eventQueue *jobs.Queue
	var publisher *broker.Publisher
	if cfg.Events.Enabled {
		publisher = broker.NewPublisher(cfg.Events.AMQPURL, cfg.Events.Queue, logr)
		eventQueue = jobs.NewQueue("booking-events", service.NewEventPublishHandler(publisher, metricsSvc), jobs.QueueConfig{
			Workers:    cfg.Events.Workers,
			MaxRetries: cfg.Events.MaxRetries,
			RetryDelay: 2 * time.Second,
			Logger:     logr,
		})
		eventQueue.Start(ctx)
	}
	var enqueuer interface {
		Enqueue(job jobs.Job) error
	}
	if eventQueue != nil {
		enqueuer = eventQueue
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "hall-booking-api",
		MaxSessions:        cfg.Auth.MaxSessions,
	})
	calendarSvc := service.NewCalendarService(service.CalendarServiceParams{
		Bookings:    bookingRepo,
		Blocked:     blockedRepo,
		Window:      window,
		Cache:       cacheSvc,
		CacheTTL:    cfg.Booking.CalendarCacheTTL,
		DefaultHall: cfg.Booking.DefaultHall,
		Logger:      logr,
	})
	userSvc := service.NewUserService(userRepo, calendarSvc, validate, logr)
	quotaSvc := service.NewQuotaService(subscriptionRepo, bookingRepo, logr)
	bookingSvc := service.NewBookingService(service.BookingServiceParams{
		Repo:        bookingRepo,
		Blocked:     blockedRepo,
		Quota:       quotaSvc,
		Window:      window,
		Calendar:    calendarSvc,
		Events:      service.NewEventService(enqueuer, metricsSvc, logr),
		Metrics:     metricsSvc,
		DefaultHall: cfg.Booking.DefaultHall,
		Logger:      logr,
	})
	blockedSvc := service.NewBlockedTimeService(blockedRepo, calendarSvc, validate, logr)
	subscriptionSvc := service.NewSubscriptionService(service.SubscriptionServiceParams{
		Repo:      subscriptionRepo,
		Users:     userRepo,
		Usage:     quotaSvc,
		Window:    window,
		Validator: validate,
		Logger:    logr,
	})
	exportSvc := service.NewExportService(bookingRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	engine := router.New(router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Tokens:         authSvc,
		Audit:          userRepo,
		MetricsService: metricsSvc,
		LoginLimiter:   ratelimit.New(cfg.Auth.LoginRateLimit, cfg.Auth.LoginBurst),
		Logger:         logr,
	}, router.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Users:        handler.NewUserHandler(userSvc),
		Bookings:     handler.NewBookingHandler(bookingSvc, exportSvc, window),
		Calendar:     handler.NewCalendarHandler(calendarSvc, window),
		BlockedTimes: handler.NewBlockedTimeHandler(blockedSvc, window),
		Subscription: handler.NewSubscriptionHandler(subscriptionSvc, window),
		Metrics:      handler.NewMetricsHandler(metricsSvc, db),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if eventQueue != nil {
		eventQueue.Stop()
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logr.Warn("failed to close broker publisher", zap.Error(err))
		}
	}
}
