package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/mira-santoso/salonbook-api/api/swagger"
	"github.com/mira-santoso/salonbook-api/internal/handler"
	"github.com/mira-santoso/salonbook-api/internal/middleware"
	"github.com/mira-santoso/salonbook-api/internal/models"
	"github.com/mira-santoso/salonbook-api/internal/reminder"
	"github.com/mira-santoso/salonbook-api/internal/repository"
	"github.com/mira-santoso/salonbook-api/internal/service"
	"github.com/mira-santoso/salonbook-api/pkg/cache"
	"github.com/mira-santoso/salonbook-api/pkg/config"
	"github.com/mira-santoso/salonbook-api/pkg/database"
	"github.com/mira-santoso/salonbook-api/pkg/jobs"
	"github.com/mira-santoso/salonbook-api/pkg/logger"
	corsmiddleware "github.com/mira-santoso/salonbook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/mira-santoso/salonbook-api/pkg/middleware/requestid"
)

// @title SalonBook API
// @version 1.0.0
// @description Appointment availability and booking-conflict engine
// @BasePath /api/v1
// @schemes http

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

	location, err := time.LoadLocation(cfg.Business.Timezone)
	if err != nil {
		logr.Sugar().Fatalw("invalid business timezone", "timezone", cfg.Business.Timezone, "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("redis connection failed", "error", err)
	}
	defer redisClient.Close()

	// Repositories.
	appointmentRepo := repository.NewAppointmentRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	blockedRepo := repository.NewBlockedDateRepository(db)
	overrideRepo := repository.NewOverrideRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	eventRepo := repository.NewNotificationEventRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Ambient services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Slots.CacheTTL, logr, true)

	// Outbound notification dispatch. The dispatcher boundary is narrow:
	// rendered messages leave through this queue and delivery is someone
	// else's problem.
	notifyQueue := jobs.NewQueue("notifications", func(ctx context.Context, job jobs.Job) error {
		event, ok := job.Payload.(*models.NotificationEvent)
		if !ok {
			return fmt.Errorf("unexpected notification payload %T", job.Payload)
		}
		logr.Info("notification dispatched",
			zap.String("kind", event.Kind),
			zap.String("phone", event.Phone),
			zap.String("appointment_id", event.AppointmentID))
		return nil
	}, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})

	notifySvc := service.NewNotificationService(
		eventRepo, notifyQueue, nil, metricsSvc,
		cfg.Business.Name, location, cfg.Notifications.TemplateTTL, nil, logr)

	redisOpt := asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Reminders.QueueDB,
	}
	var reminderScheduler *reminder.Scheduler
	var reminderWorker *reminder.Worker
	if cfg.Reminders.Enabled {
		reminderScheduler = reminder.NewScheduler(redisOpt, logr)
		defer reminderScheduler.Close()
		reminderWorker = reminder.NewWorker(redisOpt, cfg.Reminders.Concurrency, notifySvc, logr)
	}

	// Domain services.
	catalogSvc := service.NewCatalogService(catalogRepo, logr)
	slotSvc := service.NewSlotService(
		scheduleRepo, blockedRepo, overrideRepo, appointmentRepo,
		catalogSvc, cacheSvc, metricsSvc,
		service.SlotConfig{
			Location:               location,
			DefaultIntervalMinutes: cfg.Slots.DefaultIntervalMinutes,
			CacheTTL:               cfg.Slots.CacheTTL,
			MaxRangeDays:           cfg.Slots.MaxRangeDays,
		}, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, blockedRepo, overrideRepo, slotSvc, location, logr)

	var schedulerDep interface {
		Schedule(ctx context.Context, payload models.ReminderPayload, fireAt time.Time) error
	}
	if reminderScheduler != nil {
		schedulerDep = reminderScheduler
	}
	bookingSvc := service.NewBookingService(
		appointmentRepo, customerRepo, blockedRepo,
		catalogSvc, slotSvc, notifySvc, schedulerDep, userRepo, metricsSvc, nil,
		service.BookingConfig{
			IntegrityRetries: cfg.Booking.IntegrityRetries,
			ReminderLead:     cfg.Reminders.LeadTime,
		}, nil, logr)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "salonbook-api",
	})

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	slotHandler := handler.NewSlotHandler(slotSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
			auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
		}

		api.GET("/services", catalogHandler.List)
		api.GET("/services/:id", catalogHandler.Get)
		api.GET("/slots", slotHandler.ListForDate)
		api.GET("/slots/range", slotHandler.ListForRange)

		bookings := api.Group("/bookings")
		{
			bookings.POST("", bookingHandler.Create)
			bookings.GET("/:id", bookingHandler.Get)
			bookings.GET("/batch/:batchId", bookingHandler.GetBatch)

			staff := bookings.Group("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleStaff))
			{
				staff.POST("/:id/cancel", bookingHandler.Cancel)
				staff.POST("/:id/complete", bookingHandler.Complete)
				staff.POST("/:id/revert", bookingHandler.Revert)
			}
		}

		schedule := api.Group("/schedule", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
		{
			schedule.GET("/week", scheduleHandler.GetWeek)
			schedule.PUT("/week",
				middleware.Audit(userRepo, models.AuditActionScheduleReplace, "schedule"),
				scheduleHandler.ReplaceWeek)
			schedule.GET("/blocked-dates", scheduleHandler.ListBlocked)
			schedule.POST("/blocked-dates", scheduleHandler.BlockDates)
			schedule.DELETE("/blocked-dates", scheduleHandler.UnblockDates)
			schedule.GET("/overrides/:date", scheduleHandler.GetOverride)
			schedule.PUT("/overrides/:date", scheduleHandler.SetOverride)
			schedule.DELETE("/overrides/:date", scheduleHandler.RemoveOverride)
		}
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifyQueue.Start(rootCtx)
	defer notifyQueue.Stop()

	if reminderWorker != nil {
		if err := reminderWorker.Start(); err != nil {
			logr.Sugar().Fatalw("reminder worker failed to start", "error", err)
		}
		defer reminderWorker.Shutdown()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "timezone", cfg.Business.Timezone)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
