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
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	_ "github.com/erfannorozi54/Rashed-sub001/api/swagger"
	"github.com/erfannorozi54/Rashed-sub001/internal/repository"
	"github.com/erfannorozi54/Rashed-sub001/internal/service"
	"github.com/erfannorozi54/Rashed-sub001/pkg/cache"
	"github.com/erfannorozi54/Rashed-sub001/pkg/config"
	"github.com/erfannorozi54/Rashed-sub001/pkg/database"
	"github.com/erfannorozi54/Rashed-sub001/pkg/logger"
	corsmiddleware "github.com/erfannorozi54/Rashed-sub001/pkg/middleware/cors"
	reqidmiddleware "github.com/erfannorozi54/Rashed-sub001/pkg/middleware/requestid"
)

// @title Academy Scheduling API
// @version 1.0.0
// @description Teacher availability, session rescheduling and student debt.
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

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, schedule cache disabled", zap.Error(err))
		redisClient = nil
	}

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		repo := repository.NewCacheRepository(redisClient, logr)
		defer repo.Close() //nolint:errcheck
		cacheRepo = repo
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.ScheduleTTL, logr, cacheRepo != nil)

	validate := validator.New()
	loc := cfg.Scheduling.Location()

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	rescheduleRepo := repository.NewRescheduleRepository(db)

	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
	})

	availabilitySvc := service.NewAvailabilityService(service.AvailabilityServiceParams{
		Slots:      repository.NewAvailabilityRepository(db),
		Exceptions: repository.NewAvailabilityExceptionRepository(db),
		Sessions:   sessionRepo,
		Users:      userRepo,
		Tx:         db,
		Cache:      cacheSvc,
		Validator:  validate,
		Logger:     logr,
		Config:     service.AvailabilityConfig{Location: loc, ScheduleTTL: cfg.Cache.ScheduleTTL},
	})

	debtSvc := service.NewDebtService(enrollmentRepo, sessionRepo, rescheduleRepo, userRepo, logr, service.DebtConfig{Horizon: cfg.Scheduling.DebtHorizon})
	exportSvc := service.NewExportService(debtSvc, logr, nil, nil)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, classRepo, sessionRepo, paymentRepo, db, logr)
	sessionSvc := service.NewSessionService(sessionRepo, classRepo, availabilitySvc, validate, logr)
	rescheduleSvc := service.NewRescheduleService(service.RescheduleServiceParams{
		Sessions:     sessionRepo,
		Classes:      classRepo,
		Enrollments:  enrollmentRepo,
		Reschedules:  rescheduleRepo,
		Users:        userRepo,
		Debts:        debtSvc,
		Availability: availabilitySvc,
		Invalidator:  availabilitySvc,
		Metrics:      metrics,
		Tx:           db,
		Validator:    validate,
		Logger:       logr,
		Config: service.RescheduleConfig{
			FeeRate:          cfg.Scheduling.RescheduleFeeRate,
			Notice:           cfg.Scheduling.RescheduleNotice,
			DefaultDebtLimit: decimal.NewFromInt(cfg.Scheduling.DefaultMaxDebtLimit),
		},
	})
	paymentSvc := service.NewPaymentService(paymentRepo, enrollmentRepo, db, validate, logr)
	refundSvc := service.NewRefundService(refundRepo, paymentRepo, enrollmentRepo, db, validate, logr)
	brandingSvc := service.NewBrandingService(nil, logr, service.BrandingConfig{
		LogoURL:      cfg.Branding.LogoURL,
		TTL:          cfg.Branding.LogoTTL,
		FetchTimeout: cfg.Branding.FetchTimeout,
	})

	scheduler := cron.New(cron.WithLocation(loc))
	if cfg.Branding.LogoURL != "" {
		if _, err := brandingSvc.Schedule(scheduler, cfg.Branding.RefreshSpec); err != nil {
			logr.Fatal("invalid branding refresh schedule", zap.Error(err))
		}
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()
	brandingSvc.Warm(context.Background())

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	registerRoutes(r, cfg, routeDeps{
		db:           db,
		auth:         authSvc,
		metrics:      metrics,
		availability: availabilitySvc,
		debts:        debtSvc,
		exports:      exportSvc,
		enrollments:  enrollmentSvc,
		sessions:     sessionSvc,
		reschedules:  rescheduleSvc,
		payments:     paymentSvc,
		refunds:      refundSvc,
		branding:     brandingSvc,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
