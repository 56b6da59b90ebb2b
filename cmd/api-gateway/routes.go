package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/erfannorozi54/Rashed-sub001/internal/handler"
	"github.com/erfannorozi54/Rashed-sub001/internal/middleware"
	"github.com/erfannorozi54/Rashed-sub001/internal/models"
	"github.com/erfannorozi54/Rashed-sub001/internal/service"
	"github.com/erfannorozi54/Rashed-sub001/pkg/config"
)

type routeDeps struct {
	db           *sqlx.DB
	auth         *service.AuthService
	metrics      *service.MetricsService
	availability *service.AvailabilityService
	debts        *service.DebtService
	exports      *service.ExportService
	enrollments  *service.EnrollmentService
	sessions     *service.SessionService
	reschedules  *service.RescheduleService
	payments     *service.PaymentService
	refunds      *service.RefundService
	branding     *service.BrandingService
}

func registerRoutes(r *gin.Engine, cfg *config.Config, deps routeDeps) {
	metricsHandler := handler.NewMetricsHandler(deps.metrics, deps.db)
	availabilityHandler := handler.NewAvailabilityHandler(deps.availability)
	debtHandler := handler.NewDebtHandler(deps.debts, deps.exports)
	enrollmentHandler := handler.NewEnrollmentHandler(deps.enrollments)
	sessionHandler := handler.NewSessionHandler(deps.sessions, deps.reschedules)
	billingHandler := handler.NewBillingHandler(deps.payments, deps.refunds)
	brandingHandler := handler.NewBrandingHandler(deps.branding)

	r.Use(middleware.Metrics(deps.metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/branding/logo", brandingHandler.Logo)
	api.GET("/pricing/enrollment", debtHandler.Pricing)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.auth))

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	students := middleware.RequireRoles(models.RoleStudent)

	secured.GET("/metrics/summary", adminOnly, metricsHandler.Summary)

	teachers := secured.Group("/teachers/:id")
	teachers.GET("/free-slots", availabilityHandler.FreeSlots)
	teachers.GET("/weekly-schedule", availabilityHandler.WeeklySchedule)
	teachers.GET("/weekly-schedule/ics", availabilityHandler.WeeklyScheduleICS)
	teachers.GET("/availability", availabilityHandler.GetAvailability)
	teachers.PUT("/availability", staff, availabilityHandler.ReplaceAvailability)
	teachers.GET("/availability/exceptions", availabilityHandler.ListExceptions)
	teachers.POST("/availability/exceptions", staff, availabilityHandler.CreateException)
	secured.DELETE("/availability/exceptions/:id", staff, availabilityHandler.DeleteException)

	studentsGroup := secured.Group("/students/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleTeacher), "SELF"))
	studentsGroup.GET("/debt", debtHandler.GetDebt)
	studentsGroup.GET("/debt/statement", debtHandler.Statement)

	classes := secured.Group("/classes/:id")
	classes.GET("/quote", enrollmentHandler.Quote)
	classes.POST("/enroll", students, enrollmentHandler.Join)
	classes.DELETE("/enroll", students, enrollmentHandler.Withdraw)
	classes.POST("/sessions", staff, sessionHandler.Create)

	sessions := secured.Group("/sessions/:id")
	sessions.POST("/cancel", staff, sessionHandler.Cancel)
	sessions.POST("/reschedule", students, sessionHandler.Reschedule)

	secured.POST("/payments", students, billingHandler.CreatePayment)
	secured.POST("/payments/:id/settle", adminOnly, billingHandler.SettlePayment)
	secured.POST("/refunds", students, billingHandler.RequestRefund)
	secured.POST("/refunds/:id/approve", adminOnly, billingHandler.ApproveRefund)
	secured.POST("/refunds/:id/reject", adminOnly, billingHandler.RejectRefund)
}
