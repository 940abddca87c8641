package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/hall-booking-api/internal/handler"
	"github.com/noah-isme/hall-booking-api/internal/middleware"
	"github.com/noah-isme/hall-booking-api/internal/models"
	"github.com/noah-isme/hall-booking-api/internal/service"
	"github.com/noah-isme/hall-booking-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/hall-booking-api/pkg/middleware/cors"
	"github.com/noah-isme/hall-booking-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/noah-isme/hall-booking-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	Auth         *handler.AuthHandler
	Users        *handler.UserHandler
	Bookings     *handler.BookingHandler
	Calendar     *handler.CalendarHandler
	BlockedTimes *handler.BlockedTimeHandler
	Subscription *handler.SubscriptionHandler
	Metrics      *handler.MetricsHandler
}

// Options carries the cross-cutting dependencies of the router.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Tokens         middleware.TokenValidator
	Audit          middleware.AuditWriter
	MetricsService *service.MetricsService
	LoginLimiter   *ratelimit.Limiter
	Logger         *zap.Logger
}

// New builds the gin engine with global middleware and all routes.
func New(opts Options, h Handlers) *gin.Engine {
	probes := []string{"/health", "/ready", "/metrics"}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger, probes...))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.MetricsService, probes...))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(opts.APIPrefix)
	registerAuth(api, opts, h)
	registerBookings(api, opts, h)
	registerAdmin(api, opts, h)

	return r
}

func registerAuth(api *gin.RouterGroup, opts Options, h Handlers) {
	auth := api.Group("/auth")
	throttled := auth.Group("")
	if opts.LoginLimiter != nil {
		throttled.Use(ratelimit.Middleware(opts.LoginLimiter, opts.Logger))
	}
	throttled.POST("/login", h.Auth.Login)
	throttled.POST("/register", h.Auth.Register)
	auth.POST("/refresh", h.Auth.Refresh)

	secured := auth.Group("")
	secured.Use(middleware.JWT(opts.Tokens))
	secured.POST("/logout", h.Auth.Logout)
	secured.POST("/change-password", middleware.Audit(opts.Audit, opts.Logger, models.AuditActionPasswordChange, "auth"), h.Auth.ChangePassword)
}

func registerBookings(api *gin.RouterGroup, opts Options, h Handlers) {
	public := api.Group("")
	public.Use(middleware.OptionalJWT(opts.Tokens))
	public.GET("/calendar", h.Calendar.Day)
	public.GET("/blocked-times", h.BlockedTimes.List)
	public.GET("/subscription-plans", h.Subscription.Plans)

	secured := api.Group("")
	secured.Use(middleware.JWT(opts.Tokens))

	secured.GET("/me", h.Users.Me)
	secured.PATCH("/me", h.Users.UpdateProfile)
	secured.GET("/me/bookings", h.Bookings.Mine)
	secured.GET("/me/subscription", h.Subscription.Mine)

	bookings := secured.Group("/bookings")
	bookings.POST("", h.Bookings.Create)
	bookings.GET("", h.Bookings.List)
	bookings.GET("/:id", h.Bookings.Get)
	bookings.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), middleware.Audit(opts.Audit, opts.Logger, models.AuditActionBookingUpdate, "bookings"), h.Bookings.Update)
	bookings.DELETE("/:id", middleware.Audit(opts.Audit, opts.Logger, models.AuditActionBookingDelete, "bookings"), h.Bookings.Delete)

	blocked := secured.Group("/blocked-times")
	blocked.Use(middleware.RequireRoles(models.RoleAdmin))
	blocked.POST("", h.BlockedTimes.Create)
	blocked.PUT("/:id", h.BlockedTimes.Update)
	blocked.DELETE("/:id", h.BlockedTimes.Delete)
}

func registerAdmin(api *gin.RouterGroup, opts Options, h Handlers) {
	admin := api.Group("/admin")
	admin.Use(middleware.JWT(opts.Tokens), middleware.RequireRoles(models.RoleAdmin))

	admin.GET("/users", h.Users.List)
	admin.PATCH("/users/:id/role", h.Users.UpdateRole)
	admin.DELETE("/users/:id", h.Users.Delete)
	admin.PUT("/users/:id/subscription", middleware.Audit(opts.Audit, opts.Logger, models.AuditActionSubscriptionUpsert, "subscriptions"), h.Subscription.Assign)
	admin.DELETE("/users/:id/subscription", middleware.Audit(opts.Audit, opts.Logger, models.AuditActionSubscriptionUpsert, "subscriptions"), h.Subscription.Cancel)
	admin.GET("/bookings/export", h.Bookings.Export)
	admin.DELETE("/sessions/expired", h.Auth.DeleteExpiredSessions)
}
