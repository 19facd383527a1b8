package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sangkips/crm-backend/internal/config"
	domainRepo "github.com/sangkips/crm-backend/internal/domain/repository"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/sangkips/crm-backend/internal/infrastructure/observability"
	"github.com/sangkips/crm-backend/internal/presentation/http/dto/request"
	"github.com/sangkips/crm-backend/internal/presentation/http/dto/response"
	"github.com/sangkips/crm-backend/internal/presentation/http/handler"
	"github.com/sangkips/crm-backend/internal/presentation/http/middleware"
	"github.com/sangkips/crm-backend/pkg/utils"
	"go.uber.org/zap"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Lead      *handler.LeadHandler
	Quotation *handler.QuotationHandler
	Report    *handler.ReportHandler
	Settings  *handler.SettingsHandler
	Upload    *handler.UploadHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	Logger          *zap.Logger
	Metrics         *observability.Metrics
	// Ping reports whether the database is reachable. Optional.
	Ping func(ctx context.Context) error
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	request.RegisterValidators()
	response.ExposeInternalErrors(deps.Cfg.App.IsDevelopment())

	router := gin.New()
	router.MaxMultipartMemory = deps.Cfg.Storage.UploadMaxSize

	// Global middleware
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.LoggerMiddleware(deps.Logger, deps.Metrics))
	router.Use(middleware.SecureHeaders(deps.Cfg.App.IsDevelopment()))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", health(deps))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{})))
	}
	if deps.Cfg.Storage.Mode != "azure" {
		router.Static(deps.Cfg.Storage.PublicURL, deps.Cfg.Storage.Path)
	}

	api := router.Group("/api")
	registerAuthRoutes(api, h, deps)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(deps.JWTManager))

	window := time.Duration(deps.Cfg.RateLimit.Duration) * time.Second
	limiter := middleware.NewUserRateLimiter(middleware.RateLimiterConfig{
		Requests: deps.Cfg.RateLimit.Requests,
		Window:   window,
	})
	protected.Use(limiter.Middleware())
	protected.Use(middleware.Idempotency(middleware.IdempotencyConfig{
		Repo:   deps.IdempotencyRepo,
		Logger: deps.Logger,
	}))

	registerProtectedRoutes(protected, h)
	return router
}

func health(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": deps.Cfg.App.Name})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": deps.Cfg.App.Name})
	}
}

func registerAuthRoutes(api *gin.RouterGroup, h *Handlers, deps *Deps) {
	auth := api.Group("/auth")
	public := auth.Group("", middleware.IPRateLimit(deps.Cfg.RateLimit.AuthPerMinute))
	{
		public.POST("/register", h.Auth.Register)
		public.POST("/login", h.Auth.Login)
		public.POST("/refresh", h.Auth.RefreshToken)
		public.POST("/forgot-password", h.Auth.ForgotPassword)
		public.POST("/reset-password", h.Auth.ResetPassword)
	}

	private := auth.Group("", middleware.AuthMiddleware(deps.JWTManager))
	{
		private.GET("/me", h.Auth.Me)
		private.POST("/logout", h.Auth.Logout)
		private.POST("/change-password", h.Auth.ChangePassword)
	}
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers) {
	registerUserRoutes(protected, h)
	registerLeadRoutes(protected, h)
	registerQuotationRoutes(protected, h)
	registerReportRoutes(protected, h)
	registerSettingsRoutes(protected, h)
	registerUploadRoutes(protected, h)
}

func registerUserRoutes(protected *gin.RouterGroup, h *Handlers) {
	users := protected.Group("/users")
	{
		users.GET("", middleware.RequireRole(enum.RoleAdmin, enum.RoleManager), h.User.List)
		users.GET("/:id", h.User.Get)
		users.PUT("/:id", h.User.Update)
		users.DELETE("/:id", h.User.Delete)
		users.PUT("/:id/settings", h.User.UpdateSettings)
		users.PUT("/:id/security", h.User.UpdateSecurity)
		users.GET("/:id/login-history", h.User.LoginHistory)
	}
}

func registerLeadRoutes(protected *gin.RouterGroup, h *Handlers) {
	leads := protected.Group("/leads")
	{
		leads.GET("", h.Lead.List)
		leads.POST("", h.Lead.Create)
		leads.GET("/stats", h.Lead.Stats)
		leads.GET("/:id", h.Lead.Get)
		leads.PUT("/:id", h.Lead.Update)
		leads.DELETE("/:id", h.Lead.Delete)
		leads.POST("/:id/activities", h.Lead.AddActivity)
	}
}

func registerQuotationRoutes(protected *gin.RouterGroup, h *Handlers) {
	quotations := protected.Group("/quotations")
	{
		quotations.GET("", h.Quotation.List)
		quotations.POST("", h.Quotation.Create)
		quotations.GET("/stats", h.Quotation.Stats)
		quotations.GET("/:id", h.Quotation.Get)
		quotations.PUT("/:id", h.Quotation.Update)
		quotations.DELETE("/:id", h.Quotation.Delete)
		quotations.POST("/:id/send", h.Quotation.Send)
	}
}

func registerReportRoutes(protected *gin.RouterGroup, h *Handlers) {
	reports := protected.Group("/reports")
	{
		reports.GET("/leads", h.Report.Leads)
		reports.GET("/quotations", h.Report.Quotations)
		reports.GET("/conversion", h.Report.Conversion)
		reports.GET("/sales-performance", h.Report.SalesPerformance)
		reports.GET("/dashboard-stats", h.Report.DashboardStats)
	}
}

func registerSettingsRoutes(protected *gin.RouterGroup, h *Handlers) {
	settings := protected.Group("/settings")
	{
		settings.GET("/company", h.Settings.GetCompany)
		settings.PUT("/company", h.Settings.UpdateCompany)
		settings.POST("/company/logo", h.Settings.UploadLogo)
		settings.POST("/custom-fields", h.Settings.AddCustomField)
		settings.PUT("/custom-fields/:fieldId", h.Settings.UpdateCustomField)
		settings.DELETE("/custom-fields/:fieldId", h.Settings.DeleteCustomField)
	}
}

func registerUploadRoutes(protected *gin.RouterGroup, h *Handlers) {
	upload := protected.Group("/upload")
	{
		upload.POST("/avatar", h.Upload.Avatar)
		upload.POST("/document", h.Upload.Document)
	}
}
