package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sdmtech/sdmcrm/internal/application/services"
	"github.com/sdmtech/sdmcrm/internal/interfaces/middleware"
	"go.uber.org/zap"
)

// RouterConfig carries what the router needs beyond the services.
type RouterConfig struct {
	CORSOrigins []string
	// Ping reports database health for /health.
	Ping func(ctx context.Context) error
	// Authenticator overrides the auth service for token validation.
	Authenticator middleware.Authenticator
}

// NewRouter builds the HTTP API on top of the service manager.
func NewRouter(svcMgr *services.ServiceManager, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.Cors(cfg.CORSOrigins))

	router.GET("/health", func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if cfg.Ping != nil {
			if err := cfg.Ping(c.Request.Context()); err != nil {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{"status": status, "server": "golang"})
	})

	// Initialize handlers
	authHandler := NewAuthHandler(svcMgr.Auth, svcMgr.AuthStream)
	profileHandler := NewProfileHandler(svcMgr.Profiles)
	employeeHandler := NewEmployeeHandler(svcMgr.Employees)
	taskHandler := NewTaskHandler(svcMgr.Tasks)
	analyticsHandler := NewAnalyticsHandler(svcMgr.Analytics)
	jobHandler := NewJobHandler(svcMgr.Jobs)
	siteHandler := NewSiteHandler(svcMgr.Content)
	notificationHandler := NewNotificationHandler(svcMgr.Notification)
	fileHandler := NewFileHandler(svcMgr.Storage)

	// Initialize middleware
	var authn middleware.Authenticator = svcMgr.Auth
	if cfg.Authenticator != nil {
		authn = cfg.Authenticator
	}
	requireAuth := middleware.RequireAuth(authn)
	requireStaff := middleware.RequireStaff()
	requireAdmin := middleware.RequireAdmin()

	// Stored objects
	files := router.Group("/files")
	{
		files.GET("/signed/:token", fileHandler.ServeSigned)
		files.GET("/:bucket/*path", fileHandler.ServePublic)
	}

	api := router.Group("/api")
	{
		// Public Auth routes (no authentication required)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.SignUp)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", requireAuth, authHandler.Logout)
			auth.GET("/session", requireAuth, authHandler.Session)
			auth.POST("/change-password", requireAuth, authHandler.ChangePassword)
			auth.GET("/events", middleware.RequireAuthSSE(authn), authHandler.Events)
		}

		// Public marketing site
		site := api.Group("/site")
		{
			site.GET("/services", siteHandler.Services)
			site.GET("/testimonials", siteHandler.Testimonials)
			site.GET("/content", siteHandler.Content)
			site.POST("/contact", siteHandler.Contact)
		}

		jobs := api.Group("/jobs")
		{
			jobs.GET("", jobHandler.ListActive)
			jobs.GET("/:id", jobHandler.Get)
			jobs.POST("/:id/apply", requireAuth, jobHandler.Apply)
		}

		// Any signed-in user
		profile := api.Group("/profile")
		profile.Use(requireAuth)
		{
			profile.GET("", profileHandler.Get)
			profile.PATCH("", profileHandler.Update)
			profile.POST("/avatar", profileHandler.UploadAvatar)
			profile.GET("/applications", jobHandler.MyApplications)
		}

		notifications := api.Group("/notifications")
		notifications.Use(requireAuth)
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.POST("/read-all", notificationHandler.MarkAllAsRead)
			notifications.POST("/:id/read", notificationHandler.MarkAsRead)
		}

		// CRM: staff routes, with admin-only subgroups
		crm := api.Group("/crm")
		crm.Use(requireAuth, requireStaff)
		{
			crm.GET("/dashboard", analyticsHandler.Dashboard)
			crm.GET("/performance", analyticsHandler.Performance)

			crm.GET("/my-tasks", taskHandler.MyTasks)
			crm.POST("/my-tasks/:id/start", taskHandler.Start)
			crm.POST("/my-tasks/:id/submit", taskHandler.Submit)
			crm.POST("/my-tasks/:id/rework", taskHandler.Rework)
			crm.GET("/my-submissions", taskHandler.MySubmissions)

			crmAdmin := crm.Group("")
			crmAdmin.Use(requireAdmin)
			{
				crmAdmin.GET("/analytics", analyticsHandler.Analytics)

				crmAdmin.GET("/employees", employeeHandler.List)
				crmAdmin.PATCH("/employees/:userId", employeeHandler.Update)
				crmAdmin.POST("/employees/:userId/toggle-active", employeeHandler.ToggleActive)
				crmAdmin.PUT("/employees/:userId/role", employeeHandler.AssignRole)

				crmAdmin.GET("/tasks", taskHandler.List)
				crmAdmin.POST("/tasks", taskHandler.Create)
				crmAdmin.GET("/tasks/:id", taskHandler.Get)
				crmAdmin.PATCH("/tasks/:id", taskHandler.Update)
				crmAdmin.DELETE("/tasks/:id", taskHandler.Delete)

				crmAdmin.GET("/submissions", taskHandler.Submissions)
				crmAdmin.POST("/submissions/:id/review", taskHandler.Review)
			}
		}

		// Site administration
		admin := api.Group("/admin")
		admin.Use(requireAuth, requireAdmin)
		{
			admin.GET("/jobs", jobHandler.ListAll)
			admin.POST("/jobs", jobHandler.Create)
			admin.PUT("/jobs/:id", jobHandler.Update)
			admin.POST("/jobs/:id/toggle-active", jobHandler.ToggleActive)
			admin.DELETE("/jobs/:id", jobHandler.Delete)

			admin.GET("/applications", jobHandler.Applications)
			admin.PATCH("/applications/:id/status", jobHandler.UpdateApplicationStatus)
			admin.DELETE("/applications/:id", jobHandler.DeleteApplication)
			admin.GET("/applications/:id/resume", jobHandler.Resume)

			admin.GET("/services", siteHandler.AllServices)
			admin.POST("/services", siteHandler.CreateService)
			admin.PUT("/services/:id", siteHandler.UpdateService)
			admin.POST("/services/:id/toggle-active", siteHandler.ToggleService)
			admin.DELETE("/services/:id", siteHandler.DeleteService)

			admin.GET("/testimonials", siteHandler.AllTestimonials)
			admin.POST("/testimonials", siteHandler.CreateTestimonial)
			admin.PUT("/testimonials/:id", siteHandler.UpdateTestimonial)
			admin.POST("/testimonials/:id/toggle-active", siteHandler.ToggleTestimonial)
			admin.DELETE("/testimonials/:id", siteHandler.DeleteTestimonial)

			admin.GET("/content", siteHandler.Content)
			admin.PUT("/content", siteHandler.UpdateContent)

			admin.GET("/contacts", siteHandler.Contacts)
			admin.POST("/contacts/:id/toggle-read", siteHandler.ToggleContactRead)
			admin.DELETE("/contacts/:id", siteHandler.DeleteContact)

			admin.POST("/files", fileHandler.UploadCompanyData)
		}
	}

	return router
}
