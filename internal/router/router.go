package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/3stan1104/GeneFlow/internal/config"
	"github.com/3stan1104/GeneFlow/internal/handler"
	"github.com/3stan1104/GeneFlow/internal/middleware"
	"github.com/3stan1104/GeneFlow/internal/response"
	"github.com/3stan1104/GeneFlow/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth  *handler.AuthHandler
	User  *handler.UserHandler
	Setup *handler.SetupHandler
	Login *handler.LoginHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()
	router.HandleMethodNotAllowed = true

	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", middleware.HeaderAPISecret}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		// Token issuance and the legacy HTML login page are public.
		api.POST("/auth/token", handlers.Auth.IssueToken)
		api.POST("/login", handlers.Login.Login)

		// Bootstrap endpoint, intentionally open: it can only create or
		// repair the configured admin account.
		api.POST("/setup/ensureAdmin", handlers.Setup.EnsureAdmin)

		userAPI := api.Group("/user")
		{
			gate := middleware.RequireTokenOrSecret(authService)
			userAPI.POST("/create", gate, handlers.User.Create)
			userAPI.PUT("/update", gate, handlers.User.Update)
			userAPI.PATCH("/update", gate, handlers.User.Update)

			// The remaining operations ship without a gate, matching the
			// deployed surface the dashboard consumes.
			userAPI.DELETE("/delete", handlers.User.Delete)
			userAPI.GET("/getAll", handlers.User.GetAll)
			userAPI.POST("/resetPassword", handlers.User.ResetPassword)
		}

		// Legacy users grid.
		api.GET("/users", handlers.User.ListSummaries)
	}

	return router
}
