package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/storekit/storefront_backend/cmd/docs"
	portsrepo "github.com/storekit/storefront_backend/internal/core/ports/repositories"
	portssvc "github.com/storekit/storefront_backend/internal/core/ports/services"
	"github.com/storekit/storefront_backend/internal/middleware"
	"github.com/storekit/storefront_backend/internal/platform/config"
	"github.com/storekit/storefront_backend/internal/utils/telemetry"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"

	swaggerFiles "github.com/swaggo/files"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	repos portsrepo.RepositoryProvider,
	posthogClient *telemetry.PosthogClientWrapper,
	limiterInstance *limiter.Limiter,
) {

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	registerHomeRoutes(r)

	// Setup API v1 routes with Auth Middleware, passing service interfaces
	setupAPIV1Routes(r, cfg, services, repos, posthogClient, limiterInstance)

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	repos portsrepo.RepositoryProvider,
	posthogClient *telemetry.PosthogClientWrapper,
	limiterInstance *limiter.Limiter,
) {
	// Apply AuthMiddleware to the entire v1 group
	v1 := r.Group("/api/v1",
		middleware.AuthMiddleware(cfg.JWTSecret),
		middleware.RateLimit(limiterInstance),
		middleware.PosthogMiddleware(posthogClient),
	)

	// Watch endpoints build per-request sync controllers directly over the
	// document subscriptions, bypassing the service layer.
	watcher := newWatchHandler(repos)

	// Delegate route registration to specific handlers, passing required services
	registerCartRoutes(v1, services.Cart, watcher)
	registerOrderRoutes(v1, services.Order, watcher)
	registerExpenseRoutes(v1, services.Expense, watcher)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	// Swagger setup
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
