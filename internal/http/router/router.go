// Package router builds the Gin engine from the registered domain modules.
package router

import (
	"net/http"

	apphttp "homeserve_backend/internal/http"
	"homeserve_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// New constructs the engine, mounts shared middleware, and lets every
// module register its routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())

	corsConfig := cors.DefaultConfig()
	if app.Config.GetCORSAllowAll() {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = app.Config.GetCORSOrigins()
		corsConfig.AllowCredentials = app.Config.GetCORSAllowCreds()
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	engine.Use(cors.New(corsConfig))

	limiter := httpkit.NewIPRateLimiter(50, 100, app.Logger)
	engine.Use(limiter.RateLimit())

	engine.GET("/api/health", func(c *gin.Context) {
		if app.Health != nil {
			if err := app.Health.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	authMiddleware := httpkit.AuthRequired(app.Config)
	protected := v1.Group("")
	protected.Use(authMiddleware)

	routerCtx := &apphttp.RouterContext{
		Engine:             engine,
		V1:                 v1,
		Protected:          protected,
		Config:             app.Config,
		AuthMiddleware:     authMiddleware,
		EnquiryRateLimiter: httpkit.NewEnquiryRateLimiter(app.Logger),
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(routerCtx)
		app.Logger.Info("module routes registered", "module", module.Name())
	}

	return engine
}
