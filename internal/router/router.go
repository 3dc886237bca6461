// Package router wires handlers, middleware chains and route groups onto
// the Echo instance.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/evgkirov/member-content-system/internal/auth"
	"github.com/evgkirov/member-content-system/internal/config"
	"github.com/evgkirov/member-content-system/internal/handler"
	"github.com/evgkirov/member-content-system/internal/middleware"
	"github.com/evgkirov/member-content-system/internal/service"
	"github.com/evgkirov/member-content-system/internal/storage"
)

// Deps bundles everything the routes need.
type Deps struct {
	Cfg      config.Config
	DB       *sql.DB
	Redis    *redis.Client
	Sessions *auth.Service
	Blobs    *storage.BlobStore
	Events   *service.AuditPublisher
}

// New builds the Echo instance with all routes registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.Cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	e.GET("/healthz", handler.Health(d.DB))
	e.Static("/uploads", d.Blobs.Dir())

	authH := handler.NewAuthHandler(d.Sessions, d.Events)
	memberH := handler.NewMemberHandler(d.DB, d.Cfg.BcryptCost, d.Events)
	categoryH := handler.NewCategoryHandler(d.DB, d.Events)
	contentH := handler.NewContentHandler(d.DB, d.Events)
	mediaH := handler.NewMediaHandler(d.DB, d.Blobs, d.Events)
	auditH := handler.NewAuditHandler(d.DB, d.Events)
	dashH := handler.NewDashboardHandler(d.DB)

	// Login is the only unauthenticated route and the only rate-limited
	// one: brute forcing credentials is the abuse vector here.
	e.POST("/api/auth/login", authH.Login,
		middleware.LoginRateLimit(d.Redis, d.Cfg.RateLimitWindowSec, d.Cfg.RateLimitMax))

	api := e.Group("/api")
	api.Use(middleware.Authenticate(d.Sessions))

	api.POST("/auth/logout", authH.Logout)
	api.GET("/auth/me", authH.Me)

	api.GET("/categories", categoryH.List)
	api.GET("/contents", contentH.List)
	api.GET("/contents/:id", contentH.Get)
	api.POST("/audit/track", auditH.Track)

	admin := api.Group("", middleware.RequireAdmin())
	admin.GET("/members", memberH.List)
	admin.POST("/members", memberH.Create)
	admin.GET("/members/:id", memberH.Get)
	admin.PUT("/members/:id", memberH.Update)
	admin.DELETE("/members/:id", memberH.Delete)
	admin.PUT("/members/:id/password", memberH.ChangePassword)
	admin.POST("/members/:id/force-logout", memberH.ForceLogout)

	admin.POST("/categories", categoryH.Create)
	admin.PUT("/categories/:id", categoryH.Update)
	admin.DELETE("/categories/:id", categoryH.Delete)

	admin.POST("/contents", contentH.Create)
	admin.PUT("/contents/:id", contentH.Update)
	admin.DELETE("/contents/:id", contentH.Delete)

	admin.GET("/media", mediaH.List)
	admin.POST("/media/upload", mediaH.Upload)
	admin.DELETE("/media/:id", mediaH.Delete)

	admin.GET("/audit/logs", auditH.Logs)
	admin.GET("/dashboard", dashH.Overview)

	return e
}
