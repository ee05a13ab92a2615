package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/contact-console/internal/middleware"
	"github.com/noah-isme/contact-console/internal/models"
	"github.com/noah-isme/contact-console/internal/service"
)

// Routes bundles what RegisterRoutes mounts.
type Routes struct {
	Contacts      *ContactHandler
	Auth          *AuthHandler
	Metrics       *MetricsHandler
	AuthService   *service.AuthService
	SubmitLimiter *middleware.IPRateLimiter
	Logger        *zap.Logger
}

// RegisterRoutes mounts the contact API on group.
func RegisterRoutes(group *gin.RouterGroup, routes Routes) {
	guard := middleware.JWT(routes.AuthService)
	admins := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)

	group.GET("/health", routes.Metrics.Health)

	auth := group.Group("/auth")
	auth.POST("/login", routes.Auth.Login)
	auth.GET("/me", guard, routes.Auth.Me)

	contacts := group.Group("/contact")
	contacts.POST("/submit", middleware.RateLimit(routes.SubmitLimiter), routes.Contacts.Submit)
	contacts.GET("", guard, admins, routes.Contacts.List)
	contacts.GET("/stats", guard, admins, routes.Contacts.Stats)
	contacts.GET("/:id", guard, admins, routes.Contacts.Get)
	contacts.PATCH("/:id", guard, admins, middleware.Audit(routes.Logger, "contact.update"), routes.Contacts.Update)
}
