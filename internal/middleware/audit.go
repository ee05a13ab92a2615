package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/contact-console/internal/models"
)

// Audit logs successful administrator mutations under action.
func Audit(logger *zap.Logger, action string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("audit")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		fields := []zap.Field{
			zap.String("action", action),
			zap.String("resource_id", c.Param("id")),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.GetHeader("User-Agent")),
			zap.Duration("latency", time.Since(start)),
		}
		if claims, ok := c.Get(ContextAdminKey); ok {
			if admin, ok := claims.(*models.JWTClaims); ok {
				fields = append(fields, zap.String("admin_id", admin.AdminID), zap.String("admin_email", admin.Email))
			}
		}
		logger.Info("admin action", fields...)
	}
}
