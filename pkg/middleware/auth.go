// Package middleware 提供中间件功能.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/dropvault/pkg/internal/service"
)

// AdminAuthMiddleware 管理端 HTTP Basic 认证.
// 凭据存放在 settings 表（用户名明文、密码 bcrypt 哈希），
// 每次请求实时校验，管理端改密后立即生效.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="dropvault admin"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})

			return
		}

		settings := service.NewSettingsService(c.Request.Context())
		if !settings.VerifyAdmin(c.Request.Context(), user, pass) {
			c.Header("WWW-Authenticate", `Basic realm="dropvault admin"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})

			return
		}

		c.Next()
	}
}
