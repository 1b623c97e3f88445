package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yeisme/dropvault/pkg/internal/service"
)

const (
	visitorCookieName = "dv_visitor"
	visitorCookieAge  = int(365 * 24 * time.Hour / time.Second)
)

// VisitorMiddleware 为每个浏览器发放访客 cookie 并滚动记录活跃时间，
// 站点统计的"在线人数"由此得来. 记录失败不影响请求.
func VisitorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		visitorID, err := c.Cookie(visitorCookieName)
		if err != nil || visitorID == "" {
			visitorID = uuid.NewString()
			c.SetCookie(visitorCookieName, visitorID, visitorCookieAge, "/", "", false, true)
		}

		svc := service.NewFileService(c.Request.Context())
		_ = svc.TrackVisitor(c.Request.Context(), visitorID, c.ClientIP(), c.Request.UserAgent(), c.Request.URL.Path)

		c.Next()
	}
}
