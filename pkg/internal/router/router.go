// Package router 管理路由配置，用于设置HTTP服务的路由.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/dropvault/pkg/middleware"
)

// RegisterRoutes 注册全部路由.
//
// 对外布局：
//
//	POST /api/v1/upload               单次上传
//	/api/v1/upload/chunked/...        分块上传会话
//	GET  /api/v1/s/:code              分享信息
//	GET  /s/:code/qrcode              分享二维码
//	GET  /d/:code                     下载
//	/api/v1/admin/...                 管理端（Basic 认证）
//	/api/v1/health/...                健康检查
//	/static/...                       横幅等静态资源
func RegisterRoutes(e *gin.Engine) {
	RegisterShareRoutes(e)

	api := e.Group("/api/v1")
	{
		RegisterUploadRoutes(api)
		RegisterShareAPIRoutes(api)
		RegisterHealthCheckRoute(api)

		admin := api.Group("/admin", middleware.AdminAuthMiddleware())
		{
			RegisterAdminRoutes(admin)
			RegisterSchedulerRoutes(admin)
		}
	}
}
