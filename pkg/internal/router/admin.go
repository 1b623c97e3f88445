package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/dropvault/pkg/internal/handle"
)

// RegisterAdminRoutes 注册管理端路由. 调用方负责挂认证中间件.
func RegisterAdminRoutes(g *gin.RouterGroup) {
	// 运行时设置
	g.GET("/settings", handle.GetSettings)
	g.PUT("/settings", handle.UpdateSettings)

	// 文件管理
	filesGroup := g.Group("/files")
	{
		filesGroup.GET("", handle.ListFiles)
		filesGroup.DELETE("/:id", handle.DeleteFile)
	}

	// 回收与清空
	g.POST("/cleanup", handle.TriggerCleanup)
	g.POST("/purge", handle.PurgeVault)

	// 统计
	statsGroup := g.Group("/stats")
	{
		statsGroup.GET("", handle.SiteStats)
		statsGroup.GET("/downloads", handle.DownloadStats)
		statsGroup.GET("/visitors", handle.ListVisitors)
	}

	// 横幅
	bannersGroup := g.Group("/banners")
	{
		bannersGroup.GET("", handle.ListBanners)
		bannersGroup.POST("", handle.CreateBanner)
		bannersGroup.PUT("/:id", handle.UpdateBanner)
		bannersGroup.DELETE("/:id", handle.DeleteBanner)
	}
}
