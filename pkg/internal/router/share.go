package router

import (
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/dropvault/pkg/cache"
	ctxPkg "github.com/yeisme/dropvault/pkg/context"
	"github.com/yeisme/dropvault/pkg/internal/handle"
	"github.com/yeisme/dropvault/pkg/internal/service"
	"github.com/yeisme/dropvault/pkg/middleware"
)

const qrCacheTTL = time.Hour

// compressionMiddleware 按运行时设置决定是否压缩响应.
// 设置实时读库，管理端关闭压缩后立即生效.
func compressionMiddleware() gin.HandlerFunc {
	gz := gzip.Gzip(gzip.DefaultCompression)

	return func(c *gin.Context) {
		settings := service.NewSettingsService(c.Request.Context())
		if settings.CompressionEnabled(c.Request.Context()) {
			gz(c)

			return
		}

		c.Next()
	}
}

// RegisterShareRoutes 注册引擎根部的分享与下载路由.
func RegisterShareRoutes(e *gin.Engine) {
	share := e.Group("/s", middleware.VisitorMiddleware())
	{
		share.GET("/:code/qrcode", qrCacheMiddleware(), handle.ShareQRCode)
	}

	e.GET("/d/:code", middleware.VisitorMiddleware(), compressionMiddleware(), handle.DownloadFile)

	// 横幅点击跳转
	e.GET("/b/:id", middleware.VisitorMiddleware(), handle.BannerClick)
}

// qrCacheMiddleware 二维码按分享码整响应缓存，KV 未初始化时直通.
func qrCacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		kvc := ctxPkg.GetKVClient(c.Request.Context())
		if kvc == nil {
			c.Next()

			return
		}

		cfg := middleware.DefaultCacheConfig(appcache.NewCache(kvc))
		cfg.TTL = qrCacheTTL
		cfg.Skipper = func(c *gin.Context) bool {
			settings := service.NewSettingsService(c.Request.Context())

			return !settings.CachingEnabled(c.Request.Context())
		}

		middleware.CacheMiddleware(cfg)(c)
	}
}

// RegisterShareAPIRoutes 注册 /api/v1 下的分享信息路由.
func RegisterShareAPIRoutes(g *gin.RouterGroup) {
	g.GET("/s/:code", middleware.VisitorMiddleware(), handle.ShareInfo)
}
