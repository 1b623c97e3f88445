// Package api 汇总对外 HTTP 接口的注册入口.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/dropvault/pkg/configs"
	"github.com/yeisme/dropvault/pkg/internal/router"
)

// RegisterGroup 注册全部业务路由与静态资源到传入的 gin 引擎.
func RegisterGroup(e *gin.Engine) *gin.Engine {
	router.RegisterRoutes(e)

	// 横幅图片等静态资源
	e.Static("/static/uploads/banners", configs.GetConfig().Vault.BannerDir)

	return e
}
