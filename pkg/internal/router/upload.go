package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/dropvault/pkg/internal/handle"
)

// RegisterUploadRoutes 注册上传相关路由.
func RegisterUploadRoutes(g *gin.RouterGroup) {
	uploadRoutes := g.Group("/upload")
	{
		// 单次上传
		uploadRoutes.POST("", handle.UploadFile)

		// 分块上传会话
		chunkedGroup := uploadRoutes.Group("/chunked")
		{
			chunkedGroup.POST("/init", handle.InitChunkedUpload)
			chunkedGroup.PUT("/:upload_id/:index", handle.UploadChunk)
			chunkedGroup.GET("/:upload_id", handle.ChunkSessionStatus)
			chunkedGroup.POST("/:upload_id/complete", handle.CompleteChunkedUpload)
			chunkedGroup.DELETE("/:upload_id", handle.AbortChunkedUpload)
		}
	}
}
