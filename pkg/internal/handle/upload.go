package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/dropvault/pkg/internal/service"
	"github.com/yeisme/dropvault/pkg/internal/types"
	"github.com/yeisme/dropvault/pkg/log"
	"github.com/yeisme/dropvault/pkg/rule"
)

// UploadFile 单次上传.
//
//	@Summary		上传文件
//	@Description	multipart 单次上传，成功后返回分享码与下载地址. 可选 expire_days、download_limit 覆盖默认策略.
//	@Tags			上传
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file			formData	file						true	"文件内容"
//	@Param			expire_days		formData	int							false	"保存天数"
//	@Param			download_limit	formData	int							false	"下载额度"
//	@Success		200				{object}	types.UploadFileResponse	"上传结果"
//	@Failure		400				{object}	map[string]string			"请求参数错误"
//	@Failure		413				{object}	map[string]string			"文件超过大小限制"
//	@Router			/api/v1/upload [post]
func UploadFile(c *gin.Context) {
	l := log.Logger()

	var opts types.UploadOptions
	if err := c.ShouldBind(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if err := rule.ValidateStruct(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})

		return
	}

	src, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}
	defer src.Close()

	svc := service.NewFileService(c.Request.Context())

	f, err := svc.SaveSingle(c.Request.Context(), fh.Filename, fh.Header.Get("Content-Type"), fh.Size, src, opts)
	if err != nil {
		l.Warn().Err(err).Str("file_name", fh.Filename).Msg("single upload failed")
		abortWithServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, types.UploadFileResponse{
		FileID:        f.ID,
		FileName:      f.FileName,
		Size:          f.Size,
		ContentType:   f.ContentType,
		ShareCode:     f.ShareCode,
		ShareURL:      baseURL(c) + "/s/" + f.ShareCode,
		DownloadLimit: f.DownloadLimit,
		ExpiresAt:     f.ExpiresAt,
	})
}

// InitChunkedUpload 建立分块上传会话.
//
//	@Summary		建立分块上传会话
//	@Description	声明文件名与分块总数，返回 upload_id 与服务端建议的分块大小.
//	@Tags			上传
//	@Accept			json
//	@Produce		json
//	@Param			req	body		types.InitChunkedUploadRequest		true	"会话参数"
//	@Success		200	{object}	types.InitChunkedUploadResponse	"会话信息"
//	@Failure		400	{object}	map[string]string					"请求参数错误"
//	@Failure		403	{object}	map[string]string					"分块上传已停用"
//	@Router			/api/v1/upload/chunked/init [post]
func InitChunkedUpload(c *gin.Context) {
	var req types.InitChunkedUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	svc := service.NewFileService(c.Request.Context())

	resp, err := svc.InitChunkedUpload(c.Request.Context(), &req)
	if err != nil {
		abortWithServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// UploadChunk 接收单个分块.
//
//	@Summary		上传分块
//	@Description	请求体为分块原始字节. 分块可乱序、可并发上传，重传覆盖整块.
//	@Tags			上传
//	@Accept			application/octet-stream
//	@Produce		json
//	@Param			upload_id	path		string						true	"会话ID"
//	@Param			index		path		int							true	"分块序号，从0开始"
//	@Success		200			{object}	types.ChunkUploadResponse	"接收进度"
//	@Failure		400			{object}	map[string]string			"分块序号非法"
//	@Failure		404			{object}	map[string]string			"会话不存在"
//	@Router			/api/v1/upload/chunked/{upload_id}/{index} [put]
func UploadChunk(c *gin.Context) {
	uploadID := c.Param("upload_id")

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chunk index"})

		return
	}

	svc := service.NewFileService(c.Request.Context())

	resp, err := svc.PutChunk(c.Request.Context(), uploadID, index, c.Request.Body)
	if err != nil {
		abortWithServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// ChunkSessionStatus 查询会话进度.
//
//	@Summary		查询分块会话进度
//	@Tags			上传
//	@Produce		json
//	@Param			upload_id	path		string						true	"会话ID"
//	@Success		200			{object}	types.SessionStatusResponse	"进度"
//	@Failure		404			{object}	map[string]string			"会话不存在"
//	@Router			/api/v1/upload/chunked/{upload_id} [get]
func ChunkSessionStatus(c *gin.Context) {
	svc := service.NewFileService(c.Request.Context())

	resp, err := svc.SessionStatus(c.Request.Context(), c.Param("upload_id"))
	if err != nil {
		abortWithServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// CompleteChunkedUpload 触发分块合并.
//
//	@Summary		完成分块上传
//	@Description	所有分块收齐后调用，服务端并行装配为最终文件并返回分享信息.
//	@Tags			上传
//	@Accept			json
//	@Produce		json
//	@Param			upload_id	path		string						true	"会话ID"
//	@Param			req			body		types.CompleteUploadRequest	false	"可选策略参数"
//	@Success		200			{object}	types.UploadFileResponse	"上传结果"
//	@Failure		404			{object}	map[string]string			"会话不存在"
//	@Failure		409			{object}	map[string]string			"分块未收齐"
//	@Router			/api/v1/upload/chunked/{upload_id}/complete [post]
func CompleteChunkedUpload(c *gin.Context) {
	l := log.Logger()

	var req types.CompleteUploadRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}
	}

	svc := service.NewFileService(c.Request.Context())

	f, err := svc.CompleteChunkedUpload(c.Request.Context(), c.Param("upload_id"), req.UploadOptions)
	if err != nil {
		l.Warn().Err(err).Str("upload_id", c.Param("upload_id")).Msg("complete chunked upload failed")
		abortWithServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, types.UploadFileResponse{
		FileID:        f.ID,
		FileName:      f.FileName,
		Size:          f.Size,
		ContentType:   f.ContentType,
		ShareCode:     f.ShareCode,
		ShareURL:      baseURL(c) + "/s/" + f.ShareCode,
		DownloadLimit: f.DownloadLimit,
		ExpiresAt:     f.ExpiresAt,
	})
}

// AbortChunkedUpload 放弃分块上传会话.
//
//	@Summary		放弃分块上传
//	@Tags			上传
//	@Produce		json
//	@Param			upload_id	path		string				true	"会话ID"
//	@Success		200			{object}	map[string]string	"已放弃"
//	@Failure		404			{object}	map[string]string	"会话不存在"
//	@Router			/api/v1/upload/chunked/{upload_id} [delete]
func AbortChunkedUpload(c *gin.Context) {
	svc := service.NewFileService(c.Request.Context())

	if err := svc.AbortUpload(c.Request.Context(), c.Param("upload_id")); err != nil {
		abortWithServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "upload aborted"})
}
