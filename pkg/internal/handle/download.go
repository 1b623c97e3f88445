package handle

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/yeisme/dropvault/pkg/internal/service"
	"github.com/yeisme/dropvault/pkg/log"
	"github.com/yeisme/dropvault/pkg/rule"
)

const qrCodeSize = 256

// validShareCode 分享码格式不符时直接按不存在处理，不查库.
func validShareCode(code string) bool {
	return rule.ValidateVar(code, "sharecode") == nil
}

// ShareInfo 分享页信息.
//
//	@Summary		查询分享信息
//	@Description	按分享码返回文件名、大小、剩余额度与下载地址，不消耗下载额度.
//	@Tags			分享
//	@Produce		json
//	@Param			code	path		string					true	"分享码"
//	@Success		200		{object}	types.ShareInfoResponse	"分享信息"
//	@Failure		404		{object}	map[string]string		"分享码不存在"
//	@Failure		410		{object}	map[string]string		"文件已过期"
//	@Router			/api/v1/s/{code} [get]
func ShareInfo(c *gin.Context) {
	code := c.Param("code")
	if !validShareCode(code) {
		abortWithServiceError(c, service.ErrNotFound)

		return
	}

	svc := service.NewFileService(c.Request.Context())

	info, err := svc.ShareInfo(c.Request.Context(), code, baseURL(c))
	if err != nil {
		abortWithServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, info)
}

// ShareQRCode 分享二维码.
//
//	@Summary		分享二维码
//	@Description	返回指向分享页的二维码 PNG 图片.
//	@Tags			分享
//	@Produce		png
//	@Param			code	path		string				true	"分享码"
//	@Success		200		{file}		file				"PNG图片"
//	@Failure		404		{object}	map[string]string	"分享码不存在"
//	@Router			/s/{code}/qrcode [get]
func ShareQRCode(c *gin.Context) {
	code := c.Param("code")
	if !validShareCode(code) {
		abortWithServiceError(c, service.ErrNotFound)

		return
	}

	svc := service.NewFileService(c.Request.Context())

	// 只为有效分享生成二维码
	if _, err := svc.LookupByCode(c.Request.Context(), code); err != nil {
		abortWithServiceError(c, err)

		return
	}

	png, err := qrcode.Encode(baseURL(c)+"/s/"+code, qrcode.Medium, qrCodeSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}

// BannerClick 横幅点击跳转.
//
//	@Summary		横幅点击
//	@Description	累计一次点击后 302 跳转到横幅链接；横幅未配置链接时返回 204.
//	@Tags			分享
//	@Param			id	path		int					true	"横幅ID"
//	@Success		302	{string}	string				"跳转"
//	@Success		204	{string}	string				"无链接"
//	@Failure		404	{object}	map[string]string	"横幅不存在"
//	@Router			/b/{id} [get]
func BannerClick(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid banner id"})

		return
	}

	svc := service.NewFileService(c.Request.Context())

	link, err := svc.ClickBanner(c.Request.Context(), uint(id))
	if err != nil {
		abortWithServiceError(c, err)

		return
	}

	if link == "" {
		c.Status(http.StatusNoContent)

		return
	}

	c.Redirect(http.StatusFound, link)
}

// escapeDispositionName 转义 Content-Disposition 中的危险字符.
func escapeDispositionName(s string) string {
	replacer := strings.NewReplacer("\\", "_", "\"", "_", ";", "_", "\n", "_", "\r", "_")

	return replacer.Replace(s)
}

// DownloadFile 下载文件流.
//
//	@Summary		下载文件
//	@Description	按分享码流式下载. 每次成功开始传输消耗一次下载额度；过期或额度用尽时拒绝.
//	@Tags			下载
//	@Produce		application/octet-stream
//	@Param			code	path		string				true	"分享码"
//	@Success		200		{file}		file				"文件流"
//	@Failure		403		{object}	map[string]string	"下载额度已用尽"
//	@Failure		404		{object}	map[string]string	"分享码不存在"
//	@Failure		410		{object}	map[string]string	"文件已过期"
//	@Router			/d/{code} [get]
func DownloadFile(c *gin.Context) {
	code := c.Param("code")
	if !validShareCode(code) {
		abortWithServiceError(c, service.ErrNotFound)

		return
	}

	l := log.Logger()

	svc := service.NewFileService(c.Request.Context())

	stream, err := svc.OpenDownload(c.Request.Context(), code)
	if err != nil {
		abortWithServiceError(c, err)

		return
	}
	defer stream.Close()

	f := stream.File

	// 大文件传输需要比服务器默认值更长的写超时窗口
	timeout := time.Duration(svc.Settings().ConnectionTimeoutSeconds(c.Request.Context())) * time.Second
	rc := http.NewResponseController(c.Writer)
	_ = rc.SetWriteDeadline(time.Now().Add(timeout))

	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Type", contentType)
	c.Header("Content-Length", strconv.FormatInt(f.Size, 10))
	c.Header("Content-Disposition", "attachment; filename=\""+escapeDispositionName(f.FileName)+"\"")
	c.Header("X-Share-Code", f.ShareCode)

	sent, copyErr := io.Copy(c.Writer, stream)
	if copyErr != nil {
		// 客户端中断传输不回滚额度
		l.Warn().Err(copyErr).Str("file_id", f.ID).Int64("sent", sent).Msg("download interrupted")
	}

	svc.FinishDownload(f, c.ClientIP(), c.Request.UserAgent(), sent)
}
