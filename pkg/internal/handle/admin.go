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

// pagination 解析分页参数.
func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))

	if offset < 0 {
		offset = 0
	}

	return offset, limit
}

// GetSettings 查询运行时设置.
//
//	@Summary		查询运行时设置
//	@Tags			管理
//	@Produce		json
//	@Success		200	{object}	types.SettingsResponse	"当前设置"
//	@Security		BasicAuth
//	@Router			/api/v1/admin/settings [get]
func GetSettings(c *gin.Context) {
	settings := service.NewSettingsService(c.Request.Context())
	c.JSON(http.StatusOK, settings.View(c.Request.Context()))
}

// UpdateSettings 更新运行时设置.
//
//	@Summary		更新运行时设置
//	@Description	只更新请求中出现的字段，修改立即对后续请求生效，无需重启.
//	@Tags			管理
//	@Accept			json
//	@Produce		json
//	@Param			req	body		types.UpdateSettingsRequest	true	"设置变更"
//	@Success		200	{object}	types.SettingsResponse		"更新后的设置"
//	@Failure		400	{object}	map[string]string			"请求参数错误"
//	@Security		BasicAuth
//	@Router			/api/v1/admin/settings [put]
func UpdateSettings(c *gin.Context) {
	var req types.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	settings := service.NewSettingsService(c.Request.Context())
	if err := settings.Update(c.Request.Context(), &req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, settings.View(c.Request.Context()))
}

// ListFiles 文件列表.
//
//	@Summary		文件列表
//	@Tags			管理
//	@Produce		json
//	@Param			offset	query		int						false	"偏移"
//	@Param			limit	query		int						false	"页大小"
//	@Success		200		{object}	types.FileListResponse	"文件列表"
//	@Security		BasicAuth
//	@Router			/api/v1/admin/files [get]
func ListFiles(c *gin.Context) {
	offset, limit := pagination(c)

	svc := service.NewFileService(c.Request.Context())

	resp, err := svc.ListFiles(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteFile 删除单个文件. 操作幂等，对已删除的 ID 重复调用同样返回成功.
//
//	@Summary		删除文件
//	@Tags			管理
//	@Produce		json
//	@Param			id	path		string				true	"文件ID"
//	@Success		200	{object}	map[string]string	"已删除"
//	@Security		BasicAuth
//	@Router			/api/v1/admin/files/{id} [delete]
func DeleteFile(c *gin.Context) {
	svc := service.NewFileService(c.Request.Context())

	if err := svc.DeleteFile(c.Request.Context(), c.Param("id")); err != nil {
		abortWithServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "file deleted"})
}

// TriggerCleanup 手动触发一轮过期回收.
//
//	@Summary		触发过期回收
//	@Tags			管理
//	@Produce		json
//	@Success		200	{object}	types.CleanupResponse	"回收结果"
//	@Security		BasicAuth
//	@Router			/api/v1/admin/cleanup [post]
func TriggerCleanup(c *gin.Context) {
	l := log.Logger()

	svc := service.NewFileService(c.Request.Context())

	resp, err := svc.CleanupExpired(c.Request.Context())
	if err != nil {
		l.Error().Err(err).Msg("manual cleanup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, resp)
}

// PurgeVault 清空仓库.
//
//	@Summary		清空仓库
//	@Description	删除全部文件，无论是否过期. 不可恢复.
//	@Tags			管理
//	@Produce		json
//	@Success		200	{object}	types.CleanupResponse	"清空结果"
//	@Security		BasicAuth
//	@Router			/api/v1/admin/purge [post]
func PurgeVault(c *gin.Context) {
	svc := service.NewFileService(c.Request.Context())

	resp, err := svc.PurgeAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, resp)
}

// SiteStats 站点统计.
//
//	@Summary		站点统计
//	@Tags			管理
//	@Produce		json
//	@Success		200	{object}	types.SiteStatsResponse	"统计数据"
//	@Security		BasicAuth
//	@Router			/api/v1/admin/stats [get]
func SiteStats(c *gin.Context) {
	svc := service.NewFileService(c.Request.Context())

	resp, err := svc.SiteStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, resp)
}

// DownloadStats 下载审计列表.
//
//	@Summary		下载审计记录
//	@Tags			管理
//	@Produce		json
//	@Param			offset	query		int							false	"偏移"
//	@Param			limit	query		int							false	"页大小"
//	@Success		200		{object}	types.DownloadStatsResponse	"审计记录"
//	@Security		BasicAuth
//	@Router			/api/v1/admin/stats/downloads [get]
func DownloadStats(c *gin.Context) {
	offset, limit := pagination(c)

	svc := service.NewFileService(c.Request.Context())

	resp, err := svc.DownloadStats(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListVisitors 访客列表.
//
//	@Summary		访客列表
//	@Tags			管理
//	@Produce		json
//	@Param			offset	query		int						false	"偏移"
//	@Param			limit	query		int						false	"页大小"
//	@Success		200		{object}	types.VisitorsResponse	"访客列表"
//	@Security		BasicAuth
//	@Router			/api/v1/admin/stats/visitors [get]
func ListVisitors(c *gin.Context) {
	offset, limit := pagination(c)

	svc := service.NewFileService(c.Request.Context())

	resp, err := svc.ListVisitors(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListBanners 横幅列表（含停用项）.
//
//	@Summary		横幅列表
//	@Tags			管理
//	@Produce		json
//	@Success		200	{array}	types.BannerItem	"横幅列表"
//	@Security		BasicAuth
//	@Router			/api/v1/admin/banners [get]
func ListBanners(c *gin.Context) {
	svc := service.NewFileService(c.Request.Context())

	items, err := svc.ListBanners(c.Request.Context(), false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// CreateBanner 新建横幅.
//
//	@Summary		新建横幅
//	@Tags			管理
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image		formData	file				true	"横幅图片"
//	@Param			title		formData	string				false	"标题"
//	@Param			link_url	formData	string				false	"跳转链接"
//	@Param			sort_order	formData	int					false	"排序值"
//	@Success		200			{object}	model.Banner		"横幅"
//	@Failure		400			{object}	map[string]string	"请求参数错误"
//	@Security		BasicAuth
//	@Router			/api/v1/admin/banners [post]
func CreateBanner(c *gin.Context) {
	var req types.UpsertBannerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing image field"})

		return
	}

	src, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}
	defer src.Close()

	svc := service.NewFileService(c.Request.Context())

	banner, err := svc.CreateBanner(c.Request.Context(), &req, fh.Filename, src)
	if err != nil {
		abortWithServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, banner)
}

// UpdateBanner 更新横幅属性.
//
//	@Summary		更新横幅
//	@Tags			管理
//	@Accept			json
//	@Produce		json
//	@Param			id	path		int							true	"横幅ID"
//	@Param			req	body		types.UpsertBannerRequest	true	"横幅属性"
//	@Success		200	{object}	map[string]string			"已更新"
//	@Failure		404	{object}	map[string]string			"横幅不存在"
//	@Security		BasicAuth
//	@Router			/api/v1/admin/banners/{id} [put]
func UpdateBanner(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid banner id"})

		return
	}

	var req types.UpsertBannerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	svc := service.NewFileService(c.Request.Context())

	if err := svc.UpdateBanner(c.Request.Context(), uint(id), &req); err != nil {
		abortWithServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "banner updated"})
}

// DeleteBanner 删除横幅.
//
//	@Summary		删除横幅
//	@Tags			管理
//	@Produce		json
//	@Param			id	path		int					true	"横幅ID"
//	@Success		200	{object}	map[string]string	"已删除"
//	@Failure		404	{object}	map[string]string	"横幅不存在"
//	@Security		BasicAuth
//	@Router			/api/v1/admin/banners/{id} [delete]
func DeleteBanner(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid banner id"})

		return
	}

	svc := service.NewFileService(c.Request.Context())

	if err := svc.DeleteBanner(c.Request.Context(), uint(id)); err != nil {
		abortWithServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "banner deleted"})
}
