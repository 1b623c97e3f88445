// Package handle 提供请求处理器的实现，负责解析 HTTP 请求并映射业务错误码.
package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/dropvault/pkg/configs"
	"github.com/yeisme/dropvault/pkg/internal/service"
)

// abortWithServiceError 将业务错误映射为 HTTP 状态码并终止请求.
func abortWithServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrExpired):
		status = http.StatusGone
	case errors.Is(err, service.ErrQuotaExceeded), errors.Is(err, service.ErrChunkedUploadDisabled):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrSizeLimitExceeded):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrSessionIncomplete):
		status = http.StatusConflict
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	}

	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// baseURL 返回生成分享链接使用的外部地址.
// 配置了 server.base_url 时优先，否则按请求的 Host 推断.
func baseURL(c *gin.Context) string {
	if u := configs.GetConfig().Server.BaseURL; u != "" {
		return u
	}

	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}

	return scheme + "://" + c.Request.Host
}
