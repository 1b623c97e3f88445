package service

import "errors"

// 业务错误哨兵，handler 层通过 errors.Is 映射为 HTTP 状态码.
var (
	// ErrNotFound 文件或分享码不存在.
	ErrNotFound = errors.New("file not found")
	// ErrExpired 文件已过期，等待回收.
	ErrExpired = errors.New("file expired")
	// ErrQuotaExceeded 下载额度已用尽.
	ErrQuotaExceeded = errors.New("download quota exceeded")
	// ErrSizeLimitExceeded 文件超过允许的最大大小.
	ErrSizeLimitExceeded = errors.New("file size limit exceeded")
	// ErrSessionNotFound 上传会话不存在或已终结.
	ErrSessionNotFound = errors.New("upload session not found")
	// ErrSessionIncomplete 分块未收齐，拒绝合并.
	ErrSessionIncomplete = errors.New("upload session incomplete")
	// ErrChunkedUploadDisabled 分块上传被运行时设置关闭.
	ErrChunkedUploadDisabled = errors.New("chunked upload disabled")
	// ErrValidation 请求参数非法.
	ErrValidation = errors.New("validation failed")
)
