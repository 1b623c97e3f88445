// Package types 定义 HTTP 接口的请求与响应结构.
package types

import "time"

// UploadOptions 上传时可覆盖的策略参数，未填时使用运行时设置的默认值.
type UploadOptions struct {
	// ExpireDays 保存天数，过期后文件被回收.
	ExpireDays int `form:"expire_days"    json:"expire_days,omitempty"    rule:"omitempty,min=1,max=365"`
	// DownloadLimit 下载额度，用尽后拒绝下载.
	DownloadLimit int `form:"download_limit" json:"download_limit,omitempty" rule:"omitempty,min=1,max=10000"`
}

// UploadFileResponse 单次上传响应.
type UploadFileResponse struct {
	FileID        string    `json:"file_id"`
	FileName      string    `json:"file_name"`
	Size          int64     `json:"size"`
	ContentType   string    `json:"content_type,omitempty"`
	ShareCode     string    `json:"share_code"`
	ShareURL      string    `json:"share_url"`
	DownloadLimit int       `json:"download_limit"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// InitChunkedUploadRequest 建立分块上传会话请求.
type InitChunkedUploadRequest struct {
	FileName    string `json:"file_name"    rule:"required,max=512"`
	TotalChunks int    `json:"total_chunks" rule:"required,min=1,max=100000"`
	TotalSize   int64  `json:"total_size"   rule:"omitempty,min=0"`
	ContentType string `json:"content_type" rule:"omitempty,max=255"`
}

// InitChunkedUploadResponse 会话建立响应.
type InitChunkedUploadResponse struct {
	UploadID string `json:"upload_id"`
	// ChunkSize 服务端建议的分块大小（字节）.
	ChunkSize   int64 `json:"chunk_size"`
	TotalChunks int   `json:"total_chunks"`
}

// ChunkUploadResponse 单个分块接收响应.
type ChunkUploadResponse struct {
	UploadID    string `json:"upload_id"`
	Index       int    `json:"index"`
	Size        int64  `json:"size"`
	Received    int    `json:"received"`
	TotalChunks int    `json:"total_chunks"`
	Complete    bool   `json:"complete"`
}

// SessionStatusResponse 会话进度查询响应.
type SessionStatusResponse struct {
	UploadID    string `json:"upload_id"`
	Status      string `json:"status"`
	FileName    string `json:"file_name"`
	Received    []int  `json:"received"`
	TotalChunks int    `json:"total_chunks"`
	Complete    bool   `json:"complete"`
}

// CompleteUploadRequest 触发分块合并请求.
type CompleteUploadRequest struct {
	UploadOptions
}
