package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 文件生命周期领域 --------------------------

// FileRef 标识仓库中的一份文件及其基础元数据.
type FileRef struct {
	FileID      string `json:"file_id"`
	FileName    string `json:"file_name,omitempty"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	ShareCode   string `json:"share_code,omitempty"`
}

// FileStoredPayload 文件落库完成（单次上传或分块合并后）.
type FileStoredPayload struct {
	File FileRef `json:"file"`
	// Mode 上传方式：single 或 chunked.
	Mode      string    `json:"mode,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// FileDownloadedPayload 文件被成功下载.
type FileDownloadedPayload struct {
	File      FileRef `json:"file"`
	ClientIP  string  `json:"client_ip,omitempty"`
	UserAgent string  `json:"user_agent,omitempty"`
	BytesSent int64   `json:"bytes_sent,omitempty"`
	// Remaining 本次下载后剩余的下载额度.
	Remaining int `json:"remaining,omitempty"`
}

// FileDeletedPayload 文件被主动删除.
type FileDeletedPayload struct {
	File   FileRef `json:"file"`
	Reason string  `json:"reason,omitempty"`
}

// FileEvictedPayload 文件被回收器清理.
type FileEvictedPayload struct {
	File FileRef `json:"file"`
	// Reason 回收原因：expired 或 quota_exhausted.
	Reason     string    `json:"reason,omitempty"`
	ExpiredAt  time.Time `json:"expired_at,omitempty"`
	FreedBytes int64     `json:"freed_bytes,omitempty"`
}

// -------------------------- 分块上传会话领域 --------------------------

// UploadSessionCreatedPayload 分块上传会话建立.
type UploadSessionCreatedPayload struct {
	UploadID    string `json:"upload_id"`
	FileName    string `json:"file_name,omitempty"`
	TotalChunks int    `json:"total_chunks"`
	TotalSize   int64  `json:"total_size,omitempty"`
}

// UploadSessionMergedPayload 会话分块合并完成.
type UploadSessionMergedPayload struct {
	UploadID string  `json:"upload_id"`
	File     FileRef `json:"file"`
	// MergeMillis 合并耗时（毫秒），用于观测大文件装配性能.
	MergeMillis int64 `json:"merge_millis,omitempty"`
}

// UploadSessionFailedPayload 会话合并失败或被放弃.
type UploadSessionFailedPayload struct {
	UploadID string `json:"upload_id"`
	Error    string `json:"error"`
}
